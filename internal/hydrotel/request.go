package hydrotel

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/tejusbharadwaj/hydrotel/internal/resample"
)

// Parameter names shared by the transports.
const (
	ParamMTypes     = "mtypes"
	ParamSites      = "sites"
	ParamFrom       = "from"
	ParamTo         = "to"
	ParamBucket     = "bucket"
	ParamMultiplier = "multiplier"
	ParamRounding   = "rounding"
	ParamMinCount   = "min_count"
	ParamPivot      = "pivot"
	ParamRules      = "rules"
)

// FetchRequestFromValues builds a FetchRequest from loosely typed values as
// decoded from JSON, a protobuf Struct or a query string. Missing values take
// the NewFetchRequest defaults. Relative dates are resolved against now.
func FetchRequestFromValues(values map[string]any, now time.Time) (FetchRequest, error) {
	mtypes, err := SelectorFromValue(ParamMTypes, values[ParamMTypes])
	if err != nil {
		return FetchRequest{}, err
	}
	sites, err := SelectorFromValue(ParamSites, values[ParamSites])
	if err != nil {
		return FetchRequest{}, err
	}
	req := NewFetchRequest(mtypes, sites)

	if req.From, err = dateValue(ParamFrom, values[ParamFrom], now); err != nil {
		return FetchRequest{}, err
	}
	if req.To, err = dateValue(ParamTo, values[ParamTo], now); err != nil {
		return FetchRequest{}, err
	}

	if v, ok := present(values, ParamBucket); ok {
		s, ok := v.(string)
		if !ok {
			return FetchRequest{}, fmt.Errorf("%w: %s must be a string", ErrInvalidArgument, ParamBucket)
		}
		if req.Unit, err = resample.ParseUnit(s); err != nil {
			return FetchRequest{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
	}

	for name, dst := range map[string]*int{
		ParamMultiplier: &req.Multiplier,
		ParamRounding:   &req.Digits,
		ParamMinCount:   &req.MinCount,
	} {
		v, ok := present(values, name)
		if !ok {
			continue
		}
		if *dst, err = IntValue(name, v); err != nil {
			return FetchRequest{}, err
		}
	}

	if v, ok := present(values, ParamPivot); ok {
		pivot, err := cast.ToBoolE(v)
		if err != nil {
			return FetchRequest{}, fmt.Errorf("%w: %s must be a boolean", ErrInvalidArgument, ParamPivot)
		}
		req.Pivot = pivot
	}

	if v, ok := present(values, ParamRules); ok {
		raw, err := cast.ToStringMapStringE(v)
		if err != nil {
			return FetchRequest{}, fmt.Errorf("%w: %s must map measurement types to rule names", ErrInvalidArgument, ParamRules)
		}
		if req.Rules, err = resample.ParseRules(raw); err != nil {
			return FetchRequest{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
	}

	return req, req.Validate()
}

// IntValue reads a whole number given as a JSON number or a decimal string.
func IntValue(name string, v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x != math.Trunc(x) || x >= math.MaxInt64 || x <= math.MinInt64 {
			return 0, fmt.Errorf("%w: %s must be a whole number, got %v", ErrInvalidArgument, name, x)
		}
		return int(x), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be a whole number, got %q", ErrInvalidArgument, name, x)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: %s must be a whole number, got %T", ErrInvalidArgument, name, v)
}

func dateValue(name string, v any, now time.Time) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a date string", ErrInvalidArgument, name)
	}
	return ParseDate(s, now)
}

// present treats nil and empty strings as absent.
func present(values map[string]any, name string) (any, bool) {
	v, ok := values[name]
	if !ok || v == nil {
		return nil, false
	}
	if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}
