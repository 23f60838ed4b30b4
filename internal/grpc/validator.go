package server

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tejusbharadwaj/hydrotel/internal/hydrotel"
)

// RequestValidator turns Struct requests into typed calls.
type RequestValidator struct {
	now func() time.Time
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{now: time.Now}
}

// ResolveArgs is a validated ResolveSites request.
type ResolveArgs struct {
	MTypes hydrotel.Selector
	Sites  hydrotel.Selector
}

// CreateArgs is a validated CreateMeasurementType request.
type CreateArgs struct {
	Site           string
	ReferencePoint int64
	Name           string
}

func fields(req *structpb.Struct) map[string]any {
	if req == nil {
		return map[string]any{}
	}
	return req.AsMap()
}

// Resolve validates the mtypes and sites selectors.
func (v *RequestValidator) Resolve(req *structpb.Struct) (ResolveArgs, error) {
	values := fields(req)

	mtypes, err := hydrotel.SelectorFromValue(hydrotel.ParamMTypes, values[hydrotel.ParamMTypes])
	if err != nil {
		return ResolveArgs{}, err
	}
	sites, err := hydrotel.SelectorFromValue(hydrotel.ParamSites, values[hydrotel.ParamSites])
	if err != nil {
		return ResolveArgs{}, err
	}
	return ResolveArgs{MTypes: mtypes, Sites: sites}, nil
}

// Fetch validates a time series request. Relative dates are resolved
// against the validator's clock.
func (v *RequestValidator) Fetch(req *structpb.Struct) (hydrotel.FetchRequest, error) {
	return hydrotel.FetchRequestFromValues(fields(req), v.now())
}

// Create validates a measurement type creation request.
func (v *RequestValidator) Create(req *structpb.Struct) (CreateArgs, error) {
	values := fields(req)

	site, ok := values["site"].(string)
	if !ok || strings.TrimSpace(site) == "" {
		return CreateArgs{}, fmt.Errorf("%w: site is required", hydrotel.ErrInvalidArgument)
	}

	name, ok := values["name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return CreateArgs{}, fmt.Errorf("%w: name is required", hydrotel.ErrInvalidArgument)
	}

	raw, ok := values["reference_point"]
	if !ok || raw == nil {
		return CreateArgs{}, fmt.Errorf("%w: reference_point is required", hydrotel.ErrInvalidArgument)
	}
	point, err := hydrotel.IntValue("reference_point", raw)
	if err != nil {
		return CreateArgs{}, err
	}

	return CreateArgs{Site: site, ReferencePoint: int64(point), Name: name}, nil
}
