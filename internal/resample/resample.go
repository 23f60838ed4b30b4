// Package resample buckets raw point samples into fixed-width time windows.
//
// Bucket boundaries are aligned to a fixed epoch that does not depend on the
// data: the Unix epoch for minute, hour and day buckets, and Monday
// 1970-01-05 UTC for week buckets. Resampling the same point alone or
// together with other points therefore always yields the same boundaries.
//
// Only buckets that received samples are emitted. A bucket holding fewer
// samples than Options.MinCount is dropped rather than reported as zero.
package resample

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

var (
	ErrInvalidUnit    = errors.New("invalid bucket unit")
	ErrInvalidRule    = errors.New("invalid aggregation rule")
	ErrInvalidOptions = errors.New("invalid resample options")
)

// MaxDigits bounds the rounding precision.
const MaxDigits = 15

// Unit is the base width of a bucket.
type Unit string

const (
	Minute Unit = "minute"
	Hour   Unit = "hour"
	Day    Unit = "day"
	Week   Unit = "week"
)

var (
	unixEpoch = time.Unix(0, 0).UTC()
	weekEpoch = time.Date(1970, time.January, 5, 0, 0, 0, 0, time.UTC)
)

// ParseUnit accepts unit names and the short resampling codes T, min, H, D and W.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "t", "min", "minute":
		return Minute, nil
	case "h", "hour":
		return Hour, nil
	case "d", "day":
		return Day, nil
	case "w", "week":
		return Week, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidUnit, s)
}

// Duration returns the width of a single unit.
func (u Unit) Duration() time.Duration {
	switch u {
	case Minute:
		return time.Minute
	case Hour:
		return time.Hour
	case Day:
		return 24 * time.Hour
	case Week:
		return 7 * 24 * time.Hour
	}
	return 0
}

func (u Unit) epoch() time.Time {
	if u == Week {
		return weekEpoch
	}
	return unixEpoch
}

// BucketStart returns the left edge of the bucket that contains t.
func BucketStart(t time.Time, u Unit, multiplier int) time.Time {
	width := u.Duration() * time.Duration(multiplier)
	epoch := u.epoch()
	offset := t.Sub(epoch)
	n := offset / width
	if offset%width < 0 {
		n--
	}
	return epoch.Add(n * width)
}

// Rule is an aggregation applied to the samples of one bucket.
type Rule string

const (
	Mean Rule = "mean"
	Sum  Rule = "sum"
	Min  Rule = "min"
	Max  Rule = "max"
)

// ParseRule accepts rule names case-insensitively; avg and average mean Mean.
func ParseRule(s string) (Rule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mean", "avg", "average":
		return Mean, nil
	case "sum":
		return Sum, nil
	case "min":
		return Min, nil
	case "max":
		return Max, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRule, s)
}

// Rules maps a lower-cased measurement type to its aggregation rule.
type Rules map[string]Rule

// DefaultRules sums rainfall and averages everything else.
func DefaultRules() Rules {
	return Rules{
		"rainfall":       Sum,
		"rainfall depth": Sum,
	}
}

// ParseRules converts a name -> rule table as found in configuration.
func ParseRules(raw map[string]string) (Rules, error) {
	rules := make(Rules, len(raw))
	for mtype, name := range raw {
		rule, err := ParseRule(name)
		if err != nil {
			return nil, fmt.Errorf("rule for %q: %w", mtype, err)
		}
		rules[strings.ToLower(strings.TrimSpace(mtype))] = rule
	}
	return rules, nil
}

// For returns the rule for mtype, falling back to Mean.
func (r Rules) For(mtype string) Rule {
	if rule, ok := r[strings.ToLower(mtype)]; ok {
		return rule
	}
	return Mean
}

// Merge returns a copy of r with overrides applied on top.
func (r Rules) Merge(overrides Rules) Rules {
	merged := make(Rules, len(r)+len(overrides))
	for k, v := range r {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[strings.ToLower(k)] = v
	}
	return merged
}

// Sample is one timestamped value of a keyed series (a point).
type Sample struct {
	Key   int64     `json:"key"`
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Options controls a resampling pass.
type Options struct {
	Unit       Unit
	Multiplier int
	Rule       Rule
	Digits     int
	// MinCount is the smallest number of samples a bucket needs to be
	// emitted. Zero disables the check.
	MinCount int
}

// Validate checks the options without touching any data.
func (o Options) Validate() error {
	if o.Unit.Duration() == 0 {
		return fmt.Errorf("%w: %q", ErrInvalidUnit, o.Unit)
	}
	if _, err := ParseRule(string(o.Rule)); err != nil {
		return err
	}
	if o.Multiplier < 1 {
		return fmt.Errorf("%w: multiplier must be at least 1, got %d", ErrInvalidOptions, o.Multiplier)
	}
	if limit := int64(math.MaxInt64 / o.Unit.Duration()); int64(o.Multiplier) > limit {
		return fmt.Errorf("%w: multiplier must be at most %d for %s buckets, got %d", ErrInvalidOptions, limit, o.Unit, o.Multiplier)
	}
	if o.Digits < 0 || o.Digits > MaxDigits {
		return fmt.Errorf("%w: digits must be between 0 and %d, got %d", ErrInvalidOptions, MaxDigits, o.Digits)
	}
	if o.MinCount < 0 {
		return fmt.Errorf("%w: min count must not be negative, got %d", ErrInvalidOptions, o.MinCount)
	}
	return nil
}

type bucketKey struct {
	key   int64
	start int64
}

type accumulator struct {
	count int
	sum   float64
	min   float64
	max   float64
}

func (a *accumulator) add(v float64) {
	if a.count == 0 || v < a.min {
		a.min = v
	}
	if a.count == 0 || v > a.max {
		a.max = v
	}
	a.count++
	a.sum += v
}

func (a *accumulator) value(rule Rule) float64 {
	switch rule {
	case Sum:
		return a.sum
	case Min:
		return a.min
	case Max:
		return a.max
	}
	return a.sum / float64(a.count)
}

// Resample aggregates samples per key into buckets of opts.Multiplier x
// opts.Unit. The result is ordered by key, then bucket start. NaN values are
// ignored and do not count towards MinCount.
func Resample(samples []Sample, opts Options) ([]Sample, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	rule, _ := ParseRule(string(opts.Rule))
	minCount := opts.MinCount
	if minCount < 1 {
		minCount = 1
	}

	buckets := make(map[bucketKey]*accumulator)
	for _, s := range samples {
		if math.IsNaN(s.Value) {
			continue
		}
		start := BucketStart(s.Time, opts.Unit, opts.Multiplier)
		k := bucketKey{key: s.Key, start: start.UnixNano()}
		acc, ok := buckets[k]
		if !ok {
			acc = &accumulator{}
			buckets[k] = acc
		}
		acc.add(s.Value)
	}

	out := make([]Sample, 0, len(buckets))
	for k, acc := range buckets {
		if acc.count < minCount {
			continue
		}
		out = append(out, Sample{
			Key:   k.key,
			Time:  time.Unix(0, k.start).UTC(),
			Value: Round(acc.value(rule), opts.Digits),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Key != out[j].Key {
			return out[i].Key < out[j].Key
		}
		return out[i].Time.Before(out[j].Time)
	})
	return out, nil
}

// Round rounds v half away from zero to the given number of decimals.
// Values too large to scale are returned unchanged.
func Round(v float64, digits int) float64 {
	p := math.Pow10(digits)
	scaled := v * p
	if math.IsInf(scaled, 0) {
		return v
	}
	return math.Round(scaled) / p
}
