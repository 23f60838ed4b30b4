package hydrotel

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument marks caller mistakes: malformed selectors, bad
	// dates or bucket settings, unknown reference points and duplicate
	// measurement type names.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrObjectNotFound is returned when a freshly inserted object cannot be
	// read back by name.
	ErrObjectNotFound = errors.New("object not found")
)

// Selector picks measurement types or external site ids. The zero value
// selects everything.
type Selector struct {
	restricted bool
	values     []string
}

// All selects every value.
func All() Selector {
	return Selector{}
}

// One selects a single value.
func One(value string) Selector {
	return Selector{restricted: true, values: []string{value}}
}

// Many selects the given values. Many() with no values selects nothing.
func Many(values ...string) Selector {
	return Selector{restricted: true, values: append([]string{}, values...)}
}

// IsAll reports whether the selector is unrestricted.
func (s Selector) IsAll() bool {
	return !s.restricted
}

// Values returns the selected values, trimmed. It is nil for All.
func (s Selector) Values() []string {
	if !s.restricted {
		return nil
	}
	out := make([]string, len(s.values))
	for i, v := range s.values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

// lowered returns the values lower-cased, for measurement type matching.
func (s Selector) lowered() []string {
	values := s.Values()
	for i, v := range values {
		values[i] = strings.ToLower(v)
	}
	return values
}

func (s Selector) set() map[string]bool {
	values := s.Values()
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func (s Selector) String() string {
	if !s.restricted {
		return "*"
	}
	return "[" + strings.Join(s.values, ",") + "]"
}

// SelectorFromValue converts a loosely typed value, as decoded from JSON or a
// protobuf Struct, into a Selector: nil selects all, a string selects one, a
// list of strings selects many. Anything else is an ErrInvalidArgument.
func SelectorFromValue(name string, v any) (Selector, error) {
	switch x := v.(type) {
	case nil:
		return All(), nil
	case string:
		return One(x), nil
	case []string:
		return Many(x...), nil
	case []any:
		values := make([]string, len(x))
		for i, item := range x {
			s, ok := item.(string)
			if !ok {
				return Selector{}, fmt.Errorf("%w: %s must be a string, a list of strings or null; item %d is %T", ErrInvalidArgument, name, i, item)
			}
			values[i] = s
		}
		return Many(values...), nil
	}
	return Selector{}, fmt.Errorf("%w: %s must be a string, a list of strings or null; got %T", ErrInvalidArgument, name, v)
}
