//go:generate go run github.com/golang/mock/mockgen -destination=./mocks/store.go -package=mocks . TabularStore

// Package database implements the tabular store the Hydrotel core reads from.
//
// The store is generic: it reads rows of named tables with
// simple IN filters, runs literal aggregate statements, reads keyed time
// series and appends rows. It knows nothing about sites, objects or points.
//
// Example usage:
//
//	store, err := database.Open(ctx, "postgres", "host=localhost dbname=hydrotel sslmode=disable", 10)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	rows, err := store.ReadRows(ctx, "Points", []string{"Point", "Object"},
//	    database.Filter{database.In("Object", int64(12), int64(13))})
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/tejusbharadwaj/hydrotel/internal/resample"
)

var (
	ErrMissingColumn = errors.New("missing column")
	ErrNullValue     = errors.New("null value")
)

// TabularStore defines the operations the Hydrotel core needs from storage.
//
// Implementations add no retry or recovery logic; failures are returned to
// the caller with the underlying driver error wrapped.
type TabularStore interface {
	// ReadRows returns the given columns of table for rows matching every
	// condition of filter. A nil or empty columns slice selects all columns.
	// A condition with no values matches nothing.
	ReadRows(ctx context.Context, table string, columns []string, filter Filter) ([]Row, error)

	// ReadRaw executes a literal read-only statement, typically an
	// aggregate or grouping query built by the caller.
	ReadRaw(ctx context.Context, statement string) ([]Row, error)

	// ReadTimeSeries reads the raw samples of q.Keys inside [q.From, q.To]
	// and resamples them according to q. Either bound may be nil.
	ReadTimeSeries(ctx context.Context, q TimeSeriesQuery) ([]resample.Sample, error)

	// WriteRows appends rows to table. Generated keys are not returned.
	WriteRows(ctx context.Context, table string, rows []Row) error
}

// Condition restricts a column to a set of accepted values.
type Condition struct {
	Column string
	Values []any
	// FoldCase compares lower-cased column values with lower-cased
	// string values.
	FoldCase bool
}

// Filter is a conjunction of conditions.
type Filter []Condition

// In builds an exact-match condition.
func In(column string, values ...any) Condition {
	return Condition{Column: column, Values: values}
}

// InFold builds a case-insensitive condition over string values.
func InFold(column string, values ...string) Condition {
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = strings.ToLower(v)
	}
	return Condition{Column: column, Values: vals, FoldCase: true}
}

// Keys converts integer keys to condition values.
func Keys(keys []int64) []any {
	vals := make([]any, len(keys))
	for i, k := range keys {
		vals[i] = k
	}
	return vals
}

// TimeSeriesQuery describes a keyed, resampled time series read.
type TimeSeriesQuery struct {
	Table       string
	KeyColumn   string
	TimeColumn  string
	ValueColumn string

	Unit       resample.Unit
	Multiplier int
	Rule       resample.Rule
	Digits     int
	MinCount   int

	Keys []int64
	From *time.Time
	To   *time.Time
}

// Options returns the resampling part of the query.
func (q TimeSeriesQuery) Options() resample.Options {
	return resample.Options{
		Unit:       q.Unit,
		Multiplier: q.Multiplier,
		Rule:       q.Rule,
		Digits:     q.Digits,
		MinCount:   q.MinCount,
	}
}

// Row is one result row keyed by lower-cased column name.
type Row map[string]any

// NewRow copies m into a Row, lower-casing the keys.
func NewRow(m map[string]any) Row {
	row := make(Row, len(m))
	for k, v := range m {
		row[strings.ToLower(k)] = v
	}
	return row
}

// Get looks a column up case-insensitively.
func (r Row) Get(column string) (any, bool) {
	v, ok := r[strings.ToLower(column)]
	return v, ok
}

// Set assigns a column value.
func (r Row) Set(column string, value any) {
	r[strings.ToLower(column)] = value
}

// Clone returns a shallow copy of r without the given columns.
func (r Row) Clone(without ...string) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	for _, col := range without {
		delete(out, strings.ToLower(col))
	}
	return out
}

func (r Row) value(column string) (any, error) {
	v, ok := r.Get(column)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, column)
	}
	if v == nil {
		return nil, fmt.Errorf("%w: %s", ErrNullValue, column)
	}
	if b, ok := v.([]byte); ok {
		return string(b), nil
	}
	return v, nil
}

// Int64 returns a non-null integer column.
func (r Row) Int64(column string) (int64, error) {
	v, err := r.value(column)
	if err != nil {
		return 0, err
	}
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", column, err)
	}
	return n, nil
}

// Float64 returns a non-null numeric column.
func (r Row) Float64(column string) (float64, error) {
	v, err := r.value(column)
	if err != nil {
		return 0, err
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", column, err)
	}
	return f, nil
}

// String returns a text column; null or missing values read as "".
func (r Row) String(column string) string {
	v, err := r.value(column)
	if err != nil {
		return ""
	}
	return cast.ToString(v)
}

// Time returns a timestamp column, or nil when the value is null.
func (r Row) Time(column string) (*time.Time, error) {
	v, err := r.value(column)
	if errors.Is(err, ErrNullValue) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t, err := cast.ToTimeE(v)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", column, err)
	}
	return &t, nil
}
