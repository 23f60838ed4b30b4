package hydrotel

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sosodev/duration"
)

// Hydrotel tables and columns. Row lookups are case-insensitive, so the
// spelling only matters to the database.
const (
	tableSites   = "Sites"
	tableObjects = "Objects"
	tablePoints  = "Points"
	tableSamples = "Samples"

	colSite         = "Site"
	colName         = "Name"
	colSiteExtID    = "ExtSysId"
	colObjectExtID  = "ExtSysID"
	colObject       = "Object"
	colTreePosition = "TreePosition"
	colPoint        = "Point"
	colTime         = "DT"
	colValue        = "SampleValue"

	colFromDate = "FromDate"
	colToDate   = "ToDate"
)

// maxBatch caps the number of keys sent in a single IN list.
const maxBatch = 1000

func chunks(keys []int64, size int) [][]int64 {
	var out [][]int64
	for len(keys) > size {
		out = append(out, keys[:size])
		keys = keys[size:]
	}
	if len(keys) > 0 {
		out = append(out, keys)
	}
	return out
}

func joinKeys(keys []int64) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = strconv.FormatInt(k, 10)
	}
	return strings.Join(parts, ", ")
}

// coverageStatement returns the first and last sample time of each point.
// Keys are integers, so inlining them is safe.
func coverageStatement(points []int64) string {
	return fmt.Sprintf("SELECT %s, MIN(%s) AS %s, MAX(%s) AS %s FROM %s WHERE %s IN (%s) GROUP BY %s",
		colPoint, colTime, colFromDate, colTime, colToDate, tableSamples, colPoint, joinKeys(points), colPoint)
}

func maxTreePositionStatement(site int64) string {
	return fmt.Sprintf("SELECT MAX(%s) AS %s FROM %s WHERE %s = %d",
		colTreePosition, colTreePosition, tableObjects, colSite, site)
}

// Relative periods must fit in a time.Duration, which spans about 292 years.
const (
	maxPeriodYears = 290
	maxPeriod      = maxPeriodYears * 365 * 24 * time.Hour
)

// periodLength is the length of d in nanoseconds, counting 365 day years,
// computed without overflowing.
func periodLength(d *duration.Duration) float64 {
	day := float64(24 * time.Hour)
	return d.Years*365*day +
		d.Months*365/12*day +
		d.Weeks*7*day +
		d.Days*day +
		d.Hours*float64(time.Hour) +
		d.Minutes*float64(time.Minute) +
		d.Seconds*float64(time.Second)
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate parses a period bound. Empty means unbounded. Besides dates
// (YYYY-MM-DD) and timestamps it accepts ISO 8601 durations such as P30D,
// which resolve to now minus the duration.
func ParseDate(s string, now time.Time) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	if s[0] == 'P' || s[0] == 'p' {
		d, err := duration.Parse(strings.ToUpper(s))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid period %q: %v", ErrInvalidArgument, s, err)
		}
		if periodLength(d) > float64(maxPeriod) {
			return nil, fmt.Errorf("%w: period %q is longer than %d years", ErrInvalidArgument, s, maxPeriodYears)
		}
		t := now.Add(-d.ToTimeDuration())
		return &t, nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ErrInvalidArgument, s)
}
