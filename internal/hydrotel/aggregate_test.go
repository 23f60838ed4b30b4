package hydrotel_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejusbharadwaj/hydrotel/internal/hydrotel"
	"github.com/tejusbharadwaj/hydrotel/internal/models"
	"github.com/tejusbharadwaj/hydrotel/internal/resample"
)

func obs(site, mtype string, at time.Time, value float64) models.Observation {
	return models.Observation{ExtSiteID: site, MType: mtype, Time: at, Value: value}
}

func scenarioRequest() hydrotel.FetchRequest {
	return hydrotel.NewFetchRequest(
		hydrotel.Many("flow", "water level", "rainfall"),
		hydrotel.Many("69607", "70105", "L37/0024"),
	)
}

func TestFetchTimeSeries(t *testing.T) {
	store := newMemStore()
	svc := hydrotel.NewService(store)

	got, err := svc.FetchTimeSeries(context.Background(), scenarioRequest())
	require.NoError(t, err)

	assert.Equal(t, []models.Observation{
		obs("69607", "flow", day(1, 0), 2),
		obs("69607", "flow", day(2, 0), 4),
		obs("69607", "flow", day(3, 0), 7),
		obs("69607", "water level", day(1, 0), 1.235),
		obs("70105", "rainfall", day(1, 0), 2),
		obs("70105", "rainfall", day(2, 0), 3),
		obs("L37/0024", "rainfall", day(2, 0), 0.2),
		obs("L37/0024", "water level", day(2, 0), 10),
	}, got.Observations)
	assert.Nil(t, got.Pivot)

	// One read per measurement type, in name order.
	require.Len(t, store.queries, 3)
	assert.Equal(t, resample.Mean, store.queries[0].Rule)
	assert.ElementsMatch(t, []int64{100, 107}, store.queries[0].Keys)
	assert.Equal(t, resample.Sum, store.queries[1].Rule)
	assert.ElementsMatch(t, []int64{102, 106}, store.queries[1].Keys)
	assert.Equal(t, resample.Mean, store.queries[2].Rule)
	for _, q := range store.queries {
		assert.Equal(t, "Samples", q.Table)
		assert.Equal(t, resample.Day, q.Unit)
		assert.Equal(t, 1, q.Multiplier)
		assert.Equal(t, 3, q.Digits)
	}
}

func TestFetchTimeSeriesTimestampsIncrease(t *testing.T) {
	svc := hydrotel.NewService(newMemStore())

	req := scenarioRequest()
	req.Unit = resample.Hour
	req.Multiplier = 6

	got, err := svc.FetchTimeSeries(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, got.Observations)

	last := make(map[models.SeriesKey]time.Time)
	for _, o := range got.Observations {
		if prev, ok := last[o.Key()]; ok {
			assert.True(t, o.Time.After(prev), "%v at %s is not after %s", o.Key(), o.Time, prev)
		}
		last[o.Key()] = o.Time
	}
	assert.Len(t, last, 5)
}

func TestFetchTimeSeriesMinCount(t *testing.T) {
	svc := hydrotel.NewService(newMemStore())

	req := scenarioRequest()
	req.MinCount = 3

	got, err := svc.FetchTimeSeries(context.Background(), req)
	require.NoError(t, err)

	// Only point 100 has three samples in one day; the bucket is kept at
	// exactly the minimum.
	assert.Equal(t, []models.Observation{obs("69607", "flow", day(1, 0), 2)}, got.Observations)
}

func TestFetchTimeSeriesRuleOverride(t *testing.T) {
	svc := hydrotel.NewService(newMemStore(), hydrotel.WithRules(resample.Rules{"flow": resample.Max}))

	req := hydrotel.NewFetchRequest(hydrotel.One("flow"), hydrotel.One("69607"))
	got, err := svc.FetchTimeSeries(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, got.Observations)
	assert.Equal(t, 3.0, got.Observations[0].Value)

	req.Rules = resample.Rules{"flow": resample.Min}
	got, err = svc.FetchTimeSeries(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, got.Observations)
	assert.Equal(t, 1.0, got.Observations[0].Value)
}

func TestFetchTimeSeriesPeriod(t *testing.T) {
	tests := []struct {
		name    string
		from    *time.Time
		to      *time.Time
		want    int
		queries int
	}{
		{name: "unbounded", want: 8, queries: 3},
		{name: "after all coverage", from: ptr(day(20, 0)), want: 0, queries: 0},
		{name: "before all coverage", to: ptr(time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)), want: 0, queries: 0},
		{name: "second day only", from: ptr(day(2, 1)), to: ptr(day(2, 23)), want: 3, queries: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			svc := hydrotel.NewService(store)

			req := scenarioRequest()
			req.From = tt.from
			req.To = tt.to

			got, err := svc.FetchTimeSeries(context.Background(), req)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Len(t, got.Observations, tt.want)
			assert.Len(t, store.queries, tt.queries)
		})
	}
}

func TestFetchTimeSeriesPivot(t *testing.T) {
	svc := hydrotel.NewService(newMemStore())

	req := scenarioRequest()
	req.Pivot = true

	got, err := svc.FetchTimeSeries(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, got.Pivot)

	assert.Equal(t, []models.SeriesKey{
		{ExtSiteID: "69607", MType: "flow"},
		{ExtSiteID: "69607", MType: "water level"},
		{ExtSiteID: "70105", MType: "rainfall"},
		{ExtSiteID: "L37/0024", MType: "rainfall"},
		{ExtSiteID: "L37/0024", MType: "water level"},
	}, got.Pivot.Columns)
	require.Len(t, got.Pivot.Rows, 3)
	assert.True(t, day(1, 0).Equal(got.Pivot.Rows[0].Time))

	first := got.Pivot.Rows[0].Values
	require.NotNil(t, first[0])
	assert.Equal(t, 2.0, *first[0])
	assert.Nil(t, first[3])
	assert.Nil(t, first[4])

	assert.Equal(t, got.Observations, hydrotel.Unpivot(got.Pivot))
}

func TestFetchTimeSeriesEmptyPivot(t *testing.T) {
	svc := hydrotel.NewService(newMemStore())

	req := hydrotel.NewFetchRequest(hydrotel.One("turbidity"), hydrotel.All())
	req.Pivot = true

	got, err := svc.FetchTimeSeries(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, got.Observations)
	assert.NotNil(t, got.Observations)
	require.NotNil(t, got.Pivot)
	assert.Empty(t, got.Pivot.Columns)
	assert.Empty(t, got.Pivot.Rows)
}

func TestFetchRequestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*hydrotel.FetchRequest)
	}{
		{name: "zero multiplier", modify: func(r *hydrotel.FetchRequest) { r.Multiplier = 0 }},
		{name: "negative digits", modify: func(r *hydrotel.FetchRequest) { r.Digits = -1 }},
		{name: "too many digits", modify: func(r *hydrotel.FetchRequest) { r.Digits = resample.MaxDigits + 1 }},
		{name: "negative min count", modify: func(r *hydrotel.FetchRequest) { r.MinCount = -2 }},
		{name: "unknown unit", modify: func(r *hydrotel.FetchRequest) { r.Unit = "month" }},
		{name: "unknown rule", modify: func(r *hydrotel.FetchRequest) { r.Rules = resample.Rules{"flow": "median"} }},
		{name: "inverted period", modify: func(r *hydrotel.FetchRequest) {
			r.From = ptr(day(5, 0))
			r.To = ptr(day(1, 0))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			svc := hydrotel.NewService(store)

			req := scenarioRequest()
			tt.modify(&req)

			_, err := svc.FetchTimeSeries(context.Background(), req)
			require.Error(t, err)
			assert.ErrorIs(t, err, hydrotel.ErrInvalidArgument)
			assert.Zero(t, store.reads, "validation must not touch the store")
		})
	}

	assert.NoError(t, scenarioRequest().Validate())
}
