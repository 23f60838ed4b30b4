package hydrotel

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/hydrotel/internal/database"
	"github.com/tejusbharadwaj/hydrotel/internal/models"
	"github.com/tejusbharadwaj/hydrotel/internal/resample"
)

// Defaults of a FetchRequest.
const (
	DefaultUnit       = resample.Day
	DefaultMultiplier = 1
	DefaultDigits     = 3
)

// FetchRequest describes a time series fetch.
type FetchRequest struct {
	MTypes Selector
	Sites  Selector

	// From and To bound the samples read, inclusive. Nil is unbounded.
	From *time.Time
	To   *time.Time

	Unit       resample.Unit
	Multiplier int
	Digits     int
	// MinCount drops buckets holding fewer raw samples. Zero disables it.
	MinCount int
	Pivot    bool

	// Rules override the service aggregation rules for this call.
	Rules resample.Rules
}

// NewFetchRequest returns a request with daily buckets rounded to three
// decimals.
func NewFetchRequest(mtypes, sites Selector) FetchRequest {
	return FetchRequest{
		MTypes:     mtypes,
		Sites:      sites,
		Unit:       DefaultUnit,
		Multiplier: DefaultMultiplier,
		Digits:     DefaultDigits,
	}
}

// Validate checks the request without touching the store.
func (r FetchRequest) Validate() error {
	opts := resample.Options{
		Unit:       r.Unit,
		Multiplier: r.Multiplier,
		Rule:       resample.Mean,
		Digits:     r.Digits,
		MinCount:   r.MinCount,
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	for mtype, rule := range r.Rules {
		if _, err := resample.ParseRule(string(rule)); err != nil {
			return fmt.Errorf("%w: rule for %q: %w", ErrInvalidArgument, mtype, err)
		}
	}
	if r.From != nil && r.To != nil && r.From.After(*r.To) {
		return fmt.Errorf("%w: from date %s is after to date %s", ErrInvalidArgument,
			r.From.Format(time.RFC3339), r.To.Format(time.RFC3339))
	}
	return nil
}

// FetchTimeSeries implements API.
//
// Points whose sample coverage does not overlap the requested period are
// skipped before any sample is read. Points are read in one batch per
// measurement type. When several points resolve to the same (ExtSiteID,
// MType) the lowest point key wins each bucket and the others only fill
// buckets it lacks, so timestamps stay unique per series.
func (s *Service) FetchTimeSeries(ctx context.Context, req FetchRequest) (*models.SeriesSet, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resolved, err := s.Resolve(ctx, req.MTypes, req.Sites)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.ResolvedPoint, 0, len(resolved))
	for _, r := range resolved {
		if overlaps(r, req.From, req.To) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return newSeriesSet(nil, req.Pivot), nil
	}

	rules := s.rules.Merge(req.Rules)
	groups := make(map[string][]models.ResolvedPoint)
	var order []string
	for _, c := range candidates {
		if _, ok := groups[c.MType]; !ok {
			order = append(order, c.MType)
		}
		groups[c.MType] = append(groups[c.MType], c)
	}
	sort.Strings(order)

	var samples []keyedSample
	for _, mtype := range order {
		rows := groups[mtype]
		keyOf := make(map[int64]models.SeriesKey, len(rows))
		points := make([]int64, 0, len(rows))
		for _, r := range rows {
			keyOf[r.Point] = r.Key()
			points = append(points, r.Point)
		}

		rule := rules.For(mtype)
		resampled, err := s.store.ReadTimeSeries(ctx, database.TimeSeriesQuery{
			Table:       tableSamples,
			KeyColumn:   colPoint,
			TimeColumn:  colTime,
			ValueColumn: colValue,
			Unit:        req.Unit,
			Multiplier:  req.Multiplier,
			Rule:        rule,
			Digits:      req.Digits,
			MinCount:    req.MinCount,
			Keys:        points,
			From:        req.From,
			To:          req.To,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to read %s samples: %w", mtype, err)
		}

		s.logger.WithFields(logrus.Fields{
			"mtype":   mtype,
			"rule":    rule,
			"points":  len(points),
			"buckets": len(resampled),
		}).Debug("resampled measurement type")

		for _, sample := range resampled {
			key, ok := keyOf[sample.Key]
			if !ok {
				continue
			}
			samples = append(samples, keyedSample{key: key, Sample: sample})
		}
	}

	return newSeriesSet(combine(samples), req.Pivot), nil
}

type keyedSample struct {
	key models.SeriesKey
	resample.Sample
}

// combine re-keys point samples by series and keeps one value per series
// and timestamp, preferring the lowest point key.
func combine(samples []keyedSample) []models.Observation {
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Key < samples[j].Key
	})

	type slot struct {
		key models.SeriesKey
		at  int64
	}
	seen := make(map[slot]bool, len(samples))
	out := make([]models.Observation, 0, len(samples))
	for _, s := range samples {
		k := slot{key: s.key, at: s.Time.UnixNano()}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, models.Observation{
			ExtSiteID: s.key.ExtSiteID,
			MType:     s.key.MType,
			Time:      s.Time,
			Value:     s.Value,
		})
	}

	sortObservations(out)
	return out
}

func sortObservations(obs []models.Observation) {
	sort.Slice(obs, func(i, j int) bool {
		a, b := obs[i], obs[j]
		if a.Key() != b.Key() {
			return a.Key().Less(b.Key())
		}
		return a.Time.Before(b.Time)
	})
}

func overlaps(r models.ResolvedPoint, from, to *time.Time) bool {
	if r.FromDate == nil || r.ToDate == nil {
		return false
	}
	if from != nil && !r.ToDate.After(*from) {
		return false
	}
	if to != nil && !r.FromDate.Before(*to) {
		return false
	}
	return true
}

func newSeriesSet(obs []models.Observation, pivot bool) *models.SeriesSet {
	if obs == nil {
		obs = []models.Observation{}
	}
	set := &models.SeriesSet{Observations: obs}
	if pivot {
		set.Pivot = Pivot(obs)
	}
	return set
}
