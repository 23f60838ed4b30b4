//go:generate go run github.com/golang/mock/mockgen -destination=./mocks/api.go -package=mocks . API

// Package hydrotel resolves external site ids and measurement types to
// Hydrotel points and serves resampled time series for them.
//
// The package reads the Sites, Objects, Points and Samples tables through a
// database.TabularStore:
//   - Reconcile merges well numbers found in site names with numeric
//     ExtSysId codes into one external id per site.
//   - Resolve turns measurement type names and external site ids into the
//     points that hold the data, with their sample coverage.
//   - FetchTimeSeries resamples those points onto a regular grid.
//   - CreateMeasurementType clones an existing point under a new name.
//
// Calls hold no state between them. Concurrency control is left to the
// store.
package hydrotel

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/hydrotel/internal/database"
	"github.com/tejusbharadwaj/hydrotel/internal/models"
	"github.com/tejusbharadwaj/hydrotel/internal/resample"
)

// API is the set of operations exposed to transports.
type API interface {
	// ListMeasurementTypes returns every measurement type with the number
	// of objects carrying it, most frequent first.
	ListMeasurementTypes(ctx context.Context) ([]models.MTypeCount, error)

	// Resolve returns the points behind the selected measurement types
	// and external site ids. An empty result is not an error.
	Resolve(ctx context.Context, mtypes, sites Selector) ([]models.ResolvedPoint, error)

	// FetchTimeSeries returns the resampled series for a request.
	FetchTimeSeries(ctx context.Context, req FetchRequest) (*models.SeriesSet, error)

	// CreateMeasurementType adds a measurement type to a site by cloning
	// the object and point behind referencePoint.
	CreateMeasurementType(ctx context.Context, site string, referencePoint int64, name string) ([]models.ResolvedPoint, error)
}

// Service implements API on top of a tabular store.
type Service struct {
	store  database.TabularStore
	rules  resample.Rules
	logger logrus.FieldLogger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithRules replaces the per measurement type aggregation rules.
func WithRules(rules resample.Rules) Option {
	return func(s *Service) {
		s.rules = rules
	}
}

// NewService creates a Service reading from store.
func NewService(store database.TabularStore, opts ...Option) *Service {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Service{
		store:  store,
		rules:  resample.DefaultRules(),
		logger: discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ API = (*Service)(nil)
