// Package scheduler runs periodic background jobs.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Pinger checks that a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusSetter receives the outcome of each health probe.
type StatusSetter interface {
	SetServing(serving bool)
}

type Scheduler struct {
	ctx     context.Context
	store   Pinger
	health  StatusSetter
	logger  logrus.FieldLogger
	cron    *cron.Cron
	spec    string
	timeout time.Duration

	mu      sync.Mutex
	healthy *bool
}

// NewScheduler creates a scheduler probing store on spec, a standard cron
// expression or descriptor such as "@every 30s". Each ping is bounded by
// timeout.
func NewScheduler(ctx context.Context, store Pinger, health StatusSetter, spec string, timeout time.Duration, logger logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		ctx:     ctx,
		store:   store,
		health:  health,
		logger:  logger,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		spec:    spec,
		timeout: timeout,
	}
}

// Start the scheduler
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.Probe); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Probe pings the store once and publishes the result. Only changes of
// state are logged above debug level.
func (s *Scheduler) Probe() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	err := s.store.Ping(ctx)
	serving := err == nil
	s.health.SetServing(serving)

	s.mu.Lock()
	changed := s.healthy == nil || *s.healthy != serving
	s.healthy = &serving
	s.mu.Unlock()

	entry := s.logger.WithField("serving", serving)
	switch {
	case err != nil && changed:
		entry.WithError(err).Error("store health check failed")
	case err == nil && changed:
		entry.Info("store is reachable")
	default:
		entry.Debug("store health check")
	}
}

// Stop the scheduler and wait for a running probe to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
