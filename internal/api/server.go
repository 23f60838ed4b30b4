// Package api serves the Hydrotel API over HTTP with gin.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/hydrotel/internal/hydrotel"
)

// HealthReporter tells whether the backing store is reachable.
type HealthReporter interface {
	Serving() bool
}

// Server bundles router and dependencies for the REST API.
type Server struct {
	api     hydrotel.API
	health  HealthReporter
	logger  logrus.FieldLogger
	engine  *gin.Engine
	timeout time.Duration
	now     func() time.Time
}

// New constructs a server with routes and middleware. gatherer backs the
// /metrics endpoint; health may be nil, in which case /healthz always
// reports ok.
func New(api hydrotel.API, health HealthReporter, gatherer prometheus.Gatherer, logger logrus.FieldLogger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	// Well numbers such as L37/0024 arrive escaped in path parameters.
	engine.UseRawPath = true
	engine.Use(gin.Recovery())
	engine.Use(requestIDMiddleware())
	engine.Use(loggingMiddleware(logger))

	server := &Server{
		api:     api,
		health:  health,
		logger:  logger,
		engine:  engine,
		timeout: 30 * time.Second,
		now:     time.Now,
	}
	server.registerRoutes(gatherer)
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server on addr and blocks until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes(gatherer prometheus.Gatherer) {
	s.engine.GET("/healthz", s.handleHealth)
	if gatherer != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	v1 := s.engine.Group("/api/v1")
	{
		v1.GET("/mtypes", s.handleListMTypes)
		v1.GET("/sites", s.handleResolve)
		v1.GET("/timeseries", s.handleFetch)
		v1.POST("/sites/:site/mtypes", s.handleCreateMType)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.health != nil && !s.health.Serving() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// errorStatus maps core errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, hydrotel.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, err error) {
	code := errorStatus(err)
	if code >= http.StatusInternalServerError {
		s.logger.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Error("request failed")
	}
	c.JSON(code, gin.H{"error": err.Error()})
}
