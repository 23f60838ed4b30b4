// Package server exposes the Hydrotel API over gRPC.
//
// There is no generated code: the service is described by a hand-written
// grpc.ServiceDesc whose messages are google.protobuf.Struct values, so any
// gRPC client can call it with JSON-shaped payloads.
package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	middleware "github.com/tejusbharadwaj/hydrotel/internal/grpc/middlewares"
	"github.com/tejusbharadwaj/hydrotel/internal/hydrotel"
	"github.com/tejusbharadwaj/hydrotel/internal/models"
)

// ServerConfig holds configuration options for the gRPC server
type ServerConfig struct {
	RateLimit        float64 // Requests per second and peer
	RateLimitBurst   int     // Maximum burst size for rate limiting
	LimiterCacheSize int     // Number of peers tracked by the rate limiter
}

// DefaultServerConfig returns a ServerConfig with sensible defaults
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		RateLimit:        5.0, // 5 requests per second
		RateLimitBurst:   10,  // Burst of 10 requests
		LimiterCacheSize: 1000,
	}
}

// HydrotelService adapts hydrotel.API to HydrotelServer.
type HydrotelService struct {
	api       hydrotel.API
	validator *RequestValidator
}

// NewHydrotelService creates a new service instance
func NewHydrotelService(api hydrotel.API) *HydrotelService {
	return &HydrotelService{
		api:       api,
		validator: NewRequestValidator(),
	}
}

// toStatus maps core errors to gRPC status codes.
func toStatus(op string, err error) error {
	switch {
	case errors.Is(err, hydrotel.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Errorf(codes.Internal, "%s failed: %v", op, err)
}

// ListMeasurementTypes implements HydrotelServer.
func (s *HydrotelService) ListMeasurementTypes(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	mtypes, err := s.api.ListMeasurementTypes(ctx)
	if err != nil {
		return nil, toStatus("list measurement types", err)
	}
	return respond(map[string]any{"mtypes": mtypes})
}

// ResolveSites implements HydrotelServer.
func (s *HydrotelService) ResolveSites(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	args, err := s.validator.Resolve(req)
	if err != nil {
		return nil, toStatus("resolve", err)
	}

	points, err := s.api.Resolve(ctx, args.MTypes, args.Sites)
	if err != nil {
		return nil, toStatus("resolve", err)
	}
	return respond(map[string]any{"points": points})
}

// FetchTimeSeries implements HydrotelServer.
func (s *HydrotelService) FetchTimeSeries(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fetch, err := s.validator.Fetch(req)
	if err != nil {
		return nil, toStatus("fetch", err)
	}

	set, err := s.api.FetchTimeSeries(ctx, fetch)
	if err != nil {
		return nil, toStatus("fetch", err)
	}
	if set == nil {
		set = &models.SeriesSet{Observations: []models.Observation{}}
	}
	return respond(set)
}

// CreateMeasurementType implements HydrotelServer.
func (s *HydrotelService) CreateMeasurementType(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	args, err := s.validator.Create(req)
	if err != nil {
		return nil, toStatus("create measurement type", err)
	}

	points, err := s.api.CreateMeasurementType(ctx, args.Site, args.ReferencePoint, args.Name)
	if err != nil {
		return nil, toStatus("create measurement type", err)
	}
	return respond(map[string]any{"points": points})
}

func respond(v any) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// gRPC Server Configuration without the middleware (for development and debug only)
func ConfigureGRPCServer(
	api hydrotel.API,
	opts ...grpc.ServerOption,
) *grpc.Server {
	srv := grpc.NewServer(opts...)
	RegisterHydrotelServer(srv, NewHydrotelService(api))
	return srv
}

// SetupServer initializes and configures the gRPC server with all middleware
// and the health service. The health checker starts out SERVING; callers
// that probe the store update it.
func SetupServer(
	api hydrotel.API,
	config ServerConfig,
	logger logrus.FieldLogger,
	registry prometheus.Registerer,
) (*grpc.Server, *HealthChecker, error) {
	limiter, err := middleware.NewRateLimiter(config.RateLimit, config.RateLimitBurst, config.LimiterCacheSize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}

	metrics, err := middleware.NewMetrics(registry)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	// Create server with chained interceptors
	server := grpc.NewServer(
		grpc.UnaryInterceptor(
			chainUnaryInterceptors(
				middleware.ContextMiddleware,              // Add request ID first
				limiter.Interceptor,                       // Rate limit early
				middleware.NewLoggingInterceptor(logger),  // Log all requests (with request ID)
				middleware.NewMetricsInterceptor(metrics), // Collect metrics
				middleware.NewRecoveryInterceptor(logger), // Panics become Internal errors
			),
		),
	)

	RegisterHydrotelServer(server, NewHydrotelService(api))

	health := NewHealthChecker()
	health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	health.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(server, health)

	return server, health, nil
}

// chainUnaryInterceptors creates a single interceptor from multiple interceptors
func chainUnaryInterceptors(interceptors ...grpc.UnaryServerInterceptor) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		chain := handler
		for i := len(interceptors) - 1; i >= 0; i-- {
			interceptor := interceptors[i]
			chainedInterceptor := chain
			chain = func(currentCtx context.Context, currentReq interface{}) (interface{}, error) {
				return interceptor(currentCtx, currentReq, info, chainedInterceptor)
			}
		}
		return chain(ctx, req)
	}
}
