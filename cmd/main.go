package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tejusbharadwaj/hydrotel/internal/api"
	"github.com/tejusbharadwaj/hydrotel/internal/config"
	"github.com/tejusbharadwaj/hydrotel/internal/database"
	server "github.com/tejusbharadwaj/hydrotel/internal/grpc"
	"github.com/tejusbharadwaj/hydrotel/internal/hydrotel"
	"github.com/tejusbharadwaj/hydrotel/internal/scheduler"
)

// Command hydrotel serves Hydrotel site, measurement type and time series
// queries over gRPC and REST.
//
// The service supports:
//   - Resolving measurement types and external site ids to points
//   - Resampled time series (sum, mean, min, max) at hour or day buckets
//   - Cloning a point under a new measurement type
//   - Postgres and MySQL Hydrotel databases
//   - Prometheus metrics and gRPC health checks
//
// Usage:
//
//	hydrotel [flags]
//
// The flags are:
//
//	-config string
//	      path to config file (default "config.yaml")
//	-env string
//	      optional .env file loaded before the config (default ".env")
//	-grpc-port int
//	      overrides server.grpc_port
//	-http-port int
//	      overrides server.http_port
//	-print-config
//	      print the effective configuration with secrets masked and exit
func main() {
	flags := parseFlags()

	if err := godotenv.Load(flags.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("Failed to load %s: %v", flags.EnvFile, err)
	}

	appConfig, err := config.Load(flags.ConfigPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if flags.GRPCPort > 0 {
		appConfig.Server.GRPCPort = flags.GRPCPort
	}
	if flags.HTTPPort > 0 {
		appConfig.Server.HTTPPort = flags.HTTPPort
	}

	if flags.PrintConfig {
		out, err := appConfig.Redacted()
		if err != nil {
			log.Fatalf("Failed to render configuration: %v", err)
		}
		fmt.Print(out)
		return
	}

	logger, err := newLogger(appConfig.Logging)
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, appConfig, logger); err != nil {
		logger.WithError(err).Fatal("Service error")
	}
	logger.Info("Server stopped")
}

type Flags struct {
	ConfigPath  string
	EnvFile     string
	GRPCPort    int
	HTTPPort    int
	PrintConfig bool
}

func parseFlags() *Flags {
	flags := &Flags{}

	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "Path to the config file")
	flag.StringVar(&flags.EnvFile, "env", ".env", "Optional .env file loaded before the config")
	flag.IntVar(&flags.GRPCPort, "grpc-port", 0, "Overrides server.grpc_port")
	flag.IntVar(&flags.HTTPPort, "http-port", 0, "Overrides server.http_port")
	flag.BoolVar(&flags.PrintConfig, "print-config", false, "Print the effective configuration and exit")

	flag.Parse()

	return flags
}

func newLogger(cfg config.LoggingConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetLevel(level)
	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger, nil
}

func run(ctx context.Context, appConfig *config.Config, logger *logrus.Logger) error {
	rules, err := appConfig.Rules()
	if err != nil {
		return err
	}

	connectCtx, cancel := context.WithTimeout(ctx, time.Duration(appConfig.Database.ConnectionTimeout)*time.Second)
	store, err := database.Open(connectCtx, appConfig.Database.Driver, appConfig.Database.DSN(), appConfig.Database.MaxConnections)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	service := hydrotel.NewService(store, hydrotel.WithLogger(logger), hydrotel.WithRules(rules))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	grpcServer, health, err := server.SetupServer(service, server.ServerConfig{
		RateLimit:        appConfig.Limits.RateLimit,
		RateLimitBurst:   appConfig.Limits.RateLimitBurst,
		LimiterCacheSize: appConfig.Limits.LimiterCacheSize,
	}, logger, registry)
	if err != nil {
		return fmt.Errorf("failed to setup server: %w", err)
	}

	lis, err := net.Listen("tcp", appConfig.Server.GRPCAddr())
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	probe := scheduler.NewScheduler(ctx, store, health, appConfig.Scheduler.HealthCheck,
		time.Duration(appConfig.Scheduler.PingTimeout)*time.Second, logger)
	if err := probe.Start(); err != nil {
		return fmt.Errorf("scheduler error: %w", err)
	}
	defer probe.Stop()

	rest := api.New(service, health, registry, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", lis.Addr().String()).Info("Starting gRPC server")
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("grpc server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.WithField("addr", appConfig.Server.HTTPAddr()).Info("Starting HTTP server")
		if err := rest.Run(ctx, appConfig.Server.HTTPAddr()); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Gracefully stopping server...")
		health.SetServing(false)
		grpcServer.GracefulStop()
		return nil
	})

	return g.Wait()
}
