// Package config loads the service configuration from YAML and the
// environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tejusbharadwaj/hydrotel/internal/resample"
)

// EnvPrefix prefixes environment variables that override file settings,
// e.g. HYDROTEL_DATABASE_HOST.
const EnvPrefix = "HYDROTEL"

const redacted = "******"

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all configuration for our application
type Config struct {
	Server      ServerConfig      `mapstructure:"server" yaml:"server"`
	Database    DatabaseConfig    `mapstructure:"database" yaml:"database"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
	Limits      LimitsConfig      `mapstructure:"limits" yaml:"limits"`
	Aggregation AggregationConfig `mapstructure:"aggregation" yaml:"aggregation"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler" yaml:"scheduler"`
}

type ServerConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	GRPCPort int    `mapstructure:"grpc_port" yaml:"grpc_port"`
	HTTPPort int    `mapstructure:"http_port" yaml:"http_port"`
}

// GRPCAddr is the listen address of the gRPC server.
func (s ServerConfig) GRPCAddr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.GRPCPort))
}

// HTTPAddr is the listen address of the REST server.
func (s ServerConfig) HTTPAddr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.HTTPPort))
}

type DatabaseConfig struct {
	Driver            string `mapstructure:"driver" yaml:"driver"`
	Host              string `mapstructure:"host" yaml:"host"`
	Port              int    `mapstructure:"port" yaml:"port"`
	Name              string `mapstructure:"name" yaml:"name"`
	User              string `mapstructure:"user" yaml:"user"`
	Password          string `mapstructure:"password" yaml:"password"`
	SSLMode           string `mapstructure:"ssl_mode" yaml:"ssl_mode"`
	MaxConnections    int    `mapstructure:"max_connections" yaml:"max_connections"`
	ConnectionTimeout int    `mapstructure:"connection_timeout" yaml:"connection_timeout"`
	// URL replaces the DSN built from the fields above when set.
	URL string `mapstructure:"dsn" yaml:"dsn"`
}

// DSN returns the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}

	if d.Driver == "mysql" {
		cfg := mysql.NewConfig()
		cfg.User = d.User
		cfg.Passwd = d.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
		cfg.DBName = d.Name
		cfg.ParseTime = true
		if d.ConnectionTimeout > 0 {
			cfg.Timeout = time.Duration(d.ConnectionTimeout) * time.Second
		}
		return cfg.FormatDSN()
	}

	parts := []string{
		"host=" + quote(d.Host),
		"port=" + strconv.Itoa(d.Port),
		"user=" + quote(d.User),
		"password=" + quote(d.Password),
		"dbname=" + quote(d.Name),
		"sslmode=" + quote(d.SSLMode),
	}
	if d.ConnectionTimeout > 0 {
		parts = append(parts, "connect_timeout="+strconv.Itoa(d.ConnectionTimeout))
	}
	return strings.Join(parts, " ")
}

// quote renders a libpq keyword value.
func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type LimitsConfig struct {
	RateLimit        float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateLimitBurst   int     `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst"`
	LimiterCacheSize int     `mapstructure:"limiter_cache_size" yaml:"limiter_cache_size"`
}

// AggregationConfig maps measurement types to aggregation rules, e.g.
// {"rainfall": "sum", "flow": "max"}. Entries override the built in
// defaults.
type AggregationConfig struct {
	Rules map[string]string `mapstructure:"rules" yaml:"rules"`
}

type SchedulerConfig struct {
	// HealthCheck is a cron spec, descriptors such as "@every 30s" included.
	HealthCheck string `mapstructure:"health_check" yaml:"health_check"`
	// PingTimeout is in seconds.
	PingTimeout int `mapstructure:"ping_timeout" yaml:"ping_timeout"`
}

// Load reads configuration from file and environment variables.
//
// $VAR references in the file are expanded first. Variables named
// HYDROTEL_<SECTION>_<KEY> then override the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Every key needs a default so that AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.grpc_port", 50051)
	v.SetDefault("server.http_port", 8080)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "hydrotel")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.connection_timeout", 5)
	v.SetDefault("database.dsn", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("limits.rate_limit", 5.0)
	v.SetDefault("limits.rate_limit_burst", 10)
	v.SetDefault("limits.limiter_cache_size", 1000)

	v.SetDefault("scheduler.health_check", "@every 30s")
	v.SetDefault("scheduler.ping_timeout", 5)
}

// Validate checks values that cannot be fixed by defaults.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "postgres", "pgx", "mysql":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be postgres, pgx or mysql, got %q", c.Database.Driver))
	}

	for name, port := range map[string]int{
		"server.grpc_port": c.Server.GRPCPort,
		"server.http_port": c.Server.HTTPPort,
		"database.port":    c.Database.Port,
	} {
		if port <= 0 || port > 65535 {
			errs = append(errs, fmt.Errorf("%s out of range: %d", name, port))
		}
	}
	if c.Server.GRPCPort == c.Server.HTTPPort {
		errs = append(errs, fmt.Errorf("server.grpc_port and server.http_port are both %d", c.Server.GRPCPort))
	}

	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format))
	}

	if c.Limits.RateLimit <= 0 || c.Limits.RateLimitBurst <= 0 || c.Limits.LimiterCacheSize <= 0 {
		errs = append(errs, errors.New("limits must be positive"))
	}

	if _, err := c.Rules(); err != nil {
		errs = append(errs, fmt.Errorf("aggregation.rules: %w", err))
	}

	if _, err := cron.ParseStandard(c.Scheduler.HealthCheck); err != nil {
		errs = append(errs, fmt.Errorf("scheduler.health_check: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Rules returns the default aggregation rules with the configured ones
// applied on top.
func (c *Config) Rules() (resample.Rules, error) {
	configured, err := resample.ParseRules(c.Aggregation.Rules)
	if err != nil {
		return nil, err
	}
	return resample.DefaultRules().Merge(configured), nil
}

// Redacted renders the effective configuration as YAML with secrets masked.
func (c *Config) Redacted() (string, error) {
	masked := *c
	if masked.Database.Password != "" {
		masked.Database.Password = redacted
	}
	if masked.Database.URL != "" {
		masked.Database.URL = redacted
	}

	out, err := yaml.Marshal(masked)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(out), nil
}
