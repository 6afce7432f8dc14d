package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Intake     UpstreamConfig   `yaml:"intake"`
	Directory  UpstreamConfig   `yaml:"directory"`
	Breaker    BreakerConfig    `yaml:"breaker"`
	Policy     PolicyConfig     `yaml:"policy"`
	NameCache  NameCacheConfig  `yaml:"name_cache"`
	Auth       AuthConfig       `yaml:"auth"`
	Refresher  RefresherConfig  `yaml:"refresher"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// UpstreamConfig describes one collaborator service.
type UpstreamConfig struct {
	BaseURL        string        `yaml:"base_url"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Timeout        time.Duration `yaml:"-"`
}

// BreakerConfig tunes the per-endpoint circuit breakers.
type BreakerConfig struct {
	FailureThreshold   int           `yaml:"failure_threshold"`
	OpenTimeoutSeconds int           `yaml:"open_timeout_seconds"`
	OpenTimeout        time.Duration `yaml:"-"`
}

// PolicyConfig holds the automatic scheduling limits.
type PolicyConfig struct {
	MaxDaysPerWeek     int `yaml:"max_days_per_week"`
	MaxConsecutiveDays int `yaml:"max_consecutive_days"`
}

// NameCacheConfig selects where resolved display names are kept. TTL is the
// refresh interval: older names are looked up again but never evicted.
type NameCacheConfig struct {
	Backend    string        `yaml:"backend"`
	TTLSeconds int           `yaml:"ttl_seconds"`
	TTL        time.Duration `yaml:"-"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds the redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AuthConfig configures bearer-token checks. An empty secret disables them.
type AuthConfig struct {
	JWTSecret    string   `yaml:"jwt_secret"`
	ManagerRoles []string `yaml:"manager_roles"`
}

// RefresherConfig controls the periodic bulk reconciliation.
type RefresherConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"`
}

// WorkerPoolConfig holds the configuration for the reconciliation worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// TelemetryConfig points the metric exporter at an OTLP collector.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// LogConfig selects the log level and output format ("json" or "text").
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the configuration from the given path, applies defaults and
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := map[string]*string{
		"PLANNING_DATABASE_DSN":  &cfg.Database.DSN,
		"PLANNING_JWT_SECRET":    &cfg.Auth.JWTSecret,
		"PLANNING_INTAKE_URL":    &cfg.Intake.BaseURL,
		"PLANNING_DIRECTORY_URL": &cfg.Directory.BaseURL,
		"PLANNING_REDIS_ADDR":    &cfg.NameCache.Redis.Addr,
		"LOG_LEVEL":              &cfg.Log.Level,
	}
	for key, target := range overrides {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*target = v
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8001
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverPostgres
	}
	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 5
	}

	for _, up := range []*UpstreamConfig{&cfg.Intake, &cfg.Directory} {
		if up.TimeoutSeconds <= 0 {
			up.TimeoutSeconds = 5
		}
		up.Timeout = time.Duration(up.TimeoutSeconds) * time.Second
	}

	if cfg.Breaker.FailureThreshold <= 0 {
		cfg.Breaker.FailureThreshold = 5
	}
	if cfg.Breaker.OpenTimeoutSeconds <= 0 {
		cfg.Breaker.OpenTimeoutSeconds = 30
	}
	cfg.Breaker.OpenTimeout = time.Duration(cfg.Breaker.OpenTimeoutSeconds) * time.Second

	if cfg.Policy.MaxDaysPerWeek == 0 {
		cfg.Policy.MaxDaysPerWeek = 2
	}
	if cfg.Policy.MaxConsecutiveDays == 0 {
		cfg.Policy.MaxConsecutiveDays = 1
	}

	if cfg.NameCache.Backend == "" {
		cfg.NameCache.Backend = CacheBackendMemory
	}
	if cfg.NameCache.TTLSeconds <= 0 {
		cfg.NameCache.TTLSeconds = 3600
	}
	cfg.NameCache.TTL = time.Duration(cfg.NameCache.TTLSeconds) * time.Second

	if len(cfg.Auth.ManagerRoles) == 0 {
		cfg.Auth.ManagerRoles = []string{"MANAGER", "ROLE_MANAGER"}
	}

	if cfg.Refresher.IntervalSeconds <= 0 {
		cfg.Refresher.IntervalSeconds = 3600
	}
	cfg.Refresher.Interval = time.Duration(cfg.Refresher.IntervalSeconds) * time.Second

	if cfg.WorkerPool.Size <= 0 {
		slog.Warn("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("database.driver: unsupported value %q", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}

	switch c.NameCache.Backend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if c.NameCache.Redis.Addr == "" {
			errs = append(errs, errors.New("name_cache.redis.addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("name_cache.backend: unsupported value %q", c.NameCache.Backend))
	}

	if c.Policy.MaxDaysPerWeek < 0 || c.Policy.MaxDaysPerWeek > 5 {
		errs = append(errs, fmt.Errorf("policy.max_days_per_week must be between 0 and 5, got %d", c.Policy.MaxDaysPerWeek))
	}
	if c.Policy.MaxConsecutiveDays < 0 {
		errs = append(errs, fmt.Errorf("policy.max_consecutive_days must not be negative, got %d", c.Policy.MaxConsecutiveDays))
	}

	return errors.Join(errs...)
}
