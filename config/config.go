// Package config loads ledger settings. Sources are applied in order, each
// overriding the last: built-in defaults, the YAML file, the .env file, and
// LEDGER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"

	SinkMemory  = "memory"
	SinkLog     = "log"
	SinkRedis   = "redis"
	SinkWebhook = "webhook"

	AuthzAllow = "allow"
	AuthzDeny  = "deny"
	AuthzHTTP  = "http"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	Env           string              `yaml:"env"`
	LogLevel      string              `yaml:"log_level"`
	Server        ServerConfig        `yaml:"server"`
	Store         StoreConfig         `yaml:"store"`
	Redis         RedisConfig         `yaml:"redis"`
	Notification  NotificationConfig  `yaml:"notification"`
	Authorization AuthorizationConfig `yaml:"authorization"`
	Projection    ProjectionConfig    `yaml:"projection"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type StoreConfig struct {
	Driver      string `yaml:"driver"`
	DatabaseURL string `yaml:"database_url"`
	ApplySchema bool   `yaml:"apply_schema"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type NotificationConfig struct {
	Sink           string        `yaml:"sink"`
	Stream         string        `yaml:"stream"`
	WebhookURL     string        `yaml:"webhook_url"`
	WebhookTimeout time.Duration `yaml:"webhook_timeout"`
	RatePerSecond  float64       `yaml:"rate_per_second"`
	Burst          int           `yaml:"burst"`
	MaxAttempts    int           `yaml:"max_attempts"`
}

type AuthorizationConfig struct {
	Mode    string        `yaml:"mode"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type ProjectionConfig struct {
	Cache string        `yaml:"cache"`
	TTL   time.Duration `yaml:"ttl"`
}

func Default() *Config {
	return &Config{
		Env:      "development",
		LogLevel: "info",
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Driver:      DriverMemory,
			ApplySchema: true,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Notification: NotificationConfig{
			Sink:           SinkLog,
			Stream:         "ledger.notifications",
			WebhookTimeout: 5 * time.Second,
			RatePerSecond:  10,
			Burst:          5,
			MaxAttempts:    3,
		},
		Authorization: AuthorizationConfig{
			Mode:    AuthzAllow,
			Timeout: 3 * time.Second,
		},
		Projection: ProjectionConfig{
			Cache: CacheMemory,
		},
	}
}

// Load reads path (optional) and ./.env (optional) on top of the defaults.
func Load(path string) (*Config, error) {
	return LoadFiles(path, ".env")
}

// LoadFiles is Load with an explicit .env location. An empty path skips
// the YAML file; a missing .env file is not an error.
func LoadFiles(path, dotenvPath string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.readYAML(path); err != nil {
			return nil, err
		}
	}

	dotenv := map[string]string{}
	if dotenvPath != "" {
		values, err := godotenv.Read(dotenvPath)
		switch {
		case err == nil:
			dotenv = values
		case errors.Is(err, fs.ErrNotExist):
			slog.Debug("no .env file found, relying on environment variables", "path", dotenvPath)
		default:
			return nil, fmt.Errorf("failed to read %s: %w", dotenvPath, err)
		}
	}

	lookup := func(key string) (string, bool) {
		if value, ok := os.LookupEnv(key); ok {
			return value, true
		}
		value, ok := dotenv[key]
		return value, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readYAML(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil {
		return fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	var errs []error
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := lookup(key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("LEDGER_ENV", &c.Env)
	str("LEDGER_LOG_LEVEL", &c.LogLevel)
	str("LEDGER_HTTP_ADDR", &c.Server.Addr)
	duration("LEDGER_SHUTDOWN_TIMEOUT", &c.Server.ShutdownTimeout)

	str("LEDGER_STORE_DRIVER", &c.Store.Driver)
	str("DATABASE_URL", &c.Store.DatabaseURL)
	str("LEDGER_DATABASE_URL", &c.Store.DatabaseURL)
	boolean("LEDGER_APPLY_SCHEMA", &c.Store.ApplySchema)

	str("LEDGER_REDIS_ADDR", &c.Redis.Addr)
	str("LEDGER_REDIS_PASSWORD", &c.Redis.Password)
	integer("LEDGER_REDIS_DB", &c.Redis.DB)

	str("LEDGER_NOTIFICATION_SINK", &c.Notification.Sink)
	str("LEDGER_NOTIFICATION_STREAM", &c.Notification.Stream)
	str("LEDGER_WEBHOOK_URL", &c.Notification.WebhookURL)
	duration("LEDGER_WEBHOOK_TIMEOUT", &c.Notification.WebhookTimeout)
	float("LEDGER_WEBHOOK_RATE", &c.Notification.RatePerSecond)
	integer("LEDGER_WEBHOOK_BURST", &c.Notification.Burst)
	integer("LEDGER_NOTIFICATION_MAX_ATTEMPTS", &c.Notification.MaxAttempts)

	str("LEDGER_AUTHZ_MODE", &c.Authorization.Mode)
	str("LEDGER_AUTHZ_URL", &c.Authorization.URL)
	duration("LEDGER_AUTHZ_TIMEOUT", &c.Authorization.Timeout)

	str("LEDGER_VIEW_CACHE", &c.Projection.Cache)
	duration("LEDGER_VIEW_TTL", &c.Projection.TTL)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	oneOf := func(field, value string, allowed ...string) {
		for _, a := range allowed {
			if value == a {
				return
			}
		}
		errs = append(errs, fmt.Errorf("%s must be one of %s, got %q", field, strings.Join(allowed, "|"), value))
	}

	oneOf("store.driver", c.Store.Driver, DriverMemory, DriverPostgres)
	oneOf("notification.sink", c.Notification.Sink, SinkMemory, SinkLog, SinkRedis, SinkWebhook)
	oneOf("authorization.mode", c.Authorization.Mode, AuthzAllow, AuthzDeny, AuthzHTTP)
	oneOf("projection.cache", c.Projection.Cache, CacheMemory, CacheRedis)

	if c.Store.Driver == DriverPostgres && c.Store.DatabaseURL == "" {
		errs = append(errs, errors.New("store.database_url is required for the postgres driver"))
	}
	if c.Notification.Sink == SinkWebhook && c.Notification.WebhookURL == "" {
		errs = append(errs, errors.New("notification.webhook_url is required for the webhook sink"))
	}
	if c.Authorization.Mode == AuthzHTTP && c.Authorization.URL == "" {
		errs = append(errs, errors.New("authorization.url is required for http mode"))
	}
	if c.UsesRedis() && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required"))
	}
	if c.Notification.MaxAttempts < 1 {
		errs = append(errs, errors.New("notification.max_attempts must be at least 1"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) UsesRedis() bool {
	return c.Notification.Sink == SinkRedis || c.Projection.Cache == CacheRedis
}

// SlogLevel maps LogLevel to a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
