// Package config loads the application configuration and user profile input.
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rgehrsitz/corpusplan/internal/projection"
	"github.com/rgehrsitz/corpusplan/internal/store"
)

// Config holds application configuration
type Config struct {
	Listen     string   `yaml:"listen"`
	Store      string   `yaml:"store"`
	SQLitePath string   `yaml:"sqlite_path"`
	RedisAddr  string   `yaml:"redis_addr"`
	RedisTTL   Duration `yaml:"redis_ttl"`
	Backend    Backend  `yaml:"backend"`
	Log        Log      `yaml:"log"`
	Sessions   Sessions `yaml:"sessions"`
	CORS       []string `yaml:"allowed_origins"`
}

// Backend configures the projection backend client. BaseURL is also used by
// the http store.
type Backend struct {
	BaseURL          string   `yaml:"base_url"`
	Timeout          Duration `yaml:"timeout"`
	RatePerSecond    float64  `yaml:"rate_per_second"`
	Burst            int      `yaml:"burst"`
	FailureThreshold uint32   `yaml:"failure_threshold"`
	OpenTimeout      Duration `yaml:"open_timeout"`
}

// Log configures zerolog.
type Log struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Sessions configures session expiry.
type Sessions struct {
	TTL Duration `yaml:"ttl"`
	// Sweep is a cron spec with seconds.
	Sweep string `yaml:"sweep"`
}

// Duration is a time.Duration that reads "30s"-style strings from YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no file is given.
func Default() *Config {
	pc := projection.DefaultConfig()
	return &Config{
		Listen:     ":8080",
		Store:      string(store.KindMemory),
		SQLitePath: "./data/corpusplan.db",
		RedisAddr:  "localhost:6379",
		RedisTTL:   Duration(30 * 24 * time.Hour),
		Backend: Backend{
			BaseURL:          pc.BaseURL,
			Timeout:          Duration(pc.Timeout),
			RatePerSecond:    pc.RatePerSecond,
			Burst:            pc.Burst,
			FailureThreshold: pc.FailureThreshold,
			OpenTimeout:      Duration(pc.OpenTimeout),
		},
		Log: Log{Level: "info"},
		Sessions: Sessions{
			TTL:   Duration(2 * time.Hour),
			Sweep: "0 */5 * * * *",
		},
	}
}

// Load reads configuration from path (optional) and then applies
// environment overrides. A .env file in the working directory is loaded
// first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Backend.BaseURL = getEnv("BACKEND_BASE_URL", c.Backend.BaseURL)
	c.Listen = getEnv("CORPUSPLAN_LISTEN", c.Listen)
	c.Store = getEnv("CORPUSPLAN_STORE", c.Store)
	c.SQLitePath = getEnv("CORPUSPLAN_SQLITE_PATH", c.SQLitePath)
	c.RedisAddr = getEnv("CORPUSPLAN_REDIS_ADDR", c.RedisAddr)
	c.Log.Level = getEnv("CORPUSPLAN_LOG_LEVEL", c.Log.Level)
	c.Log.Pretty = getEnvAsBool("CORPUSPLAN_LOG_PRETTY", c.Log.Pretty)
	c.Backend.Timeout = Duration(getEnvAsDuration("CORPUSPLAN_BACKEND_TIMEOUT", c.Backend.Timeout.Std()))
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	kind, err := store.ParseKind(c.Store)
	if err != nil {
		return err
	}
	switch kind {
	case store.KindSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required for the sqlite store")
		}
	case store.KindRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis_addr is required for the redis store")
		}
	case store.KindHTTP:
		if c.Backend.BaseURL == "" {
			return fmt.Errorf("backend base_url is required for the http store")
		}
	}
	if c.Backend.Timeout.Std() <= 0 {
		return fmt.Errorf("backend timeout must be positive")
	}
	if c.Backend.RatePerSecond < 0 {
		return fmt.Errorf("backend rate_per_second cannot be negative")
	}
	if c.Sessions.TTL.Std() <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	return nil
}

// Projection returns the projection client configuration.
func (c *Config) Projection() projection.Config {
	return projection.Config{
		BaseURL:          c.Backend.BaseURL,
		Timeout:          c.Backend.Timeout.Std(),
		RatePerSecond:    c.Backend.RatePerSecond,
		Burst:            c.Backend.Burst,
		FailureThreshold: c.Backend.FailureThreshold,
		OpenTimeout:      c.Backend.OpenTimeout.Std(),
	}
}

// OpenStore builds the configured persistence backend. The returned closer
// is never nil.
func (c *Config) OpenStore(ctx context.Context) (store.Store, func() error, error) {
	noop := func() error { return nil }
	kind, err := store.ParseKind(c.Store)
	if err != nil {
		return nil, noop, err
	}
	switch kind {
	case store.KindSQLite:
		st, err := store.NewSQLiteStore(c.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return st, st.Close, nil
	case store.KindRedis:
		st, err := store.DialRedis(ctx, c.RedisAddr, c.RedisTTL.Std())
		if err != nil {
			return nil, noop, err
		}
		return st, noop, nil
	case store.KindHTTP:
		return store.NewHTTPStore(c.Backend.BaseURL, c.Backend.Timeout.Std()), noop, nil
	default:
		return store.NewMemoryStore(), noop, nil
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
