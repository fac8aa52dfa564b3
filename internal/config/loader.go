package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables read by Load.
const (
	EnvPrefix = "DEXBOARD_"
	EnvConfig = EnvPrefix + "CONFIG"
	EnvDotenv = EnvPrefix + "DOTENV"

	defaultDotenv = ".env"
)

// Load builds a Config by layering defaults, optional files, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. YAML file if DEXBOARD_CONFIG is set
//  3. env (prefix DEXBOARD_), including variables from the .env file named
//     by DEXBOARD_DOTENV (default ".env"); real env vars win over .env ones
func Load(_ context.Context) (*Config, error) {
	base := New()

	// .env only fills variables that are not already set.
	dotenv := os.Getenv(EnvDotenv)
	if dotenv == "" {
		dotenv = defaultDotenv
	}
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: dotenv %s: %w", ErrLoadConfig, dotenv, err)
	}

	k := koanf.New(".")

	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// DEXBOARD_QUEUE_SIZE -> queue_size (flat keys, underscores preserved).
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field values and cross-field constraints.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.StoreBackend != "file" && c.StoreBackend != "memory":
		return invalid("store_backend must be file or memory, got %q", c.StoreBackend)
	case c.StoreBackend == "file" && c.StorePath == "":
		return invalid("store_path must not be empty for the file backend")
	case c.LeaderboardSize < 1:
		return invalid("leaderboard_size must be positive")
	case c.MaxEntries < 0:
		return invalid("max_entries must not be negative")
	case c.MaxEntries > 0 && c.MaxEntries < c.LeaderboardSize:
		return invalid("max_entries (%d) must be 0 or at least leaderboard_size (%d)", c.MaxEntries, c.LeaderboardSize)
	case c.QueueSize < 1:
		return invalid("queue_size must be positive")
	case c.SubmitTimeoutMS < 1:
		return invalid("submit_timeout_ms must be positive")
	case c.SubmitTimeoutMS >= c.WriteTimeoutMS:
		return invalid("submit_timeout_ms (%d) must be below write_timeout_ms (%d)", c.SubmitTimeoutMS, c.WriteTimeoutMS)
	case !validLogLevels[strings.ToLower(strings.TrimSpace(c.LogLevel))]:
		return invalid("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return invalid("log_format must be text or json, got %q", c.LogFormat)
	case c.MetricsNamespace == "":
		return invalid("metrics_namespace must not be empty")
	}
	for i := 1; i < len(c.MetricsBuckets); i++ {
		if c.MetricsBuckets[i] <= c.MetricsBuckets[i-1] {
			return invalid("metrics_buckets must be strictly increasing")
		}
	}
	return nil
}

// validLogLevels mirrors the names logger.SetLevelString accepts.
var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "warning": true, "error": true,
}
