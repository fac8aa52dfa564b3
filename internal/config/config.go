// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() builds a Config with defaults; Load(ctx) layers overrides on top.
// - External errors are wrapped with this package's sentinel errors.
package config

import "time"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":5000".
	Addr string `koanf:"addr"`

	// StoreBackend selects where the leaderboard lives: file or memory.
	StoreBackend string `koanf:"store_backend"`

	// StorePath is the leaderboard JSON file used by the file backend.
	StorePath string `koanf:"store_path"`

	// AtomicWrites writes to a temp file and renames it over StorePath.
	AtomicWrites bool `koanf:"atomic_writes"`

	// MaxEntries caps the persisted history at the best N entries; 0 keeps everything.
	MaxEntries int `koanf:"max_entries"`

	// LeaderboardSize is the number of entries served by GET /api/leaderboard.
	LeaderboardSize int `koanf:"leaderboard_size"`

	// QueueSize bounds the pending submissions waiting for the writer.
	QueueSize int `koanf:"queue_size"`

	// SubmitTimeoutMS bounds how long a POST waits for its entry to be saved.
	// Must be below WriteTimeoutMS so the reply can still be written.
	SubmitTimeoutMS int `koanf:"submit_timeout_ms"`

	// WriteTimeoutMS is the HTTP server write timeout.
	WriteTimeoutMS int `koanf:"write_timeout_ms"`

	// MetricsNamespace and MetricsSubsystem prefix every Prometheus metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsBuckets overrides the latency histogram buckets (milliseconds).
	MetricsBuckets []float64 `koanf:"metrics_buckets"`

	// MetricsLabels are constant labels attached to every metric, e.g. env.
	MetricsLabels map[string]string `koanf:"metrics_labels"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":5000",
		StoreBackend:    "file",
		StorePath:       "leaderboard.json",
		AtomicWrites:    false,
		MaxEntries:      0,
		LeaderboardSize: 10,
		QueueSize:       1024,
		SubmitTimeoutMS: 5000,
		WriteTimeoutMS:  10000,

		MetricsNamespace: "dexboard",
		MetricsSubsystem: "leaderboard",
	}
}

// WriteTimeout returns WriteTimeoutMS as a duration.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMS) * time.Millisecond
}

// SubmitTimeout returns SubmitTimeoutMS as a duration.
func (c *Config) SubmitTimeout() time.Duration {
	return time.Duration(c.SubmitTimeoutMS) * time.Millisecond
}
