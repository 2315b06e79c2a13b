// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a .env file, an optional YAML file and GRIDIRON_ env vars on top.
// - Errors are wrapped with ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"context"
	"runtime"

	"github.com/okian/gridiron/internal/domain/blend"
	"github.com/okian/gridiron/internal/domain/scoring"
)

// Projector names accepted by the projector setting.
const (
	ProjectorLogistic = "logistic"
	ProjectorFitted   = "fitted"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// WorkerCount sets the number of batch prediction and persistence workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the persistence queue.
	QueueSize int `koanf:"queue_size"`

	// MaxRankingsLimit caps GET /rankings?limit.
	MaxRankingsLimit int `koanf:"max_rankings_limit"`

	// DBPath is the SQLite database file. Empty disables persistence.
	DBPath string `koanf:"db_path"`

	// Snapshot sources. URLs take precedence; files are the fallback.
	GradesPath   string `koanf:"grades_path"`
	InjuriesPath string `koanf:"injuries_path"`
	GradesURL    string `koanf:"grades_url"`
	InjuriesURL  string `koanf:"injuries_url"`

	// RefreshSchedule is a cron spec or descriptor such as @hourly.
	RefreshSchedule string `koanf:"refresh_schedule"`

	// FeedTimeoutMS bounds one feed request.
	FeedTimeoutMS int `koanf:"feed_timeout_ms"`

	// ShutdownTimeoutMS bounds graceful shutdown.
	ShutdownTimeoutMS int `koanf:"shutdown_timeout_ms"`

	// HomeFieldBonus is added to the home final score.
	HomeFieldBonus float64 `koanf:"home_field_bonus"`

	// Projector is logistic or fitted.
	Projector string `koanf:"projector"`

	// Weights are the category weights of the final score.
	Weights scoring.Weights `koanf:"weights"`

	// RecencySchedule maps weeks of current-season data to season weights.
	RecencySchedule []blend.Weights `koanf:"recency_schedule"`
}

// New creates a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		WorkerCount:       runtime.NumCPU(),
		QueueSize:         1024,
		MaxRankingsLimit:  32,
		DBPath:            "gridiron.db",
		RefreshSchedule:   "@hourly",
		FeedTimeoutMS:     10_000,
		ShutdownTimeoutMS: 30_000,
		HomeFieldBonus:    scoring.DefaultHomeFieldBonus,
		Projector:         ProjectorLogistic,
		Weights:           scoring.DefaultWeights,
		RecencySchedule:   append([]blend.Weights(nil), blend.DefaultSchedule...),
	}
}

// Schedule returns the recency schedule as a blend.Schedule.
func (c *Config) Schedule() blend.Schedule {
	return blend.Schedule(c.RecencySchedule)
}

// Fitted reports whether the fitted projector is selected.
func (c *Config) Fitted() bool {
	return c.Projector == ProjectorFitted
}
