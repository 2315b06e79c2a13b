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
	"github.com/robfig/cron/v3"
)

const (
	envPrefix  = "GRIDIRON_"
	envConfig  = "GRIDIRON_CONFIG"
	dotEnvFile = ".env"
)

// Load builds a Config by layering defaults, a .env file, an optional YAML file and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. .env in the working directory, if present; it never overrides the real environment
//  3. file (YAML) if GRIDIRON_CONFIG is set
//  4. env (prefix GRIDIRON_)
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, dotEnvFile)
}

// LoadFrom is Load with an explicit .env path. An empty path skips the .env step.
func LoadFrom(ctx context.Context, dotEnv string) (*Config, error) {
	base := New(ctx)

	if dotEnv != "" {
		if err := godotenv.Load(dotEnv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, dotEnv, err)
		}
	}

	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// GRIDIRON_WORKER_COUNT -> worker_count, GRIDIRON_WEIGHTS_EPA -> weights.epa.
	envProvider := env.Provider(envPrefix, ".", envKey)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	// Rows decode onto existing elements, so a configured schedule must start empty.
	if k.Exists("recency_schedule") {
		cfg.RecencySchedule = nil
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	if rest, ok := strings.CutPrefix(s, "weights_"); ok {
		return "weights." + rest
	}
	return s
}

// Validate checks every setting and wraps failures with ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if c.WorkerCount < 1 {
		errs = append(errs, fmt.Errorf("worker_count must be positive, got %d", c.WorkerCount))
	}
	if c.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("queue_size must be positive, got %d", c.QueueSize))
	}
	if c.MaxRankingsLimit < 1 {
		errs = append(errs, fmt.Errorf("max_rankings_limit must be positive, got %d", c.MaxRankingsLimit))
	}
	if c.FeedTimeoutMS < 1 {
		errs = append(errs, fmt.Errorf("feed_timeout_ms must be positive, got %d", c.FeedTimeoutMS))
	}
	if c.ShutdownTimeoutMS < 1 {
		errs = append(errs, fmt.Errorf("shutdown_timeout_ms must be positive, got %d", c.ShutdownTimeoutMS))
	}
	if c.HomeFieldBonus < 0 {
		errs = append(errs, fmt.Errorf("home_field_bonus must not be negative, got %g", c.HomeFieldBonus))
	}
	switch c.Projector {
	case ProjectorLogistic, ProjectorFitted:
	default:
		errs = append(errs, fmt.Errorf("projector must be %q or %q, got %q", ProjectorLogistic, ProjectorFitted, c.Projector))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
		errs = append(errs, fmt.Errorf("refresh_schedule: %w", err))
	}
	if err := c.Weights.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Schedule().Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
