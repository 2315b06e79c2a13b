package worker

import (
	"github.com/okian/gridiron/pkg/logger"
)

type config struct {
	name   string
	logger logger.Logger
}

// Option configures a Worker.
type Option func(*config)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
