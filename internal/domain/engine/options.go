package engine

import (
	"github.com/okian/gridiron/internal/domain/blend"
	"github.com/okian/gridiron/internal/domain/injury"
	"github.com/okian/gridiron/internal/domain/scoring"
)

// Option configures an Engine.
type Option func(*Engine)

// WithWeights sets the category weights.
func WithWeights(w scoring.Weights) Option {
	return func(e *Engine) {
		e.weights = w
	}
}

// WithSchedule sets the recency weight schedule. An empty schedule keeps the default.
func WithSchedule(s blend.Schedule) Option {
	return func(e *Engine) {
		if len(s) > 0 {
			e.schedule = s
		}
	}
}

// WithInjuryTables sets the penalty and multiplier tables.
func WithInjuryTables(t injury.Tables) Option {
	return func(e *Engine) {
		e.tables = t
	}
}

// WithHomeFieldBonus sets the points added to the home team.
func WithHomeFieldBonus(points float64) Option {
	return func(e *Engine) {
		e.homeBonus = points
	}
}

// WithProjector sets how score differences become probabilities.
func WithProjector(p scoring.Projector) Option {
	return func(e *Engine) {
		e.projector = p
	}
}
