// Package repository persists play history, predictions and game outcomes, and
// keeps the in-memory power rankings.
package repository

import (
	"context"
	"time"

	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/domain/scoring"
)

// Record is one persisted prediction.
type Record struct {
	ID        string                 `json:"id"`
	CreatedAt time.Time              `json:"created_at"`
	Result    model.PredictionResult `json:"result"`
}

// Outcome is the final score of a played game.
type Outcome struct {
	Season     int    `json:"season"`
	Week       int    `json:"week"`
	Home       string `json:"home"`
	Away       string `json:"away"`
	HomePoints int    `json:"home_points"`
	AwayPoints int    `json:"away_points"`
}

// PlayStore is the play-level history feed.
type PlayStore interface {
	// Plays returns team's plays for season, through throughWeek inclusive when it is positive.
	Plays(ctx context.Context, team string, season, throughWeek int) ([]model.PlayRecord, error)
}

// PlayWriter appends plays to the history feed.
type PlayWriter interface {
	InsertPlays(ctx context.Context, plays []model.PlayRecord) error
}

// PredictionStore persists predictions and the outcomes used to fit the projector.
type PredictionStore interface {
	SavePrediction(ctx context.Context, result model.PredictionResult) (Record, error)
	Predictions(ctx context.Context, season, week int) ([]Record, error)
	SaveOutcome(ctx context.Context, o Outcome) error
	Samples(ctx context.Context) ([]scoring.Sample, error)
}
