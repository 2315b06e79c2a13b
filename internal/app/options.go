package service

import (
	"time"

	"github.com/okian/gridiron/internal/adapters/repository"
	"github.com/okian/gridiron/internal/domain/dedupe"
	"github.com/okian/gridiron/internal/domain/engine"
	"github.com/okian/gridiron/internal/snapshot"
	"github.com/okian/gridiron/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithEngineOptions sets the options every engine of the service is built with.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithFittedProjector makes Start and RecordOutcome fit the win-probability curve
// to stored outcomes instead of using the fixed logistic curve.
func WithFittedProjector(enabled bool) Option {
	return func(s *Service) {
		s.fitted = enabled
	}
}

// WithSnapshotHolder sets where grades and injuries are read from.
func WithSnapshotHolder(h *snapshot.Holder) Option {
	return func(s *Service) {
		if h != nil {
			s.holder = h
		}
	}
}

// WithPlayStore sets the play-level history feed.
func WithPlayStore(p repository.PlayStore) Option {
	return func(s *Service) {
		if p != nil {
			s.plays = p
		}
	}
}

// WithPredictionStore enables persistence of predictions and outcomes.
func WithPredictionStore(p repository.PredictionStore) Option {
	return func(s *Service) {
		if p != nil {
			s.store = p
		}
	}
}

// WithRankings sets the power rankings board.
func WithRankings(r *repository.Rankings) Option {
	return func(s *Service) {
		if r != nil {
			s.rankings = r
		}
	}
}

// WithWorkerCount sets how many games of a batch are predicted at once and how
// many workers persist predictions.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the persistence queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDeduper sets how already-ingested play groups are remembered.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		if d != nil {
			s.ingested = d
		}
	}
}
