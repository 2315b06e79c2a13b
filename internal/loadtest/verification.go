package loadtest

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/gridiron/internal/adapters/repository"
	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/pkg/logger"
)

const probabilityTolerance = 1e-9

// verify checks every prediction and the rankings for internal consistency.
// A strongest team outside the top half of the rankings is only logged; the
// generator is noisy on purpose.
func verify(ctx context.Context, l *League, predictions []model.PredictionResult, standings []repository.Standing, stats *Stats) error {
	log := logger.Named("loadtest")
	strength := make(map[string]float64, len(l.Teams))
	for _, t := range l.Teams {
		strength[t.ID] = t.Strength
	}

	for _, p := range predictions {
		if err := checkPrediction(p); err != nil {
			return err
		}
		favourite := p.HomeTeam
		if strength[p.AwayTeam] > strength[p.HomeTeam] {
			favourite = p.AwayTeam
		}
		if p.Winner != favourite {
			stats.UpsetsPredicted++
		}
	}

	if err := checkStandings(standings); err != nil {
		return err
	}

	ranked := make([]string, len(standings))
	for i, s := range standings {
		ranked[i] = s.Team
	}
	best := l.Strongest()
	if len(ranked) > 0 && !topHalf(ranked, best.ID) {
		log.Warn(ctx, "strongest generated team ranked in the bottom half",
			logger.String("team", best.ID), logger.Any("rankings", ranked), logger.Any("strength", byStrength(l.Teams)))
	}
	return nil
}

func checkPrediction(p model.PredictionResult) error {
	prob := p.HomeWinProbability
	switch {
	case prob < 0 || prob > 1 || math.IsNaN(prob):
		return fmt.Errorf("%w: %s@%s probability %f", ErrInconsistent, p.AwayTeam, p.HomeTeam, prob)
	case (prob >= 0.5) != (p.Winner == p.HomeTeam):
		return fmt.Errorf("%w: %s@%s winner %s with home probability %f", ErrInconsistent, p.AwayTeam, p.HomeTeam, p.Winner, prob)
	case math.Abs(p.Confidence-math.Max(prob, 1-prob)) > probabilityTolerance:
		return fmt.Errorf("%w: %s@%s confidence %f with home probability %f", ErrInconsistent, p.AwayTeam, p.HomeTeam, p.Confidence, prob)
	}
	return nil
}

func checkStandings(standings []repository.Standing) error {
	for i := 1; i < len(standings); i++ {
		prev, cur := standings[i-1], standings[i]
		if cur.Rating > prev.Rating {
			return fmt.Errorf("%w: %s rated %f above %s at %f", ErrInconsistent, cur.Team, cur.Rating, prev.Team, prev.Rating)
		}
		if cur.Rank < prev.Rank {
			return fmt.Errorf("%w: rank %d follows rank %d", ErrInconsistent, cur.Rank, prev.Rank)
		}
	}
	return nil
}
