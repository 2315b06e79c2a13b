// Package scoring combines a team's category scores into one final score and
// projects two final scores into a win probability.
package scoring

import (
	"fmt"
	"math"

	"github.com/okian/gridiron/internal/domain/model"
)

// Scoring constants.
const (
	// DefaultHomeFieldBonus is added to the home team's final score.
	DefaultHomeFieldBonus = 2.5
	// DefaultLogisticScale is the score difference that moves the log-odds by one.
	DefaultLogisticScale = 10.0
	// marginPerPoint converts a final-score difference into projected game points.
	marginPerPoint  = 0.6
	weightTolerance = 1e-6
)

// Weights are the category weights applied to the non-injury inputs. They must sum to one.
type Weights struct {
	EPA        float64 `koanf:"epa" json:"epa"`
	Efficiency float64 `koanf:"efficiency" json:"efficiency"`
	Yardage    float64 `koanf:"yardage" json:"yardage"`
	Turnover   float64 `koanf:"turnover" json:"turnover"`
	Matchup    float64 `koanf:"matchup" json:"matchup"`
	Weather    float64 `koanf:"weather" json:"weather"`
}

// DefaultWeights is the canonical category weight table.
var DefaultWeights = Weights{
	EPA:        0.25,
	Efficiency: 0.15,
	Yardage:    0.10,
	Turnover:   0.10,
	Matchup:    0.30,
	Weather:    0.10,
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.EPA + w.Efficiency + w.Yardage + w.Turnover + w.Matchup + w.Weather
}

// Validate checks that weights are non-negative and sum to one.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"epa": w.EPA, "efficiency": w.Efficiency, "yardage": w.Yardage,
		"turnover": w.Turnover, "matchup": w.Matchup, "weather": w.Weather,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s weight is negative", ErrInvalidWeights, name)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %.4f", ErrInvalidWeights, sum)
	}
	return nil
}

// Inputs are one team's contributions to its final score.
type Inputs struct {
	Blended       model.SubScores
	MatchupPoints float64
	Weather       float64
	// InjuryImpact is zero or negative.
	InjuryImpact float64
	HomeBonus    float64
}

// Combine returns the weighted category sum, adjusted by the injury impact and any home bonus.
func Combine(w Weights, in Inputs) float64 {
	score := in.Blended.EPA*w.EPA +
		in.Blended.Efficiency*w.Efficiency +
		in.Blended.Yardage*w.Yardage +
		in.Blended.Turnover*w.Turnover +
		in.MatchupPoints*w.Matchup +
		in.Weather*w.Weather
	return score + in.InjuryImpact + in.HomeBonus
}

// Projector turns a home-minus-away score difference into a home win probability.
type Projector interface {
	Probability(scoreDiff float64) float64
}

// LogisticProjector applies a fixed logistic curve.
type LogisticProjector struct {
	Scale float64
}

// Probability implements Projector.
func (p LogisticProjector) Probability(scoreDiff float64) float64 {
	scale := p.Scale
	if scale <= 0 {
		scale = DefaultLogisticScale
	}
	return 1 / (1 + math.Exp(-scoreDiff/scale))
}

// Outcome is the projected result of a game.
type Outcome struct {
	HomeWinProbability float64
	Winner             string
	Confidence         float64
	ProjectedMargin    float64
}

// Project resolves the winner, confidence and margin for two final scores. A
// probability of exactly one half goes to the home team.
func Project(p Projector, home, away string, homeScore, awayScore float64) Outcome {
	diff := homeScore - awayScore
	prob := p.Probability(diff)
	winner := home
	if prob < 0.5 {
		winner = away
	}
	return Outcome{
		HomeWinProbability: prob,
		Winner:             winner,
		Confidence:         math.Max(prob, 1-prob),
		ProjectedMargin:    diff * marginPerPoint,
	}
}
