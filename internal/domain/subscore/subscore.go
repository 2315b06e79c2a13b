// Package subscore reduces one team's play-level history for one season into
// four 0-100 ratings.
package subscore

import (
	"math"

	"github.com/okian/gridiron/internal/domain/model"
	"gonum.org/v1/gonum/stat"
)

// Rescaling constants for the four ratings.
const (
	epaPointsPerUnit     = 20.0
	yardageBaseline      = 4.0
	yardagePointsPerYard = 25.0
	turnoverPointsPerPct = 500.0
	maxScore             = 100.0

	// LeaguePassRate is the neutral pass share used when a team has no pass or run plays.
	LeaguePassRate = 0.55
)

// Calculate computes the sub-scores for plays. An empty slice yields neutral scores.
func Calculate(plays []model.PlayRecord) model.SubScores {
	if len(plays) == 0 {
		return model.NeutralSubScores()
	}

	epa := make([]float64, len(plays))
	yards := make([]float64, len(plays))
	var successes, turnovers int
	for i := range plays {
		p := &plays[i]
		epa[i] = p.EfficiencyAdded
		yards[i] = p.YardsGained
		if p.IsSuccess {
			successes++
		}
		if p.IsTurnover {
			turnovers++
		}
	}
	n := float64(len(plays))

	return model.SubScores{
		EPA:        EPAScore(stat.Mean(epa, nil)),
		Efficiency: clamp(float64(successes) / n * maxScore),
		Yardage:    YardageScore(stat.Mean(yards, nil)),
		Turnover:   TurnoverScore(float64(turnovers) / n),
	}
}

// EPAScore maps a mean EPA per play onto 0-100 with 0 at 50.
func EPAScore(meanEPA float64) float64 {
	return clamp(model.NeutralScore + meanEPA*epaPointsPerUnit)
}

// YardageScore maps mean yards per play onto 0-100 with 4.0 at 50.
func YardageScore(meanYards float64) float64 {
	return clamp(model.NeutralScore + (meanYards-yardageBaseline)*yardagePointsPerYard)
}

// TurnoverScore maps a turnovers-per-play rate onto 0-100; 0% is 100 and 10% is 50.
func TurnoverScore(rate float64) float64 {
	return clamp(maxScore - rate*turnoverPointsPerPct)
}

// PassRate returns the share of pass plays among pass and run plays.
func PassRate(plays []model.PlayRecord) float64 {
	var pass, run int
	for i := range plays {
		switch plays[i].PlayType {
		case model.PlayPass:
			pass++
		case model.PlayRun:
			run++
		}
	}
	if pass+run == 0 {
		return LeaguePassRate
	}
	return float64(pass) / float64(pass+run)
}

// DeriveSuccess decides whether a play counts as successful. When EPA is known a
// positive value is a success; otherwise the play must gain 40% of the distance on
// first down, 60% on second down and all of it on third or fourth down.
func DeriveSuccess(down, distance int, yards, epa float64, hasEPA bool) bool {
	if hasEPA {
		return epa > 0
	}
	if distance <= 0 {
		return yards > 0
	}
	need := float64(distance)
	switch down {
	case 1:
		need *= 0.4
	case 2:
		need *= 0.6
	}
	return yards >= need
}

// ResolveSuccess returns the play's success flag, deriving it with DeriveSuccess
// when the feed did not mark the play successful. A zero EPA counts as unknown.
func ResolveSuccess(p model.PlayRecord) bool {
	if p.IsSuccess {
		return true
	}
	return DeriveSuccess(p.Down, p.DistanceToGo, p.YardsGained, p.EfficiencyAdded, p.EfficiencyAdded != 0)
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return model.NeutralScore
	}
	return math.Max(0, math.Min(maxScore, v))
}
