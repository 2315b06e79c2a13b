// Package model contains domain records passed between layers.
package model

// PlayType classifies a snap.
type PlayType string

// Play types recognised by the sub-score calculators.
const (
	PlayPass  PlayType = "pass"
	PlayRun   PlayType = "run"
	PlayOther PlayType = "other"
)

// ParsePlayType maps feed spellings onto a PlayType; unknown values become PlayOther.
func ParsePlayType(s string) PlayType {
	switch s {
	case "pass", "PASS", "Pass", "dropback":
		return PlayPass
	case "run", "RUN", "Run", "rush":
		return PlayRun
	default:
		return PlayOther
	}
}

// PlayRecord is one offensive snap as delivered by the play-level history feed.
// Records are read-only once ingested.
type PlayRecord struct {
	GameID              string   `json:"game_id"`
	Team                string   `json:"team"`
	Season              int      `json:"season"`
	Week                int      `json:"week"`
	Down                int      `json:"down"`
	DistanceToGo        int      `json:"distance_to_go"`
	YardlineFromGoal100 int      `json:"yardline_100"`
	PlayType            PlayType `json:"play_type"`
	YardsGained         float64  `json:"yards_gained"`
	EfficiencyAdded     float64  `json:"epa"`
	IsSuccess           bool     `json:"success"`
	IsTurnover          bool     `json:"turnover"`
}

// SubScores holds the four per-team, per-season ratings on a 0-100 scale.
type SubScores struct {
	EPA        float64 `json:"epa_score"`
	Efficiency float64 `json:"efficiency_score"`
	Yardage    float64 `json:"yardage_score"`
	Turnover   float64 `json:"turnover_score"`
}

// NeutralScore is the value every rating falls back to when data is missing.
const NeutralScore = 50.0

// NeutralSubScores returns sub-scores with every field at NeutralScore.
func NeutralSubScores() SubScores {
	return SubScores{
		EPA:        NeutralScore,
		Efficiency: NeutralScore,
		Yardage:    NeutralScore,
		Turnover:   NeutralScore,
	}
}
