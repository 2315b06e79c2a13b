package model

// Unit names a team-level grade.
type Unit string

// Overall and leaf units carried by the positional grade feed.
const (
	UnitOffense      Unit = "offense"
	UnitDefense      Unit = "defense"
	UnitSpecialTeams Unit = "special_teams"

	UnitPassing      Unit = "passing"
	UnitRushing      Unit = "rushing"
	UnitReceiving    Unit = "receiving"
	UnitPassBlocking Unit = "pass_blocking"
	UnitRunBlocking  Unit = "run_blocking"
	UnitPassRush     Unit = "pass_rush"
	UnitRunDefense   Unit = "run_defense"
	UnitCoverage     Unit = "coverage"
	UnitTackling     Unit = "tackling"
)

// OffenseLeaves and DefenseLeaves list the leaf units that make up each side of the ball.
var (
	OffenseLeaves = []Unit{UnitPassing, UnitRushing, UnitReceiving, UnitPassBlocking, UnitRunBlocking}
	DefenseLeaves = []Unit{UnitPassRush, UnitRunDefense, UnitCoverage, UnitTackling}
)

// WeatherConditions describes the forecast at kickoff. A nil value means no signal.
type WeatherConditions struct {
	TemperatureF      float64 `json:"temperature_f"`
	WindMPH           float64 `json:"wind_mph"`
	PrecipProbability float64 `json:"precip_probability"`
	Dome              bool    `json:"dome"`
}

// Game is one scheduled matchup.
type Game struct {
	Home    string             `json:"home"`
	Away    string             `json:"away"`
	Weather *WeatherConditions `json:"weather,omitempty"`
}

// MatchupCategory is one head-to-head facet of the matchup allocation.
type MatchupCategory struct {
	Name   string  `json:"name"`
	Share  float64 `json:"share"`
	Weight float64 `json:"weight"`
}

// PlayerImpact records the penalty charged for one injured player.
type PlayerImpact struct {
	Player           string       `json:"player"`
	Position         string       `json:"position"`
	Status           InjuryStatus `json:"status"`
	PlayerGrade      float64      `json:"player_grade"`
	ReplacementGrade float64      `json:"replacement_grade"`
	BasePenalty      float64      `json:"base_penalty"`
	Multiplier       float64      `json:"multiplier"`
	StatusMultiplier float64      `json:"status_multiplier"`
	Impact           float64      `json:"impact"`
}

// TeamBreakdown exposes every input that contributed to a team's final score.
type TeamBreakdown struct {
	Team          string         `json:"team"`
	Seasons       []int          `json:"seasons"`
	Blended       SubScores      `json:"blended"`
	MatchupPoints float64        `json:"matchup_points"`
	WeatherScore  float64        `json:"weather_score"`
	InjuryImpact  float64        `json:"injury_impact"`
	Injuries      []PlayerImpact `json:"injuries,omitempty"`
	HomeBonus     float64        `json:"home_bonus"`
	FinalScore    float64        `json:"final_score"`
}

// PredictionResult is the immutable output of one prediction.
type PredictionResult struct {
	HomeTeam           string            `json:"home_team"`
	AwayTeam           string            `json:"away_team"`
	Season             int               `json:"season"`
	Week               int               `json:"week"`
	HomeScore          float64           `json:"home_score"`
	AwayScore          float64           `json:"away_score"`
	HomeWinProbability float64           `json:"home_win_probability"`
	Winner             string            `json:"winner"`
	Confidence         float64           `json:"confidence"`
	ProjectedMargin    float64           `json:"projected_margin"`
	RecencyWeights     [3]float64        `json:"recency_weights"`
	Matchup            []MatchupCategory `json:"matchup"`
	Home               TeamBreakdown     `json:"home"`
	Away               TeamBreakdown     `json:"away"`
	Defaults           []string          `json:"defaults,omitempty"`
	SnapshotVersion    string            `json:"snapshot_version,omitempty"`
}
