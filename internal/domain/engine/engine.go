// Package engine turns one consistent set of inputs into a PredictionResult. It has
// no I/O and no shared mutable state, so one Engine may serve many goroutines.
package engine

import (
	"fmt"
	"sort"

	"github.com/okian/gridiron/internal/domain/blend"
	"github.com/okian/gridiron/internal/domain/grades"
	"github.com/okian/gridiron/internal/domain/injury"
	"github.com/okian/gridiron/internal/domain/matchup"
	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/domain/scoring"
	"github.com/okian/gridiron/internal/domain/subscore"
	"github.com/okian/gridiron/internal/domain/weather"
)

// Default kinds reported in PredictionResult.Defaults.
const (
	DefaultHistory    = "history"
	DefaultTeamGrades = "team_grades"
	DefaultTeamGrade  = "team_grade"
	DefaultWeather    = "weather"
	seasonsConsidered = 3
)

// TeamInput is everything known about one side of the game.
type TeamInput struct {
	Team string
	// Plays holds the current season, the prior season and two seasons ago.
	Plays [seasonsConsidered][]model.PlayRecord
	// Scores are precomputed sub-scores; a non-nil entry wins over Plays for that season.
	Scores   [seasonsConsidered]*model.SubScores
	Injuries []model.InjuryRecord
}

// Inputs are the arguments of one prediction.
type Inputs struct {
	Season          int
	Week            int
	Home            TeamInput
	Away            TeamInput
	Weather         *model.WeatherConditions
	Grades          *grades.Snapshot
	SnapshotVersion string
}

// Engine holds validated configuration. It is immutable after New.
type Engine struct {
	weights   scoring.Weights
	schedule  blend.Schedule
	tables    injury.Tables
	homeBonus float64
	projector scoring.Projector
	injuries  *injury.Calculator
}

// New builds an Engine, rejecting configuration that could never produce valid results.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		weights:   scoring.DefaultWeights,
		schedule:  blend.DefaultSchedule,
		tables:    injury.DefaultTables(),
		homeBonus: scoring.DefaultHomeFieldBonus,
		projector: scoring.LogisticProjector{Scale: scoring.DefaultLogisticScale},
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.weights.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := e.schedule.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := e.tables.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if e.homeBonus < 0 {
		return nil, fmt.Errorf("%w: home field bonus %.2f is negative", ErrInvalidConfig, e.homeBonus)
	}
	if e.projector == nil {
		return nil, fmt.Errorf("%w: projector is nil", ErrInvalidConfig)
	}

	e.injuries = injury.NewCalculator(e.tables)
	return e, nil
}

// Predict rates both teams and projects the outcome.
func (e *Engine) Predict(in Inputs) model.PredictionResult {
	snap := in.Grades
	if snap == nil {
		snap = grades.Empty()
	}
	var defaults []string

	rw := e.schedule.For(blend.WeeksAvailable(in.Week))
	home, homePass, d := e.rate(in.Home, in.Season, in.Week, rw, snap)
	defaults = append(defaults, d...)
	away, awayPass, d := e.rate(in.Away, in.Season, in.Week, rw, snap)
	defaults = append(defaults, d...)

	alloc := matchup.Allocate(matchup.GradesFor(snap, home.Team), matchup.GradesFor(snap, away.Team))
	home.MatchupPoints = alloc.PointsA
	away.MatchupPoints = alloc.PointsB

	if in.Weather == nil {
		defaults = append(defaults, DefaultWeather)
	}
	home.WeatherScore = weather.Score(in.Weather, homePass)
	away.WeatherScore = weather.Score(in.Weather, awayPass)

	homeReport := e.injuries.Team(home.Team, in.Home.Injuries, snap)
	awayReport := e.injuries.Team(away.Team, in.Away.Injuries, snap)
	home.InjuryImpact, home.Injuries = homeReport.Total, homeReport.Players
	away.InjuryImpact, away.Injuries = awayReport.Total, awayReport.Players
	defaults = append(defaults, homeReport.Fallbacks...)
	defaults = append(defaults, awayReport.Fallbacks...)

	home.HomeBonus = e.homeBonus
	home.FinalScore = scoring.Combine(e.weights, inputsOf(home))
	away.FinalScore = scoring.Combine(e.weights, inputsOf(away))

	out := scoring.Project(e.projector, home.Team, away.Team, home.FinalScore, away.FinalScore)
	sort.Strings(defaults)

	return model.PredictionResult{
		HomeTeam:           home.Team,
		AwayTeam:           away.Team,
		Season:             in.Season,
		Week:               in.Week,
		HomeScore:          home.FinalScore,
		AwayScore:          away.FinalScore,
		HomeWinProbability: out.HomeWinProbability,
		Winner:             out.Winner,
		Confidence:         out.Confidence,
		ProjectedMargin:    out.ProjectedMargin,
		RecencyWeights:     rw.Array(),
		Matchup:            alloc.Categories,
		Home:               home,
		Away:               away,
		Defaults:           defaults,
		SnapshotVersion:    in.SnapshotVersion,
	}
}

// rate computes the blended sub-scores of one team and reports its pass rate and
// any defaults applied on the way.
func (e *Engine) rate(t TeamInput, season, week int, rw blend.Weights, snap *grades.Snapshot) (model.TeamBreakdown, float64, []string) {
	team := model.NormalizeTeam(t.Team)
	b := model.TeamBreakdown{Team: team}
	var defaults []string

	var seasons [seasonsConsidered]*model.SubScores
	var all []model.PlayRecord
	for i := 0; i < seasonsConsidered; i++ {
		year := season - i
		plays := t.Plays[i]
		if i == 0 {
			plays = throughWeek(plays, week-1)
		}
		all = append(all, plays...)

		switch {
		case t.Scores[i] != nil:
			s := *t.Scores[i]
			seasons[i] = &s
		case len(plays) > 0:
			s := subscore.Calculate(plays)
			seasons[i] = &s
		default:
			defaults = append(defaults, fmt.Sprintf("%s:%s:%d", DefaultHistory, team, year))
			continue
		}
		b.Seasons = append(b.Seasons, year)
	}
	b.Blended = blend.Blend(rw, seasons[0], seasons[1], seasons[2])

	if !snap.HasTeam(team) {
		defaults = append(defaults, fmt.Sprintf("%s:%s", DefaultTeamGrades, team))
	} else {
		for _, u := range gradedUnits {
			if _, src := snap.Lookup(team, u); src != grades.SourceGraded {
				defaults = append(defaults, fmt.Sprintf("%s:%s:%s:%s", DefaultTeamGrade, team, u, src))
			}
		}
	}
	return b, subscore.PassRate(all), defaults
}

var gradedUnits = []model.Unit{
	model.UnitOffense, model.UnitDefense, model.UnitSpecialTeams,
	model.UnitPassing, model.UnitRushing, model.UnitPassBlocking,
	model.UnitPassRush, model.UnitRunDefense, model.UnitCoverage,
}

// throughWeek drops plays after lastWeek. A non-positive lastWeek keeps nothing.
func throughWeek(plays []model.PlayRecord, lastWeek int) []model.PlayRecord {
	out := make([]model.PlayRecord, 0, len(plays))
	for _, p := range plays {
		if p.Week <= lastWeek {
			out = append(out, p)
		}
	}
	return out
}

func inputsOf(b model.TeamBreakdown) scoring.Inputs {
	return scoring.Inputs{
		Blended:       b.Blended,
		MatchupPoints: b.MatchupPoints,
		Weather:       b.WeatherScore,
		InjuryImpact:  b.InjuryImpact,
		HomeBonus:     b.HomeBonus,
	}
}
