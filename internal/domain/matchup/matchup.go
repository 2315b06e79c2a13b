// Package matchup allocates a fixed point budget between two teams from their
// head-to-head unit grades.
package matchup

import (
	"math"

	"github.com/okian/gridiron/internal/domain/grades"
	"github.com/okian/gridiron/internal/domain/model"
)

// Allocation constants.
const (
	// Budget is the number of points split between the two teams.
	Budget = 100.0

	unitSensitivity         = 10.0
	specialTeamsSensitivity = 8.0
	minShare                = 0.35
	maxShare                = 0.65
)

// Category names in the allocation breakdown.
const (
	CategoryOverall      = "overall"
	CategoryPassing      = "passing"
	CategoryTrenchesPass = "pass_block_vs_rush"
	CategoryRunGame      = "run_game"
	CategorySpecialTeams = "special_teams"
)

// categoryWeights sum to one.
var categoryWeights = map[string]float64{
	CategoryOverall:      0.25,
	CategoryPassing:      0.25,
	CategoryTrenchesPass: 0.20,
	CategoryRunGame:      0.20,
	CategorySpecialTeams: 0.10,
}

// TeamGrades are the unit grades a team brings into the matchup.
type TeamGrades struct {
	Offense      float64
	Defense      float64
	Passing      float64
	Coverage     float64
	PassBlocking float64
	PassRush     float64
	Rushing      float64
	RunDefense   float64
	SpecialTeams float64
}

// GradesFor reads a team's matchup grades from a snapshot.
func GradesFor(s *grades.Snapshot, team string) TeamGrades {
	return TeamGrades{
		Offense:      s.TeamGrade(team, model.UnitOffense),
		Defense:      s.TeamGrade(team, model.UnitDefense),
		Passing:      s.TeamGrade(team, model.UnitPassing),
		Coverage:     s.TeamGrade(team, model.UnitCoverage),
		PassBlocking: s.TeamGrade(team, model.UnitPassBlocking),
		PassRush:     s.TeamGrade(team, model.UnitPassRush),
		Rushing:      s.TeamGrade(team, model.UnitRushing),
		RunDefense:   s.TeamGrade(team, model.UnitRunDefense),
		SpecialTeams: s.TeamGrade(team, model.UnitSpecialTeams),
	}
}

// Allocation is team A's share of the budget and the per-category detail.
type Allocation struct {
	ShareA     float64
	PointsA    float64
	PointsB    float64
	Categories []model.MatchupCategory
}

// Allocate splits the budget between a and b. Swapping the arguments mirrors the result.
func Allocate(a, b TeamGrades) Allocation {
	cats := []model.MatchupCategory{
		category(CategoryOverall, pairShare(a.Offense, b.Defense, b.Offense, a.Defense)),
		category(CategoryPassing, pairShare(a.Passing, b.Coverage, b.Passing, a.Coverage)),
		category(CategoryTrenchesPass, pairShare(a.PassBlocking, b.PassRush, b.PassBlocking, a.PassRush)),
		category(CategoryRunGame, pairShare(a.Rushing, b.RunDefense, b.Rushing, a.RunDefense)),
		category(CategorySpecialTeams, clampShare(sigmoid(a.SpecialTeams-b.SpecialTeams, specialTeamsSensitivity))),
	}

	var share float64
	for _, c := range cats {
		share += c.Share * c.Weight
	}
	return Allocation{
		ShareA:     share,
		PointsA:    share * Budget,
		PointsB:    (1 - share) * Budget,
		Categories: cats,
	}
}

// pairShare averages A attacking B with the complement of B attacking A.
func pairShare(aOff, bDef, bOff, aDef float64) float64 {
	s := 0.5 * (sigmoid(aOff-bDef, unitSensitivity) + (1 - sigmoid(bOff-aDef, unitSensitivity)))
	return clampShare(s)
}

func category(name string, share float64) model.MatchupCategory {
	return model.MatchupCategory{Name: name, Share: share, Weight: categoryWeights[name]}
}

func sigmoid(x, k float64) float64 {
	return 1 / (1 + math.Exp(-x/k))
}

func clampShare(s float64) float64 {
	return math.Max(minShare, math.Min(maxShare, s))
}
