// Package grades holds an immutable snapshot of team unit grades and player grades
// and answers lookups with neutral defaults whenever data is missing.
package grades

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/okian/gridiron/internal/domain/model"
)

// Lookup defaults.
const (
	defaultGrade       = 50.0
	unknownBackupDelta = 15.0
	maxGrade           = 100.0
)

// Source reports which level of the fallback chain answered a lookup.
type Source int

// Fallback levels, from most to least specific.
const (
	SourceGraded Source = iota
	SourcePositionAverage
	SourceDerived
	SourceDefault
)

func (s Source) String() string {
	switch s {
	case SourceGraded:
		return "graded"
	case SourcePositionAverage:
		return "position_average"
	case SourceDerived:
		return "derived"
	default:
		return "default"
	}
}

// PlayerGrade is one graded player.
type PlayerGrade struct {
	Team     string  `json:"team" koanf:"team"`
	Position string  `json:"position" koanf:"position"`
	Name     string  `json:"name" koanf:"name"`
	Grade    float64 `json:"grade" koanf:"grade"`
}

// Snapshot is a read-only view of the grade feed at one point in time.
type Snapshot struct {
	Season int
	Week   int
	AsOf   time.Time

	teams   map[string]map[model.Unit]float64
	players map[string]map[string][]PlayerGrade // team -> position -> grades, best first
}

// NewSnapshot copies the inputs into a Snapshot. Team keys and positions are normalised.
func NewSnapshot(season, week int, asOf time.Time, teams map[string]map[model.Unit]float64, players []PlayerGrade) *Snapshot {
	s := &Snapshot{
		Season:  season,
		Week:    week,
		AsOf:    asOf,
		teams:   make(map[string]map[model.Unit]float64, len(teams)),
		players: make(map[string]map[string][]PlayerGrade),
	}
	for team, units := range teams {
		key := model.NormalizeTeam(team)
		dst := s.teams[key]
		if dst == nil {
			dst = make(map[model.Unit]float64, len(units))
			s.teams[key] = dst
		}
		for u, g := range units {
			dst[u] = clampGrade(g)
		}
	}
	for _, p := range players {
		p.Team = model.NormalizeTeam(p.Team)
		p.Position = NormalizePosition(p.Position)
		p.Name = strings.TrimSpace(p.Name)
		p.Grade = clampGrade(p.Grade)
		byPos := s.players[p.Team]
		if byPos == nil {
			byPos = make(map[string][]PlayerGrade)
			s.players[p.Team] = byPos
		}
		byPos[p.Position] = append(byPos[p.Position], p)
	}
	for _, byPos := range s.players {
		for _, list := range byPos {
			sort.SliceStable(list, func(i, j int) bool {
				if list[i].Grade != list[j].Grade {
					return list[i].Grade > list[j].Grade
				}
				return list[i].Name < list[j].Name
			})
		}
	}
	return s
}

// Empty returns a snapshot with no data; every lookup answers with a default.
func Empty() *Snapshot {
	return NewSnapshot(0, 0, time.Time{}, nil, nil)
}

// Teams returns the teams that have unit grades, sorted.
func (s *Snapshot) Teams() []string {
	out := make([]string, 0, len(s.teams))
	for t := range s.teams {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// HasTeam reports whether team has any unit grades.
func (s *Snapshot) HasTeam(team string) bool {
	_, ok := s.teams[model.NormalizeTeam(team)]
	return ok
}

// TeamGrade returns the unit grade for team; see Lookup.
func (s *Snapshot) TeamGrade(team string, unit model.Unit) float64 {
	g, _ := s.Lookup(team, unit)
	return g
}

// Lookup returns the unit grade for team. A missing leaf grade is neutral. A missing
// overall offense or defense grade is the mean of that side's present leaves.
func (s *Snapshot) Lookup(team string, unit model.Unit) (float64, Source) {
	units := s.teams[model.NormalizeTeam(team)]
	if g, ok := units[unit]; ok {
		return g, SourceGraded
	}
	var leaves []model.Unit
	switch unit {
	case model.UnitOffense:
		leaves = model.OffenseLeaves
	case model.UnitDefense:
		leaves = model.DefenseLeaves
	default:
		return defaultGrade, SourceDefault
	}
	var sum float64
	var n int
	for _, l := range leaves {
		if g, ok := units[l]; ok {
			sum += g
			n++
		}
	}
	if n == 0 {
		return defaultGrade, SourceDefault
	}
	return sum / float64(n), SourceDerived
}

// PlayerGrade returns the named player's grade. ok is false for unknown players.
func (s *Snapshot) PlayerGrade(team, position, name string) (grade float64, ok bool) {
	for _, p := range s.roster(team, position) {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p.Grade, true
		}
	}
	return 0, false
}

// PositionAverage returns the mean grade of a team's players at position.
func (s *Snapshot) PositionAverage(team, position string) (float64, bool) {
	list := s.roster(team, position)
	if len(list) == 0 {
		return 0, false
	}
	var sum float64
	for _, p := range list {
		sum += p.Grade
	}
	return sum / float64(len(list)), true
}

// Resolve returns a player's grade, falling back to the team's position average and
// then to the position's neutral grade.
func (s *Snapshot) Resolve(team, position, name string) (float64, Source) {
	if g, ok := s.PlayerGrade(team, position, name); ok {
		return g, SourceGraded
	}
	if g, ok := s.PositionAverage(team, position); ok {
		return g, SourcePositionAverage
	}
	return NeutralGrade(position), SourceDefault
}

// ReplacementGrade returns the grade of whoever would replace excluding; see Replacement.
func (s *Snapshot) ReplacementGrade(team, position, excluding string) float64 {
	g, _ := s.Replacement(team, position, excluding)
	return g
}

// Replacement returns the grade of the next-best player at position. With two or more
// graded players this is the best player other than excluding (the second-highest
// when excluding is the starter or unknown). With exactly one, it is that grade less
// a penalty for the unknown backup. With none, it is the position's neutral grade.
func (s *Snapshot) Replacement(team, position, excluding string) (float64, Source) {
	list := s.roster(team, position)
	switch len(list) {
	case 0:
		return NeutralGrade(position), SourceDefault
	case 1:
		return clampGrade(list[0].Grade - unknownBackupDelta), SourceDerived
	}
	name := strings.TrimSpace(excluding)
	for i, p := range list {
		if strings.EqualFold(p.Name, name) {
			if i == 0 {
				return list[1].Grade, SourceGraded
			}
			return list[0].Grade, SourceGraded
		}
	}
	return list[1].Grade, SourceGraded
}

func (s *Snapshot) roster(team, position string) []PlayerGrade {
	return s.players[model.NormalizeTeam(team)][NormalizePosition(position)]
}

func clampGrade(g float64) float64 {
	if math.IsNaN(g) {
		return defaultGrade
	}
	return math.Max(0, math.Min(maxGrade, g))
}
