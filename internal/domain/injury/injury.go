// Package injury converts a team's injury report into a point penalty that scales
// with how much worse the replacement is than the injured starter.
package injury

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/gridiron/internal/domain/grades"
	"github.com/okian/gridiron/internal/domain/model"
)

// GradeSource answers the player-level lookups the calculator needs.
type GradeSource interface {
	Resolve(team, position, name string) (float64, grades.Source)
	Replacement(team, position, excluding string) (float64, grades.Source)
}

// Report is the total penalty for a team and the per-player detail.
type Report struct {
	Total   float64
	Players []model.PlayerImpact
	// Fallbacks names every lookup that was answered by a default.
	Fallbacks []string
}

// Calculator computes injury penalties from a set of tables.
type Calculator struct {
	tables Tables
}

// NewCalculator returns a calculator over tables.
func NewCalculator(tables Tables) *Calculator {
	return &Calculator{tables: tables}
}

// Impact returns the penalty for one player who is OUT or DOUBTFUL.
func (c *Calculator) Impact(position string, status model.InjuryStatus, playerGrade, replacementGrade float64) float64 {
	pos := grades.NormalizePosition(position)
	return c.tables.base(pos) * c.tables.Multiplier(playerGrade-replacementGrade) * c.statusMultiplier(status)
}

// Team sums the penalties for team's injury report. Questionable players and
// unrecognised statuses cost nothing. The total never exceeds zero and does not
// depend on the order of records.
func (c *Calculator) Team(team string, records []model.InjuryRecord, src GradeSource) Report {
	var rep Report
	impacts := make([]float64, 0, len(records))

	for _, r := range dedupe(records) {
		pos := grades.NormalizePosition(r.Position)
		pi := model.PlayerImpact{Player: r.Player, Position: pos, Status: r.Status}

		switch {
		case r.Status.LongTerm():
			pi.BasePenalty = c.tables.longTerm(pos)
			pi.Multiplier = 1
			pi.StatusMultiplier = 1
			pi.Impact = pi.BasePenalty
		case r.Status == model.StatusOut || r.Status == model.StatusDoubtful:
			var ps, rs grades.Source
			pi.PlayerGrade, ps = src.Resolve(team, pos, r.Player)
			pi.ReplacementGrade, rs = src.Replacement(team, pos, r.Player)
			if ps != grades.SourceGraded {
				rep.Fallbacks = append(rep.Fallbacks, fmt.Sprintf("player_grade:%s:%s:%s", team, pos, ps))
			}
			if rs != grades.SourceGraded {
				rep.Fallbacks = append(rep.Fallbacks, fmt.Sprintf("replacement_grade:%s:%s:%s", team, pos, rs))
			}
			pi.BasePenalty = c.tables.base(pos)
			pi.Multiplier = c.tables.Multiplier(pi.PlayerGrade - pi.ReplacementGrade)
			pi.StatusMultiplier = c.statusMultiplier(r.Status)
			pi.Impact = pi.BasePenalty * pi.Multiplier * pi.StatusMultiplier
		default:
			continue
		}

		if pi.Impact > 0 {
			pi.Impact = 0
		}
		impacts = append(impacts, pi.Impact)
		rep.Players = append(rep.Players, pi)
	}

	// Summing in sorted order keeps the total bit-identical for any input order.
	sort.Float64s(impacts)
	for _, v := range impacts {
		rep.Total += v
	}
	sort.Strings(rep.Fallbacks)
	return rep
}

func (c *Calculator) statusMultiplier(s model.InjuryStatus) float64 {
	if m, ok := c.tables.StatusMultiplier[s]; ok {
		return m
	}
	if s == model.StatusOut {
		return 1
	}
	return 0
}

// dedupe keeps the most severe status per player and returns records in a stable order.
func dedupe(records []model.InjuryRecord) []model.InjuryRecord {
	type key struct{ player, pos string }
	best := make(map[key]model.InjuryRecord, len(records))
	for _, r := range records {
		k := key{strings.ToLower(strings.TrimSpace(r.Player)), grades.NormalizePosition(r.Position)}
		if cur, ok := best[k]; !ok || r.Status.Severity() > cur.Status.Severity() {
			best[k] = r
		}
	}
	out := make([]model.InjuryRecord, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := grades.NormalizePosition(out[i].Position), grades.NormalizePosition(out[j].Position)
		if pi != pj {
			return pi < pj
		}
		return strings.ToLower(out[i].Player) < strings.ToLower(out[j].Player)
	})
	return out
}
