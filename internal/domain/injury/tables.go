package injury

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/gridiron/internal/domain/model"
)

// Fallback penalties for positions missing from the tables.
const (
	defaultBasePenalty     = -3.0
	defaultLongTermPenalty = -1.5
)

// Band maps grade deltas at or above MinDelta to Multiplier.
type Band struct {
	MinDelta   float64
	Multiplier float64
}

// Tables holds every constant the calculator uses.
type Tables struct {
	// BasePenalty is the per-position penalty scaled by the dynamic multiplier.
	BasePenalty map[string]float64
	// LongTermPenalty is the flat per-position penalty for IR, PUP and NFI.
	LongTermPenalty map[string]float64
	// Bands are ordered by MinDelta, highest first; the last band catches everything.
	Bands []Band
	// StatusMultiplier scales the dynamic penalty by game status.
	StatusMultiplier map[model.InjuryStatus]float64
}

// DefaultTables returns the standard penalty tables.
func DefaultTables() Tables {
	return Tables{
		BasePenalty: map[string]float64{
			"QB":   -30,
			"EDGE": -8,
			"WR":   -8,
			"T":    -7,
			"DE":   -7,
			"CB":   -7,
			"RB":   -6,
			"TE":   -5,
			"C":    -5,
			"DT":   -5,
			"LB":   -5,
			"S":    -5,
			"G":    -4,
			"K":    -3,
			"P":    -2,
			"LS":   -2,
		},
		LongTermPenalty: map[string]float64{
			"QB":   -15,
			"EDGE": -4,
			"WR":   -4,
			"T":    -3.5,
			"DE":   -3.5,
			"CB":   -3.5,
			"RB":   -3,
			"TE":   -2.5,
			"C":    -2.5,
			"DT":   -2.5,
			"LB":   -2.5,
			"S":    -2.5,
			"G":    -2,
			"K":    -1.5,
			"P":    -1,
			"LS":   -1,
		},
		Bands: []Band{
			{MinDelta: 25, Multiplier: 2.0},
			{MinDelta: 15, Multiplier: 1.6},
			{MinDelta: 8, Multiplier: 1.3},
			{MinDelta: 3, Multiplier: 1.1},
			{MinDelta: -3, Multiplier: 1.0},
			{MinDelta: -10, Multiplier: 0.6},
			{MinDelta: math.Inf(-1), Multiplier: 0.2},
		},
		StatusMultiplier: map[model.InjuryStatus]float64{
			model.StatusOut:      1.0,
			model.StatusDoubtful: 0.8,
		},
	}
}

// Validate checks that penalties never become bonuses and that the multiplier is
// monotonic in the grade delta.
func (t Tables) Validate() error {
	for pos, p := range t.BasePenalty {
		if p > 0 {
			return fmt.Errorf("%w: base penalty for %s is positive", ErrInvalidTables, pos)
		}
	}
	for pos, p := range t.LongTermPenalty {
		if p > 0 {
			return fmt.Errorf("%w: long-term penalty for %s is positive", ErrInvalidTables, pos)
		}
	}
	if len(t.Bands) == 0 {
		return fmt.Errorf("%w: no multiplier bands", ErrInvalidTables)
	}
	if !sort.SliceIsSorted(t.Bands, func(i, j int) bool { return t.Bands[i].MinDelta > t.Bands[j].MinDelta }) {
		return fmt.Errorf("%w: bands must be ordered by descending delta", ErrInvalidTables)
	}
	for i := 1; i < len(t.Bands); i++ {
		if t.Bands[i].Multiplier > t.Bands[i-1].Multiplier {
			return fmt.Errorf("%w: multiplier rises at delta %.1f", ErrInvalidTables, t.Bands[i].MinDelta)
		}
	}
	for status, m := range t.StatusMultiplier {
		if m < 0 || m > 1 {
			return fmt.Errorf("%w: status multiplier for %s outside [0,1]", ErrInvalidTables, status)
		}
	}
	return nil
}

// Multiplier returns the dynamic multiplier for a starter-minus-replacement delta.
func (t Tables) Multiplier(delta float64) float64 {
	for _, b := range t.Bands {
		if delta >= b.MinDelta {
			return b.Multiplier
		}
	}
	return t.Bands[len(t.Bands)-1].Multiplier
}

func (t Tables) base(pos string) float64 {
	if p, ok := t.BasePenalty[pos]; ok {
		return p
	}
	return defaultBasePenalty
}

func (t Tables) longTerm(pos string) float64 {
	if p, ok := t.LongTermPenalty[pos]; ok {
		return p
	}
	return defaultLongTermPenalty
}
