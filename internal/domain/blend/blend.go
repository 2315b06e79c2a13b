// Package blend combines per-season sub-scores with a recency weight schedule.
package blend

import (
	"fmt"
	"math"

	"github.com/okian/gridiron/internal/domain/model"
)

// weightTolerance bounds floating error when checking that weights sum to one.
const weightTolerance = 1e-6

// Weights is one schedule row: the share given to the current, prior and
// two-seasons-ago sub-scores.
type Weights struct {
	Current float64 `koanf:"current" json:"current"`
	Prior   float64 `koanf:"prior" json:"prior"`
	TwoAgo  float64 `koanf:"two_ago" json:"two_ago"`
}

// Array returns the weights in current, prior, two-ago order.
func (w Weights) Array() [3]float64 {
	return [3]float64{w.Current, w.Prior, w.TwoAgo}
}

// Schedule maps weeks of current-season data (the slice index) to weights.
// Weeks past the end use the last row.
type Schedule []Weights

// DefaultSchedule shifts fully onto the current season after eight weeks of data.
var DefaultSchedule = Schedule{
	{Current: 0.00, Prior: 0.70, TwoAgo: 0.30},
	{Current: 0.20, Prior: 0.55, TwoAgo: 0.25},
	{Current: 0.35, Prior: 0.45, TwoAgo: 0.20},
	{Current: 0.50, Prior: 0.35, TwoAgo: 0.15},
	{Current: 0.60, Prior: 0.30, TwoAgo: 0.10},
	{Current: 0.70, Prior: 0.25, TwoAgo: 0.05},
	{Current: 0.80, Prior: 0.20, TwoAgo: 0.00},
	{Current: 0.90, Prior: 0.10, TwoAgo: 0.00},
	{Current: 1.00, Prior: 0.00, TwoAgo: 0.00},
}

// Validate checks that every row is a distribution, that weight moves toward the
// current season, and that the schedule ends on the current season alone.
func (s Schedule) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: schedule is empty", ErrInvalidSchedule)
	}
	prev := -1.0
	for i, w := range s {
		if w.Current < 0 || w.Prior < 0 || w.TwoAgo < 0 {
			return fmt.Errorf("%w: week %d has a negative weight", ErrInvalidSchedule, i)
		}
		if sum := w.Current + w.Prior + w.TwoAgo; math.Abs(sum-1) > weightTolerance {
			return fmt.Errorf("%w: week %d weights sum to %.4f", ErrInvalidSchedule, i, sum)
		}
		if w.Current < prev {
			return fmt.Errorf("%w: week %d current weight decreases", ErrInvalidSchedule, i)
		}
		prev = w.Current
	}
	last := s[len(s)-1]
	if math.Abs(last.Current-1) > weightTolerance {
		return fmt.Errorf("%w: final row must weight the current season at 1.0", ErrInvalidSchedule)
	}
	return nil
}

// For returns the row for the given number of weeks of current-season data.
func (s Schedule) For(weeksAvailable int) Weights {
	if len(s) == 0 {
		return Weights{Current: 1}
	}
	if weeksAvailable < 0 {
		weeksAvailable = 0
	}
	if weeksAvailable >= len(s) {
		return s[len(s)-1]
	}
	return s[weeksAvailable]
}

// WeeksAvailable converts the week being predicted into completed weeks of data.
func WeeksAvailable(week int) int {
	if week <= 1 {
		return 0
	}
	return week - 1
}

// Blend computes the weighted mean of the seasons present, renormalising the
// weights over those seasons. A nil season is absent. With no seasons present the
// result is neutral; when the present seasons carry no weight they are averaged
// equally.
func Blend(w Weights, current, prior, twoAgo *model.SubScores) model.SubScores {
	seasons := [3]*model.SubScores{current, prior, twoAgo}
	weights := w.Array()

	var total float64
	var present int
	for i, s := range seasons {
		if s == nil {
			continue
		}
		present++
		total += weights[i]
	}
	if present == 0 {
		return model.NeutralSubScores()
	}
	if total <= 0 {
		for i, s := range seasons {
			if s != nil {
				weights[i] = 1
			}
		}
		total = float64(present)
	}

	var out model.SubScores
	for i, s := range seasons {
		if s == nil || weights[i] == 0 {
			continue
		}
		share := weights[i] / total
		out.EPA += s.EPA * share
		out.Efficiency += s.Efficiency * share
		out.Yardage += s.Yardage * share
		out.Turnover += s.Turnover * share
	}
	return out
}
