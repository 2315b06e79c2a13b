// Package weather turns kickoff conditions into a 0-100 team score. Without a
// forecast, or indoors, every team scores neutral.
package weather

import (
	"math"

	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/domain/subscore"
)

const (
	windFloorMPH     = 12.0
	windSpanMPH      = 18.0
	freezingF        = 32.0
	coldSpanF        = 32.0
	pointsPerSwing   = 200.0
	windShare        = 0.5
	precipShare      = 0.3
	temperatureShare = 0.2
)

// Severity rates how much the conditions hurt the passing game, in [0,1].
func Severity(c *model.WeatherConditions) float64 {
	if c == nil || c.Dome {
		return 0
	}
	wind := unit((c.WindMPH - windFloorMPH) / windSpanMPH)
	precip := unit(c.PrecipProbability)
	cold := unit((freezingF - c.TemperatureF) / coldSpanF)
	return unit(windShare*wind + precipShare*precip + temperatureShare*cold)
}

// Score moves pass-heavy teams down and run-heavy teams up in bad weather.
func Score(c *model.WeatherConditions, passRate float64) float64 {
	sev := Severity(c)
	if sev == 0 {
		return model.NeutralScore
	}
	v := model.NeutralScore - sev*(passRate-subscore.LeaguePassRate)*pointsPerSwing
	return math.Max(0, math.Min(100, v))
}

func unit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
