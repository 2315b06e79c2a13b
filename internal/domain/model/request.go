package model

import (
	"fmt"
	"strings"
)

// Boundary limits for prediction requests.
const (
	MinSeason = 1999
	MaxWeek   = 22
)

// Request identifies the game to predict.
type Request struct {
	HomeTeam string             `json:"home"`
	AwayTeam string             `json:"away"`
	Season   int                `json:"season"`
	Week     int                `json:"week"`
	Weather  *WeatherConditions `json:"weather,omitempty"`
}

// ValidateTeam checks that id is a 2-3 letter upper-case team abbreviation.
func ValidateTeam(id string) error {
	if len(id) < 2 || len(id) > 3 {
		return fmt.Errorf("%w: team %q must be 2-3 letters", ErrInvalidInput, id)
	}
	for _, r := range id {
		if r < 'A' || r > 'Z' {
			return fmt.Errorf("%w: team %q must be upper-case letters", ErrInvalidInput, id)
		}
	}
	return nil
}

// NormalizeTeam trims and upper-cases a team identifier.
func NormalizeTeam(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Validate rejects requests that must never reach the rating calculations.
func (r Request) Validate() error {
	if err := ValidateTeam(r.HomeTeam); err != nil {
		return err
	}
	if err := ValidateTeam(r.AwayTeam); err != nil {
		return err
	}
	switch {
	case r.HomeTeam == r.AwayTeam:
		return fmt.Errorf("%w: home and away are both %s", ErrInvalidInput, r.HomeTeam)
	case r.Week < 0:
		return fmt.Errorf("%w: week %d is negative", ErrInvalidInput, r.Week)
	case r.Week > MaxWeek:
		return fmt.Errorf("%w: week %d is beyond week %d", ErrInvalidInput, r.Week, MaxWeek)
	case r.Season < MinSeason:
		return fmt.Errorf("%w: season %d predates %d", ErrInvalidInput, r.Season, MinSeason)
	}
	return nil
}
