// Package loadtest drives a running prediction service with a synthetic league:
// it ingests generated play history, predicts every week, reports outcomes and
// checks the answers for consistency.
package loadtest

import (
	"fmt"
	"time"
)

// Config holds configuration for one load test run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Season       int           // Season the league is generated for
	Weeks        int           // Weeks of games to generate and predict
	Teams        int           // Number of teams, even and at most len(teamIDs)
	PlaysPerGame int           // Snaps generated per team per game
	Workers      int           // Concurrent requests
	Timeout      time.Duration // HTTP request timeout
	OutputFile   string        // Optional JSON dump of the generated plays
	Seed         uint64        // Seed of the league generator
}

// Validate rejects configurations the generator cannot satisfy.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url is empty", ErrInvalidConfig)
	case c.Teams < 2 || c.Teams%2 != 0 || c.Teams > len(teamIDs):
		return fmt.Errorf("%w: teams must be even and between 2 and %d, got %d", ErrInvalidConfig, len(teamIDs), c.Teams)
	case c.Weeks < 1 || c.Weeks > maxWeek:
		return fmt.Errorf("%w: weeks must be between 1 and %d, got %d", ErrInvalidConfig, maxWeek, c.Weeks)
	case c.PlaysPerGame < 1:
		return fmt.Errorf("%w: plays per game must be positive, got %d", ErrInvalidConfig, c.PlaysPerGame)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	PlaysGenerated   int
	PlaysStored      int
	PlaysSkipped     int
	Predictions      int
	Outcomes         int
	RankedTeams      int
	UpsetsPredicted  int
	PersistenceReady bool
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
