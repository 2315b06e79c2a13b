package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/gridiron/internal/loadtest"
)

// Default configuration constants.
const (
	defaultSeason       = 2024
	defaultWeeks        = 8
	defaultTeams        = 32
	defaultPlaysPerGame = 60
	defaultTimeout      = 30 * time.Second
	defaultTestTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		season   = flag.Int("season", defaultSeason, "Season to generate")
		weeks    = flag.Int("weeks", defaultWeeks, "Weeks of games")
		teams    = flag.Int("teams", defaultTeams, "Teams in the league")
		plays    = flag.Int("plays", defaultPlaysPerGame, "Snaps per team per game")
		workers  = flag.Int("workers", runtime.NumCPU(), "Concurrent requests")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed     = flag.Uint64("seed", 1, "Generator seed")
		output   = flag.String("output", "", "Write the generated plays to this JSON file")
		logFile  = flag.String("log", "", "Also write logs to this file")
		jsonLogs = flag.Bool("json", false, "Log as JSON")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	closeLog, err := loadtest.SetupLogging(*logFile, *jsonLogs)
	if err != nil {
		os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	cfg := &loadtest.Config{
		BaseURL:      *baseURL,
		Season:       *season,
		Weeks:        *weeks,
		Teams:        *teams,
		PlaysPerGame: *plays,
		Workers:      *workers,
		Timeout:      *timeout,
		OutputFile:   *output,
		Seed:         *seed,
	}
	if _, err := loadtest.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("load test failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1) //nolint:gocritic // cancel called above
	}
}
