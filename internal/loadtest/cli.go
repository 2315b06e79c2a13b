package loadtest

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/gridiron/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging sends log output to stdout and, when logFile is set, to that file too.
// The returned close func releases the file.
func SetupLogging(logFile string, json bool) (func() error, error) {
	format := "text"
	if json {
		format = "json"
	}
	if logFile == "" {
		return func() error { return nil }, initLogger(os.Stdout, format)
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	if err := initLogger(io.MultiWriter(os.Stdout, file), format); err != nil {
		_ = file.Close()
		return nil, err
	}
	return file.Close, nil
}

// ShowHelp prints usage information for the load test tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Gridiron Load Test
==================

Generates a synthetic league, feeds its play history to a running service,
predicts every week, reports final scores and checks the answers.

Usage:
  go run ./cmd/loadtest [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -season int
        Season to generate (default 2024)
  -weeks int
        Weeks of games (default 8)
  -teams int
        Teams in the league, even, at most 32 (default 32)
  -plays int
        Snaps per team per game (default 60)
  -workers int
        Concurrent requests (default CPU cores)
  -timeout duration
        HTTP request timeout (default 30s)
  -seed uint
        Generator seed (default 1)
  -output string
        Write the generated plays to this JSON file
  -log string
        Also write logs to this file
  -json
        Log as JSON
  -help
        Show this help message

Examples:
  go run ./cmd/loadtest -weeks 17 -workers 16
  go run ./cmd/loadtest -url http://localhost:8080 -seed 7 -output plays.json
`)
}

func initLogger(w io.Writer, format string) error {
	return logger.Init(logger.WithWriter(w), logger.WithFormat(format))
}
