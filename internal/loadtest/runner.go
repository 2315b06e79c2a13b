package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/okian/gridiron/internal/adapters/mq/worker"
	"github.com/okian/gridiron/internal/adapters/repository"
	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/pkg/logger"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

type playsBody struct {
	Plays []model.PlayRecord `json:"plays"`
}

type playsAck struct {
	Stored  int `json:"stored"`
	Skipped int `json:"skipped"`
}

type weekBody struct {
	Season int          `json:"season"`
	Week   int          `json:"week"`
	Games  []model.Game `json:"games"`
}

type weekAnswer struct {
	Week        int                      `json:"week"`
	Predictions []model.PredictionResult `json:"predictions"`
}

// Run executes the complete load test and returns its statistics.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Named("loadtest")
	stats := &Stats{StartTime: time.Now()}
	c := newClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting gridiron load test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("season", cfg.Season),
		logger.Int("weeks", cfg.Weeks),
		logger.Int("teams", cfg.Teams),
		logger.Int("workers", cfg.Workers))

	if err := checkHealth(ctx, c); err != nil {
		return nil, err
	}

	league := Generate(cfg)
	stats.PlaysGenerated = len(league.Plays)
	log.Info(ctx, "league generated",
		logger.Int("fixtures", len(league.Fixtures)), logger.Int("plays", len(league.Plays)))

	if err := ingest(ctx, c, cfg, league, stats); err != nil {
		return nil, err
	}

	predictions, err := predictWeeks(ctx, c, cfg, league)
	if err != nil {
		return nil, err
	}
	stats.Predictions = len(predictions)

	if err := reportOutcomes(ctx, c, cfg, league, stats); err != nil {
		return nil, err
	}

	var standings []repository.Standing
	if err := c.get(ctx, "/rankings?limit="+strconv.Itoa(cfg.Teams), &standings); err != nil {
		return nil, fmt.Errorf("rankings: %w", err)
	}
	stats.RankedTeams = len(standings)

	if err := verify(ctx, league, predictions, standings, stats); err != nil {
		return nil, err
	}

	if cfg.OutputFile != "" {
		if err := savePlays(cfg.OutputFile, league); err != nil {
			log.Warn(ctx, "failed to save plays", logger.Error(err))
		} else {
			log.Info(ctx, "plays saved", logger.String("file", cfg.OutputFile))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)
	return stats, nil
}

// checkHealth verifies the service answers /healthz.
func checkHealth(ctx context.Context, c *client) error {
	var body map[string]any
	if err := c.get(ctx, "/healthz", &body); err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	return nil
}

// ingest posts the plays one game at a time and then replays the first game to
// check that the service skips it.
func ingest(ctx context.Context, c *client, cfg *Config, l *League, stats *Stats) error {
	games := l.PlaysByGame()
	acks, err := worker.Batch(ctx, cfg.Workers, games, func(ctx context.Context, plays []model.PlayRecord) (playsAck, error) {
		var ack playsAck
		err := c.post(ctx, "/plays", playsBody{Plays: plays}, &ack)
		return ack, err
	})
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusServiceUnavailable {
		logger.Named("loadtest").Warn(ctx, "service has no play store; predictions will use neutral history")
		return nil
	}
	if err != nil {
		return fmt.Errorf("ingest plays: %w", err)
	}
	stats.PersistenceReady = true
	for _, a := range acks {
		stats.PlaysStored += a.Stored
		stats.PlaysSkipped += a.Skipped
	}

	var replay playsAck
	if err := c.post(ctx, "/plays", playsBody{Plays: games[0]}, &replay); err != nil {
		return fmt.Errorf("replay plays: %w", err)
	}
	if replay.Stored != 0 || replay.Skipped != len(games[0]) {
		return fmt.Errorf("%w: replayed game stored %d and skipped %d of %d plays",
			ErrInconsistent, replay.Stored, replay.Skipped, len(games[0]))
	}
	stats.PlaysSkipped += replay.Skipped
	return nil
}

// predictWeeks predicts every generated week, one batch request per week.
func predictWeeks(ctx context.Context, c *client, cfg *Config, l *League) ([]model.PredictionResult, error) {
	weeks := make([]int, cfg.Weeks)
	for i := range weeks {
		weeks[i] = i + 1
	}
	answers, err := worker.Batch(ctx, cfg.Workers, weeks, func(ctx context.Context, week int) (weekAnswer, error) {
		var a weekAnswer
		err := c.post(ctx, "/predict/week", weekBody{Season: l.Season, Week: week, Games: l.Week(week)}, &a)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("predict weeks: %w", err)
	}
	var out []model.PredictionResult
	for i, a := range answers {
		if want := len(l.Week(weeks[i])); len(a.Predictions) != want {
			return nil, fmt.Errorf("%w: week %d returned %d predictions for %d games",
				ErrInconsistent, weeks[i], len(a.Predictions), want)
		}
		out = append(out, a.Predictions...)
	}
	return out, nil
}

// reportOutcomes posts a drawn final score for every fixture.
func reportOutcomes(ctx context.Context, c *client, cfg *Config, l *League, stats *Stats) error {
	if !stats.PersistenceReady {
		return nil
	}
	rng := rand.New(rand.NewPCG(cfg.Seed+1, uint64(cfg.Season)))
	outcomes := make([]repository.Outcome, len(l.Fixtures))
	for i, f := range l.Fixtures {
		home, away := l.Score(rng, f)
		outcomes[i] = repository.Outcome{Season: l.Season, Week: f.Week, Home: f.Home, Away: f.Away, HomePoints: home, AwayPoints: away}
	}
	if _, err := worker.Batch(ctx, cfg.Workers, outcomes, func(ctx context.Context, o repository.Outcome) (struct{}, error) {
		return struct{}{}, c.post(ctx, "/outcomes", o, nil)
	}); err != nil {
		return fmt.Errorf("report outcomes: %w", err)
	}
	stats.Outcomes = len(outcomes)
	return nil
}

// savePlays writes the generated plays as a JSON document accepted by POST /plays.
func savePlays(path string, l *League) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	raw, err := json.MarshalIndent(playsBody{Plays: l.Plays}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plays: %w", err)
	}
	return os.WriteFile(path, raw, filePermission)
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Predictions) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("playsGenerated", stats.PlaysGenerated),
		logger.Int("playsStored", stats.PlaysStored),
		logger.Int("playsSkipped", stats.PlaysSkipped),
		logger.Int("predictions", stats.Predictions),
		logger.Int("upsetsPredicted", stats.UpsetsPredicted),
		logger.Int("outcomes", stats.Outcomes),
		logger.Int("rankedTeams", stats.RankedTeams),
		logger.Duration("duration", stats.Duration),
		logger.Float64("predictionsPerSecond", perSecond))
}
