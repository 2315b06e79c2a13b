// Package service wires the prediction engine to its data sources and stores,
// and implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/gridiron/internal/adapters/mq/queue"
	"github.com/okian/gridiron/internal/adapters/mq/worker"
	"github.com/okian/gridiron/internal/adapters/repository"
	"github.com/okian/gridiron/internal/domain/dedupe"
	"github.com/okian/gridiron/internal/domain/engine"
	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/domain/scoring"
	"github.com/okian/gridiron/internal/domain/subscore"
	"github.com/okian/gridiron/internal/snapshot"
	"github.com/okian/gridiron/pkg/logger"
	"github.com/okian/gridiron/pkg/metrics"
)

const (
	defaultQueueSize = 1024
	seasonsOfHistory = 3
	playsFeed        = "plays"
	anonymousGroup   = "#"
)

// Service answers prediction requests against one consistent snapshot of
// grades and injuries.
type Service struct {
	mu sync.RWMutex

	engine     atomic.Pointer[engine.Engine]
	engineOpts []engine.Option
	fitted     bool

	holder   *snapshot.Holder
	plays    repository.PlayStore
	store    repository.PredictionStore
	rankings *repository.Rankings
	ingested dedupe.Deduper

	workerCount int
	queueSize   int
	persistQ    *queue.InMemoryQueue[model.PredictionResult]
	persisters  *worker.Pool[model.PredictionResult]

	started   bool
	served    atomic.Int64
	batches   atomic.Int64
	persisted atomic.Int64

	logger logger.Logger
	now    func() time.Time
}

// New constructs a Service. Engine configuration is validated here so a bad
// configuration stops the process before it serves anything.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   defaultQueueSize,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.holder == nil {
		s.holder = snapshot.NewHolder()
	}
	if s.rankings == nil {
		s.rankings = repository.NewRankings()
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	if s.ingested == nil {
		s.ingested = dedupe.NewInMemoryDeduper()
	}

	e, err := engine.New(s.engineOpts...)
	if err != nil {
		return nil, err
	}
	s.engine.Store(e)
	return s, nil
}

// Start fits the projector when configured and starts the persistence workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting prediction service...")

	if s.fitted {
		if err := s.refit(ctx); err != nil {
			s.logger.Warn(ctx, "projector fit failed, keeping logistic curve", logger.Error(err))
		}
	}

	if s.store != nil {
		s.persistQ = queue.NewInMemoryQueue[model.PredictionResult](queue.WithCapacity(s.queueSize))
		s.persisters = worker.NewPool[model.PredictionResult](s.workerCount, s.persistQ,
			worker.HandlerFunc[model.PredictionResult](s.save))
		s.persisters.Start(context.WithoutCancel(ctx))
	}
	metrics.UpdateWorkerCount(s.workerCount)

	s.started = true
	s.logger.Info(ctx, "prediction service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Bool("persistence", s.store != nil),
		logger.Bool("fitted", s.fitted),
	)
	return nil
}

// Stop waits for queued predictions to be persisted, bounded by ctx.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping prediction service...")

	var err error
	if s.persisters != nil {
		if err = s.persisters.Drain(ctx); err != nil {
			s.logger.Warn(ctx, "persistence drain incomplete",
				logger.Int("unsaved", s.persistQ.Len(ctx)), logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(ctx, "prediction service stopped", logger.Any("persisted", s.persisted.Load()))
	return err
}

// Predict validates req and predicts it against the current snapshot.
func (s *Service) Predict(ctx context.Context, req model.Request) (model.PredictionResult, error) {
	if err := req.Validate(); err != nil {
		return model.PredictionResult{}, err
	}
	res, err := s.predict(ctx, req, s.holder.Current())
	if err != nil {
		return model.PredictionResult{}, err
	}
	s.persist(ctx, res)
	return res, nil
}

// PredictWeek predicts every game of a week against one snapshot. Every game is
// validated before any is predicted; results keep the order of games.
func (s *Service) PredictWeek(ctx context.Context, season, week int, games []model.Game) ([]model.PredictionResult, error) {
	reqs := make([]model.Request, len(games))
	for i, g := range games {
		reqs[i] = model.Request{HomeTeam: g.Home, AwayTeam: g.Away, Season: season, Week: week, Weather: g.Weather}
		if err := reqs[i].Validate(); err != nil {
			return nil, fmt.Errorf("game %d: %w", i, err)
		}
	}
	if err := distinctTeams(games); err != nil {
		return nil, err
	}

	snap := s.holder.Current()
	out, err := worker.Batch(ctx, s.workerCount, reqs, func(ctx context.Context, r model.Request) (model.PredictionResult, error) {
		return s.predict(ctx, r, snap)
	})
	if err != nil {
		return nil, err
	}
	for _, res := range out {
		s.persist(ctx, res)
	}
	s.batches.Add(1)
	metrics.RecordBatch(len(out))
	return out, nil
}

// distinctTeams rejects a schedule that books one team into two games.
func distinctTeams(games []model.Game) error {
	seen := make(map[string]int, 2*len(games))
	for i, g := range games {
		for _, t := range []string{g.Home, g.Away} {
			if j, ok := seen[t]; ok {
				return fmt.Errorf("%w: %s plays in games %d and %d", model.ErrInvalidInput, t, j, i)
			}
			seen[t] = i
		}
	}
	return nil
}

func (s *Service) predict(ctx context.Context, req model.Request, snap *snapshot.Data) (model.PredictionResult, error) {
	start := s.now()

	home, err := s.team(ctx, req.HomeTeam, req.Season, req.Week, snap)
	if err != nil {
		return model.PredictionResult{}, err
	}
	away, err := s.team(ctx, req.AwayTeam, req.Season, req.Week, snap)
	if err != nil {
		return model.PredictionResult{}, err
	}

	res := s.engine.Load().Predict(engine.Inputs{
		Season:          req.Season,
		Week:            req.Week,
		Home:            home,
		Away:            away,
		Weather:         req.Weather,
		Grades:          snap.Grades,
		SnapshotVersion: snap.Version,
	})

	s.served.Add(1)
	s.observe(res, snap, s.now().Sub(start))
	s.rankings.Set(ctx, res.HomeTeam, res.Home.FinalScore-res.Home.HomeBonus, res.Season, res.Week)
	s.rankings.Set(ctx, res.AwayTeam, res.Away.FinalScore-res.Away.HomeBonus, res.Season, res.Week)
	return res, nil
}

// team gathers three seasons of history for one team. Feed failures degrade to
// an empty season, which the engine answers with neutral scores.
func (s *Service) team(ctx context.Context, team string, season, week int, snap *snapshot.Data) (engine.TeamInput, error) {
	in := engine.TeamInput{Team: team, Injuries: snap.InjuriesFor(team)}
	if s.plays == nil {
		return in, nil
	}
	for i := 0; i < seasonsOfHistory; i++ {
		through := 0
		if i == 0 {
			// Predicting week N uses weeks 1..N-1.
			if week <= 1 {
				continue
			}
			through = week - 1
		}
		plays, err := s.plays.Plays(ctx, team, season-i, through)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return engine.TeamInput{}, ctxErr
			}
			metrics.RecordFeedError(playsFeed)
			s.logger.Warn(ctx, "play history unavailable, using neutral scores",
				logger.String("team", team), logger.Int("season", season-i), logger.Error(err))
			continue
		}
		in.Plays[i] = plays
	}
	return in, nil
}

func (s *Service) observe(res model.PredictionResult, snap *snapshot.Data, took time.Duration) {
	side := "away"
	if res.Winner == res.HomeTeam {
		side = "home"
	}
	metrics.RecordPrediction(side)
	metrics.RecordPredictionLatency(float64(took.Microseconds()) / 1000)
	metrics.RecordInjuryImpact(res.Home.InjuryImpact)
	metrics.RecordInjuryImpact(res.Away.InjuryImpact)
	metrics.UpdateSnapshotAge(snap.Age(s.now()).Seconds())
	for _, d := range res.Defaults {
		kind, _, _ := strings.Cut(d, ":")
		metrics.RecordDefaultApplied(kind)
	}
}

// persist hands res to the persistence workers, saving inline when the queue
// cannot take it.
func (s *Service) persist(ctx context.Context, res model.PredictionResult) {
	if s.store == nil {
		return
	}
	s.mu.RLock()
	q := s.persistQ
	started := s.started
	s.mu.RUnlock()

	if started && q != nil {
		err := q.Enqueue(ctx, res)
		if err == nil {
			return
		}
		s.logger.Warn(ctx, "persistence queue rejected prediction, saving inline", logger.Error(err))
	}
	if err := s.save(context.WithoutCancel(ctx), res); err != nil {
		s.logger.Error(ctx, "failed to persist prediction", logger.Error(err))
	}
}

func (s *Service) save(ctx context.Context, res model.PredictionResult) error {
	rec, err := s.store.SavePrediction(ctx, res)
	if err != nil {
		return fmt.Errorf("save prediction %s@%s: %w", res.AwayTeam, res.HomeTeam, err)
	}
	s.persisted.Add(1)
	s.logger.Debug(ctx, "prediction persisted", logger.String("id", rec.ID))
	return nil
}

// IngestPlays appends plays to the history store. A play not flagged successful
// has its success derived from EPA or yardage. Plays are grouped by game and
// team; a group already ingested by this process is skipped. It returns how many
// plays were stored and how many were skipped.
func (s *Service) IngestPlays(ctx context.Context, plays []model.PlayRecord) (stored, skipped int, err error) {
	w, ok := s.plays.(repository.PlayWriter)
	if !ok {
		return 0, 0, ErrNoStore
	}

	var (
		order  []string
		groups = make(map[string][]model.PlayRecord)
	)
	for i, p := range plays {
		p.Team = model.NormalizeTeam(p.Team)
		if err := model.ValidateTeam(p.Team); err != nil {
			return 0, 0, fmt.Errorf("play %d: %w", i, err)
		}
		if p.Season < model.MinSeason || p.Week < 1 || p.Week > model.MaxWeek {
			return 0, 0, fmt.Errorf("%w: play %d has season %d week %d", model.ErrInvalidInput, i, p.Season, p.Week)
		}
		p.IsSuccess = subscore.ResolveSuccess(p)
		key := ingestKey(p, i)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], p)
	}

	var (
		fresh []string
		batch []model.PlayRecord
	)
	for _, key := range order {
		if strings.HasPrefix(key, anonymousGroup) {
			batch = append(batch, groups[key]...)
			continue
		}
		if s.ingested.SeenAndRecord(ctx, key) {
			skipped += len(groups[key])
			continue
		}
		fresh = append(fresh, key)
		batch = append(batch, groups[key]...)
	}

	if err := w.InsertPlays(ctx, batch); err != nil {
		for _, key := range fresh {
			s.ingested.Unrecord(ctx, key)
		}
		metrics.RecordFeedError(playsFeed)
		return 0, 0, fmt.Errorf("ingest plays: %w", err)
	}
	s.logger.Info(ctx, "plays ingested", logger.Int("stored", len(batch)), logger.Int("skipped", skipped))
	return len(batch), skipped, nil
}

// ingestKey identifies a game/team group. Plays without a game id are never deduplicated.
func ingestKey(p model.PlayRecord, i int) string {
	if p.GameID == "" {
		return fmt.Sprintf("%s%d", anonymousGroup, i)
	}
	return fmt.Sprintf("%d/%s/%s", p.Season, p.GameID, p.Team)
}

// History lists persisted predictions of season; a week of zero lists the whole season.
func (s *Service) History(ctx context.Context, season, week int) ([]repository.Record, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	if week < 0 || week > model.MaxWeek {
		return nil, fmt.Errorf("%w: week %d", model.ErrInvalidInput, week)
	}
	return s.store.Predictions(ctx, season, week)
}

// RecordOutcome stores a final score and, with the fitted projector, refits it.
func (s *Service) RecordOutcome(ctx context.Context, o repository.Outcome) error {
	if s.store == nil {
		return ErrNoStore
	}
	if err := model.ValidateTeam(o.Home); err != nil {
		return err
	}
	if err := model.ValidateTeam(o.Away); err != nil {
		return err
	}
	if o.Home == o.Away || o.HomePoints < 0 || o.AwayPoints < 0 || o.Week < 1 || o.Week > model.MaxWeek {
		return fmt.Errorf("%w: outcome %s@%s week %d %d-%d", model.ErrInvalidInput, o.Away, o.Home, o.Week, o.HomePoints, o.AwayPoints)
	}
	if err := s.store.SaveOutcome(ctx, o); err != nil {
		return err
	}
	if s.fitted {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.refit(ctx)
	}
	return nil
}

// refit rebuilds the engine around a projector fitted to stored outcomes. The
// caller holds s.mu.
func (s *Service) refit(ctx context.Context) error {
	if s.store == nil {
		return ErrNoStore
	}
	samples, err := s.store.Samples(ctx)
	if err != nil {
		return fmt.Errorf("load samples: %w", err)
	}
	fp := scoring.Fit(samples)
	opts := append(append([]engine.Option(nil), s.engineOpts...), engine.WithProjector(fp))
	e, err := engine.New(opts...)
	if err != nil {
		return err
	}
	s.engine.Store(e)
	s.logger.Info(ctx, "projector refit",
		logger.Int("samples", len(samples)), logger.Bool("fitted", fp.Fitted()),
		logger.Any("coefficients", fp.Coefficients()))
	return nil
}

// Rankings returns the top n teams by their latest power rating.
func (s *Service) Rankings(ctx context.Context, n int) ([]repository.Standing, error) {
	return s.rankings.TopN(ctx, n)
}

// Rank returns one team's standing.
func (s *Service) Rank(ctx context.Context, team string) (repository.Standing, error) {
	return s.rankings.Rank(ctx, team)
}

// Snapshot returns the snapshot predictions are currently made against.
func (s *Service) Snapshot() *snapshot.Data {
	return s.holder.Current()
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.holder.Current()
	stats := map[string]any{
		"started":            s.started,
		"workerCount":        s.workerCount,
		"predictions":        s.served.Load(),
		"batches":            s.batches.Load(),
		"persisted":          s.persisted.Load(),
		"rankedTeams":        s.rankings.Count(ctx),
		"snapshotVersion":    snap.Version,
		"snapshotAgeSeconds": snap.Age(s.now()).Seconds(),
		"gradedTeams":        len(snap.Grades.Teams()),
		"fittedProjector":    s.fitted,
		"persistence":        s.store != nil,
	}
	if s.persistQ != nil {
		stats["queueLength"] = s.persistQ.Len(ctx)
	}
	metrics.UpdateSnapshotAge(snap.Age(s.now()).Seconds())
	return stats
}

// IsNotFound reports whether err means a team has no standing yet.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
