package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/gridiron/internal/adapters/feeds"
	"github.com/okian/gridiron/internal/adapters/http/api"
	"github.com/okian/gridiron/internal/adapters/http/swagger"
	"github.com/okian/gridiron/internal/adapters/repository"
	service "github.com/okian/gridiron/internal/app"
	"github.com/okian/gridiron/internal/config"
	"github.com/okian/gridiron/internal/domain/engine"
	"github.com/okian/gridiron/internal/snapshot"
	"github.com/okian/gridiron/pkg/logger"
	"github.com/okian/gridiron/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

// application holds the wired components of one process.
type application struct {
	cfg       *config.Config
	store     *repository.SQLiteStore
	holder    *snapshot.Holder
	refresher *snapshot.Refresher
	svc       *service.Service
	mux       *http.ServeMux
}

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	a, err := build(ctx, cfg)
	if err != nil {
		log.Fatal(ctx, "failed to build service", logger.Error(err))
	}
	if err := a.start(ctx); err != nil {
		a.close(ctx)
		log.Fatal(ctx, "failed to start service", logger.Error(err))
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, a.svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutMS)*time.Millisecond)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	a.stop(shutdownCtx)

	log.Info(ctx, "server stopped")
}

// build wires storage, feeds, the service and the HTTP routes from cfg.
func build(ctx context.Context, cfg *config.Config) (*application, error) {
	a := &application{cfg: cfg, holder: snapshot.NewHolder()}

	opts := []service.Option{
		service.WithLogger(logger.Named("service")),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithSnapshotHolder(a.holder),
		service.WithFittedProjector(cfg.Fitted()),
		service.WithEngineOptions(
			engine.WithWeights(cfg.Weights),
			engine.WithSchedule(cfg.Schedule()),
			engine.WithHomeFieldBonus(cfg.HomeFieldBonus),
		),
	}
	if cfg.DBPath != "" {
		store, err := repository.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		a.store = store
		opts = append(opts, service.WithPlayStore(store), service.WithPredictionStore(store))
	}

	svc, err := service.New(opts...)
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	a.svc = svc

	a.refresher = snapshot.NewRefresher(a.holder, snapshotLoader(cfg),
		snapshot.WithSchedule(cfg.RefreshSchedule),
		snapshot.WithTimeout(2*time.Duration(cfg.FeedTimeoutMS)*time.Millisecond),
		snapshot.WithLogger(logger.Named("snapshot")),
	)

	a.mux = http.NewServeMux()
	swagger.Register(ctx, a.mux)
	api.NewServer(svc, api.WithMaxLimit(cfg.MaxRankingsLimit)).Register(ctx, a.mux)
	return a, nil
}

// snapshotLoader prefers the HTTP feeds when configured and falls back to files.
func snapshotLoader(cfg *config.Config) snapshot.Loader {
	files := feeds.FileSource{GradesPath: cfg.GradesPath, InjuriesPath: cfg.InjuriesPath}
	if cfg.GradesURL == "" && cfg.InjuriesURL == "" {
		return files
	}
	remote := feeds.NewHTTPSource(cfg.GradesURL, cfg.InjuriesURL,
		feeds.WithFetchTimeout(time.Duration(cfg.FeedTimeoutMS)*time.Millisecond))
	if cfg.GradesPath == "" && cfg.InjuriesPath == "" {
		return remote
	}
	return feeds.Fallback{Primary: remote, Secondary: files}
}

func (a *application) start(ctx context.Context) error {
	if err := a.svc.Start(ctx); err != nil {
		return err
	}
	return a.refresher.Start(ctx)
}

func (a *application) stop(ctx context.Context) {
	a.refresher.Stop()
	if err := a.svc.Stop(ctx); err != nil {
		logger.Get().Error(ctx, "service stop failed", logger.Error(err))
	}
	a.close(ctx)
}

func (a *application) close(ctx context.Context) {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		logger.Get().Error(ctx, "store close failed", logger.Error(err))
	}
}

// startSystemMetricsUpdater updates system metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes gauges derived from service stats until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

func updateServiceMetrics(ctx context.Context, svc *service.Service) {
	stats := svc.Stats(ctx)
	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if age, ok := stats["snapshotAgeSeconds"].(float64); ok {
		metrics.UpdateSnapshotAge(age)
	}
	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
}
