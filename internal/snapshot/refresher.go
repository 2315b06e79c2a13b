package snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/gridiron/pkg/logger"
	"github.com/okian/gridiron/pkg/metrics"
)

const (
	// DefaultSchedule reloads once an hour.
	DefaultSchedule       = "@hourly"
	defaultRefreshTimeout = 30 * time.Second
)

// Loader produces a fresh snapshot from the external feeds.
type Loader interface {
	Load(ctx context.Context) (*Data, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (*Data, error)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context) (*Data, error) { return f(ctx) }

// Refresher reloads the holder on a cron schedule. A failed load keeps the
// previous data in place.
type Refresher struct {
	holder   *Holder
	loader   Loader
	schedule string
	timeout  time.Duration
	log      logger.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithSchedule sets the cron spec; descriptors such as @hourly and @every 10m work.
func WithSchedule(spec string) RefresherOption {
	return func(r *Refresher) {
		if spec != "" {
			r.schedule = spec
		}
	}
}

// WithTimeout bounds a single load.
func WithTimeout(d time.Duration) RefresherOption {
	return func(r *Refresher) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) RefresherOption {
	return func(r *Refresher) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRefresher returns a refresher that stores into h whatever l loads.
func NewRefresher(h *Holder, l Loader, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		holder:   h,
		loader:   l,
		schedule: DefaultSchedule,
		timeout:  defaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Named("snapshot")
	}
	return r
}

// Refresh loads once and swaps the holder on success.
func (r *Refresher) Refresh(ctx context.Context) error {
	if r.loader == nil {
		return ErrNoLoader
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	d, err := r.loader.Load(ctx)
	if err != nil {
		metrics.RecordSnapshotRefresh("failure")
		stale := r.holder.Current()
		metrics.UpdateSnapshotAge(stale.Age(time.Now()).Seconds())
		r.log.Warn(ctx, "snapshot refresh failed, keeping stale data",
			logger.Error(err), logger.String("version", stale.Version))
		return fmt.Errorf("refresh snapshot: %w", err)
	}

	r.holder.Store(d)
	cur := r.holder.Current()
	metrics.RecordSnapshotRefresh("success")
	metrics.UpdateSnapshotAge(0)
	r.log.Info(ctx, "snapshot refreshed",
		logger.String("version", cur.Version),
		logger.Int("teams", len(cur.Grades.Teams())),
		logger.Int("injury_reports", len(cur.Injuries)),
		logger.Duration("took", time.Since(start)))
	return nil
}

// Start refreshes immediately and then on the schedule until Stop or ctx is done.
// The first load may fail; the service keeps running on empty data.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return ErrAlreadyRunning
	}

	c := cron.New()
	if _, err := c.AddFunc(r.schedule, func() { _ = r.Refresh(ctx) }); err != nil {
		return fmt.Errorf("schedule snapshot refresh %q: %w", r.schedule, err)
	}

	_ = r.Refresh(ctx)

	c.Start()
	r.cron = c
	r.running = true
	r.log.Info(ctx, "snapshot refresher started", logger.String("schedule", r.schedule))

	go func() {
		<-ctx.Done()
		r.Stop()
	}()
	return nil
}

// Stop halts scheduling and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	<-r.cron.Stop().Done()
	r.running = false
}

// Next returns when the next scheduled refresh will run, or the zero time when stopped.
func (r *Refresher) Next() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return time.Time{}
	}
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
