// Package worker runs background handlers off a queue and bounded batches of
// independent jobs.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/gridiron/pkg/logger"
	"github.com/okian/gridiron/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Handler processes one item taken off a queue.
type Handler[T any] interface {
	Handle(ctx context.Context, item T) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc[T any] func(ctx context.Context, item T) error

// Handle calls f.
func (f HandlerFunc[T]) Handle(ctx context.Context, item T) error { return f(ctx, item) }

// Source is where workers receive items from.
type Source[T any] interface {
	Dequeue(ctx context.Context) <-chan T
}

// Worker drains a Source into a Handler until the source closes or it is shut down.
type Worker[T any] struct {
	source  Source[T]
	handler Handler[T]
	name    string
	active  *atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewWorker creates a worker with configuration options.
func NewWorker[T any](source Source[T], handler Handler[T], opts ...Option) *Worker[T] {
	c := config{name: "worker"}
	for _, opt := range opts {
		opt(&c)
	}
	log := c.logger
	if log == nil {
		log = logger.Get().Named(c.name)
	}
	return &Worker[T]{
		source:   source,
		handler:  handler,
		name:     c.name,
		active:   &atomic.Int64{},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   log,
	}
}

// Run processes items until ctx is canceled, the source closes, or Shutdown is called.
func (w *Worker[T]) Run(ctx context.Context) {
	defer close(w.done)

	items := w.source.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		default:
		}

		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case item, ok := <-items:
			if !ok {
				return
			}
			w.process(ctx, item)
		}
	}
}

func (w *Worker[T]) process(ctx context.Context, item T) {
	metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
	defer func() { metrics.UpdateWorkerActiveCount(int(w.active.Add(-1))) }()

	if err := w.handler.Handle(ctx, item); err != nil {
		metrics.RecordWorkerError()
		w.logger.Error(ctx, "handler failed", logger.Error(err))
	}
}

// Shutdown stops the worker and waits for its current item to finish.
func (w *Worker[T]) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Pool manages several workers sharing one source.
type Pool[T any] struct {
	workers []*Worker[T]
	source  Source[T]
	wg      sync.WaitGroup
	cancel  context.CancelFunc

	logger logger.Logger
}

// NewPool creates workerCount workers. A count below one uses the CPU count.
func NewPool[T any](workerCount int, source Source[T], handler Handler[T]) *Pool[T] {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool[T]{
		workers: make([]*Worker[T], workerCount),
		source:  source,
		logger:  logger.Get().Named("worker-pool"),
	}
	active := &atomic.Int64{}
	for i := range p.workers {
		w := NewWorker(source, handler, WithName("worker-"+strconv.Itoa(i)))
		w.active = active
		p.workers[i] = w
	}
	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Size returns the number of workers.
func (p *Pool[T]) Size() int { return len(p.workers) }

// Start launches every worker. The workers run on a child of ctx that Drain and
// Shutdown cancel once they return.
func (p *Pool[T]) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker[T]) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
}

// Drain closes the source when it can be closed and waits for the workers to
// empty it, bounded by ctx.
func (p *Pool[T]) Drain(ctx context.Context) error {
	if closer, ok := p.source.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.stop()
		return nil
	case <-ctx.Done():
		p.logger.Warn(ctx, "worker pool drain timed out")
		return p.Shutdown(ctx)
	}
}

// Shutdown stops every worker without waiting for the source to empty. Items not
// yet received stay in the source.
func (p *Pool[T]) Shutdown(ctx context.Context) error {
	var firstErr error
	for i, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	p.stop()
	return firstErr
}

// stop cancels handlers still in flight.
func (p *Pool[T]) stop() {
	if p.cancel != nil {
		p.cancel()
	}
}
