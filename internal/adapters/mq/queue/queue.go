// Package queue buffers work between request handlers and background workers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/gridiron/pkg/metrics"
)

const defaultCapacity = 1024

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue[T any] interface {
	// Enqueue adds an item. It fails with ErrFull or ErrClosed instead of blocking.
	Enqueue(ctx context.Context, item T) error

	// Dequeue returns a channel that yields items until the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan T

	Len(ctx context.Context) int

	// Close stops new items; queued items can still be dequeued.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue[T any] struct {
	items    chan T
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue[T any](opts ...Option) *InMemoryQueue[T] {
	c := config{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(&c)
	}

	q := &InMemoryQueue[T]{
		items:    make(chan T, c.capacity),
		capacity: c.capacity,
	}
	metrics.UpdateQueueCapacity(c.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds item to the queue.
func (q *InMemoryQueue[T]) Enqueue(ctx context.Context, item T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueue("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case q.items <- item:
		metrics.RecordQueueEnqueue("accepted")
		metrics.UpdateQueueSize(len(q.items))
		return nil
	default:
		metrics.RecordQueueEnqueue("full")
		return ErrFull
	}
}

// Dequeue returns the queue's own channel. Items stay queued until a receiver
// takes them, so a consumer that stops early loses nothing.
func (q *InMemoryQueue[T]) Dequeue(_ context.Context) <-chan T {
	return q.items
}

// Len returns the number of queued items.
func (q *InMemoryQueue[T]) Len(_ context.Context) int {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	return size
}

// Close shuts the queue for new items. Closing twice is a no-op.
func (q *InMemoryQueue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue[T]) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
