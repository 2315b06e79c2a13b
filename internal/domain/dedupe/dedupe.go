// Package dedupe remembers which keys have already been processed so repeated
// deliveries of the same play batch are ingested at most once.
package dedupe

import (
	"context"
	"sync"
)

const defaultMaxSize = 50_000

// Deduper records seen keys.
type Deduper interface {
	// SeenAndRecord reports whether key was already recorded and records it if not.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so a failed ingest can be retried.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// window keeps the most recent maxSize keys. Slots are reused oldest first;
// a slot whose key was unrecorded is simply overwritten.
type window struct {
	mu      sync.Mutex
	seen    map[string]int // key -> ring slot, -1 when unbounded
	ring    []string
	next    int
	maxSize int
}

// NewInMemoryDeduper returns a Deduper bounded by WithMaxSize.
func NewInMemoryDeduper(opts ...Option) Deduper {
	w := &window{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(w)
	}
	w.seen = make(map[string]int)
	if w.maxSize > 0 {
		w.ring = make([]string, w.maxSize)
	}
	return w
}

func (w *window) SeenAndRecord(_ context.Context, key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.seen[key]; ok {
		return true
	}
	if w.ring == nil {
		w.seen[key] = -1
		return false
	}

	if old := w.ring[w.next]; old != "" {
		if slot, ok := w.seen[old]; ok && slot == w.next {
			delete(w.seen, old)
		}
	}
	w.ring[w.next] = key
	w.seen[key] = w.next
	w.next = (w.next + 1) % len(w.ring)
	return false
}

func (w *window) Unrecord(_ context.Context, key string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	slot, ok := w.seen[key]
	if !ok {
		return
	}
	delete(w.seen, key)
	if slot >= 0 {
		w.ring[slot] = ""
	}
}

func (w *window) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return int64(len(w.seen))
}
