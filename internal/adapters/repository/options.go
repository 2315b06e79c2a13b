package repository

import (
	"time"

	"github.com/google/uuid"
)

// Option applies a configuration option to the SQLiteStore.
type Option func(*SQLiteStore)

// WithClock sets the time source for CreatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator sets how prediction IDs are minted.
func WithIDGenerator(next func() string) Option {
	return func(s *SQLiteStore) {
		if next != nil {
			s.newID = next
		}
	}
}

func defaultID() string { return uuid.NewString() }
