package snapshot

import "errors"

// Sentinel errors for snapshot refreshes.
var (
	ErrNoLoader       = errors.New("snapshot loader is nil")
	ErrAlreadyRunning = errors.New("snapshot refresher already running")
)
