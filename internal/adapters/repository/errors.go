package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = errors.New("team not ranked")
	ErrInvalidLimit  = errors.New("invalid rankings limit")
	ErrInvalidRecord = errors.New("invalid record")
)
