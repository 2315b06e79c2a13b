package loadtest

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid load test config")
	ErrUnhealthy     = errors.New("service unhealthy")
	ErrInconsistent  = errors.New("inconsistent service answer")
)
