package blend

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidSchedule = errors.New("invalid recency schedule")
)
