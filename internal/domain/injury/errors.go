package injury

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidTables = errors.New("invalid injury tables")
)
