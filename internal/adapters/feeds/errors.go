package feeds

import "errors"

// Sentinel errors for feed loading.
var (
	ErrDecode      = errors.New("decode feed document")
	ErrStatus      = errors.New("unexpected feed status")
	ErrNoFeeds     = errors.New("no feed configured")
	ErrBreakerOpen = errors.New("feed circuit open")
)
