package allowlist

import "errors"

// ErrInvalidQuery and ErrMissingParam are non-retryable request-time
// errors; ErrUnsafeSQL and ErrDuplicateID are raised while loading the
// registry.
var (
	ErrInvalidQuery = errors.New("allowlist: invalid query id")
	ErrMissingParam = errors.New("allowlist: missing required param")
	ErrUnsafeSQL    = errors.New("allowlist: template failed the SELECT-only safety check")
	ErrDuplicateID  = errors.New("allowlist: duplicate query id in override file")
)
