package ingest

import (
	"time"

	"github.com/componentize/repodata/errors"
)

// Failure classification for the fetch loop. A failure is recoverable
// unless something explicitly marked it otherwise: unknown errors keep
// their retry budget. Non-recoverable failures (unsupported host, missing
// tag, missing required manifest) discard the request immediately.

// nonRecoverable marks an error as permanent
type nonRecoverable struct {
	cause error
}

func (e *nonRecoverable) Error() string { return e.cause.Error() }
func (e *nonRecoverable) Unwrap() error { return e.cause }

// MarkNonRecoverable marks an error as permanent: the fetch loop will
// discard the request instead of re-queueing it.
func MarkNonRecoverable(err error) error {
	if err == nil {
		return nil
	}
	return &nonRecoverable{cause: err}
}

// NonRecoverablef creates a new permanent error
func NonRecoverablef(format string, args ...interface{}) error {
	return MarkNonRecoverable(errors.Newf(format, args...))
}

// IsRecoverable reports whether a failure should consume retry budget.
// Errors not explicitly marked non-recoverable are recoverable, including
// ambiguous upstream failures without a status code.
func IsRecoverable(err error) bool {
	var marker *nonRecoverable
	return !errors.As(err, &marker)
}

// rateLimited is a recoverable error carrying the upstream rate-limit
// reset time.
type rateLimited struct {
	cause   error
	resetAt time.Time
}

func (e *rateLimited) Error() string { return e.cause.Error() }
func (e *rateLimited) Unwrap() error { return e.cause }

// MarkRateLimited attaches an upstream rate-limit reset time to an error.
// The fetch loop widens its next poll interval until the reset time.
func MarkRateLimited(err error, resetAt time.Time) error {
	if err == nil {
		return nil
	}
	return &rateLimited{cause: err, resetAt: resetAt}
}

// RateLimitResetAt extracts the rate-limit reset time from an error chain
func RateLimitResetAt(err error) (time.Time, bool) {
	var marker *rateLimited
	if errors.As(err, &marker) {
		return marker.resetAt, true
	}
	return time.Time{}, false
}
