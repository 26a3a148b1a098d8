package usecase

import (
	"context"
	"errors"
)

// Sentinel errors shared by the services and the transports. Adapters wrap
// them with %w so callers classify with errors.Is.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrNoSnapshot            = errors.New("no snapshot available")
)

// ErrorKind returns a short, low-cardinality label for err, suitable for
// metric labels and log fields. A nil error is "ok".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrNoSnapshot):
		return "no_snapshot"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDependencyUnavailable):
		return "unavailable"
	default:
		return "internal"
	}
}
