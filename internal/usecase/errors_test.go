package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("owner 7: %w", context.DeadlineExceeded), "timeout"},
		{context.Canceled, "canceled"},
		{fmt.Errorf("%w: %w", ErrNoSnapshot, ErrUnauthorized), "no_snapshot"},
		{fmt.Errorf("login: %w", ErrUnauthorized), "unauthorized"},
		{fmt.Errorf("%w: top must be positive", ErrInvalidInput), "invalid_input"},
		{ErrNotFound, "not_found"},
		{fmt.Errorf("%w: provider status=502", ErrDependencyUnavailable), "unavailable"},
		{errors.New("boom"), "internal"},
	}

	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Fatalf("ErrorKind(%v)=%q want=%q", tt.err, got, tt.want)
		}
	}
}
