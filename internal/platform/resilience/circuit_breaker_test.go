package resilience

import (
	"errors"
	"testing"
	"time"
)

func newTestBreaker(cfg CircuitBreakerConfig, now *time.Time) *CircuitBreaker {
	b := NewCircuitBreaker(cfg)
	b.now = func() time.Time { return *now }
	return b
}

func TestCircuitBreaker_TripsAndRecovers(t *testing.T) {
	now := time.Date(2025, 9, 13, 18, 0, 0, 0, time.UTC)
	b := newTestBreaker(CircuitBreakerConfig{Enabled: true, FailureThreshold: 2, OpenTimeout: 10 * time.Second, HalfOpenMaxReq: 1}, &now)

	if err := b.Allow(); err != nil {
		t.Fatalf("expected allow while closed: %v", err)
	}
	b.RecordFailure()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after one failure, got %s", state)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold, got %s", state)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}

	now = now.Add(11 * time.Second)
	if state := b.State(); state != CircuitStateHalfOpen {
		t.Fatalf("expected half-open after cool-down, got %s", state)
	}
	if err := b.Allow(); err != nil {
		t.Fatalf("expected probe to pass, got %v", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected second probe to be rejected, got %v", err)
	}

	b.RecordSuccess()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful probe, got %s", state)
	}
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	now := time.Date(2025, 9, 13, 18, 0, 0, 0, time.UTC)
	b := newTestBreaker(CircuitBreakerConfig{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Second, HalfOpenMaxReq: 1}, &now)

	b.RecordFailure()
	now = now.Add(2 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected probe to pass, got %v", err)
	}
	b.RecordFailure()

	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after failed probe, got %s", state)
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	now := time.Date(2025, 9, 13, 18, 0, 0, 0, time.UTC)
	b := newTestBreaker(CircuitBreakerConfig{Enabled: true, FailureThreshold: 2}, &now)

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()

	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed when failures are not consecutive, got %s", state)
	}
}

func TestNormalizeCircuitBreakerConfig(t *testing.T) {
	got := NormalizeCircuitBreakerConfig(CircuitBreakerConfig{})
	want := DefaultCircuitBreakerConfig()
	want.Enabled = false
	if got != want {
		t.Fatalf("unexpected normalized config: got %+v want %+v", got, want)
	}
}
