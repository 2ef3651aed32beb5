package resilience

import (
	"errors"
	"testing"
	"time"
)

var errUpstream = errors.New("upstream failed")

func newTestBreaker(threshold int, openTimeout time.Duration, probes int) (*CircuitBreaker, *time.Time) {
	b := NewCircuitBreaker(CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: threshold,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   probes,
	})
	now := time.Date(2030, 3, 11, 18, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	return b, &now
}

func fail() error    { return errUpstream }
func succeed() error { return nil }

func TestCircuitBreaker_TripsAndRecovers(t *testing.T) {
	b, now := newTestBreaker(2, 5*time.Second, 1)

	var transitions []string
	b.OnStateChange(func(from, to CircuitState) {
		transitions = append(transitions, string(from)+"->"+string(to))
	})

	if err := b.Execute(fail, nil); !errors.Is(err, errUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after first failure, got %s", state)
	}

	_ = b.Execute(fail, nil)
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}

	called := false
	err := b.Execute(func() error { called = true; return nil }, nil)
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Fatalf("expected rejection without calling fn, err=%v called=%v", err, called)
	}

	*now = now.Add(6 * time.Second)
	if state := b.State(); state != CircuitStateHalfOpen {
		t.Fatalf("expected half-open after cool down, got %s", state)
	}
	if err := b.Execute(succeed, nil); err != nil {
		t.Fatalf("expected probe to pass, got %v", err)
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful probe, got %s", state)
	}

	want := []string{"closed->open", "open->half_open", "half_open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("unexpected transitions: %v", transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("unexpected transitions: %v", transitions)
		}
	}
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	b, now := newTestBreaker(1, time.Second, 1)

	_ = b.Execute(fail, nil)
	*now = now.Add(2 * time.Second)

	_ = b.Execute(fail, nil)
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after failed probe, got %s", state)
	}
	if err := b.Execute(succeed, nil); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected rejection right after reopening, got %v", err)
	}
}

func TestCircuitBreaker_NonFailureErrorsDoNotTrip(t *testing.T) {
	b, _ := newTestBreaker(1, time.Second, 1)
	errBadRequest := errors.New("bad request")

	transient := func(err error) bool { return errors.Is(err, errUpstream) }
	for i := 0; i < 3; i++ {
		if err := b.Execute(func() error { return errBadRequest }, transient); !errors.Is(err, errBadRequest) {
			t.Fatalf("expected caller error returned, got %v", err)
		}
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed for non-failure errors, got %s", state)
	}
}

func TestCircuitBreaker_DisabledPassesThrough(t *testing.T) {
	b := NewCircuitBreaker(CircuitBreakerConfig{Enabled: false})
	if b != nil {
		t.Fatalf("expected nil breaker when disabled")
	}
	for i := 0; i < 10; i++ {
		if err := b.Execute(fail, nil); !errors.Is(err, errUpstream) {
			t.Fatalf("expected passthrough error, got %v", err)
		}
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected nil breaker to report closed, got %s", state)
	}
}
