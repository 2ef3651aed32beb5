package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// CircuitBreaker trips after FailureThreshold consecutive failures, rejects calls
// for OpenTimeout and then lets HalfOpenMaxReq probes through. All probes have
// to succeed before it closes again. A nil breaker always passes calls through.
type CircuitBreaker struct {
	cfg      CircuitBreakerConfig
	onChange func(from, to CircuitState)
	now      func() time.Time

	mu        sync.Mutex
	state     CircuitState
	failures  int
	openedAt  time.Time
	probing   int
	succeeded int
}

// NewCircuitBreaker returns nil when cfg is disabled.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}
	return &CircuitBreaker{
		cfg:   NormalizeCircuitBreakerConfig(cfg),
		state: CircuitStateClosed,
		now:   time.Now,
	}
}

// OnStateChange registers fn for every transition. fn runs with the breaker
// unlocked and must not block.
func (b *CircuitBreaker) OnStateChange(fn func(from, to CircuitState)) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// Execute runs fn unless the breaker is open. Errors for which isFailure returns
// false, and a nil isFailure treats every error as a failure, count as success
// for the breaker while still being returned to the caller.
func (b *CircuitBreaker) Execute(fn func() error, isFailure func(error) bool) error {
	if b == nil {
		return fn()
	}
	if err := b.acquire(); err != nil {
		return err
	}

	err := fn()
	failed := err != nil && (isFailure == nil || isFailure(err))
	b.release(failed)
	return err
}

func (b *CircuitBreaker) State() CircuitState {
	if b == nil {
		return CircuitStateClosed
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == CircuitStateOpen && b.cooledDown() {
		return CircuitStateHalfOpen
	}
	return b.state
}

func (b *CircuitBreaker) acquire() error {
	b.mu.Lock()
	var from CircuitState
	if b.state == CircuitStateOpen {
		if !b.cooledDown() {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		from = b.transition(CircuitStateHalfOpen)
	}
	if b.state == CircuitStateHalfOpen {
		if b.probing >= b.cfg.HalfOpenMaxReq {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		b.probing++
	}
	notify := b.onChange
	b.mu.Unlock()

	if from != "" && notify != nil {
		notify(from, CircuitStateHalfOpen)
	}
	return nil
}

func (b *CircuitBreaker) release(failed bool) {
	b.mu.Lock()
	var from, to CircuitState
	switch b.state {
	case CircuitStateClosed:
		if !failed {
			b.failures = 0
			break
		}
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			from, to = b.transition(CircuitStateOpen), CircuitStateOpen
		}
	case CircuitStateHalfOpen:
		if b.probing > 0 {
			b.probing--
		}
		if failed {
			from, to = b.transition(CircuitStateOpen), CircuitStateOpen
			break
		}
		b.succeeded++
		if b.succeeded >= b.cfg.HalfOpenMaxReq && b.probing == 0 {
			from, to = b.transition(CircuitStateClosed), CircuitStateClosed
		}
	case CircuitStateOpen:
		// A call admitted before the trip finished late; extend the cool down.
		if failed {
			b.openedAt = b.now()
		}
	}
	notify := b.onChange
	b.mu.Unlock()

	if from != "" && notify != nil {
		notify(from, to)
	}
}

// transition must be called with b.mu held. It returns the previous state.
func (b *CircuitBreaker) transition(to CircuitState) CircuitState {
	from := b.state
	b.state = to
	b.probing = 0
	b.succeeded = 0
	switch to {
	case CircuitStateOpen:
		b.openedAt = b.now()
	case CircuitStateClosed:
		b.failures = 0
		b.openedAt = time.Time{}
	}
	return from
}

func (b *CircuitBreaker) cooledDown() bool {
	return b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout
}
