// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package argustv

import (
	"sync"
	"time"

	"github.com/ManuGH/argustv-pvr/internal/metrics"
)

// State is the circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

const breakerComponent = "argustv"

// CircuitBreaker stops calling an ARGUS TV server that keeps failing. After
// threshold consecutive failures it rejects calls for cooldown, then lets
// calls probe the server; the first probe result closes or re-opens it.
type CircuitBreaker struct {
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
}

func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	metrics.SetBreakerState(breakerComponent, StateClosed.String())
	return &CircuitBreaker{
		threshold: max(threshold, 1),
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// Execute runs fn unless the breaker is open. fn's error is returned as is
// and counts as a failure.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.allow(); err != nil {
		return err
	}
	err := fn()
	cb.report(err != nil)
	return err
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state != StateOpen {
		return nil
	}
	if cb.now().Sub(cb.openedAt) <= cb.cooldown {
		return ErrCircuitOpen
	}
	cb.setLocked(StateHalfOpen)
	return nil
}

func (cb *CircuitBreaker) report(failed bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if !failed {
		cb.failures = 0
		cb.setLocked(StateClosed)
		return
	}
	cb.failures++
	if cb.state == StateHalfOpen || cb.failures >= cb.threshold {
		cb.openedAt = cb.now()
		cb.setLocked(StateOpen)
	}
}

func (cb *CircuitBreaker) setLocked(to State) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	metrics.ObserveBreakerTransition(breakerComponent, from.String(), to.String())
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
