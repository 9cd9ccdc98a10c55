// Package resilience guards the ordering engine's external dependencies: the
// LLM delegate and the order sink. A hung model endpoint or order store must
// never stall a live phone call, so every outbound call runs under a
// deadline ([WithTimeout]) and, for the delegate, behind a [CircuitBreaker]
// with optional failover across backends ([FallbackGroup]).
//
// All types are safe for concurrent use.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by [CircuitBreaker.Execute] while the breaker is
// open and the reset timeout has not yet elapsed.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the operating mode of a [CircuitBreaker].
type State int

const (
	// StateClosed forwards all calls.
	StateClosed State = iota

	// StateOpen rejects calls with [ErrCircuitOpen]. Entered after too many
	// consecutive failures; left after the reset timeout.
	StateOpen

	// StateHalfOpen admits a bounded number of probe calls. Enough
	// successes close the breaker again; any failure re-opens it.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig tunes a [CircuitBreaker]. Zero values fall back to
// the documented defaults.
type CircuitBreakerConfig struct {
	// Name labels the breaker in log output.
	Name string

	// MaxFailures is the consecutive-failure count that opens a closed
	// breaker. Default: 5.
	MaxFailures int

	// ResetTimeout is how long the breaker stays open before admitting
	// probes. Default: 30s.
	ResetTimeout time.Duration

	// HalfOpenMax bounds the probe calls admitted while half-open.
	// Default: 3.
	HalfOpenMax int
}

// CircuitBreaker is a three-state breaker. Safe for concurrent use.
type CircuitBreaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration
	halfOpenMax  int

	mu              sync.Mutex
	state           State
	consecutiveFail int
	lastFailure     time.Time
	halfOpenCalls   int
	halfOpenFails   int
}

// NewCircuitBreaker returns a closed breaker with cfg's tuning, defaults
// filled in.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 3
	}
	return &CircuitBreaker{
		name:         cfg.Name,
		maxFailures:  cfg.MaxFailures,
		resetTimeout: cfg.ResetTimeout,
		halfOpenMax:  cfg.HalfOpenMax,
		state:        StateClosed,
	}
}

// Execute runs fn when the breaker admits the call, then records the
// outcome. An open breaker returns [ErrCircuitOpen] without invoking fn.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	inHalfOpen, ok := cb.admit()
	if !ok {
		return ErrCircuitOpen
	}

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.onFailure(inHalfOpen)
	} else {
		cb.onSuccess(inHalfOpen)
	}
	return err
}

// admit decides whether a call may proceed, performing the open to
// half-open transition when the reset timeout has elapsed. The returned
// flag reports whether the call counts against the half-open probe budget.
func (cb *CircuitBreaker) admit() (inHalfOpen, ok bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if time.Since(cb.lastFailure) < cb.resetTimeout {
			return false, false
		}
		cb.state = StateHalfOpen
		cb.halfOpenCalls = 0
		cb.halfOpenFails = 0
		slog.Info("circuit breaker transitioning to half-open", "name", cb.name)

	case StateHalfOpen:
		if cb.halfOpenCalls >= cb.halfOpenMax {
			// Probe budget exhausted; wait for the in-flight probes.
			return false, false
		}
	}

	if cb.state == StateHalfOpen {
		cb.halfOpenCalls++
		return true, true
	}
	return false, true
}

// onFailure must be called with cb.mu held.
func (cb *CircuitBreaker) onFailure(inHalfOpen bool) {
	cb.lastFailure = time.Now()

	if inHalfOpen {
		// One failed probe is enough to re-open.
		cb.halfOpenFails++
		cb.state = StateOpen
		cb.consecutiveFail = cb.maxFailures
		slog.Warn("circuit breaker re-opened from half-open", "name", cb.name)
		return
	}

	cb.consecutiveFail++
	if cb.consecutiveFail >= cb.maxFailures {
		cb.state = StateOpen
		slog.Warn("circuit breaker opened",
			"name", cb.name,
			"consecutive_failures", cb.consecutiveFail)
	}
}

// onSuccess must be called with cb.mu held.
func (cb *CircuitBreaker) onSuccess(inHalfOpen bool) {
	if !inHalfOpen {
		cb.consecutiveFail = 0
		return
	}
	if cb.halfOpenCalls-cb.halfOpenFails >= cb.halfOpenMax {
		cb.state = StateClosed
		cb.consecutiveFail = 0
		cb.halfOpenCalls = 0
		cb.halfOpenFails = 0
		slog.Info("circuit breaker closed after successful probes", "name", cb.name)
	}
}

// State reports the breaker's mode. An open breaker whose reset timeout has
// elapsed reports [StateHalfOpen]; the stored transition happens on the next
// [CircuitBreaker.Execute].
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && time.Since(cb.lastFailure) >= cb.resetTimeout {
		return StateHalfOpen
	}
	return cb.state
}

// Reset forces the breaker back to closed, clearing all counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.consecutiveFail = 0
	cb.halfOpenCalls = 0
	cb.halfOpenFails = 0
	slog.Info("circuit breaker manually reset", "name", cb.name)
}
