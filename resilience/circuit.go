package resilience

import (
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is blocking all requests.
	StateOpen
	// StateHalfOpen means the circuit is testing if the service recovered.
	StateHalfOpen
)

// String returns the string representation of the state.
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

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// FailureRateThreshold is the failure percentage (0-100) at or above
	// which the circuit opens, once MinimumCalls have been recorded.
	// Default: 50
	FailureRateThreshold float64

	// MinimumCalls is the number of recorded calls required before the
	// failure rate is evaluated.
	// Default: 10
	MinimumCalls int

	// WindowSize is the capacity of the sliding outcome window.
	// Default: 100
	WindowSize int

	// WaitDurationOpen is how long the circuit stays open before a probe
	// is admitted.
	// Default: 30 seconds
	WaitDurationOpen time.Duration

	// HalfOpenPermittedCalls is the number of concurrent probes allowed in
	// half-open state, and the number of consecutive successes required to
	// close the circuit.
	// Default: 1
	HalfOpenPermittedCalls int

	// OnStateChange is called (under the breaker lock) when the state
	// changes.
	OnStateChange func(from, to State)
}

func (c CircuitBreakerConfig) withDefaults() CircuitBreakerConfig {
	if c.FailureRateThreshold <= 0 {
		c.FailureRateThreshold = 50
	}
	if c.MinimumCalls <= 0 {
		c.MinimumCalls = 10
	}
	if c.WindowSize <= 0 {
		c.WindowSize = 100
	}
	if c.WaitDurationOpen <= 0 {
		c.WaitDurationOpen = 30 * time.Second
	}
	if c.HalfOpenPermittedCalls <= 0 {
		c.HalfOpenPermittedCalls = 1
	}
	return c
}

// CircuitBreaker implements a failure-rate driven circuit breaker over a
// sliding window of recent call outcomes.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu                sync.Mutex
	state             State
	window            *slidingWindow
	openedAt          time.Time
	halfOpenInflight  int
	halfOpenSuccesses int

	// generation increments on every state transition. Admissions carry the
	// generation they were granted under; outcomes and cancellations from an
	// earlier generation are discarded so a late completion from a previous
	// phase can never be counted against the current one.
	generation uint64
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	config = config.withDefaults()
	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
		window: newSlidingWindow(config.WindowSize),
	}
}

// Allow reports whether a call may proceed. In the open state the first
// caller after WaitDurationOpen elapses transitions the circuit to half-open
// and is admitted as the probe; in half-open, up to HalfOpenPermittedCalls
// probes may be in flight at once. Returns ErrCircuitOpen on denial.
func (cb *CircuitBreaker) Allow() error {
	_, err := cb.admit()
	return err
}

// admit is Allow plus the generation the admission belongs to.
func (cb *CircuitBreaker) admit() (uint64, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return cb.generation, nil

	case StateOpen:
		if time.Since(cb.openedAt) < cb.config.WaitDurationOpen {
			return 0, ErrCircuitOpen
		}
		cb.setState(StateHalfOpen)
		cb.halfOpenInflight = 1
		return cb.generation, nil

	default: // StateHalfOpen
		if cb.halfOpenInflight >= cb.config.HalfOpenPermittedCalls {
			return 0, ErrCircuitOpen
		}
		cb.halfOpenInflight++
		return cb.generation, nil
	}
}

// RecordOutcome records the result of an admitted call. Outcomes that arrive
// while the circuit is open (late completions from before the transition)
// are discarded.
func (cb *CircuitBreaker) RecordOutcome(success bool, latency time.Duration) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.recordLocked(success, latency)
}

// record applies an outcome from an admission of the given generation.
// Outcomes from an earlier phase are discarded.
func (cb *CircuitBreaker) record(gen uint64, success bool, latency time.Duration) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if gen != cb.generation {
		return
	}
	cb.recordLocked(success, latency)
}

// cancelAdmission releases an admission without recording an outcome, for
// calls that were abandoned by the caller before the dependency answered.
// A half-open probe slot is freed so the breaker can admit another probe.
func (cb *CircuitBreaker) cancelAdmission(gen uint64) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if gen != cb.generation {
		return
	}
	if cb.state == StateHalfOpen && cb.halfOpenInflight > 0 {
		cb.halfOpenInflight--
	}
}

func (cb *CircuitBreaker) recordLocked(success bool, latency time.Duration) {
	switch cb.state {
	case StateClosed:
		cb.window.record(CallOutcome{Success: success, Latency: latency, Timestamp: time.Now()})
		if cb.window.total >= cb.config.MinimumCalls &&
			cb.window.failureRate() >= cb.config.FailureRateThreshold {
			cb.trip()
		}

	case StateHalfOpen:
		if cb.halfOpenInflight > 0 {
			cb.halfOpenInflight--
		}
		if !success {
			cb.trip()
			return
		}
		cb.halfOpenSuccesses++
		if cb.halfOpenSuccesses >= cb.config.HalfOpenPermittedCalls {
			cb.window.reset()
			cb.halfOpenSuccesses = 0
			cb.setState(StateClosed)
		}
	}
}

// trip moves the circuit to open and clears the window. Caller holds the lock.
func (cb *CircuitBreaker) trip() {
	cb.window.reset()
	cb.openedAt = time.Now()
	cb.halfOpenInflight = 0
	cb.halfOpenSuccesses = 0
	cb.setState(StateOpen)
}

func (cb *CircuitBreaker) setState(state State) {
	if state == cb.state {
		return
	}
	from := cb.state
	cb.state = state
	cb.generation++
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(from, state)
	}
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// FailureRate returns the failure percentage over the current window.
func (cb *CircuitBreaker) FailureRate() float64 {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.window.failureRate()
}

// Reset returns the circuit to closed with an empty window.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.window.reset()
	cb.halfOpenInflight = 0
	cb.halfOpenSuccesses = 0
	cb.setState(StateClosed)
}

// CircuitMetrics contains circuit breaker statistics.
type CircuitMetrics struct {
	State       State
	FailureRate float64
	TotalCalls  int
	Successes   int
	Failures    int
}

// Metrics returns current circuit breaker statistics.
func (cb *CircuitBreaker) Metrics() CircuitMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitMetrics{
		State:       cb.state,
		FailureRate: cb.window.failureRate(),
		TotalCalls:  cb.window.total,
		Successes:   cb.window.successes,
		Failures:    cb.window.failures,
	}
}
