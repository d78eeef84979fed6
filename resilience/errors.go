package resilience

import "errors"

// Sentinel errors for pipeline rejections and failures.
var (
	// ErrLoadShed is returned when the load-shedding strategy rejects the
	// call before any other guard is consulted.
	ErrLoadShed = errors.New("resilience: load shed")

	// ErrRateLimitExceeded is returned when the rate limit is exceeded.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrBulkheadFull is returned when the bulkhead is at capacity and the
	// wait time is exhausted.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrCircuitOpen is returned when the circuit breaker denies admission.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrTimeout is returned when an operation exceeds its deadline.
	ErrTimeout = errors.New("resilience: operation timed out")
)
