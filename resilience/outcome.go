package resilience

import "time"

// CallOutcome records the result of one completed call attempt.
type CallOutcome struct {
	// Success reports whether the call completed without error.
	Success bool

	// Latency is the observed call duration. For timed-out calls this is
	// the deadline that expired, not the eventual downstream duration.
	Latency time.Duration

	// Timestamp is when the outcome was recorded.
	Timestamp time.Time
}
