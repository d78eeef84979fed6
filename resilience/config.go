package resilience

import "time"

// Config holds the per-resource guard settings. It is read-only after being
// handed to a Manager: the guard set for a resource is built from it once,
// on first use, and changing a Config afterwards has no effect on existing
// guards.
//
// Zero values select the documented defaults, so Config{} is a usable
// configuration. Individual guards can be removed from the pipeline with the
// Disable flags; a disabled guard is a no-op passthrough.
type Config struct {
	// Circuit breaker.
	FailureRateThreshold   float64       // percent, 0-100; default 50
	MinimumCalls           int           // default 10
	WindowSize             int           // default 100
	WaitDurationOpen       time.Duration // default 30s
	HalfOpenPermittedCalls int           // default 1

	// Bulkhead.
	BulkheadMaxConcurrent int           // default 10
	BulkheadMaxWait       time.Duration // default 0 (fail immediately)

	// Rate limiter.
	RateLimitPerSecond float64 // default 100
	RateLimitBurst     int     // default 10

	// Adaptive timeout.
	BaseTimeout       time.Duration // default 1s
	MaxTimeout        time.Duration // default 30s
	SafetyFactor      float64       // default 2.0
	TimeoutSampleSize int           // default 50

	// Per-guard passthrough switches.
	DisableCircuitBreaker  bool
	DisableBulkhead        bool
	DisableRateLimiter     bool
	DisableAdaptiveTimeout bool
}

// DefaultConfig returns the defaults spelled out explicitly.
func DefaultConfig() Config {
	return Config{
		FailureRateThreshold:   50,
		MinimumCalls:           10,
		WindowSize:             100,
		WaitDurationOpen:       30 * time.Second,
		HalfOpenPermittedCalls: 1,
		BulkheadMaxConcurrent:  10,
		BulkheadMaxWait:        0,
		RateLimitPerSecond:     100,
		RateLimitBurst:         10,
		BaseTimeout:            time.Second,
		MaxTimeout:             30 * time.Second,
		SafetyFactor:           2.0,
		TimeoutSampleSize:      50,
	}
}

func (c Config) circuitBreaker() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureRateThreshold:   c.FailureRateThreshold,
		MinimumCalls:           c.MinimumCalls,
		WindowSize:             c.WindowSize,
		WaitDurationOpen:       c.WaitDurationOpen,
		HalfOpenPermittedCalls: c.HalfOpenPermittedCalls,
	}
}

func (c Config) bulkhead() BulkheadConfig {
	return BulkheadConfig{
		MaxConcurrent: c.BulkheadMaxConcurrent,
		MaxWait:       c.BulkheadMaxWait,
	}
}

func (c Config) rateLimiter() RateLimiterConfig {
	return RateLimiterConfig{
		Rate:  c.RateLimitPerSecond,
		Burst: c.RateLimitBurst,
	}
}

func (c Config) adaptiveTimeout() AdaptiveTimeoutConfig {
	return AdaptiveTimeoutConfig{
		BaseTimeout:  c.BaseTimeout,
		MaxTimeout:   c.MaxTimeout,
		SafetyFactor: c.SafetyFactor,
		SampleSize:   c.TimeoutSampleSize,
	}
}
