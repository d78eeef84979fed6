package resilience

import (
	"sync"
	"time"
)

// AdaptiveTimeoutConfig configures the adaptive timeout.
type AdaptiveTimeoutConfig struct {
	// BaseTimeout is the lower bound for computed deadlines, and the
	// deadline used before any samples exist.
	// Default: 1 second
	BaseTimeout time.Duration

	// MaxTimeout is the upper bound for computed deadlines.
	// Default: 30 seconds
	MaxTimeout time.Duration

	// SafetyFactor multiplies the moving average latency.
	// Default: 2.0
	SafetyFactor float64

	// SampleSize is the number of recent latencies retained.
	// Default: 50
	SampleSize int
}

func (c AdaptiveTimeoutConfig) withDefaults() AdaptiveTimeoutConfig {
	if c.BaseTimeout <= 0 {
		c.BaseTimeout = time.Second
	}
	if c.MaxTimeout <= 0 {
		c.MaxTimeout = 30 * time.Second
	}
	if c.MaxTimeout < c.BaseTimeout {
		c.MaxTimeout = c.BaseTimeout
	}
	if c.SafetyFactor <= 0 {
		c.SafetyFactor = 2.0
	}
	if c.SampleSize <= 0 {
		c.SampleSize = 50
	}
	return c
}

// AdaptiveTimeout derives per-call deadlines from a rolling sample of recent
// successful-call latencies. Only successes feed the sample: failures and
// timeouts are excluded so that a degraded dependency cannot inflate its own
// deadline.
type AdaptiveTimeout struct {
	config AdaptiveTimeoutConfig

	mu      sync.Mutex
	samples []time.Duration
	pos     int
	count   int
	sum     time.Duration
}

// NewAdaptiveTimeout creates a new adaptive timeout.
func NewAdaptiveTimeout(config AdaptiveTimeoutConfig) *AdaptiveTimeout {
	config = config.withDefaults()
	return &AdaptiveTimeout{
		config:  config,
		samples: make([]time.Duration, config.SampleSize),
	}
}

// Record adds a successful call's latency to the sample set, evicting the
// oldest sample when full.
func (at *AdaptiveTimeout) Record(latency time.Duration) {
	at.mu.Lock()
	defer at.mu.Unlock()

	if at.count == len(at.samples) {
		at.sum -= at.samples[at.pos]
	} else {
		at.count++
	}
	at.samples[at.pos] = latency
	at.sum += latency
	at.pos = (at.pos + 1) % len(at.samples)
}

// Next returns the deadline for the next call: the moving average latency
// scaled by SafetyFactor, clamped to [BaseTimeout, MaxTimeout]. With no
// samples it returns BaseTimeout.
func (at *AdaptiveTimeout) Next() time.Duration {
	at.mu.Lock()
	defer at.mu.Unlock()

	if at.count == 0 {
		return at.config.BaseTimeout
	}

	avg := at.sum / time.Duration(at.count)
	timeout := time.Duration(float64(avg) * at.config.SafetyFactor)
	if timeout < at.config.BaseTimeout {
		return at.config.BaseTimeout
	}
	if timeout > at.config.MaxTimeout {
		return at.config.MaxTimeout
	}
	return timeout
}

// SampleCount returns the number of retained samples.
func (at *AdaptiveTimeout) SampleCount() int {
	at.mu.Lock()
	defer at.mu.Unlock()
	return at.count
}
