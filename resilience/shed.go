package resilience

import (
	"runtime"
	"sync"
	"time"
)

// LoadSheddingStrategy decides whether a call should be rejected before any
// other guard is consulted. Any conforming implementation is pluggable,
// including a no-op.
type LoadSheddingStrategy interface {
	// ShouldShed reports whether the call for the given resource should be
	// rejected under current system-wide load.
	ShouldShed(resource string) bool
}

// ShedFunc adapts a function to the LoadSheddingStrategy interface.
type ShedFunc func(resource string) bool

// ShouldShed calls f.
func (f ShedFunc) ShouldShed(resource string) bool { return f(resource) }

// NoShedding is a LoadSheddingStrategy that never sheds.
var NoShedding LoadSheddingStrategy = ShedFunc(func(string) bool { return false })

// SystemLoadConfig configures the default load-shedding strategy.
type SystemLoadConfig struct {
	// MemoryLimit is the heap-in-use size in bytes above which calls are
	// shed. 0 disables the memory signal.
	MemoryLimit uint64

	// MaxGoroutines is the goroutine count above which calls are shed,
	// a proxy for queued work. 0 disables the goroutine signal.
	MaxGoroutines int

	// SampleInterval bounds how often the runtime is inspected, keeping
	// the admission check cheap.
	// Default: 1 second
	SampleInterval time.Duration
}

func (c SystemLoadConfig) withDefaults() SystemLoadConfig {
	if c.SampleInterval <= 0 {
		c.SampleInterval = time.Second
	}
	return c
}

// SystemLoadStrategy sheds calls when process-wide stress signals (heap in
// use, goroutine count) exceed configured thresholds. Runtime stats are
// sampled at most once per SampleInterval; admission checks between samples
// read the cached decision.
type SystemLoadStrategy struct {
	config SystemLoadConfig

	mu        sync.Mutex
	sampledAt time.Time
	shedding  bool
}

// NewSystemLoadStrategy creates the default load-shedding strategy.
func NewSystemLoadStrategy(config SystemLoadConfig) *SystemLoadStrategy {
	return &SystemLoadStrategy{config: config.withDefaults()}
}

// ShouldShed reports whether system-wide load exceeds the configured
// thresholds. The resource key is ignored: shedding is a process-level
// signal, not a per-dependency one.
func (s *SystemLoadStrategy) ShouldShed(string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(s.sampledAt) >= s.config.SampleInterval {
		s.shedding = s.sample()
		s.sampledAt = time.Now()
	}
	return s.shedding
}

func (s *SystemLoadStrategy) sample() bool {
	if s.config.MaxGoroutines > 0 && runtime.NumGoroutine() > s.config.MaxGoroutines {
		return true
	}
	if s.config.MemoryLimit > 0 {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		if ms.HeapInuse > s.config.MemoryLimit {
			return true
		}
	}
	return false
}
