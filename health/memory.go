package health

import (
	"context"
	"fmt"
	"runtime"
)

// MemoryCheckerConfig configures the memory health checker.
type MemoryCheckerConfig struct {
	// Limit is the heap-in-use size in bytes the check measures against.
	// This should match the load shedder's memory limit when both are used.
	Limit uint64

	// WarningFraction of Limit triggers degraded status.
	// Default: 0.8
	WarningFraction float64

	// CriticalFraction of Limit triggers unhealthy status.
	// Default: 0.95
	CriticalFraction float64
}

// MemoryChecker checks heap usage against a configured limit, the same
// signal the default load-shedding strategy inspects.
type MemoryChecker struct {
	config MemoryCheckerConfig
}

// NewMemoryChecker creates a new memory health checker.
func NewMemoryChecker(config MemoryCheckerConfig) *MemoryChecker {
	if config.WarningFraction <= 0 || config.WarningFraction >= 1 {
		config.WarningFraction = 0.8
	}
	if config.CriticalFraction <= 0 || config.CriticalFraction >= 1 {
		config.CriticalFraction = 0.95
	}
	if config.CriticalFraction < config.WarningFraction {
		config.CriticalFraction = config.WarningFraction
	}
	return &MemoryChecker{config: config}
}

// Name returns the name of this checker.
func (m *MemoryChecker) Name() string {
	return "memory"
}

// Check performs the memory health check.
func (m *MemoryChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	details := map[string]any{
		"heap_inuse": stats.HeapInuse,
		"heap_sys":   stats.HeapSys,
		"num_gc":     stats.NumGC,
	}

	if m.config.Limit == 0 {
		return Healthy("no memory limit configured").WithDetails(details)
	}

	used := float64(stats.HeapInuse) / float64(m.config.Limit)
	details["limit"] = m.config.Limit
	details["used_fraction"] = used

	msg := fmt.Sprintf("heap at %.0f%% of limit", used*100)
	switch {
	case used >= m.config.CriticalFraction:
		return Unhealthy(msg, nil).WithDetails(details)
	case used >= m.config.WarningFraction:
		return Degraded(msg).WithDetails(details)
	default:
		return Healthy(msg).WithDetails(details)
	}
}
