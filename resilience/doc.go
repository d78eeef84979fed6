// Package resilience protects outbound calls to remote services with a
// composable pipeline of guards.
//
// Each remote dependency is identified by a resource key. The first call for
// a key lazily creates an independent set of guards; unrelated keys never
// contend on shared locks. The guards are applied in a fixed order:
//
//  1. Load shedding: reject immediately under process-wide stress.
//  2. Rate limiter: token bucket, immediate rejection when empty.
//  3. Bulkhead: bounded concurrency, optional bounded wait for a slot.
//  4. Circuit breaker: failure-rate driven CLOSED/OPEN/HALF_OPEN gate.
//  5. Adaptive timeout: per-call deadline derived from recent latencies.
//
// # Usage
//
//	mgr := resilience.NewManager(
//	    resilience.WithDefaultConfig(resilience.Config{
//	        FailureRateThreshold:  50,
//	        BulkheadMaxConcurrent: 20,
//	        RateLimitPerSecond:    200,
//	    }),
//	)
//	defer mgr.Close()
//
//	err := mgr.Execute(ctx, "billing-api", func(ctx context.Context) error {
//	    return callBillingService(ctx)
//	})
//
// Rejections surface as the package's sentinel errors (ErrLoadShed,
// ErrRateLimitExceeded, ErrBulkheadFull, ErrCircuitOpen, ErrTimeout); the
// operation's own error passes through unchanged. Retrying is a caller
// concern: the pipeline only controls admission and tracks outcomes.
//
// Each guard can also be used on its own (CircuitBreaker, Bulkhead,
// RateLimiter, AdaptiveTimeout), and each is independently disableable
// through Config, so partial pipelines are a valid composition.
package resilience
