package resilience

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// Operation is the unit of work protected by the pipeline. It must honor the
// context's deadline and cancellation.
type Operation func(ctx context.Context) error

// Manager composes the guards into one pipeline per resource key. Guard sets
// are created lazily on first use and live for the Manager's lifetime.
//
// The pipeline order is fixed: load shedding, rate limiter, bulkhead,
// circuit breaker admission, adaptive deadline, then the operation itself.
type Manager struct {
	defaults Config
	shed     LoadSheddingStrategy
	observer *asyncObserver

	mu     sync.RWMutex
	guards map[string]*guardSet
}

// guardSet holds one resource key's guard state. Fields are nil when the
// corresponding guard is disabled.
type guardSet struct {
	breaker  *CircuitBreaker
	bulkhead *Bulkhead
	limiter  *RateLimiter
	timeout  *AdaptiveTimeout
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithDefaultConfig sets the Config used for resources that have no
// explicit config.
func WithDefaultConfig(cfg Config) ManagerOption {
	return func(m *Manager) {
		m.defaults = cfg
	}
}

// WithLoadShedding sets the load-shedding strategy. Passing nil disables
// shedding.
func WithLoadShedding(s LoadSheddingStrategy) ManagerOption {
	return func(m *Manager) {
		if s == nil {
			s = NoShedding
		}
		m.shed = s
	}
}

// WithObserver sets the pipeline observer. Events are delivered
// asynchronously and never block a call.
func WithObserver(o Observer) ManagerOption {
	return func(m *Manager) {
		if o == nil {
			o = NopObserver{}
		}
		m.observer = newAsyncObserver(o)
	}
}

// NewManager creates a new pipeline manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		shed:   NoShedding,
		guards: make(map[string]*guardSet),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.observer == nil {
		m.observer = newAsyncObserver(NopObserver{})
	}
	return m
}

// Close stops the observer dispatch goroutine. The Manager must not be used
// after Close.
func (m *Manager) Close() {
	m.observer.close()
}

// Execute runs op for the given resource through the full pipeline, using
// the Manager's default Config if this is the resource's first call.
//
// Rejections map to the package sentinel errors; a deadline expiry surfaces
// as ErrTimeout and is recorded as a failure against the circuit breaker.
// The operation's own error passes through unchanged.
func (m *Manager) Execute(ctx context.Context, resource string, op Operation) error {
	return m.execute(ctx, resource, m.defaults, op)
}

// ExecuteWithConfig is Execute with an explicit Config. The config is
// applied when the resource's guard set is first created; later calls for
// the same resource reuse the existing guards.
func (m *Manager) ExecuteWithConfig(ctx context.Context, resource string, cfg Config, op Operation) error {
	return m.execute(ctx, resource, cfg, op)
}

func (m *Manager) execute(ctx context.Context, resource string, cfg Config, op Operation) error {
	if m.shed.ShouldShed(resource) {
		m.observer.rejection(resource, ErrLoadShed)
		return ErrLoadShed
	}

	g := m.guardSet(resource, cfg)

	if g.limiter != nil {
		if err := g.limiter.TryAcquire(); err != nil {
			m.observer.rejection(resource, err)
			return err
		}
	}

	if g.bulkhead != nil {
		if err := g.bulkhead.Acquire(ctx); err != nil {
			if err == ErrBulkheadFull {
				m.observer.rejection(resource, err)
			}
			return err
		}
		defer g.bulkhead.Release()
	}

	var gen uint64
	if g.breaker != nil {
		var err error
		gen, err = g.breaker.admit()
		if err != nil {
			m.observer.rejection(resource, err)
			return err
		}
	}

	return m.run(ctx, resource, g, gen, op)
}

// run executes op under the adaptive deadline and records the outcome
// exactly once. A completion that loses the race against the deadline is
// discarded: the spawned goroutine's result goes to a buffered channel that
// nothing reads after the select returns.
func (m *Manager) run(ctx context.Context, resource string, g *guardSet, gen uint64, op Operation) error {
	runCtx := ctx
	if g.timeout != nil {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, g.timeout.Next())
		defer cancel()
	}

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- op(runCtx)
	}()

	var err error
	select {
	case err = <-done:
		// Caller cancellation is not a dependency failure: release the
		// breaker admission and return without recording an outcome.
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			if g.breaker != nil {
				g.breaker.cancelAdmission(gen)
			}
			return err
		}
	case <-runCtx.Done():
		if ctx.Err() != nil {
			if g.breaker != nil {
				g.breaker.cancelAdmission(gen)
			}
			return ctx.Err()
		}
		err = ErrTimeout
	}

	latency := time.Since(start)
	success := err == nil

	if g.breaker != nil {
		g.breaker.record(gen, success, latency)
	}
	if success && g.timeout != nil {
		g.timeout.Record(latency)
	}
	m.observer.callOutcome(resource, CallOutcome{
		Success:   success,
		Latency:   latency,
		Timestamp: time.Now(),
	})

	return err
}

// guardSet returns the resource's guards, creating them from cfg on first
// use. Lookup takes only a read lock so unrelated resources do not contend.
func (m *Manager) guardSet(resource string, cfg Config) *guardSet {
	m.mu.RLock()
	g, ok := m.guards[resource]
	m.mu.RUnlock()
	if ok {
		return g
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.guards[resource]; ok {
		return g
	}

	g = &guardSet{}
	if !cfg.DisableCircuitBreaker {
		bc := cfg.circuitBreaker()
		bc.OnStateChange = func(from, to State) {
			m.observer.stateTransition(resource, from, to)
		}
		g.breaker = NewCircuitBreaker(bc)
	}
	if !cfg.DisableBulkhead {
		g.bulkhead = NewBulkhead(cfg.bulkhead())
	}
	if !cfg.DisableRateLimiter {
		g.limiter = NewRateLimiter(cfg.rateLimiter())
	}
	if !cfg.DisableAdaptiveTimeout {
		g.timeout = NewAdaptiveTimeout(cfg.adaptiveTimeout())
	}
	m.guards[resource] = g
	return g
}

// Snapshot is a point-in-time view of one resource's guard state.
type Snapshot struct {
	Resource        string
	CircuitState    State
	FailureRate     float64
	ActiveBulkhead  int
	AvailableTokens float64
}

// Snapshot returns diagnostics for a resource. The second return value is
// false if the resource has never been used.
func (m *Manager) Snapshot(resource string) (Snapshot, bool) {
	m.mu.RLock()
	g, ok := m.guards[resource]
	m.mu.RUnlock()
	if !ok {
		return Snapshot{}, false
	}

	s := Snapshot{Resource: resource}
	if g.breaker != nil {
		cm := g.breaker.Metrics()
		s.CircuitState = cm.State
		s.FailureRate = cm.FailureRate
	}
	if g.bulkhead != nil {
		s.ActiveBulkhead = g.bulkhead.Active()
	}
	if g.limiter != nil {
		s.AvailableTokens = g.limiter.Tokens()
	}
	return s, true
}

// Snapshots returns diagnostics for every known resource, ordered by key.
func (m *Manager) Snapshots() []Snapshot {
	m.mu.RLock()
	keys := make([]string, 0, len(m.guards))
	for k := range m.guards {
		keys = append(keys, k)
	}
	m.mu.RUnlock()

	sort.Strings(keys)
	out := make([]Snapshot, 0, len(keys))
	for _, k := range keys {
		if s, ok := m.Snapshot(k); ok {
			out = append(out, s)
		}
	}
	return out
}
