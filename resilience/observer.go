package resilience

import "sync"

// Observer receives pipeline events. Implementations are typically metrics
// or logging adapters. The pipeline never blocks on an observer: events are
// dispatched through a bounded queue and dropped if the queue is full.
type Observer interface {
	// OnStateTransition is called when a circuit breaker changes state.
	OnStateTransition(resource string, from, to State)

	// OnCallOutcome is called once per completed call attempt.
	OnCallOutcome(resource string, outcome CallOutcome)

	// OnRejection is called when a guard denies admission. The reason is
	// one of the package's sentinel errors.
	OnRejection(resource string, reason error)
}

// NopObserver is an Observer that does nothing.
type NopObserver struct{}

func (NopObserver) OnStateTransition(string, State, State) {}
func (NopObserver) OnCallOutcome(string, CallOutcome)      {}
func (NopObserver) OnRejection(string, error)              {}

const observerQueueSize = 256

// asyncObserver decouples observer callbacks from the calling goroutine.
// Events are delivered in order by a single drain goroutine; when the queue
// is full, events are dropped rather than blocking the pipeline.
type asyncObserver struct {
	obs    Observer
	events chan func()
	done   chan struct{}
	once   sync.Once
}

func newAsyncObserver(obs Observer) *asyncObserver {
	a := &asyncObserver{
		obs:    obs,
		events: make(chan func(), observerQueueSize),
		done:   make(chan struct{}),
	}
	go a.drain()
	return a
}

func (a *asyncObserver) drain() {
	for {
		select {
		case fn := <-a.events:
			fn()
		case <-a.done:
			return
		}
	}
}

func (a *asyncObserver) dispatch(fn func()) {
	select {
	case a.events <- fn:
	default:
		// Queue full: drop rather than block the pipeline.
	}
}

func (a *asyncObserver) stateTransition(resource string, from, to State) {
	a.dispatch(func() { a.obs.OnStateTransition(resource, from, to) })
}

func (a *asyncObserver) callOutcome(resource string, outcome CallOutcome) {
	a.dispatch(func() { a.obs.OnCallOutcome(resource, outcome) })
}

func (a *asyncObserver) rejection(resource string, reason error) {
	a.dispatch(func() { a.obs.OnRejection(resource, reason) })
}

func (a *asyncObserver) close() {
	a.once.Do(func() { close(a.done) })
}
