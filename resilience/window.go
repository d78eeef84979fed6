package resilience

// slidingWindow is a fixed-capacity ring buffer of call outcomes with
// incrementally maintained counters, so the failure rate is O(1) to read.
//
// It carries no lock of its own: the owning CircuitBreaker serializes all
// access under its mutex.
type slidingWindow struct {
	outcomes  []CallOutcome
	pos       int // next write position
	total     int // valid entries, up to len(outcomes)
	successes int
	failures  int
}

func newSlidingWindow(size int) *slidingWindow {
	if size <= 0 {
		size = 1
	}
	return &slidingWindow{outcomes: make([]CallOutcome, size)}
}

// record appends an outcome, evicting the oldest entry when full. Counters
// are adjusted by the evicted entry's contribution before the new entry's
// contribution is added.
func (w *slidingWindow) record(o CallOutcome) {
	if w.total == len(w.outcomes) {
		old := w.outcomes[w.pos]
		if old.Success {
			w.successes--
		} else {
			w.failures--
		}
	} else {
		w.total++
	}

	w.outcomes[w.pos] = o
	if o.Success {
		w.successes++
	} else {
		w.failures++
	}
	w.pos = (w.pos + 1) % len(w.outcomes)
}

// failureRate returns failures/total as a percentage in [0, 100].
// An empty window has a rate of 0.
func (w *slidingWindow) failureRate() float64 {
	if w.total == 0 {
		return 0
	}
	return float64(w.failures) / float64(w.total) * 100
}

func (w *slidingWindow) reset() {
	clear(w.outcomes)
	w.pos = 0
	w.total = 0
	w.successes = 0
	w.failures = 0
}
