package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func okOp(ctx context.Context) error { return nil }

func failOp(err error) Operation {
	return func(ctx context.Context) error { return err }
}

func TestManager_ExecuteSuccess(t *testing.T) {
	m := NewManager()
	defer m.Close()

	if err := m.Execute(context.Background(), "svc", okOp); err != nil {
		t.Errorf("Execute() = %v, want nil", err)
	}
}

func TestManager_OperationErrorPassesThrough(t *testing.T) {
	m := NewManager()
	defer m.Close()

	opErr := errors.New("downstream unavailable")
	err := m.Execute(context.Background(), "svc", failOp(opErr))
	if err != opErr {
		t.Errorf("Execute() = %v, want %v", err, opErr)
	}
}

func TestManager_LoadShedding(t *testing.T) {
	m := NewManager(WithLoadShedding(ShedFunc(func(string) bool { return true })))
	defer m.Close()

	called := false
	err := m.Execute(context.Background(), "svc", func(ctx context.Context) error {
		called = true
		return nil
	})

	if err != ErrLoadShed {
		t.Errorf("Execute() = %v, want ErrLoadShed", err)
	}
	if called {
		t.Error("Operation ran despite shedding")
	}
}

func TestManager_RateLimitRejection(t *testing.T) {
	m := NewManager(WithDefaultConfig(Config{
		RateLimitPerSecond: 0.001,
		RateLimitBurst:     2,
	}))
	defer m.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := m.Execute(ctx, "svc", okOp); err != nil {
			t.Fatalf("Execute() %d = %v, want nil", i+1, err)
		}
	}

	if err := m.Execute(ctx, "svc", okOp); err != ErrRateLimitExceeded {
		t.Errorf("Execute() after burst = %v, want ErrRateLimitExceeded", err)
	}
}

func TestManager_BulkheadRejection(t *testing.T) {
	m := NewManager(WithDefaultConfig(Config{
		BulkheadMaxConcurrent: 1,
		DisableRateLimiter:    true,
	}))
	defer m.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = m.Execute(context.Background(), "svc", func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	if err := m.Execute(context.Background(), "svc", okOp); err != ErrBulkheadFull {
		t.Errorf("Execute() while full = %v, want ErrBulkheadFull", err)
	}

	close(release)
	wg.Wait()

	if err := m.Execute(context.Background(), "svc", okOp); err != nil {
		t.Errorf("Execute() after release = %v, want nil", err)
	}
}

func TestManager_CircuitOpens(t *testing.T) {
	m := NewManager(WithDefaultConfig(Config{
		FailureRateThreshold: 50,
		MinimumCalls:         4,
		WindowSize:           4,
		WaitDurationOpen:     time.Minute,
		DisableRateLimiter:   true,
	}))
	defer m.Close()

	ctx := context.Background()
	opErr := errors.New("boom")
	for i := 0; i < 4; i++ {
		_ = m.Execute(ctx, "svc", failOp(opErr))
	}

	if err := m.Execute(ctx, "svc", okOp); err != ErrCircuitOpen {
		t.Errorf("Execute() after failures = %v, want ErrCircuitOpen", err)
	}

	s, ok := m.Snapshot("svc")
	if !ok {
		t.Fatal("Snapshot() ok = false, want true")
	}
	if s.CircuitState != StateOpen {
		t.Errorf("CircuitState = %v, want open", s.CircuitState)
	}
}

func TestManager_Timeout(t *testing.T) {
	m := NewManager(WithDefaultConfig(Config{
		BaseTimeout:          20 * time.Millisecond,
		MaxTimeout:           20 * time.Millisecond,
		FailureRateThreshold: 100,
		MinimumCalls:         1,
		DisableRateLimiter:   true,
	}))
	defer m.Close()

	err := m.Execute(context.Background(), "svc", func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	if err != ErrTimeout {
		t.Errorf("Execute() = %v, want ErrTimeout", err)
	}

	// The timeout counted as a failure and tripped the breaker.
	if s, _ := m.Snapshot("svc"); s.CircuitState != StateOpen {
		t.Errorf("CircuitState after timeout = %v, want open", s.CircuitState)
	}
}

func TestManager_CallerCancellationNotRecorded(t *testing.T) {
	m := NewManager(WithDefaultConfig(Config{DisableRateLimiter: true}))
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := m.Execute(ctx, "svc", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	if err != context.Canceled {
		t.Errorf("Execute() = %v, want context.Canceled", err)
	}

	// Cancellation is the caller's doing, not the dependency's.
	if s, _ := m.Snapshot("svc"); s.FailureRate != 0 {
		t.Errorf("FailureRate after cancellation = %v, want 0", s.FailureRate)
	}
}

func TestManager_CancelledHalfOpenProbeReleasesSlot(t *testing.T) {
	m := NewManager(WithDefaultConfig(Config{
		FailureRateThreshold: 50,
		MinimumCalls:         2,
		WindowSize:           2,
		WaitDurationOpen:     20 * time.Millisecond,
		DisableRateLimiter:   true,
	}))
	defer m.Close()

	for i := 0; i < 2; i++ {
		_ = m.Execute(context.Background(), "svc", failOp(errors.New("boom")))
	}
	if s, _ := m.Snapshot("svc"); s.CircuitState != StateOpen {
		t.Fatalf("CircuitState = %v, want open", s.CircuitState)
	}

	time.Sleep(30 * time.Millisecond)

	// The admitted probe is abandoned by its caller mid-call.
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	probeErr := make(chan error, 1)
	go func() {
		probeErr <- m.Execute(ctx, "svc", func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		})
	}()
	<-started
	cancel()
	if err := <-probeErr; err != context.Canceled {
		t.Fatalf("Probe Execute() = %v, want context.Canceled", err)
	}

	// The slot was released: a fresh probe is admitted and its success
	// closes the circuit.
	if err := m.Execute(context.Background(), "svc", okOp); err != nil {
		t.Fatalf("Execute() after cancelled probe = %v, want nil", err)
	}
	if s, _ := m.Snapshot("svc"); s.CircuitState != StateClosed {
		t.Errorf("CircuitState = %v, want closed", s.CircuitState)
	}
}

func TestManager_DisabledGuards(t *testing.T) {
	m := NewManager(WithDefaultConfig(Config{
		DisableCircuitBreaker:  true,
		DisableBulkhead:        true,
		DisableRateLimiter:     true,
		DisableAdaptiveTimeout: true,
	}))
	defer m.Close()

	if err := m.Execute(context.Background(), "svc", okOp); err != nil {
		t.Errorf("Execute() with all guards disabled = %v, want nil", err)
	}

	s, ok := m.Snapshot("svc")
	if !ok {
		t.Fatal("Snapshot() ok = false, want true")
	}
	if s.CircuitState != StateClosed || s.ActiveBulkhead != 0 || s.AvailableTokens != 0 {
		t.Errorf("Snapshot of disabled guards = %+v, want zero values", s)
	}
}

func TestManager_ExecuteWithConfig(t *testing.T) {
	m := NewManager()
	defer m.Close()

	cfg := Config{RateLimitPerSecond: 0.001, RateLimitBurst: 1}
	ctx := context.Background()

	if err := m.ExecuteWithConfig(ctx, "svc", cfg, okOp); err != nil {
		t.Fatalf("ExecuteWithConfig() = %v, want nil", err)
	}
	if err := m.ExecuteWithConfig(ctx, "svc", cfg, okOp); err != ErrRateLimitExceeded {
		t.Errorf("ExecuteWithConfig() = %v, want ErrRateLimitExceeded", err)
	}

	// The guard set was created from cfg; a different config for the same
	// resource does not rebuild it.
	if err := m.ExecuteWithConfig(ctx, "svc", Config{}, okOp); err != ErrRateLimitExceeded {
		t.Errorf("ExecuteWithConfig() with new config = %v, want ErrRateLimitExceeded", err)
	}
}

func TestManager_IndependentResources(t *testing.T) {
	m := NewManager(WithDefaultConfig(Config{
		FailureRateThreshold: 50,
		MinimumCalls:         2,
		WindowSize:           2,
		WaitDurationOpen:     time.Minute,
		DisableRateLimiter:   true,
	}))
	defer m.Close()

	ctx := context.Background()
	opErr := errors.New("boom")
	_ = m.Execute(ctx, "flaky", failOp(opErr))
	_ = m.Execute(ctx, "flaky", failOp(opErr))

	if err := m.Execute(ctx, "flaky", okOp); err != ErrCircuitOpen {
		t.Fatalf("Execute(flaky) = %v, want ErrCircuitOpen", err)
	}
	if err := m.Execute(ctx, "healthy", okOp); err != nil {
		t.Errorf("Execute(healthy) = %v, want nil", err)
	}
}

func TestManager_ConcurrentExecutes(t *testing.T) {
	m := NewManager(WithDefaultConfig(Config{
		BulkheadMaxConcurrent: 100,
		RateLimitPerSecond:    100000,
		RateLimitBurst:        100000,
	}))
	defer m.Close()

	resources := []string{"a", "b", "c", "d"}
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res := resources[i%len(resources)]
			if err := m.Execute(context.Background(), res, okOp); err != nil {
				t.Errorf("Execute(%s) = %v, want nil", res, err)
			}
		}(i)
	}
	wg.Wait()

	if got := len(m.Snapshots()); got != len(resources) {
		t.Errorf("len(Snapshots()) = %d, want %d", got, len(resources))
	}
}

func TestManager_SnapshotUnknownResource(t *testing.T) {
	m := NewManager()
	defer m.Close()

	if _, ok := m.Snapshot("never-used"); ok {
		t.Error("Snapshot(never-used) ok = true, want false")
	}
}

func TestManager_SnapshotsOrdered(t *testing.T) {
	m := NewManager()
	defer m.Close()

	ctx := context.Background()
	for _, res := range []string{"zeta", "alpha", "mid"} {
		_ = m.Execute(ctx, res, okOp)
	}

	snaps := m.Snapshots()
	want := []string{"alpha", "mid", "zeta"}
	if len(snaps) != len(want) {
		t.Fatalf("len(Snapshots()) = %d, want %d", len(snaps), len(want))
	}
	for i, s := range snaps {
		if s.Resource != want[i] {
			t.Errorf("Snapshots()[%d].Resource = %q, want %q", i, s.Resource, want[i])
		}
	}
}
