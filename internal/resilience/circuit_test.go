package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func providerDown() error {
	return errors.New("openai: unexpected status 503")
}

func TestCircuitBreakerClosedPassesThrough(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig())

	var calls int
	err := cb.Execute(context.Background(), func(_ context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("state = %s, want closed", cb.State())
	}
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cfg := CircuitBreakerConfig{
		FailureThreshold: 3,
		ResetTimeout:     time.Minute,
	}
	cb := NewCircuitBreaker(cfg)

	for i := 0; i < 3; i++ {
		_ = cb.Execute(context.Background(), func(_ context.Context) error {
			return providerDown()
		})
	}

	if cb.State() != CircuitOpen {
		t.Errorf("state after %d failures = %s, want open", cfg.FailureThreshold, cb.State())
	}

	// A tripped provider is not called again; its result slot gets the
	// open-circuit error instead.
	err := cb.Execute(context.Background(), func(_ context.Context) error {
		t.Error("provider must not be called while the circuit is open")
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreakerSuccessResetsCounter(t *testing.T) {
	cfg := CircuitBreakerConfig{
		FailureThreshold: 3,
		ResetTimeout:     time.Minute,
	}
	cb := NewCircuitBreaker(cfg)

	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), func(_ context.Context) error {
			return providerDown()
		})
	}

	failures, state := cb.Counters()
	if failures != 2 || state != CircuitClosed {
		t.Errorf("counters = (%d, %s), want (2, closed)", failures, state)
	}

	// One good answer clears the streak.
	_ = cb.Execute(context.Background(), func(_ context.Context) error {
		return nil
	})

	failures, _ = cb.Counters()
	if failures != 0 {
		t.Errorf("failures after success = %d, want 0", failures)
	}
}

func TestCircuitBreakerHalfOpenRecoveryCloses(t *testing.T) {
	now := time.Now()
	cfg := CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     100 * time.Millisecond,
	}
	cb := NewCircuitBreaker(cfg)
	cb.nowFunc = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), func(_ context.Context) error {
			return providerDown()
		})
	}
	if cb.State() != CircuitOpen {
		t.Fatalf("state = %s, want open", cb.State())
	}

	cb.nowFunc = func() time.Time { return now.Add(200 * time.Millisecond) }

	if cb.State() != CircuitHalfOpen {
		t.Errorf("state after reset timeout = %s, want half-open", cb.State())
	}

	// The provider answering again closes the circuit.
	err := cb.Execute(context.Background(), func(_ context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("state after recovery = %s, want closed", cb.State())
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	cfg := CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     100 * time.Millisecond,
	}
	cb := NewCircuitBreaker(cfg)
	cb.nowFunc = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), func(_ context.Context) error {
			return providerDown()
		})
	}

	cb.nowFunc = func() time.Time { return now.Add(200 * time.Millisecond) }

	_ = cb.Execute(context.Background(), func(_ context.Context) error {
		return providerDown()
	})

	cb.nowFunc = func() time.Time { return now.Add(200 * time.Millisecond) }
	failures, state := cb.Counters()
	if state != CircuitOpen {
		t.Errorf("state after failed retry = %s, want open", state)
	}
	if failures != 3 {
		t.Errorf("failures = %d, want 3", failures)
	}
}

func TestCircuitBreakerOnStateChange(t *testing.T) {
	var transitions []struct{ from, to CircuitState }
	cfg := CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Minute,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, struct{ from, to CircuitState }{from, to})
		},
	}
	cb := NewCircuitBreaker(cfg)

	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), func(_ context.Context) error {
			return providerDown()
		})
	}

	if len(transitions) != 1 {
		t.Fatalf("transitions = %d, want 1", len(transitions))
	}
	if transitions[0].from != CircuitClosed || transitions[0].to != CircuitOpen {
		t.Errorf("transition = %s→%s, want closed→open", transitions[0].from, transitions[0].to)
	}
}

func TestCircuitBreakerShouldTripFilter(t *testing.T) {
	cfg := CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Minute,
		ShouldTrip:       IsTransient,
	}
	cb := NewCircuitBreaker(cfg)

	// Permanent errors (bad request style) never trip the breaker.
	for i := 0; i < 5; i++ {
		_ = cb.Execute(context.Background(), func(_ context.Context) error {
			return errors.New("openai: invalid request body")
		})
	}
	if cb.State() != CircuitClosed {
		t.Errorf("state = %s, want closed after permanent errors", cb.State())
	}

	// Transient provider outages do.
	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), func(_ context.Context) error {
			return NewTransientError(providerDown(), 503)
		})
	}
	if cb.State() != CircuitOpen {
		t.Errorf("state = %s, want open after transient errors", cb.State())
	}
}

func TestCircuitBreakerReset(t *testing.T) {
	cfg := CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Hour,
	}
	cb := NewCircuitBreaker(cfg)

	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), func(_ context.Context) error {
			return providerDown()
		})
	}
	if cb.State() != CircuitOpen {
		t.Fatalf("state = %s, want open", cb.State())
	}

	cb.Reset()
	if cb.State() != CircuitClosed {
		t.Errorf("state after reset = %s, want closed", cb.State())
	}

	err := cb.Execute(context.Background(), func(_ context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error after reset: %v", err)
	}
}

func TestCircuitBreakerConcurrentProviders(t *testing.T) {
	t.Parallel()
	cfg := CircuitBreakerConfig{
		FailureThreshold: 100,
		ResetTimeout:     time.Minute,
	}
	cb := NewCircuitBreaker(cfg)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = cb.Execute(context.Background(), func(_ context.Context) error {
				if i%2 == 0 {
					return providerDown()
				}
				return nil
			})
		}()
	}
	wg.Wait()
}

func TestExecuteValPassesResponseThrough(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig())

	text, err := ExecuteVal(context.Background(), cb, func(_ context.Context) (string, error) {
		return "Acme leads the market.", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Acme leads the market." {
		t.Errorf("text = %q", text)
	}
}

func TestExecuteValOpenCircuit(t *testing.T) {
	cfg := CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Hour,
	}
	cb := NewCircuitBreaker(cfg)

	_ = cb.Execute(context.Background(), func(_ context.Context) error {
		return providerDown()
	})

	text, err := ExecuteVal(context.Background(), cb, func(_ context.Context) (string, error) {
		return "unreachable", nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
	if text != "" {
		t.Errorf("text = %q, want zero value", text)
	}
}

func TestServiceBreakersPerProvider(t *testing.T) {
	sb := NewServiceBreakers(DefaultCircuitBreakerConfig())

	cb1 := sb.Get("openai")
	cb2 := sb.Get("openai")
	cb3 := sb.Get("perplexity")

	if cb1 != cb2 {
		t.Error("same provider must share one breaker")
	}
	if cb1 == cb3 {
		t.Error("different providers must get independent breakers")
	}
}

func TestServiceBreakersStates(t *testing.T) {
	sb := NewServiceBreakers(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Hour,
	})

	// One provider outage must not shadow the healthy ones in /health.
	cb := sb.Get("openai")
	_ = cb.Execute(context.Background(), func(_ context.Context) error {
		return providerDown()
	})
	_ = sb.Get("perplexity")

	states := sb.States()
	if states["openai"] != CircuitOpen {
		t.Errorf("openai = %s, want open", states["openai"])
	}
	if states["perplexity"] != CircuitClosed {
		t.Errorf("perplexity = %s, want closed", states["perplexity"])
	}
}

func TestCircuitStateString(t *testing.T) {
	tests := []struct {
		state CircuitState
		want  string
	}{
		{CircuitClosed, "closed"},
		{CircuitOpen, "open"},
		{CircuitHalfOpen, "half-open"},
		{CircuitState(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("CircuitState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
