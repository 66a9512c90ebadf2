package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend unavailable")

func testConfig() Config {
	return Config{
		FailureThreshold:    2,
		SuccessThreshold:    2,
		Timeout:             20 * time.Millisecond,
		MaxRequestsHalfOpen: 2,
	}
}

func failTimes(cb *CircuitBreaker, n int) {
	for i := 0; i < n; i++ {
		_ = cb.Execute(context.Background(), func() error { return errBackend })
	}
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := New(testConfig())

	failTimes(cb, 2)
	assert.Equal(t, StateOpen, cb.GetStats().State)

	calls := 0
	err := cb.Execute(context.Background(), func() error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.Equal(t, 0, calls)
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := New(testConfig())

	failTimes(cb, 1)
	require.NoError(t, cb.Execute(context.Background(), func() error { return nil }))
	failTimes(cb, 1)

	// The streak was broken, so one more failure is still below the
	// threshold.
	assert.Equal(t, StateClosed, cb.GetStats().State)
}

func TestCircuitBreaker_ClosesAfterSuccessfulProbes(t *testing.T) {
	cb := New(testConfig())
	failTimes(cb, 2)
	require.Equal(t, StateOpen, cb.GetStats().State)

	time.Sleep(30 * time.Millisecond)

	for i := 0; i < 2; i++ {
		require.NoError(t, cb.Execute(context.Background(), func() error { return nil }))
	}
	assert.Equal(t, StateClosed, cb.GetStats().State)
}

func TestCircuitBreaker_ReopensOnProbeFailure(t *testing.T) {
	cb := New(testConfig())
	failTimes(cb, 2)

	time.Sleep(30 * time.Millisecond)

	err := cb.Execute(context.Background(), func() error { return errBackend })
	require.ErrorIs(t, err, errBackend)
	assert.Equal(t, StateOpen, cb.GetStats().State)

	// Back to rejecting immediately.
	err = cb.Execute(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, ErrOpen)
}

func TestCircuitBreaker_LimitsProbesWhileHalfOpen(t *testing.T) {
	cfg := testConfig()
	cfg.SuccessThreshold = 3
	cb := New(cfg)
	failTimes(cb, 2)

	time.Sleep(30 * time.Millisecond)

	// MaxRequestsHalfOpen is 2; the third call is rejected before the
	// breaker can close.
	require.NoError(t, cb.Execute(context.Background(), func() error { return nil }))
	require.NoError(t, cb.Execute(context.Background(), func() error { return nil }))
	err := cb.Execute(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, ErrOpen)
}

func TestCircuitBreaker_WrappedErrorKeepsCause(t *testing.T) {
	cb := New(testConfig())

	err := cb.Execute(context.Background(), func() error { return errBackend })
	require.Error(t, err)
	assert.ErrorIs(t, err, errBackend)
}

func TestCircuitBreaker_ExecuteWithResult(t *testing.T) {
	cb := New(testConfig())

	value, err := ExecuteWithResult(context.Background(), cb, func() (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, value)

	failTimes(cb, 2)
	value, err = ExecuteWithResult(context.Background(), cb, func() (int, error) {
		return 42, nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.Zero(t, value)
}

func TestCircuitBreaker_RespectsContextCancellation(t *testing.T) {
	cb := New(testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := cb.Execute(ctx, func() error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestCircuitBreaker_NotifiesStateChanges(t *testing.T) {
	cb := New(testConfig())
	changes := make(chan [2]State, 4)
	cb.OnStateChange(func(from, to State) {
		changes <- [2]State{from, to}
	})

	failTimes(cb, 2)

	select {
	case change := <-changes:
		assert.Equal(t, StateClosed, change[0])
		assert.Equal(t, StateOpen, change[1])
	case <-time.After(time.Second):
		t.Fatal("expected a state change notification")
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
}
