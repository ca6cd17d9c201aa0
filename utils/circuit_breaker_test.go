package utils

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func succeed(context.Context) error { return nil }

func fail(context.Context) error { return errors.New("failure") }

func TestBreakerSettings_Defaults(t *testing.T) {
	s := BreakerSettings{}.withDefaults()

	assert.Equal(t, DefaultBreakerSettings(), s)

	custom := BreakerSettings{MaxRequests: 3, Timeout: time.Second}.withDefaults()
	assert.Equal(t, uint32(3), custom.MaxRequests)
	assert.Equal(t, time.Second, custom.Timeout)
	assert.Equal(t, 60*time.Second, custom.Interval)
	assert.Equal(t, 0.6, custom.FailureRatio)
}

func TestBreakerSettings_ReadyToTrip(t *testing.T) {
	s := BreakerSettings{MaxRequests: 10, FailureRatio: 0.5}

	tests := []struct {
		name     string
		counts   gobreaker.Counts
		expected bool
	}{
		{"too few requests", gobreaker.Counts{Requests: 5, TotalFailures: 5}, false},
		{"below ratio", gobreaker.Counts{Requests: 10, TotalFailures: 4}, false},
		{"at ratio", gobreaker.Counts{Requests: 10, TotalFailures: 5}, true},
		{"above ratio", gobreaker.Counts{Requests: 20, TotalFailures: 15}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.ReadyToTrip(tt.counts))
		})
	}
}

func TestCircuitBreaker_ExecuteSuccess(t *testing.T) {
	cb := NewCircuitBreaker("pubnub", DefaultBreakerSettings())

	err := ExecuteContext(context.Background(), cb, succeed)

	assert.NoError(t, err)
	assert.Equal(t, "pubnub", cb.Name())
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.Equal(t, uint32(1), cb.Counts().TotalSuccesses)
}

func TestCircuitBreaker_ExecuteFailure(t *testing.T) {
	cb := NewCircuitBreaker("pubnub", DefaultBreakerSettings())
	expected := errors.New("test error")

	err := ExecuteContext(context.Background(), cb, func(context.Context) error { return expected })

	assert.ErrorIs(t, err, expected)
	assert.Equal(t, uint32(1), cb.Counts().TotalFailures)
}

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	cb := NewCircuitBreaker("pubnub", BreakerSettings{MaxRequests: 2, FailureRatio: 0.5, Timeout: 20 * time.Millisecond})
	ctx := context.Background()

	require.Error(t, ExecuteContext(ctx, cb, fail))
	require.Error(t, ExecuteContext(ctx, cb, fail))
	require.Equal(t, gobreaker.StateOpen, cb.State())

	err := ExecuteContext(ctx, cb, succeed)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)

	time.Sleep(40 * time.Millisecond)
	require.Equal(t, gobreaker.StateHalfOpen, cb.State())

	require.NoError(t, ExecuteContext(ctx, cb, succeed))
	require.NoError(t, ExecuteContext(ctx, cb, succeed))
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("pubnub", BreakerSettings{MaxRequests: 1, FailureRatio: 0.5, Timeout: 20 * time.Millisecond})
	ctx := context.Background()

	require.Error(t, ExecuteContext(ctx, cb, fail))
	require.Equal(t, gobreaker.StateOpen, cb.State())

	time.Sleep(40 * time.Millisecond)
	require.Error(t, ExecuteContext(ctx, cb, fail))
	assert.Equal(t, gobreaker.StateOpen, cb.State())
}

func TestCircuitBreaker_CancelledContextIsNotAFailure(t *testing.T) {
	cb := NewCircuitBreaker("pubnub", BreakerSettings{MaxRequests: 1, FailureRatio: 0.5})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ExecuteContext(ctx, cb, fail)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint32(0), cb.Counts().Requests)

	// cancelled while in flight
	ctx, cancel = context.WithCancel(context.Background())
	err = ExecuteContext(ctx, cb, func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint32(0), cb.Counts().TotalFailures)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_Concurrency(t *testing.T) {
	cb := NewCircuitBreaker("pubnub", DefaultBreakerSettings())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%10 == 0 {
				_ = ExecuteContext(ctx, cb, fail)
				return
			}
			_ = ExecuteContext(ctx, cb, succeed)
		}(i)
	}
	wg.Wait()

	counts := cb.Counts()
	assert.Equal(t, uint32(50), counts.Requests)
	assert.Equal(t, uint32(5), counts.TotalFailures)
	assert.Equal(t, uint32(45), counts.TotalSuccesses)
}

func BenchmarkCircuitBreaker_Execute(b *testing.B) {
	cb := NewCircuitBreaker("bench", DefaultBreakerSettings())
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ExecuteContext(ctx, cb, succeed)
	}
}
