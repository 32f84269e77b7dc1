package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewayRetryBackoff(t *testing.T) {
	backoff := GatewayRetryBackoff()

	// All attempts should return the same delay
	for attempt := 0; attempt < 5; attempt++ {
		assert.Equal(t, 5*time.Second, backoff.NextDelay(attempt), "attempt %d", attempt)
	}
}

func TestExponentialBackoff_NextDelay(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  50 * time.Millisecond,
		MaxDelay:   1 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{-1, 50 * time.Millisecond},
		{0, 50 * time.Millisecond},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1 * time.Second}, // 1.6s capped
		{10, 1 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, backoff.NextDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestExponentialBackoff_WithJitter(t *testing.T) {
	backoff := LockPollBackoff()

	// 50ms * 2^3 = 400ms, ±10%
	for i := 0; i < 100; i++ {
		delay := backoff.NextDelay(3)
		assert.GreaterOrEqual(t, delay, 360*time.Millisecond)
		assert.LessOrEqual(t, delay, 440*time.Millisecond)
	}
}

func TestSleep(t *testing.T) {
	t.Run("returns after delay", func(t *testing.T) {
		start := time.Now()
		require.NoError(t, Sleep(context.Background(), 10*time.Millisecond))
		assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	})

	t.Run("cancelled context returns early", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		start := time.Now()
		err := Sleep(ctx, 5*time.Second)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("zero delay", func(t *testing.T) {
		assert.NoError(t, Sleep(context.Background(), 0))
	})
}

func BenchmarkFixedBackoff(b *testing.B) {
	backoff := &FixedBackoff{Delay: 1 * time.Second}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = backoff.NextDelay(i % 10)
	}
}
