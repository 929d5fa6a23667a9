package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottleDisabled(t *testing.T) {
	rl := NewRateLimiter(Config{RequestsPerSecond: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	for i := 0; i < 100; i++ {
		require.NoError(t, rl.Throttle(ctx))
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := Config{InitialBackoffMs: 100, MaxBackoffMs: 1000}

	d := CalculateBackoff(0, cfg)
	assert.GreaterOrEqual(t, d, 100*time.Millisecond)
	assert.LessOrEqual(t, d, 125*time.Millisecond)

	d = CalculateBackoff(2, cfg)
	assert.GreaterOrEqual(t, d, 400*time.Millisecond)
	assert.LessOrEqual(t, d, 500*time.Millisecond)

	d = CalculateBackoff(10, cfg)
	assert.LessOrEqual(t, d, 1250*time.Millisecond)
}

func TestCalculateRateLimitBackoff(t *testing.T) {
	cfg := Config{InitialBackoffMs: 100, MaxBackoffMs: 10000}

	d := CalculateRateLimitBackoff(0, cfg, "2")
	assert.GreaterOrEqual(t, d, 2*time.Second)
	assert.Less(t, d, 3*time.Second)

	d = CalculateRateLimitBackoff(1, cfg, "")
	assert.GreaterOrEqual(t, d, 300*time.Millisecond)
	assert.LessOrEqual(t, d, 375*time.Millisecond)
}

func TestIsRetryableStatus(t *testing.T) {
	for _, s := range []int{429, 500, 503, 599} {
		assert.True(t, IsRetryableStatus(s), s)
	}
	for _, s := range []int{200, 301, 400, 404} {
		assert.False(t, IsRetryableStatus(s), s)
	}
}

func TestThrottleHonoursContext(t *testing.T) {
	rl := NewRateLimiter(Config{RequestsPerSecond: 1})
	require.NoError(t, rl.Throttle(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, rl.Throttle(ctx))
}

func TestSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}

func TestFetchRetryError(t *testing.T) {
	cause := errors.New("connection reset")
	err := &FetchRetryError{URL: "http://x/a.csv", Attempts: 3, LastStatus: 503, LastError: cause}
	assert.Equal(t, "failed to fetch http://x/a.csv after 3 attempts (HTTP 503): connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
}
