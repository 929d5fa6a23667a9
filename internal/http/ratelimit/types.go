package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Config controls how sample fetches are spaced and retried
type Config struct {
	RequestsPerSecond int `json:"requestsPerSecond" mapstructure:"requests_per_second"`
	MaxRetries        int `json:"maxRetries" mapstructure:"max_retries"`
	InitialBackoffMs  int `json:"initialBackoffMs" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs      int `json:"maxBackoffMs" mapstructure:"max_backoff_ms"`
}

// DefaultConfig returns polite defaults for fetching from third-party hosts
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 2,
		MaxRetries:        3,
		InitialBackoffMs:  100,
		MaxBackoffMs:      30000,
	}
}

// RateLimiter spaces outgoing requests with a token bucket
type RateLimiter struct {
	config  Config
	limiter *rate.Limiter
}

// NewRateLimiter creates a new rate limiter with the given config.
// A non-positive RequestsPerSecond disables throttling.
func NewRateLimiter(config Config) *RateLimiter {
	return &RateLimiter{
		config:  config,
		limiter: newLimiter(config),
	}
}

func newLimiter(config Config) *rate.Limiter {
	if config.RequestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
}

// Throttle waits until the next request is allowed or ctx is done.
// Call this before making a request.
func (r *RateLimiter) Throttle(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
