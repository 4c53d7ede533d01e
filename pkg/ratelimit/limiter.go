package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter paces outgoing image requests
type Limiter interface {
	// Allow takes a token if one is available
	Allow() bool
	// Wait blocks until a token is available or ctx is done
	Wait(ctx context.Context) error
	// Reset refills the limiter
	Reset()
}

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	capacity     int           // Maximum number of tokens
	tokens       int           // Current number of tokens
	refillPeriod time.Duration // Period after which bucket is refilled
	lastRefill   time.Time     // Last time the bucket was refilled
	now          func() time.Time
	mu           sync.Mutex
}

// NewTokenBucket creates a new token bucket rate limiter
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	if capacity < 1 {
		capacity = 1
	}
	tb := &TokenBucket{
		capacity:     capacity,
		tokens:       capacity,
		refillPeriod: refillPeriod,
		now:          time.Now,
	}
	tb.lastRefill = tb.now()
	return tb
}

// PerMinute returns a bucket that allows requestsPerMinute on average with
// bursts of up to burst requests. A non-positive rate means no limit and
// yields a nil Limiter.
func PerMinute(requestsPerMinute, burst int) Limiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	period := time.Duration(burst) * time.Minute / time.Duration(requestsPerMinute)
	return NewTokenBucket(burst, period)
}

// Allow checks if a request can proceed
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}

	return false
}

// Wait blocks until a token is available or ctx is cancelled
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for !tb.Allow() {
		tb.mu.Lock()
		timeUntilRefill := tb.refillPeriod - tb.now().Sub(tb.lastRefill)
		tb.mu.Unlock()

		if timeUntilRefill <= 0 {
			// Small sleep to prevent busy waiting
			timeUntilRefill = 10 * time.Millisecond
		}

		timer := time.NewTimer(timeUntilRefill)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// Reset resets the token bucket to full capacity
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = tb.now()
}

// refill adds tokens based on elapsed time
func (tb *TokenBucket) refill() {
	now := tb.now()
	if now.Sub(tb.lastRefill) >= tb.refillPeriod {
		tb.tokens = tb.capacity
		tb.lastRefill = now
	}
}
