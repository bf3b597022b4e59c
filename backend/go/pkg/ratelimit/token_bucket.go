package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenBucket paces outbound calls using the token bucket algorithm.
// It allows bursts up to the bucket's capacity and refills at a fixed
// rate, which keeps us under the market-data provider's request limits.
type TokenBucket struct {
	rate          float64   // Tokens generated per second.
	capacity      float64   // Maximum number of tokens in the bucket.
	tokens        float64   // Current number of tokens.
	lastTokenTime time.Time // Last refill time.
	mutex         sync.Mutex
}

// NewTokenBucket creates a new TokenBucket.
// rate: the number of tokens to generate per second.
// capacity: the maximum number of tokens (burst size).
func NewTokenBucket(rate float64, capacity int) *TokenBucket {
	return &TokenBucket{
		rate:          rate,
		capacity:      float64(capacity),
		tokens:        float64(capacity), // Start with a full bucket.
		lastTokenTime: time.Now(),
	}
}

// Allow reports whether a call may proceed now, consuming a token if so.
func (tb *TokenBucket) Allow() bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.refill()
	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available or ctx is canceled.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		tb.mutex.Lock()
		tb.refill()
		if tb.tokens >= 1 {
			tb.tokens--
			tb.mutex.Unlock()
			return nil
		}
		// Time until the next whole token is generated.
		wait := time.Duration((1 - tb.tokens) / tb.rate * float64(time.Second))
		tb.mutex.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// refill adds tokens for the elapsed time. Caller must hold the mutex.
func (tb *TokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(tb.lastTokenTime)
	if elapsed > 0 {
		tb.tokens += elapsed.Seconds() * tb.rate
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.lastTokenTime = now
	}
}
