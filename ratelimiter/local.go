package ratelimiter

import (
	"sync"
	"time"
)

// RateLimiter limits both tokens and requests per minute.
type RateLimiter struct {
	TokensBucket   *TokenBucket
	RequestsBucket *TokenBucket
}

// Ensure RateLimiter implements Limiter and RefusalReporter.
var (
	_ Limiter         = (*RateLimiter)(nil)
	_ RefusalReporter = (*RateLimiter)(nil)
)

// New creates a RateLimiter that refills every minute.
// A non-positive limit disables that dimension.
func New(tokensPerMinute, requestsPerMinute int) *RateLimiter {
	refillInterval := time.Minute
	return &RateLimiter{
		TokensBucket:   NewTokenBucket(tokensPerMinute, tokensPerMinute, refillInterval),
		RequestsBucket: NewTokenBucket(requestsPerMinute, requestsPerMinute, refillInterval),
	}
}

// Refusal reports which limit would refuse a request of numTokens:
// LimitRequests, LimitTokens, or "" when both have capacity. The request
// limit is checked first.
func (rl *RateLimiter) Refusal(numTokens int) string {
	if !rl.RequestsBucket.HasCapacity(1) {
		return LimitRequests
	}
	if !rl.TokensBucket.HasCapacity(numTokens) {
		return LimitTokens
	}
	return ""
}

// TryConsume consumes numTokens and one request, or nothing at all.
func (rl *RateLimiter) TryConsume(numTokens int) bool {
	if !rl.TokensBucket.TryConsume(numTokens) {
		return false
	}
	if !rl.RequestsBucket.TryConsume(1) {
		rl.TokensBucket.refund(numTokens)
		return false
	}
	return true
}

// TimeUntilAvailable returns how long until the specified tokens would be available.
// This does not modify state.
func (rl *RateLimiter) TimeUntilAvailable(tokens int) time.Duration {
	tokenWait := rl.TokensBucket.TimeUntilAvailable(tokens)
	requestWait := rl.RequestsBucket.TimeUntilAvailable(1)
	if tokenWait > requestWait {
		return tokenWait
	}
	return requestWait
}

// TokenBucket implements a token bucket rate limit algorithm.
// A bucket with non-positive capacity never limits.
type TokenBucket struct {
	mu             sync.Mutex
	capacity       int
	remaining      int
	refillInterval time.Duration
	lastRefill     time.Time
}

// NewTokenBucket creates a new token bucket.
func NewTokenBucket(capacity int, initialTokens int, refillInterval time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:       capacity,
		remaining:      initialTokens,
		refillInterval: refillInterval,
		lastRefill:     time.Now(),
	}
}

func (tb *TokenBucket) unlimited() bool {
	return tb.capacity <= 0
}

// HasCapacity checks if tokens are available WITHOUT consuming them.
func (tb *TokenBucket) HasCapacity(tokens int) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	if tb.unlimited() {
		return true
	}
	remaining := tb.remaining
	if time.Since(tb.lastRefill) >= tb.refillInterval {
		remaining = tb.capacity
	}
	return tokens <= remaining
}

// TryConsume tries to consume a specified number of tokens from the bucket.
func (tb *TokenBucket) TryConsume(tokens int) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	if tb.unlimited() {
		return true
	}
	now := time.Now()
	if now.Sub(tb.lastRefill) >= tb.refillInterval {
		tb.remaining = tb.capacity
		tb.lastRefill = now
	}
	if tokens <= tb.remaining {
		tb.remaining -= tokens
		return true
	}
	return false
}

func (tb *TokenBucket) refund(tokens int) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	if tb.unlimited() {
		return
	}
	tb.remaining = min(tb.capacity, tb.remaining+tokens)
}

// TimeUntilAvailable returns how long until tokens would be available (read-only).
func (tb *TokenBucket) TimeUntilAvailable(tokens int) time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if tb.unlimited() {
		return 0
	}

	timeSinceLastRefill := time.Since(tb.lastRefill)

	// Current effective remaining, with partial refill
	effectiveRemaining := tb.remaining
	if timeSinceLastRefill >= tb.refillInterval {
		effectiveRemaining = tb.capacity
	} else if timeSinceLastRefill > 0 {
		replenishedTokens := int(float64(tb.capacity) * (float64(timeSinceLastRefill) / float64(tb.refillInterval)))
		effectiveRemaining = min(tb.capacity, tb.remaining+replenishedTokens)
	}

	if tokens <= effectiveRemaining {
		return 0
	}

	tokensNeeded := tokens - effectiveRemaining
	tokenRefillRate := float64(tb.capacity) / float64(tb.refillInterval)
	waitDuration := time.Duration(float64(tokensNeeded) / tokenRefillRate)

	// 10% buffer
	return waitDuration + (waitDuration / 10)
}
