package ratelimiter

import (
	"time"
)

// Limiter defines the interface for rate limiters guarding one model.
// Implementations can be local (in-memory) or shared between processes.
type Limiter interface {
	// TryConsume atomically checks capacity and consumes tokens if available.
	// Returns true if tokens were consumed, false if insufficient capacity.
	TryConsume(numTokens int) bool

	// TimeUntilAvailable returns how long until tokens would be available (read-only).
	TimeUntilAvailable(tokens int) time.Duration
}

// Limit dimensions reported by Refusal.
const (
	LimitTokens   = "tokens"
	LimitRequests = "requests"
)

// RefusalReporter is implemented by limiters that can tell which limit
// refused a request.
type RefusalReporter interface {
	Refusal(numTokens int) string
}
