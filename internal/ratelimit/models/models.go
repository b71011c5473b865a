package models

import "time"

// Scope is the subject a code-attempt window is counted against.
type Scope string

const (
	ScopeUser Scope = "user"
	ScopeIP   Scope = "ip"
)

// RateLimitResult is the outcome of one window check.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds; zero when allowed
	Degraded   bool
}

// RateLimitExceededResponse is the 429 body.
type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

// MoreRestrictive returns the result with fewer remaining attempts, or the
// later reset when both have the same headroom.
func MoreRestrictive(a, b *RateLimitResult) *RateLimitResult {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case !a.Allowed && b.Allowed:
		return a
	case !b.Allowed && a.Allowed:
		return b
	case a.Remaining < b.Remaining:
		return a
	case b.Remaining < a.Remaining:
		return b
	case b.ResetAt.After(a.ResetAt):
		return b
	}
	return a
}
