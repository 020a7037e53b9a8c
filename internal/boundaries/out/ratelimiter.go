package out

import "context"

// RateLimiter defines the contract for per-key request throttling on the
// platform API.
type RateLimiter interface {
	// Allow reports whether one more request for key fits the budget.
	// Key is typically "ip:<address>".
	Allow(ctx context.Context, key string) bool

	// AllowN reports whether n more requests for key fit the budget.
	AllowN(ctx context.Context, key string, n int) bool
}
