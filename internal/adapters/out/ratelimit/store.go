package ratelimit

import (
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/bnema/previewgate/internal/boundaries/out"
)

// NewStore creates a RateLimiter based on the configured backend. The redis
// backend needs a client.
func NewStore(backend string, rps float64, burst int, client redis.UniversalClient) (out.RateLimiter, error) {
	switch backend {
	case "memory", "":
		return NewMemoryStore(rps, burst), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis rate limit backend requires sandbox.redis_addr")
		}
		return NewRedisStore(client, rps, burst), nil
	default:
		return nil, fmt.Errorf("unknown rate limit backend: %s", backend)
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
