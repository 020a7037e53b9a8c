package ratelimit

import (
	"context"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bnema/previewgate/internal/boundaries/out"
	"github.com/bnema/previewgate/internal/logging"
)

// Ensure RedisStore implements out.RateLimiter.
var _ out.RateLimiter = (*RedisStore)(nil)

// DefaultRedisPrefix namespaces rate limit counters.
const DefaultRedisPrefix = "previewgate:ratelimit:"

// fixedWindow increments the counter for the current window and arms its
// expiry on first use. It returns the count after the increment.
var fixedWindow = redis.NewScript(`
local current = redis.call("INCRBY", KEYS[1], ARGV[1])
if current == tonumber(ARGV[1]) then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return current
`)

// RedisStore is a fixed-window limiter shared by every edge instance that
// points at the same Redis. A window of one second admits rps+burst requests.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	limit  int64
	window time.Duration
}

// NewRedisStore creates a shared limiter over client.
func NewRedisStore(client redis.UniversalClient, rps float64, burst int) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: DefaultRedisPrefix,
		limit:  int64(math.Ceil(rps)) + int64(burst),
		window: time.Second,
	}
}

// Allow checks if a request identified by key is allowed.
func (s *RedisStore) Allow(ctx context.Context, key string) bool {
	return s.AllowN(ctx, key, 1)
}

// AllowN checks if n requests identified by key are allowed. A Redis failure
// admits the request; the limiter never takes the API down with it.
func (s *RedisStore) AllowN(ctx context.Context, key string, n int) bool {
	if int64(n) > s.limit {
		return false
	}
	bucket := time.Now().UnixNano() / int64(s.window)
	redisKey := s.prefix + key + ":" + itoa(bucket)

	count, err := fixedWindow.Run(ctx, s.client, []string{redisKey}, n, s.window.Milliseconds()).Int64()
	if err != nil {
		logging.FromCtx(ctx).Warn().Err(err).Str(logging.FieldAdapter, "ratelimit.redis").Msg("rate limit check failed, admitting request")
		return true
	}
	return count <= s.limit
}
