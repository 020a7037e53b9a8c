// Package sandboxregistry stores where each app's live development sandbox
// can be reached. Sandboxes heartbeat their entry; an expired entry means
// the sandbox is gone.
package sandboxregistry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bnema/previewgate/internal/boundaries/out"
	"github.com/bnema/previewgate/internal/domain"
	"github.com/bnema/previewgate/internal/logging"
)

// Ensure RedisRegistry implements out.SandboxRegistry.
var _ out.SandboxRegistry = (*RedisRegistry)(nil)

// DefaultKeyPrefix namespaces sandbox endpoints in Redis.
const DefaultKeyPrefix = "previewgate:sandbox:"

// RedisRegistry is a SandboxRegistry backed by Redis string keys with a TTL.
type RedisRegistry struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisRegistry creates a registry. An empty prefix uses DefaultKeyPrefix.
func NewRedisRegistry(client redis.UniversalClient, prefix string) *RedisRegistry {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisRegistry{client: client, prefix: prefix, now: time.Now}
}

func (r *RedisRegistry) key(app string) string {
	return r.prefix + app
}

// Lookup returns the endpoint registered for app, or domain.ErrSandboxNotFound.
func (r *RedisRegistry) Lookup(ctx context.Context, app string) (*domain.SandboxEndpoint, error) {
	raw, err := r.client.Get(ctx, r.key(app)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSandboxNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup sandbox %q: %w", app, err)
	}

	var endpoint domain.SandboxEndpoint
	if err := json.Unmarshal(raw, &endpoint); err != nil {
		logging.FromCtx(ctx).Warn().
			Err(err).
			Str(logging.FieldAdapter, "sandboxregistry.redis").
			Str(logging.FieldApp, app).
			Msg("discarding corrupt sandbox entry")
		return nil, domain.ErrSandboxNotFound
	}
	if endpoint.App == "" {
		endpoint.App = app
	}
	return &endpoint, nil
}

// Register stores endpoint for ttl. Registering again refreshes the TTL.
func (r *RedisRegistry) Register(ctx context.Context, endpoint domain.SandboxEndpoint, ttl time.Duration) error {
	if endpoint.App == "" {
		return fmt.Errorf("%w: sandbox endpoint has no app name", domain.ErrInvalidConfig)
	}
	if _, err := endpoint.Target(); err != nil {
		return err
	}
	if endpoint.SeenAt.IsZero() {
		endpoint.SeenAt = r.now().UTC()
	}

	raw, err := json.Marshal(endpoint)
	if err != nil {
		return fmt.Errorf("encode sandbox %q: %w", endpoint.App, err)
	}
	if err := r.client.Set(ctx, r.key(endpoint.App), raw, ttl).Err(); err != nil {
		return fmt.Errorf("register sandbox %q: %w", endpoint.App, err)
	}

	logging.FromCtx(ctx).Debug().
		Str(logging.FieldAdapter, "sandboxregistry.redis").
		Str(logging.FieldApp, endpoint.App).
		Dur("ttl", ttl).
		Msg("sandbox registered")
	return nil
}

// Remove deletes the entry for app. Removing an unknown app is not an error.
func (r *RedisRegistry) Remove(ctx context.Context, app string) error {
	if err := r.client.Del(ctx, r.key(app)).Err(); err != nil {
		return fmt.Errorf("remove sandbox %q: %w", app, err)
	}
	return nil
}

// Ping checks connectivity.
func (r *RedisRegistry) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
