package app

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/previewgate/internal/adapters/out/httpprober"
	"github.com/bnema/previewgate/internal/adapters/out/sandboxregistry"
	"github.com/bnema/previewgate/internal/domain"
)

// SandboxRegistration is one heartbeat written by the CLI.
type SandboxRegistration struct {
	App      string
	URL      string
	Instance string
	// TTL falls back to sandbox.heartbeat_ttl when zero.
	TTL time.Duration
	// Probe checks the URL answers before announcing it.
	Probe bool
}

// openRegistry connects to the configured sandbox registry.
func openRegistry(cfg Config) (*sandboxregistry.RedisRegistry, func() error, error) {
	if cfg.Sandbox.RedisAddr == "" {
		return nil, nil, fmt.Errorf("%w: sandbox.redis_addr is not set", domain.ErrInvalidConfig)
	}
	client := newRedisClient(cfg)
	return sandboxregistry.NewRedisRegistry(client, cfg.Sandbox.KeyPrefix), client.Close, nil
}

// RegisterSandbox announces a live sandbox for reg.App.
func RegisterSandbox(ctx context.Context, cfg Config, reg SandboxRegistration) error {
	endpoint := domain.SandboxEndpoint{App: reg.App, URL: reg.URL, Instance: reg.Instance}
	if _, err := endpoint.Target(); err != nil {
		return err
	}

	if reg.Probe {
		res, err := httpprober.New().Probe(ctx, reg.URL)
		if err != nil {
			return fmt.Errorf("sandbox %s is not reachable: %w", reg.URL, err)
		}
		if !res.Reachable() {
			return fmt.Errorf("sandbox %s answered %d", reg.URL, res.Status)
		}
	}

	ttl := reg.TTL
	if ttl <= 0 {
		ttl = cfg.Sandbox.HeartbeatTTL
	}

	registry, closeFn, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	return registry.Register(ctx, endpoint, ttl)
}

// RemoveSandbox drops the heartbeat for app.
func RemoveSandbox(ctx context.Context, cfg Config, app string) error {
	registry, closeFn, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	return registry.Remove(ctx, app)
}

// LookupSandbox returns the live sandbox for app, if any.
func LookupSandbox(ctx context.Context, cfg Config, app string) (*domain.SandboxEndpoint, error) {
	registry, closeFn, err := openRegistry(cfg)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	return registry.Lookup(ctx, app)
}
