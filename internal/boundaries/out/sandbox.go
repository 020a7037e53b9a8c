// Package out defines output ports (interfaces) for infrastructure.
// These interfaces define the contract between the routing use case and
// driven adapters (sandbox registry, dispatch namespace, metrics).
package out

import (
	"context"
	"net/http"
	"time"

	"github.com/bnema/previewgate/internal/domain"
)

// SandboxProxy attempts to serve a request from the app's live sandbox.
//
// Implementations must refuse WebSocket upgrades before any network call and
// must leave the request body unread whenever they return a miss.
type SandboxProxy interface {
	Attempt(ctx context.Context, r *http.Request) domain.ProxyResult
}

// SandboxRegistry tracks live sandboxes announced by heartbeat.
type SandboxRegistry interface {
	// Lookup returns domain.ErrSandboxNotFound when no heartbeat is live for app.
	Lookup(ctx context.Context, app string) (*domain.SandboxEndpoint, error)

	// Register records or refreshes a heartbeat valid for ttl.
	Register(ctx context.Context, endpoint domain.SandboxEndpoint, ttl time.Duration) error

	// Remove drops the heartbeat for app.
	Remove(ctx context.Context, app string) error
}
