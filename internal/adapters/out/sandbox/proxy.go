// Package sandbox forwards preview requests to live development sandboxes.
package sandbox

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bnema/previewgate/internal/adapters/out/upstream"
	"github.com/bnema/previewgate/internal/boundaries/out"
	"github.com/bnema/previewgate/internal/domain"
	"github.com/bnema/previewgate/internal/logging"
)

// Ensure Proxy implements out.SandboxProxy.
var _ out.SandboxProxy = (*Proxy)(nil)

// Miss reasons reported to metrics.
const (
	ReasonNoSandbox        = "no_sandbox"
	ReasonRegistryError    = "registry_error"
	ReasonInvalidAddress   = "invalid_address"
	ReasonSandboxUnreached = "sandbox_unreachable"
)

// Proxy implements out.SandboxProxy over a SandboxRegistry.
type Proxy struct {
	registry  out.SandboxRegistry
	transport http.RoundTripper
}

// Option configures the Proxy.
type Option func(*Proxy)

// WithTransport sets the round tripper used to reach sandboxes.
func WithTransport(rt http.RoundTripper) Option {
	return func(p *Proxy) {
		p.transport = rt
	}
}

// New creates a sandbox proxy. Sandboxes are dialed with a short timeout
// so a dead sandbox falls through to dispatch quickly.
func New(registry out.SandboxRegistry, opts ...Option) *Proxy {
	p := &Proxy{registry: registry}
	for _, opt := range opts {
		opt(p)
	}
	if p.transport == nil {
		p.transport = upstream.NewTransport(upstream.TransportConfig{DialTimeout: 2 * time.Second})
	}
	return p
}

// Attempt forwards r to the app's live sandbox. A Miss leaves r.Body unread.
func (p *Proxy) Attempt(ctx context.Context, r *http.Request) domain.ProxyResult {
	// Refused before any lookup so an upgrade never reaches the network.
	if domain.IsWebSocketUpgrade(r.Header) {
		return domain.ProxyResult{
			Outcome: domain.ProxyProtocolRejection,
			Tag:     domain.PreviewWebSocketNotSupported,
			Reason:  "websocket upgrade",
		}
	}

	app := domain.AppNameFromHost(domain.StripPort(r.Host))
	ctx = logging.CtxWithFields(ctx, map[string]any{
		logging.FieldLayer:   "adapter",
		logging.FieldAdapter: "sandbox",
		logging.FieldApp:     app,
	})
	log := logging.FromCtx(ctx)

	endpoint, err := p.registry.Lookup(ctx, app)
	if errors.Is(err, domain.ErrSandboxNotFound) {
		return domain.Miss(ReasonNoSandbox)
	}
	if err != nil {
		log.Warn().Err(err).Msg("sandbox registry lookup failed")
		return domain.Miss(ReasonRegistryError)
	}

	target, err := endpoint.Target()
	if err != nil {
		log.Warn().Err(err).Msg("ignoring sandbox with invalid address")
		return domain.Miss(ReasonInvalidAddress)
	}

	var body *trackedBody
	var outBody io.ReadCloser
	if r.Body != nil && r.Body != http.NoBody {
		body = &trackedBody{r: r.Body}
		outBody = body
	}

	resp, err := p.transport.RoundTrip(upstream.Outbound(ctx, r, target, outBody))
	if err != nil {
		if body != nil {
			body.detach()
		}
		if body != nil && body.consumed() {
			log.Warn().Err(err).Msg("sandbox failed after reading the request body")
			return domain.Transient(domain.ErrSandboxBodyConsumed.Error())
		}
		log.Debug().Err(err).Str("target", target.Host).Msg("sandbox unreachable")
		return domain.Miss(ReasonSandboxUnreached)
	}

	if resp.StatusCode == http.StatusSwitchingProtocols {
		_ = resp.Body.Close()
		log.Warn().Msg("sandbox attempted a protocol switch")
		return domain.Transient(domain.ErrUpgradeSerialization.Error())
	}

	return domain.Served(resp)
}

// trackedBody hands the client body to the transport without letting the
// transport close it, and remembers whether any byte was read. An unread
// body can still be replayed to dispatch after a failed attempt.
// Once detached, reads return io.EOF and never touch the client body.
type trackedBody struct {
	mu       sync.Mutex
	r        io.Reader
	read     bool
	detached bool
}

func (b *trackedBody) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.detached {
		return 0, io.EOF
	}
	n, err := b.r.Read(p)
	if n > 0 {
		b.read = true
	}
	return n, err
}

func (b *trackedBody) Close() error {
	b.detach()
	return nil
}

// detach waits for an in-flight read, then cuts the transport off.
func (b *trackedBody) detach() {
	b.mu.Lock()
	b.detached = true
	b.mu.Unlock()
}

func (b *trackedBody) consumed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.read
}
