// Package docker implements the dispatch namespace over the Docker API:
// permanently deployed apps are running containers labelled with their name.
package docker

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/bnema/previewgate/internal/adapters/out/upstream"
	"github.com/bnema/previewgate/internal/boundaries/out"
	"github.com/bnema/previewgate/internal/domain"
	"github.com/bnema/previewgate/internal/logging"
)

var (
	// Ensure Namespace implements out.DispatchNamespace.
	_ out.DispatchNamespace = (*Namespace)(nil)
	// Ensure Namespace implements out.ProxyCacheInvalidator.
	_ out.ProxyCacheInvalidator = (*Namespace)(nil)
)

// NamespaceConfig configures how apps are found among containers.
type NamespaceConfig struct {
	// LabelPrefix namespaces the app and port labels.
	LabelPrefix string
	// Network, when set, is preferred over other container networks.
	Network   string
	CacheSize int
	CacheTTL  time.Duration
}

// Namespace resolves app names to running containers.
type Namespace struct {
	client    *client.Client
	cfg       NamespaceConfig
	transport http.RoundTripper
	cache     *expirable.LRU[string, *containerHandle]
}

// NewClient creates a Docker client from the environment.
func NewClient() (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}
	return cli, nil
}

// NewNamespace creates a dispatch namespace over cli. transport may be nil.
func NewNamespace(cli *client.Client, cfg NamespaceConfig, transport http.RoundTripper) *Namespace {
	if cfg.LabelPrefix == "" {
		cfg.LabelPrefix = domain.DefaultLabelPrefix
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 512
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 15 * time.Second
	}
	if transport == nil {
		transport = upstream.NewTransport(upstream.TransportConfig{})
	}
	return &Namespace{
		client:    cli,
		cfg:       cfg,
		transport: transport,
		cache:     expirable.NewLRU[string, *containerHandle](cfg.CacheSize, nil, cfg.CacheTTL),
	}
}

// Ping checks if Docker is responsive.
func (n *Namespace) Ping(ctx context.Context) error {
	if _, err := n.client.Ping(ctx); err != nil {
		return fmt.Errorf("docker ping: %w", err)
	}
	return nil
}

// Resolve finds the running container deployed for app.
func (n *Namespace) Resolve(ctx context.Context, app string) (out.DispatchHandle, error) {
	if h, ok := n.cache.Get(app); ok {
		return h, nil
	}

	ctx = logging.CtxWithFields(ctx, map[string]any{
		logging.FieldLayer:   "adapter",
		logging.FieldAdapter: "docker",
		logging.FieldAction:  "Resolve",
		logging.FieldApp:     app,
	})
	log := logging.FromCtx(ctx)

	appLabel := domain.LabelKey(n.cfg.LabelPrefix, domain.LabelApp)
	containers, err := n.client.ContainerList(ctx, container.ListOptions{
		Filters: filters.NewArgs(
			filters.Arg("label", appLabel+"="+app),
			filters.Arg("status", "running"),
		),
	})
	if err != nil {
		return nil, domain.NewDispatchFailure(app, fmt.Errorf("list containers: %w", err))
	}
	if len(containers) == 0 {
		return nil, domain.NewAppNotFound(app)
	}

	// Newest first, so a fresh deploy wins over one still draining.
	sort.Slice(containers, func(i, j int) bool {
		return containers[i].Created > containers[j].Created
	})
	c := containers[0]

	port := domain.DefaultAppPort
	if raw, ok := c.Labels[domain.LabelKey(n.cfg.LabelPrefix, domain.LabelPort)]; ok {
		port, err = strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return nil, domain.NewDispatchFailure(app, fmt.Errorf("container %s has invalid port label %q", shortID(c.ID), raw))
		}
	}

	var networks map[string]string
	if c.NetworkSettings != nil {
		networks = make(map[string]string, len(c.NetworkSettings.Networks))
		for name, ep := range c.NetworkSettings.Networks {
			if ep != nil {
				networks[name] = ep.IPAddress
			}
		}
	}
	ip := pickAddress(networks, n.cfg.Network)
	if ip == "" {
		return nil, domain.NewDispatchFailure(app, fmt.Errorf("no IP address found for container %s", shortID(c.ID)))
	}

	h := &containerHandle{
		ns:          n,
		app:         app,
		containerID: c.ID,
		target:      &url.URL{Scheme: "http", Host: ip + ":" + strconv.Itoa(port)},
	}
	n.cache.Add(app, h)

	log.Debug().
		Str("container", shortID(c.ID)).
		Str("target", h.target.Host).
		Msg("resolved deployed app")
	return h, nil
}

// InvalidateTarget drops the cached container for app.
func (n *Namespace) InvalidateTarget(_ context.Context, app string) {
	n.cache.Remove(app)
}

// pickAddress prefers the named network, then the first network by name.
func pickAddress(networks map[string]string, preferred string) string {
	if ip := networks[preferred]; preferred != "" && ip != "" {
		return ip
	}
	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if ip := networks[name]; ip != "" {
			return ip
		}
	}
	return ""
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// containerHandle invokes one resolved container over HTTP.
type containerHandle struct {
	ns          *Namespace
	app         string
	containerID string
	target      *url.URL
}

// Fetch forwards r to the container. A transport failure evicts the cached
// address so the next request resolves again.
func (h *containerHandle) Fetch(ctx context.Context, r *http.Request) (*http.Response, error) {
	body := r.Body
	if body == http.NoBody {
		body = nil
	}

	resp, err := h.ns.transport.RoundTrip(upstream.Outbound(ctx, r, h.target, body))
	if err != nil {
		h.ns.InvalidateTarget(ctx, h.app)
		return nil, domain.NewDispatchFailure(h.app, err)
	}
	return resp, nil
}
