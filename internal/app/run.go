package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	// HTTP adapters
	"github.com/bnema/previewgate/internal/adapters/in/http/api"
	"github.com/bnema/previewgate/internal/adapters/in/http/assets"
	"github.com/bnema/previewgate/internal/adapters/in/http/edge"
	"github.com/bnema/previewgate/internal/adapters/in/http/middleware"

	// Output adapters
	"github.com/bnema/previewgate/internal/adapters/out/aigateway"
	"github.com/bnema/previewgate/internal/adapters/out/docker"
	"github.com/bnema/previewgate/internal/adapters/out/ratelimit"
	"github.com/bnema/previewgate/internal/adapters/out/sandbox"
	"github.com/bnema/previewgate/internal/adapters/out/sandboxregistry"
	"github.com/bnema/previewgate/internal/adapters/out/telemetry"
	"github.com/bnema/previewgate/internal/adapters/out/upstream"

	"github.com/bnema/previewgate/internal/boundaries/out"
	"github.com/bnema/previewgate/internal/logging"
	"github.com/bnema/previewgate/internal/usecase/router"
)

const dockerPingTimeout = 5 * time.Second

// initLogger initializes the zerolog logger.
func initLogger(cfg Config) (zerolog.Logger, func(), error) {
	logPath := resolveLogFilePath(cfg)
	return logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File: logging.FileConfig{
			Enabled:    cfg.Logging.File.Enabled,
			Path:       logPath,
			MaxSize:    cfg.Logging.File.MaxSize,
			MaxBackups: cfg.Logging.File.MaxBackups,
			MaxAge:     cfg.Logging.File.MaxAge,
			Compress:   true,
		},
	})
}

// resolveLogFilePath returns the configured log file path or a default.
func resolveLogFilePath(cfg Config) string {
	if cfg.Logging.File.Path != "" {
		return cfg.Logging.File.Path
	}
	if cfg.Logging.File.Enabled {
		return filepath.Join(cfg.Server.DataDir, "logs", "previewgate.log")
	}
	return ""
}

// Edge is the assembled edge: the router, its HTTP server and the resources
// they hold open.
type Edge struct {
	Router  *router.Service
	Server  *edge.Server
	Metrics *telemetry.Metrics

	closers []func() error
}

// Close releases backing clients.
func (e *Edge) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	return errors.Join(errs...)
}

// BuildEdge wires every adapter into the router. Missing optional backends
// degrade the edge instead of failing it: no Redis means every sandbox
// attempt misses, an unreachable Docker daemon disables dispatch.
func BuildEdge(ctx context.Context, cfg Config, build api.BuildInfo, log zerolog.Logger) (*Edge, error) {
	e := &Edge{}

	trustedNets := parseNets(log, "server.trusted_proxies", cfg.Server.TrustedProxies)
	metricsNets := parseNets(log, "api.metrics_allowed_cidrs", cfg.API.MetricsAllowedCIDRs)

	transport := upstream.NewTransport(upstream.TransportConfig{})
	sandboxTransport := upstream.NewTransport(upstream.TransportConfig{DialTimeout: cfg.Sandbox.DialTimeout})
	e.Metrics = telemetry.NewMetrics()
	components := map[string]api.Pinger{}

	var redisClient redis.UniversalClient
	var sandboxProxy out.SandboxProxy
	if cfg.Sandbox.RedisAddr != "" {
		client := newRedisClient(cfg)
		e.closers = append(e.closers, client.Close)
		redisClient = client

		registry := sandboxregistry.NewRedisRegistry(client, cfg.Sandbox.KeyPrefix)
		sandboxProxy = sandbox.New(registry, sandbox.WithTransport(sandboxTransport))
		components["sandbox_registry"] = registry
	} else {
		log.Warn().
			Str(logging.FieldLayer, "app").
			Msg("sandbox.redis_addr not set, live sandboxes are disabled")
	}

	dispatchNS, dispatchAvailable := createDispatch(ctx, cfg, transport, log, e)
	if dispatchAvailable {
		components["dispatch"] = dispatchNS
	}

	platform := cfg.PlatformConfig(dispatchAvailable)
	if !platform.Valid() {
		log.Error().
			Str(logging.FieldLayer, "app").
			Msg("server.preview_domain is not set, every request will fail with 500")
	}

	gateway, err := aigateway.New(cfg.AIGateway.URL, transport)
	if err != nil {
		_ = e.Close()
		return nil, err
	}

	apiMiddleware := []func(http.Handler) http.Handler{middleware.SecurityHeaders}
	if cfg.API.RateLimit.Enabled {
		rl, err := createRateLimit(cfg, redisClient, trustedNets, e.Metrics)
		if err != nil {
			_ = e.Close()
			return nil, err
		}
		apiMiddleware = append(apiMiddleware, rl)
	}

	coreAPI := api.New(api.Config{
		Router:       router.Planner(platform),
		Build:        build,
		Components:   components,
		Metrics:      e.Metrics.Handler(),
		MetricsGuard: middleware.CIDRAllowlist(metricsNets, trustedNets),
		Middleware:   apiMiddleware,
	})

	var dispatch out.DispatchNamespace
	if dispatchAvailable {
		dispatch = dispatchNS
	}

	e.Router = router.NewService(
		platform,
		router.Backends{
			Assets:    assets.FromDir(cfg.Assets.Dir, assets.Config{SPAFallback: cfg.Assets.SPAFallback}),
			CoreAPI:   coreAPI,
			AIGateway: gateway,
		},
		sandboxProxy,
		dispatch,
		e.Metrics,
	)
	e.Server = edge.NewServer(e.Router, cfg.Server.Port, trustedNets, log)

	log.Info().
		Str(logging.FieldLayer, "app").
		Str("base_domain", platform.BaseDomain).
		Str("preview_domain", platform.PreviewDomain).
		Bool("sandbox", sandboxProxy != nil).
		Bool("dispatch", dispatchAvailable).
		Bool("ai_gateway", gateway.Configured()).
		Msg("edge wired")

	return e, nil
}

// RunServe runs the edge until SIGINT or SIGTERM.
func RunServe(ctx context.Context, configPath string, build api.BuildInfo) error {
	_, cfg, err := initConfig(configPath)
	if err != nil {
		return err
	}

	log, cleanup, err := initLogger(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx = logging.WithCtx(ctx, log)
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if build.StartedAt.IsZero() {
		build.StartedAt = time.Now()
	}

	log.Info().
		Str(logging.FieldLayer, "app").
		Str("version", build.Version).
		Msg("starting previewgate")

	e, err := BuildEdge(ctx, cfg, build, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := e.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close backing clients")
		}
	}()

	return e.Server.Start(ctx)
}

func newRedisClient(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Sandbox.RedisAddr,
		Password: cfg.Sandbox.RedisPassword,
		DB:       cfg.Sandbox.RedisDB,
	})
}

// createDispatch connects to Docker when dispatch is enabled. Dispatch is
// available only if the daemon answers a ping.
func createDispatch(ctx context.Context, cfg Config, transport *http.Transport, log zerolog.Logger, e *Edge) (*docker.Namespace, bool) {
	if !cfg.Dispatch.Enabled {
		return nil, false
	}

	cli, err := docker.NewClient()
	if err != nil {
		log.Warn().Err(err).Str(logging.FieldLayer, "app").Msg("dispatch disabled")
		return nil, false
	}
	e.closers = append(e.closers, cli.Close)

	ns := docker.NewNamespace(cli, docker.NamespaceConfig{
		LabelPrefix: cfg.Dispatch.LabelPrefix,
		Network:     cfg.Dispatch.Network,
		CacheSize:   cfg.Dispatch.CacheSize,
		CacheTTL:    cfg.Dispatch.CacheTTL,
	}, transport)

	pingCtx, cancel := context.WithTimeout(ctx, dockerPingTimeout)
	defer cancel()
	if err := ns.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str(logging.FieldLayer, "app").Msg("docker unreachable, dispatch disabled")
		return nil, false
	}
	return ns, true
}

func createRateLimit(cfg Config, client redis.UniversalClient, trustedNets []*net.IPNet, metrics *telemetry.Metrics) (func(http.Handler) http.Handler, error) {
	rl := cfg.API.RateLimit
	global, err := ratelimit.NewStore(rl.Backend, rl.GlobalRPS, rl.Burst, client)
	if err != nil {
		return nil, fmt.Errorf("api.rate_limit: %w", err)
	}
	perIP, err := ratelimit.NewStore(rl.Backend, rl.PerIPRPS, rl.Burst, client)
	if err != nil {
		return nil, fmt.Errorf("api.rate_limit: %w", err)
	}
	return middleware.RateLimit(global, perIP, trustedNets, metrics.RateLimited), nil
}

func parseNets(log zerolog.Logger, key string, entries []string) []*net.IPNet {
	nets, invalid := middleware.ParseTrustedProxies(entries)
	for _, entry := range invalid {
		log.Warn().
			Str(logging.FieldLayer, "app").
			Str("key", key).
			Str("entry", entry).
			Msg("ignoring invalid CIDR")
	}
	return nets
}
