package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/previewgate/internal/adapters/dto"
	"github.com/bnema/previewgate/internal/adapters/in/http/api"
	"github.com/bnema/previewgate/internal/domain"
)

func testAppConfig(redisAddr string) Config {
	var cfg Config
	cfg.Server.Port = 0
	cfg.Server.BaseDomain = "build.example.dev"
	cfg.Server.PreviewDomain = "preview.example.dev"
	cfg.CORS.AllowPreviewSubdomains = true
	cfg.Assets.SPAFallback = true
	cfg.Sandbox.RedisAddr = redisAddr
	cfg.Sandbox.KeyPrefix = "test:sandbox:"
	cfg.Sandbox.HeartbeatTTL = 30 * time.Second
	cfg.Sandbox.DialTimeout = time.Second
	cfg.API.RateLimit.Enabled = true
	cfg.API.RateLimit.Backend = "memory"
	cfg.API.RateLimit.GlobalRPS = 1000
	cfg.API.RateLimit.PerIPRPS = 1000
	cfg.API.RateLimit.Burst = 1000
	cfg.API.MetricsAllowedCIDRs = []string{"127.0.0.0/8"}
	return cfg
}

func buildTestEdge(t *testing.T, cfg Config) *Edge {
	t.Helper()
	e, err := BuildEdge(context.Background(), cfg, api.BuildInfo{Version: "test"}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func serveEdge(e *Edge, host, path, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "http://"+host+path, nil)
	req.Host = host
	if remote != "" {
		req.RemoteAddr = remote
	}
	rec := httptest.NewRecorder()
	e.Server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestBuildEdge_ServesRegisteredSandbox(t *testing.T) {
	mr := miniredis.RunT(t)
	sandboxSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "todo.preview.example.dev", r.Host)
		_, _ = w.Write([]byte("live sandbox"))
	}))
	defer sandboxSrv.Close()

	cfg := testAppConfig(mr.Addr())
	require.NoError(t, RegisterSandbox(context.Background(), cfg, SandboxRegistration{
		App: "todo",
		URL: sandboxSrv.URL,
	}))
	e := buildTestEdge(t, cfg)

	rec := serveEdge(e, "todo.preview.example.dev", "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "live sandbox", rec.Body.String())
	assert.Equal(t, "sandbox", rec.Header().Get(domain.HeaderPreviewType))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestBuildEdge_UnknownAppWithoutDispatch(t *testing.T) {
	e := buildTestEdge(t, testAppConfig(miniredis.RunT(t).Addr()))

	rec := serveEdge(e, "ghost.preview.example.dev", "/", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBuildEdge_HealthReportsRegistry(t *testing.T) {
	e := buildTestEdge(t, testAppConfig(miniredis.RunT(t).Addr()))

	rec := serveEdge(e, "build.example.dev", "/api/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body dto.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.True(t, body.Components["sandbox_registry"].Healthy)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestBuildEdge_MetricsRestrictedToAllowlist(t *testing.T) {
	e := buildTestEdge(t, testAppConfig(""))

	local := serveEdge(e, "build.example.dev", "/api/metrics", "127.0.0.1:5000")
	remote := serveEdge(e, "build.example.dev", "/api/metrics", "203.0.113.9:5000")

	assert.Equal(t, http.StatusOK, local.Code)
	assert.Contains(t, local.Body.String(), "go_goroutines")
	assert.Equal(t, http.StatusForbidden, remote.Code)
}

func TestBuildEdge_WithoutRedisSandboxMisses(t *testing.T) {
	e := buildTestEdge(t, testAppConfig(""))

	rec := serveEdge(e, "todo.localhost", "/", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBuildEdge_MissingPreviewDomainFailsClosed(t *testing.T) {
	cfg := testAppConfig("")
	cfg.Server.PreviewDomain = ""
	e := buildTestEdge(t, cfg)

	rec := serveEdge(e, "build.example.dev", "/", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestBuildEdge_IPLiteralForbidden(t *testing.T) {
	e := buildTestEdge(t, testAppConfig(""))

	rec := serveEdge(e, "10.1.2.3:8080", "/", "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBuildEdge_GatewayUnconfigured(t *testing.T) {
	e := buildTestEdge(t, testAppConfig(""))

	rec := serveEdge(e, "build.example.dev", "/api/proxy/openai/v1/chat", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBuildEdge_InvalidGatewayURL(t *testing.T) {
	cfg := testAppConfig("")
	cfg.AIGateway.URL = "ftp://nope"

	_, err := BuildEdge(context.Background(), cfg, api.BuildInfo{}, zerolog.Nop())

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestBuildEdge_RedisRateLimitNeedsRedis(t *testing.T) {
	cfg := testAppConfig("")
	cfg.API.RateLimit.Backend = "redis"

	_, err := BuildEdge(context.Background(), cfg, api.BuildInfo{}, zerolog.Nop())

	assert.Error(t, err)
}

func TestBuildEdge_RateLimitsCoreAPI(t *testing.T) {
	cfg := testAppConfig(miniredis.RunT(t).Addr())
	cfg.API.RateLimit.Backend = "redis"
	cfg.API.RateLimit.PerIPRPS = 1
	cfg.API.RateLimit.Burst = 0
	e := buildTestEdge(t, cfg)

	first := serveEdge(e, "build.example.dev", "/api/version", "198.51.100.7:1000")
	second := serveEdge(e, "build.example.dev", "/api/version", "198.51.100.7:1000")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestBuildEdge_DispatchUnavailableWhenDockerDown(t *testing.T) {
	cfg := testAppConfig("")
	cfg.Dispatch.Enabled = true
	t.Setenv("DOCKER_HOST", "tcp://127.0.0.1:1")

	e := buildTestEdge(t, cfg)

	rec := serveEdge(e, "todo.preview.example.dev", "/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
