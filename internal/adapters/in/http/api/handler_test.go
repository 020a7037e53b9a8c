package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/previewgate/internal/adapters/dto"
	"github.com/bnema/previewgate/internal/domain"
	"github.com/bnema/previewgate/internal/usecase/router"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func testRouter() *router.Service {
	cfg := domain.PlatformConfig{BaseDomain: "build.example.dev", PreviewDomain: "preview.example.dev"}
	return router.NewService(cfg, router.Backends{}, nil, nil, nil)
}

func do(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth_NoComponents(t *testing.T) {
	rec := do(New(Config{}), "/api/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealth_Degraded(t *testing.T) {
	e := New(Config{Components: map[string]Pinger{
		"sandbox_registry": pingFunc(func(context.Context) error {
			return errors.New("dial tcp 10.0.0.9:6379: connect: connection refused")
		}),
		"dispatch":         pingFunc(func(context.Context) error { return nil }),
	}})

	rec := do(e, "/api/health")

	require.Equal(t, http.StatusOK, rec.Code)
	var body dto.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.False(t, body.Components["sandbox_registry"].Healthy)
	assert.True(t, body.Components["dispatch"].Healthy)
	assert.NotContains(t, rec.Body.String(), "10.0.0.9")
	assert.NotContains(t, rec.Body.String(), "refused")
}

func TestVersion(t *testing.T) {
	e := New(Config{Build: BuildInfo{Version: "1.2.3", Commit: "abc", BuildDate: "2026-01-01", StartedAt: time.Now().Add(-time.Minute)}})

	rec := do(e, "/api/version")

	var body dto.VersionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "1.2.3", body.Version)
	assert.Equal(t, "abc", body.Commit)
	assert.NotEmpty(t, body.Uptime)
}

func TestClassify(t *testing.T) {
	e := New(Config{Router: testRouter()})

	rec := do(e, "/api/classify?host=todo.preview.example.dev:443&path=/x")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"host":"todo.preview.example.dev","class":"subdomain","decision":"sandbox_preview","app":"todo"}`, rec.Body.String())
}

func TestClassify_MainDomainAPI(t *testing.T) {
	e := New(Config{Router: testRouter()})

	rec := do(e, "/api/classify?host=build.example.dev&path=/api/proxy/openai/v1")

	assert.JSONEq(t, `{"host":"build.example.dev","class":"main_domain","decision":"api_gateway_proxy"}`, rec.Body.String())
}

func TestClassify_MissingHost(t *testing.T) {
	rec := do(New(Config{Router: testRouter()}), "/api/classify")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"host query parameter is required"}`, rec.Body.String())
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	rec := do(New(Config{}), "/api/nope")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Error)
}

func TestMetrics_Guarded(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})
	}

	assert.Equal(t, "# metrics", do(New(Config{Metrics: metrics}), "/api/metrics").Body.String())
	assert.Equal(t, http.StatusForbidden, do(New(Config{Metrics: metrics, MetricsGuard: deny}), "/api/metrics").Code)
	assert.Equal(t, http.StatusNotFound, do(New(Config{}), "/api/metrics").Code)
}

func TestMiddlewareApplied(t *testing.T) {
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Test", "1")
			next.ServeHTTP(w, r)
		})
	}

	rec := do(New(Config{Middleware: []func(http.Handler) http.Handler{mw}}), "/api/health")

	assert.Equal(t, "1", rec.Header().Get("X-Test"))
}
