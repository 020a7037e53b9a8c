// Package api implements the platform's core HTTP API on the main domain.
package api

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bnema/previewgate/internal/adapters/dto"
	"github.com/bnema/previewgate/internal/domain"
	"github.com/bnema/previewgate/internal/logging"
)

// Pinger is a backing service whose reachability is reported by /api/health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Explainer computes the routing plan for a host and path.
type Explainer interface {
	Explain(host, path string) domain.RoutePlan
}

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
	StartedAt time.Time
}

// Config wires the API's collaborators. Nil fields disable what they serve.
type Config struct {
	Router     Explainer
	Build      BuildInfo
	Components map[string]Pinger
	// Metrics serves /api/metrics; MetricsGuard wraps it.
	Metrics      http.Handler
	MetricsGuard func(http.Handler) http.Handler
	// Middleware wraps every API route, outermost first.
	Middleware []func(http.Handler) http.Handler
}

const pingTimeout = 2 * time.Second

type handler struct {
	cfg Config
}

// New builds the echo instance serving /api/*.
func New(cfg Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	for _, mw := range cfg.Middleware {
		e.Use(echo.WrapMiddleware(mw))
	}

	h := &handler{cfg: cfg}
	g := e.Group("/api")
	g.GET("/health", h.health)
	g.GET("/version", h.version)
	g.GET("/classify", h.classify)

	if cfg.Metrics != nil {
		metrics := cfg.Metrics
		if cfg.MetricsGuard != nil {
			metrics = cfg.MetricsGuard(metrics)
		}
		g.GET("/metrics", echo.WrapHandler(metrics))
	}
	return e
}

func (h *handler) health(c echo.Context) error {
	resp := dto.HealthResponse{Status: "ok"}
	if len(h.cfg.Components) == 0 {
		return c.JSON(http.StatusOK, resp)
	}

	names := make([]string, 0, len(h.cfg.Components))
	for name := range h.cfg.Components {
		names = append(names, name)
	}
	sort.Strings(names)

	resp.Components = make(map[string]dto.ComponentHealth, len(names))
	for _, name := range names {
		ctx, cancel := context.WithTimeout(c.Request().Context(), pingTimeout)
		err := h.cfg.Components[name].Ping(ctx)
		cancel()

		// Ping errors name internal addresses; they stay in the log.
		status := dto.ComponentHealth{Healthy: err == nil}
		if err != nil {
			resp.Status = "degraded"
			logging.FromCtx(c.Request().Context()).Warn().Err(err).Str(logging.FieldComponent, name).Msg("health check failed")
		}
		resp.Components[name] = status
	}

	// A degraded edge still routes; sandbox misses fall through.
	return c.JSON(http.StatusOK, resp)
}

func (h *handler) version(c echo.Context) error {
	b := h.cfg.Build
	resp := dto.VersionResponse{
		Version:   b.Version,
		Commit:    b.Commit,
		BuildDate: b.BuildDate,
	}
	if !b.StartedAt.IsZero() {
		resp.Uptime = time.Since(b.StartedAt).Truncate(time.Second).String()
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *handler) classify(c echo.Context) error {
	host := c.QueryParam("host")
	if host == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "host query parameter is required")
	}
	path := c.QueryParam("path")
	if path == "" {
		path = "/"
	}
	if h.cfg.Router == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "router not available")
	}

	plan := h.cfg.Router.Explain(host, path)
	return c.JSON(http.StatusOK, dto.RoutePlan{
		Host:     plan.Host,
		Class:    plan.Class.String(),
		Decision: plan.Decision.String(),
		App:      plan.App,
	})
}

// errorHandler renders every API error as dto.ErrorResponse.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	msg := http.StatusText(status)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(status)
		}
	} else {
		logging.FromCtx(c.Request().Context()).Error().Err(err).Msg("api handler failed")
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, dto.ErrorResponse{Error: msg})
}
