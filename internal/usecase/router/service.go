// Package router implements the edge routing use case: one pass through a
// fixed decision tree per request, ending in exactly one backend or one
// router-originated response.
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/bnema/previewgate/internal/boundaries/in"
	"github.com/bnema/previewgate/internal/boundaries/out"
	"github.com/bnema/previewgate/internal/domain"
	"github.com/bnema/previewgate/internal/logging"
	"github.com/bnema/previewgate/internal/usecase/security"
)

// Ensure Service implements in.EdgeRouter.
var _ in.EdgeRouter = (*Service)(nil)

// Backends are the main-domain collaborators. Nil handlers answer 404.
type Backends struct {
	Assets    http.Handler
	CoreAPI   http.Handler
	AIGateway http.Handler
}

// Service implements the EdgeRouter interface.
type Service struct {
	cfg      domain.PlatformConfig
	backends Backends
	sandbox  out.SandboxProxy
	dispatch out.DispatchNamespace
	metrics  out.RouteMetrics
	enricher ResponseEnricher
}

// NewService creates a router over an immutable platform configuration.
// dispatch may be nil when cfg.DispatchAvailable is false; metrics may be nil.
func NewService(
	cfg domain.PlatformConfig,
	backends Backends,
	sandbox out.SandboxProxy,
	dispatch out.DispatchNamespace,
	metrics out.RouteMetrics,
) *Service {
	if backends.Assets == nil {
		backends.Assets = http.NotFoundHandler()
	}
	if backends.CoreAPI == nil {
		backends.CoreAPI = http.NotFoundHandler()
	}
	if backends.AIGateway == nil {
		backends.AIGateway = http.NotFoundHandler()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Service{
		cfg:      cfg,
		backends: backends,
		sandbox:  sandbox,
		dispatch: dispatch,
		metrics:  metrics,
		enricher: ResponseEnricher{policy: cfg.OriginPolicy},
	}
}

// ServeHTTP routes the request and records the decision it reached.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	host := domain.StripPort(r.Host)

	ctx := logging.CtxWithFields(r.Context(), map[string]any{
		logging.FieldLayer:   "usecase",
		logging.FieldUseCase: "Route",
		logging.FieldHost:    host,
		logging.FieldMethod:  r.Method,
		logging.FieldPath:    r.URL.Path,
	})
	r = r.WithContext(ctx)

	decision, tag := s.route(w, r, host)

	logging.FromCtx(ctx).Debug().
		Str(logging.FieldDecision, decision.String()).
		Str("preview_type", string(tag)).
		Msg("request routed")
	s.metrics.ObserveDecision(decision, tag, time.Since(start))
}

// route is the decision tree. The configuration and IP-literal gates run
// before classification and are terminal.
func (s *Service) route(w http.ResponseWriter, r *http.Request, host string) (domain.RoutingDecision, domain.PreviewType) {
	log := logging.FromCtx(r.Context())

	if !s.cfg.Valid() {
		log.Error().Err(domain.ErrPreviewDomainMissing).Msg("refusing request")
		writeConfigError(w)
		return domain.DecisionConfigError, domain.PreviewNone
	}

	if security.RejectIfIPLiteral(host) {
		log.Warn().Msg("direct IP access refused")
		writeForbidden(w)
		return domain.DecisionForbidden, domain.PreviewNone
	}

	switch domain.ClassifyHostname(host, s.cfg) {
	case domain.MainDomain:
		return s.serveMainDomain(w, r), domain.PreviewNone
	case domain.Subdomain:
		return s.serveSubdomain(w, r, host)
	default:
		writeNotFound(w)
		return domain.DecisionNotFound, domain.PreviewNone
	}
}

func (s *Service) serveMainDomain(w http.ResponseWriter, r *http.Request) domain.RoutingDecision {
	decision := domain.MainDomainDecision(r.URL.Path)
	switch decision {
	case domain.DecisionAsset:
		s.backends.Assets.ServeHTTP(w, r)
	case domain.DecisionAPIGatewayProxy:
		logging.FromCtx(r.Context()).Info().
			Str("origin", r.Header.Get("Origin")).
			Msg("forwarding to AI gateway")
		s.backends.AIGateway.ServeHTTP(w, r)
	default:
		s.backends.CoreAPI.ServeHTTP(w, r)
	}
	return decision
}

// serveSubdomain tries the live sandbox first and falls back to the dispatch
// namespace. It never falls back to the main-domain backends.
func (s *Service) serveSubdomain(w http.ResponseWriter, r *http.Request, host string) (domain.RoutingDecision, domain.PreviewType) {
	app := domain.AppNameFromHost(host)
	ctx := logging.CtxWithFields(r.Context(), map[string]any{logging.FieldApp: app})
	r = r.WithContext(ctx)
	log := logging.FromCtx(ctx)

	admitted, ok := admit(r)
	if !ok {
		log.Info().Msg("websocket upgrade refused in sandbox preview mode")
		writeUpgradeRejection(w)
		return domain.DecisionUnsupportedProtocol, domain.PreviewWebSocketNotSupported
	}

	result := s.trySandbox(ctx, admitted)
	switch result.Outcome {
	case domain.ProxyServed:
		log.Info().Int(logging.FieldStatus, result.Response.StatusCode).Msg("serving response from sandbox")
		s.enricher.Write(ctx, w, s.enricher.Enrich(r, result.Response, result.Tag))
		return domain.DecisionSandboxPreview, result.Tag
	case domain.ProxyProtocolRejection:
		log.Info().Msg("sandbox refused protocol upgrade")
		writeUpgradeRejection(w)
		return domain.DecisionUnsupportedProtocol, domain.PreviewWebSocketNotSupported
	case domain.ProxyTransientError:
		log.Warn().Str("reason", result.Reason).Msg("sandbox preview temporarily unavailable")
		writeTransient(w)
		return domain.DecisionTransientError, domain.PreviewSandboxError
	}

	s.metrics.SandboxFallthrough(result.Reason)
	log.Info().Str("reason", result.Reason).Msg("sandbox miss, attempting dispatch")

	if !s.cfg.DispatchAvailable || s.dispatch == nil {
		log.Warn().Err(domain.ErrDispatchUnavailable).Msg("sandbox miss with no fallback")
		writeAppUnavailable(w)
		return domain.DecisionNotFound, domain.PreviewNone
	}

	return s.dispatchTo(ctx, w, r, host, app)
}

// trySandbox only accepts requests that passed the protocol gate.
func (s *Service) trySandbox(ctx context.Context, req admittedRequest) domain.ProxyResult {
	if s.sandbox == nil {
		return domain.Miss("sandbox proxy not configured")
	}
	return s.sandbox.Attempt(ctx, req.r)
}

func (s *Service) dispatchTo(ctx context.Context, w http.ResponseWriter, r *http.Request, host, app string) (domain.RoutingDecision, domain.PreviewType) {
	handle, err := s.dispatch.Resolve(ctx, app)
	if err != nil {
		return s.dispatchFailed(ctx, w, host, app, err)
	}

	resp, err := handle.Fetch(ctx, r)
	if err != nil {
		return s.dispatchFailed(ctx, w, host, app, err)
	}

	logging.FromCtx(ctx).Info().Int(logging.FieldStatus, resp.StatusCode).Msg("serving response from dispatch namespace")
	s.enricher.Write(ctx, w, s.enricher.Enrich(r, resp, domain.PreviewDispatcher))
	return domain.DecisionDispatch, domain.PreviewDispatcher
}

func (s *Service) dispatchFailed(ctx context.Context, w http.ResponseWriter, host, app string, err error) (domain.RoutingDecision, domain.PreviewType) {
	log := logging.FromCtx(ctx)

	if domain.DispatchKindOf(err) == domain.DispatchAppNotFound {
		log.Warn().Msg("app not found in dispatch namespace")
		writeAppUnavailable(w)
		return domain.DecisionNotFound, domain.PreviewNone
	}

	log.Error().
		Err(err).
		Str(logging.FieldHost, host).
		Str(logging.FieldApp, app).
		Msg("error dispatching to deployed app")
	writeDispatchError(w)
	return domain.DecisionDispatch, domain.PreviewNone
}

// Explain returns the URL-only routing plan for host and path.
func (s *Service) Explain(host, path string) domain.RoutePlan {
	return Explain(s.cfg, host, path)
}

// Explain computes a routing plan without a Service, for offline use.
func Explain(cfg domain.PlatformConfig, host, path string) domain.RoutePlan {
	plan := domain.RoutePlan{Host: domain.StripPort(host)}

	if !cfg.Valid() {
		plan.Decision = domain.DecisionConfigError
		return plan
	}

	plan.Class = domain.ClassifyHostname(plan.Host, cfg)
	switch plan.Class {
	case domain.Rejected:
		plan.Decision = domain.DecisionForbidden
	case domain.MainDomain:
		plan.Decision = domain.MainDomainDecision(path)
	case domain.Subdomain:
		plan.Decision = domain.DecisionSandboxPreview
		plan.App = domain.AppNameFromHost(plan.Host)
	default:
		plan.Decision = domain.DecisionNotFound
	}
	return plan
}

// Planner explains routes for a fixed configuration without a Service.
type Planner domain.PlatformConfig

// Explain implements the same plan as Service.Explain.
func (p Planner) Explain(host, path string) domain.RoutePlan {
	return Explain(domain.PlatformConfig(p), host, path)
}

type noopMetrics struct{}

func (noopMetrics) ObserveDecision(domain.RoutingDecision, domain.PreviewType, time.Duration) {}
func (noopMetrics) SandboxFallthrough(string)                                               {}
