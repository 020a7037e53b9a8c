// Package aigateway forwards generated apps' model calls to the configured
// AI gateway upstream.
package aigateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/bnema/previewgate/internal/adapters/out/upstream"
	"github.com/bnema/previewgate/internal/domain"
	"github.com/bnema/previewgate/internal/logging"
)

// Proxy is a reverse proxy for the AI gateway path prefix.
type Proxy struct {
	target *url.URL
	proxy  *httputil.ReverseProxy
}

// New creates a gateway proxy for rawURL. An empty rawURL yields a proxy
// that answers 503.
func New(rawURL string, transport http.RoundTripper) (*Proxy, error) {
	if strings.TrimSpace(rawURL) == "" {
		return &Proxy{}, nil
	}
	target, err := url.Parse(rawURL)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return nil, fmt.Errorf("%w: ai_gateway.url %q", domain.ErrInvalidConfig, rawURL)
	}
	if transport == nil {
		transport = upstream.NewTransport(upstream.TransportConfig{})
	}

	p := &Proxy{target: target}
	p.proxy = &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Path = stripPrefix(pr.In.URL.Path)
			pr.Out.URL.RawPath = ""
			pr.SetURL(target)
			pr.SetXForwarded()
			pr.Out.Host = target.Host
		},
		Transport:     transport,
		FlushInterval: -1,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logging.FromCtx(r.Context()).Error().
				Err(err).
				Str(logging.FieldAdapter, "aigateway").
				Str("target", target.Host).
				Msg("ai gateway proxy error")
			writeJSONError(w, http.StatusBadGateway, "AI gateway unreachable")
		},
	}
	return p, nil
}

// Configured reports whether an upstream is set.
func (p *Proxy) Configured() bool {
	return p.target != nil
}

// ServeHTTP implements http.Handler.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if p.proxy == nil {
		logging.FromCtx(r.Context()).Warn().Err(domain.ErrGatewayNotConfigured).Msg("ai gateway request refused")
		writeJSONError(w, http.StatusServiceUnavailable, "AI gateway is not configured")
		return
	}
	p.proxy.ServeHTTP(w, r)
}

// stripPrefix removes the gateway prefix, keeping a leading slash.
func stripPrefix(p string) string {
	rest := strings.TrimPrefix(p, domain.AIGatewayPrefix)
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	return rest
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `{"error":%q}`, msg)
}
