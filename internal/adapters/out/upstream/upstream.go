// Package upstream builds requests to user-app backends (sandboxes and
// deployed containers) and the transport they travel on.
package upstream

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/previewgate/internal/domain"
)

// TransportConfig tunes NewTransport.
type TransportConfig struct {
	DialTimeout           time.Duration
	ResponseHeaderTimeout time.Duration
}

// NewTransport returns a transport with bounded dial and header timeouts.
// Zero values fall back to 10s and 30s.
func NewTransport(cfg TransportConfig) *http.Transport {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.ResponseHeaderTimeout <= 0 {
		cfg.ResponseHeaderTimeout = 30 * time.Second
	}
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
	}
}

// Outbound clones r for target. The client's Host header is kept so the
// upstream sees the preview hostname it was addressed by. body replaces
// r.Body; pass nil for a bodiless request.
func Outbound(ctx context.Context, r *http.Request, target *url.URL, body io.ReadCloser) *http.Request {
	out := r.Clone(ctx)
	out.RequestURI = ""
	out.URL.Scheme = target.Scheme
	out.URL.Host = target.Host
	out.URL.Path = joinPath(target.Path, r.URL.Path)
	out.URL.RawPath = ""
	if target.RawQuery != "" {
		if out.URL.RawQuery == "" {
			out.URL.RawQuery = target.RawQuery
		} else {
			out.URL.RawQuery = target.RawQuery + "&" + out.URL.RawQuery
		}
	}
	out.Host = r.Host
	out.Close = false

	if body == nil {
		out.Body = http.NoBody
		out.ContentLength = 0
	} else {
		out.Body = body
	}
	out.GetBody = nil

	domain.StripHopByHop(out.Header)
	setForwarded(out, r)
	return out
}

// setForwarded records the client hop. An incoming X-Forwarded-Proto is not
// trusted; it is derived from the connection.
func setForwarded(out, in *http.Request) {
	if ip, _, err := net.SplitHostPort(in.RemoteAddr); err == nil {
		if prior := out.Header.Values("X-Forwarded-For"); len(prior) > 0 {
			ip = strings.Join(prior, ", ") + ", " + ip
		}
		out.Header.Set("X-Forwarded-For", ip)
	}
	out.Header.Set("X-Forwarded-Host", in.Host)
	if in.TLS != nil {
		out.Header.Set("X-Forwarded-Proto", "https")
	} else {
		out.Header.Set("X-Forwarded-Proto", "http")
	}
}

func joinPath(base, path string) string {
	if base == "" || base == "/" {
		if path == "" {
			return "/"
		}
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
