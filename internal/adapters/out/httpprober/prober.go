// Package httpprober checks that a sandbox address answers HTTP before it is
// announced to the edge.
package httpprober

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"
)

// DefaultTimeout is the default timeout for HTTP probes.
const DefaultTimeout = 5 * time.Second

// userAgent identifies probe requests in sandbox logs.
const userAgent = "previewgate-probe/1.0"

// Prober sends a single GET and reports the status it got back.
type Prober struct {
	client  *http.Client
	timeout time.Duration
}

// Option configures the Prober.
type Option func(*Prober)

// WithTimeout sets the probe timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Prober) {
		p.timeout = timeout
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Prober) {
		p.client = client
	}
}

// New creates a new HTTP prober.
func New(opts ...Option) *Prober {
	p := &Prober{
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.client == nil {
		p.client = &http.Client{
			Timeout: p.timeout,
			Transport: &http.Transport{
				// #nosec G402 - dev sandboxes commonly serve self-signed
				// certificates; only reachability is checked.
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: true,
				},
				DisableKeepAlives: true,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}

	return p
}

// Result is the outcome of one probe.
type Result struct {
	Status  int
	Elapsed time.Duration
}

// Reachable reports whether the sandbox answered without a server error.
func (r Result) Reachable() bool {
	return r.Status > 0 && r.Status < http.StatusInternalServerError
}

// Probe sends a GET to url.
func (p *Prober) Probe(ctx context.Context, url string) (Result, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return Result{Elapsed: time.Since(start)}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return Result{Status: resp.StatusCode, Elapsed: time.Since(start)}, nil
}
