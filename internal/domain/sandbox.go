package domain

import (
	"fmt"
	"net/url"
	"time"
)

// SandboxEndpoint is a live development sandbox announced by its heartbeat.
type SandboxEndpoint struct {
	App      string    `json:"app"`
	URL      string    `json:"url"`
	Instance string    `json:"instance,omitempty"`
	SeenAt   time.Time `json:"seen_at"`
}

// Target parses the sandbox URL, accepting only absolute http(s) addresses.
func (e SandboxEndpoint) Target() (*url.URL, error) {
	u, err := url.Parse(e.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSandboxAddress, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSandboxAddress, e.URL)
	}
	return u, nil
}
