// Package domain holds the edge router's routing types and pure decision
// functions. It has no framework dependencies.
package domain

import (
	"net/url"
	"strings"
)

// OriginPolicy reports whether a cross-origin caller may read responses.
type OriginPolicy func(origin string) bool

// PlatformConfig is the immutable routing configuration of the edge.
// It is built once at startup and shared read-only by every request.
type PlatformConfig struct {
	BaseDomain        string
	PreviewDomain     string
	OriginPolicy      OriginPolicy
	DispatchAvailable bool
}

// Valid reports whether the configuration can route requests at all.
// A blank preview domain makes every request fail closed.
func (c PlatformConfig) Valid() bool {
	return strings.TrimSpace(c.PreviewDomain) != ""
}

// AllowsOrigin applies the origin policy. A nil policy allows nothing.
func (c PlatformConfig) AllowsOrigin(origin string) bool {
	if c.OriginPolicy == nil {
		return false
	}
	return c.OriginPolicy(origin)
}

// NewOriginAllowlist builds an OriginPolicy accepting the exact origins given
// and, when previewDomain is non-empty, any http(s) origin whose host is a
// subdomain of it.
func NewOriginAllowlist(origins []string, previewDomain string) OriginPolicy {
	exact := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			exact[strings.ToLower(o)] = struct{}{}
		}
	}
	suffix := ""
	if previewDomain != "" {
		suffix = "." + strings.ToLower(previewDomain)
	}

	return func(origin string) bool {
		if origin == "" {
			return false
		}
		if _, ok := exact[strings.ToLower(origin)]; ok {
			return true
		}
		if suffix == "" {
			return false
		}
		u, err := url.Parse(origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return false
		}
		return strings.HasSuffix(strings.ToLower(u.Hostname()), suffix)
	}
}
