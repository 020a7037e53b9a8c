// Package in defines input ports (interfaces) exposed by the use cases to
// driving adapters such as the HTTP server and the CLI.
package in

import (
	"net/http"

	"github.com/bnema/previewgate/internal/domain"
)

// EdgeRouter is the request router in front of the platform.
type EdgeRouter interface {
	// ServeHTTP routes one request to exactly one backend.
	ServeHTTP(w http.ResponseWriter, r *http.Request)

	// Explain returns the static routing plan for a host and path without
	// contacting any collaborator.
	Explain(host, path string) domain.RoutePlan
}
