package router

import (
	"net/http"

	"github.com/bnema/previewgate/internal/domain"
)

// Bodies of router-originated responses. None of them carries internal
// identifiers or error text.
const (
	msgConfigError     = "Server configuration error: Application domain is not set."
	msgForbidden       = "Access denied. Please use the assigned domain name."
	msgNotFound        = "Not Found"
	msgAppUnavailable  = "This application is not currently available."
	msgDispatchError   = "An error occurred while loading this application."
	msgUpgradeRejected = "WebSocket connections are not supported in sandbox preview mode. Please deploy your application to use WebSocket features."
	msgTransient       = "Preview temporarily unavailable due to WebSocket connection issue. Please deploy your application."

	retryAfterSeconds = "5"
)

// writeText writes a router-originated plain-text response. A CSP is set
// here because these bodies never come from a user app.
func writeText(w http.ResponseWriter, status int, body string, extra map[string]string) {
	h := w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
	for k, v := range extra {
		h.Set(k, v)
	}
	if _, ok := extra[domain.HeaderPreviewType]; ok {
		h.Set("Access-Control-Expose-Headers", domain.HeaderPreviewType)
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func writeConfigError(w http.ResponseWriter) {
	writeText(w, http.StatusInternalServerError, msgConfigError, nil)
}

func writeForbidden(w http.ResponseWriter) {
	writeText(w, http.StatusForbidden, msgForbidden, nil)
}

func writeNotFound(w http.ResponseWriter) {
	writeText(w, http.StatusNotFound, msgNotFound, nil)
}

func writeAppUnavailable(w http.ResponseWriter) {
	writeText(w, http.StatusNotFound, msgAppUnavailable, nil)
}

func writeDispatchError(w http.ResponseWriter) {
	writeText(w, http.StatusInternalServerError, msgDispatchError, nil)
}

func writeUpgradeRejection(w http.ResponseWriter) {
	writeText(w, http.StatusBadRequest, msgUpgradeRejected, map[string]string{
		domain.HeaderPreviewType:        string(domain.PreviewWebSocketNotSupported),
		domain.HeaderDeploymentRequired: "true",
	})
}

func writeTransient(w http.ResponseWriter) {
	writeText(w, http.StatusServiceUnavailable, msgTransient, map[string]string{
		domain.HeaderPreviewType:        string(domain.PreviewSandboxError),
		domain.HeaderDeploymentRequired: "true",
		"Retry-After":                   retryAfterSeconds,
	})
}
