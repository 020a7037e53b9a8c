package middleware

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/bnema/previewgate/internal/adapters/dto"
	"github.com/bnema/previewgate/internal/logging"
)

// loopbackNets are always allowed.
var loopbackNets, _ = ParseTrustedProxies([]string{"127.0.0.0/8", "::1"})

// CIDRAllowlist restricts access to the given networks plus loopback.
// An empty allowedNets is a no-op.
func CIDRAllowlist(allowedNets, trustedNets []*net.IPNet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(allowedNets) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := GetClientIP(r, trustedNets)
			if ContainsIP(clientIP, loopbackNets) || ContainsIP(clientIP, allowedNets) {
				next.ServeHTTP(w, r)
				return
			}

			logging.FromCtx(r.Context()).Warn().
				Str(logging.FieldLayer, "adapter").
				Str(logging.FieldAdapter, "http").
				Str(logging.FieldPath, r.URL.Path).
				Str(logging.FieldClientIP, clientIP).
				Msg("access denied by CIDR allowlist")

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: "Forbidden"})
		})
	}
}
