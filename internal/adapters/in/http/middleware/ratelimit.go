package middleware

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/bnema/previewgate/internal/adapters/dto"
	"github.com/bnema/previewgate/internal/boundaries/out"
	"github.com/bnema/previewgate/internal/logging"
)

// RateLimit throttles requests with a global budget and a per-client-IP
// budget. A nil limiter disables that check. onLimited, when set, is told
// which budget ("global" or "ip") refused each request.
func RateLimit(globalLimiter, ipLimiter out.RateLimiter, trustedNets []*net.IPNet, onLimited func(scope string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if globalLimiter == nil && ipLimiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if globalLimiter != nil && !globalLimiter.Allow(ctx, "global") {
				refuse(w, r, "global", onLimited)
				return
			}

			ip := GetClientIP(r, trustedNets)
			if ipLimiter != nil && !ipLimiter.Allow(ctx, "ip:"+ip) {
				refuse(w, r, "ip", onLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func refuse(w http.ResponseWriter, r *http.Request, scope string, onLimited func(string)) {
	logging.FromCtx(r.Context()).Debug().
		Str(logging.FieldPath, r.URL.Path).
		Str("scope", scope).
		Msg("rate limit exceeded")
	if onLimited != nil {
		onLimited(scope)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: "rate limit exceeded"})
}
