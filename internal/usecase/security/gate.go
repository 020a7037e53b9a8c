// Package security implements the edge's request admission checks.
package security

import (
	"github.com/bnema/previewgate/internal/domain"
)

// RejectIfIPLiteral reports whether host must be refused because it is an
// IPv4 literal. A true result is terminal: the caller answers 403 and stops.
func RejectIfIPLiteral(host string) bool {
	return domain.IsIPv4Literal(host)
}

// CORSDecision returns the Access-Control-Allow-Origin value for origin.
// ok is false for missing origins and for origins the policy refuses; in
// both cases no CORS header may be written. When ok is true the response
// must also carry "Vary: Origin".
func CORSDecision(origin string, policy domain.OriginPolicy) (value string, ok bool) {
	if origin == "" || policy == nil {
		return "", false
	}
	if !policy(origin) {
		return "", false
	}
	return origin, true
}
