package router

import (
	"net/http"

	"github.com/bnema/previewgate/internal/domain"
)

// admittedRequest is a subdomain request that passed the protocol gate.
// The sandbox stage accepts nothing else, so an upgrade request can never
// reach the sandbox transport.
type admittedRequest struct {
	r *http.Request
}

// admit is the protocol gate. WebSocket upgrades cannot be relayed across
// the sandbox boundary and are refused here.
func admit(r *http.Request) (admittedRequest, bool) {
	if domain.IsWebSocketUpgrade(r.Header) {
		return admittedRequest{}, false
	}
	return admittedRequest{r: r}, true
}
