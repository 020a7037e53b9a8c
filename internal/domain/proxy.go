package domain

import "net/http"

// ProxyOutcome classifies what a sandbox attempt produced.
type ProxyOutcome int

const (
	// ProxyMiss means no sandbox served the request and the body is untouched.
	ProxyMiss ProxyOutcome = iota
	// ProxyServed means Response came from a live sandbox.
	ProxyServed
	// ProxyProtocolRejection is the fixed refusal of an upgrade request.
	ProxyProtocolRejection
	// ProxyTransientError asks the client to retry later.
	ProxyTransientError
)

func (o ProxyOutcome) String() string {
	switch o {
	case ProxyServed:
		return "served"
	case ProxyProtocolRejection:
		return "protocol_rejection"
	case ProxyTransientError:
		return "transient_error"
	default:
		return "miss"
	}
}

// ProxyResult is the outcome of SandboxProxy.Attempt. Response is nil for a miss.
type ProxyResult struct {
	Outcome  ProxyOutcome
	Response *http.Response
	Tag      PreviewType
	Reason   string
}

// Miss builds a fall-through result.
func Miss(reason string) ProxyResult {
	return ProxyResult{Outcome: ProxyMiss, Reason: reason}
}

// Served wraps a sandbox response and tags it from its status.
func Served(resp *http.Response) ProxyResult {
	return ProxyResult{Outcome: ProxyServed, Response: resp, Tag: SandboxTag(resp.StatusCode)}
}

// Transient builds a retry-later result.
func Transient(reason string) ProxyResult {
	return ProxyResult{Outcome: ProxyTransientError, Tag: PreviewSandboxError, Reason: reason}
}

// IsMiss reports whether the caller may fall through to dispatch.
func (r ProxyResult) IsMiss() bool {
	return r.Outcome == ProxyMiss
}
