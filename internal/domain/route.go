package domain

// RoutingDecision is the single terminal outcome the edge reaches per request.
type RoutingDecision int

const (
	DecisionNotFound RoutingDecision = iota
	DecisionAsset
	DecisionAPICore
	DecisionAPIGatewayProxy
	DecisionSandboxPreview
	DecisionDispatch
	DecisionConfigError
	DecisionForbidden
	DecisionUnsupportedProtocol
	DecisionTransientError
)

var decisionNames = map[RoutingDecision]string{
	DecisionNotFound:            "not_found",
	DecisionAsset:               "asset",
	DecisionAPICore:             "api_core",
	DecisionAPIGatewayProxy:     "api_gateway_proxy",
	DecisionSandboxPreview:      "sandbox_preview",
	DecisionDispatch:            "dispatch",
	DecisionConfigError:         "config_error",
	DecisionForbidden:           "forbidden",
	DecisionUnsupportedProtocol: "unsupported_protocol",
	DecisionTransientError:      "transient_error",
}

func (d RoutingDecision) String() string {
	if name, ok := decisionNames[d]; ok {
		return name
	}
	return "unknown"
}

// Path prefixes recognised on the main domain.
const (
	APIPrefix       = "/api/"
	AIGatewayPrefix = "/api/proxy/openai"
)

// MainDomainDecision picks the backend for a main-domain request path.
func MainDomainDecision(path string) RoutingDecision {
	switch {
	case len(path) < len(APIPrefix) || path[:len(APIPrefix)] != APIPrefix:
		return DecisionAsset
	case len(path) >= len(AIGatewayPrefix) && path[:len(AIGatewayPrefix)] == AIGatewayPrefix:
		return DecisionAPIGatewayProxy
	default:
		return DecisionAPICore
	}
}

// RoutePlan is the part of a routing decision knowable from the URL alone.
// For subdomains Decision is DecisionSandboxPreview: whether the sandbox or
// the dispatch namespace answers depends on live state.
type RoutePlan struct {
	Host     string
	Class    HostnameClass
	Decision RoutingDecision
	App      string
}
