package domain

// PreviewType is the diagnostic tag naming the tier that served a subdomain request.
type PreviewType string

const (
	PreviewNone                  PreviewType = ""
	PreviewSandbox               PreviewType = "sandbox"
	PreviewSandboxError          PreviewType = "sandbox-error"
	PreviewDispatcher            PreviewType = "dispatcher"
	PreviewWebSocketNotSupported PreviewType = "websocket-not-supported"
)

// Response headers owned by the edge.
const (
	HeaderPreviewType        = "X-Preview-Type"
	HeaderDeploymentRequired = "X-Deployment-Required"
	HeaderRequestID          = "X-Request-ID"
)

// SandboxTag returns the tag for a response the sandbox actually produced.
func SandboxTag(status int) PreviewType {
	if status == 500 {
		return PreviewSandboxError
	}
	return PreviewSandbox
}
