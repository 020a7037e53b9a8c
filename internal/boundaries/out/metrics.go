package out

import (
	"time"

	"github.com/bnema/previewgate/internal/domain"
)

// RouteMetrics records routing outcomes.
type RouteMetrics interface {
	ObserveDecision(decision domain.RoutingDecision, tag domain.PreviewType, elapsed time.Duration)
	SandboxFallthrough(reason string)
}
