package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/bnema/previewgate/internal/domain"
)

// MockRouteMetrics is a mock implementation of out.RouteMetrics
type MockRouteMetrics struct {
	mock.Mock
}

func (m *MockRouteMetrics) ObserveDecision(decision domain.RoutingDecision, tag domain.PreviewType, elapsed time.Duration) {
	m.Called(decision, tag, elapsed)
}

func (m *MockRouteMetrics) SandboxFallthrough(reason string) {
	m.Called(reason)
}
