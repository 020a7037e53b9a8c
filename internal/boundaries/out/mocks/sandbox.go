// Package mocks provides testify mocks for the output ports.
package mocks

import (
	"context"
	"net/http"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/bnema/previewgate/internal/domain"
)

// MockSandboxProxy is a mock implementation of out.SandboxProxy
type MockSandboxProxy struct {
	mock.Mock
}

func (m *MockSandboxProxy) Attempt(ctx context.Context, r *http.Request) domain.ProxyResult {
	args := m.Called(ctx, r)
	return args.Get(0).(domain.ProxyResult)
}

// MockSandboxRegistry is a mock implementation of out.SandboxRegistry
type MockSandboxRegistry struct {
	mock.Mock
}

func (m *MockSandboxRegistry) Lookup(ctx context.Context, app string) (*domain.SandboxEndpoint, error) {
	args := m.Called(ctx, app)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SandboxEndpoint), args.Error(1)
}

func (m *MockSandboxRegistry) Register(ctx context.Context, endpoint domain.SandboxEndpoint, ttl time.Duration) error {
	args := m.Called(ctx, endpoint, ttl)
	return args.Error(0)
}

func (m *MockSandboxRegistry) Remove(ctx context.Context, app string) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}
