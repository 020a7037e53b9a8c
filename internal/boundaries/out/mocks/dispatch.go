package mocks

import (
	"context"
	"net/http"

	"github.com/stretchr/testify/mock"

	"github.com/bnema/previewgate/internal/boundaries/out"
)

// MockDispatchNamespace is a mock implementation of out.DispatchNamespace
type MockDispatchNamespace struct {
	mock.Mock
}

func (m *MockDispatchNamespace) Resolve(ctx context.Context, app string) (out.DispatchHandle, error) {
	args := m.Called(ctx, app)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(out.DispatchHandle), args.Error(1)
}

// MockDispatchHandle is a mock implementation of out.DispatchHandle
type MockDispatchHandle struct {
	mock.Mock
}

func (m *MockDispatchHandle) Fetch(ctx context.Context, r *http.Request) (*http.Response, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*http.Response), args.Error(1)
}
