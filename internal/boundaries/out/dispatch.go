package out

import (
	"context"
	"net/http"
)

// DispatchNamespace resolves an app name to its permanently deployed instance.
// Failures are returned as *domain.DispatchError so callers never inspect
// message text.
type DispatchNamespace interface {
	Resolve(ctx context.Context, app string) (DispatchHandle, error)
}

// DispatchHandle invokes one resolved app instance.
type DispatchHandle interface {
	Fetch(ctx context.Context, r *http.Request) (*http.Response, error)
}
