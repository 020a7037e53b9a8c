package out

import "context"

// ProxyCacheInvalidator drops cached upstream addresses for an app, so the
// next request resolves it again after a redeploy.
type ProxyCacheInvalidator interface {
	InvalidateTarget(ctx context.Context, app string)
}
