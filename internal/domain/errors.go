package domain

import "errors"

// Domain errors represent routing-level failure conditions shared across layers.
var (
	// Configuration errors
	ErrPreviewDomainMissing = errors.New("preview domain is not configured")
	ErrInvalidConfig        = errors.New("invalid configuration")

	// Sandbox errors
	ErrSandboxNotFound       = errors.New("no live sandbox for app")
	ErrUpgradeSerialization  = errors.New("websocket upgrade cannot be serialized across the sandbox boundary")
	ErrSandboxBodyConsumed   = errors.New("request body consumed before sandbox failure")
	ErrInvalidSandboxAddress = errors.New("invalid sandbox address")

	// Dispatch errors
	ErrDispatchUnavailable = errors.New("dispatch namespace is not configured")
	ErrAppNotFound         = errors.New("app not found in dispatch namespace")

	// Gateway errors
	ErrGatewayNotConfigured = errors.New("ai gateway upstream is not configured")
)
