package domain

import (
	"errors"
	"fmt"
)

// DispatchErrorKind separates a missing app from every other dispatch failure.
type DispatchErrorKind int

const (
	DispatchFailure DispatchErrorKind = iota
	DispatchAppNotFound
)

func (k DispatchErrorKind) String() string {
	if k == DispatchAppNotFound {
		return "app_not_found"
	}
	return "dispatch_failure"
}

// DispatchError is the structured failure returned by a dispatch namespace.
type DispatchError struct {
	Kind DispatchErrorKind
	App  string
	Err  error
}

func (e *DispatchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("dispatch %s: %s", e.App, e.Kind)
	}
	return fmt.Sprintf("dispatch %s: %s: %v", e.App, e.Kind, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// NewAppNotFound reports that app has no deployed instance.
func NewAppNotFound(app string) *DispatchError {
	return &DispatchError{Kind: DispatchAppNotFound, App: app, Err: ErrAppNotFound}
}

// NewDispatchFailure wraps any other resolution or invocation failure.
func NewDispatchFailure(app string, err error) *DispatchError {
	return &DispatchError{Kind: DispatchFailure, App: app, Err: err}
}

// DispatchKindOf extracts the kind of err. Errors that are not DispatchErrors
// count as failures unless they wrap ErrAppNotFound.
func DispatchKindOf(err error) DispatchErrorKind {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Kind
	}
	if errors.Is(err, ErrAppNotFound) {
		return DispatchAppNotFound
	}
	return DispatchFailure
}
