package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// Field names shared by every layer so log lines stay greppable.
const (
	FieldLayer     = "layer"
	FieldAdapter   = "adapter"
	FieldUseCase   = "usecase"
	FieldComponent = "component"
	FieldAction    = "action"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldHost      = "host"
	FieldApp       = "app"
	FieldClientIP  = "client_ip"
	FieldStatus    = "status"
	FieldDuration  = "duration"
	FieldDecision  = "decision"
	FieldRequestID = "request_id"
)

// WithCtx attaches logger to ctx.
func WithCtx(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

// FromCtx returns the logger attached to ctx. A context without a logger
// yields a disabled logger, never nil.
func FromCtx(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// CtxWithFields returns a context whose logger carries the extra fields.
func CtxWithFields(ctx context.Context, fields map[string]any) context.Context {
	logger := zerolog.Ctx(ctx).With().Fields(fields).Logger()
	return logger.WithContext(ctx)
}
