package logger

import (
	"context"

	"go.uber.org/zap"
)

type (
	requestIDKey struct{}
	fieldsKey    struct{}
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithFields suma campos que FromCtx agrega a cada línea logueada con ctx.
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	prev, _ := ctx.Value(fieldsKey{}).([]zap.Field)
	all := make([]zap.Field, 0, len(prev)+len(fields))
	all = append(append(all, prev...), fields...)
	return context.WithValue(ctx, fieldsKey{}, all)
}

// FromCtx devuelve el logger global con el request_id y los campos de ctx.
func FromCtx(ctx context.Context) *zap.Logger {
	l := L()
	if id := RequestIDFrom(ctx); id != "" {
		l = l.With(zap.String("request_id", id))
	}
	if fields, ok := ctx.Value(fieldsKey{}).([]zap.Field); ok {
		l = l.With(fields...)
	}
	return l
}
