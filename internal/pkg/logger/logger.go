package logger

import (
	"context"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// AddFields adds fields to the logger in context and returns new context
func AddFields(ctx context.Context, fields ...zap.Field) context.Context {
	logger := ctxzap.Extract(ctx)
	return ctxzap.ToContext(ctx, logger.With(fields...))
}

// WithAction adds "action" field to context logger to describe the flow
func WithAction(ctx context.Context, action string) context.Context {
	return AddFields(ctx, zap.String("action", action))
}

// Stage logs at debug level how long a pipeline stage took since start
func Stage(ctx context.Context, stage string, start time.Time, fields ...zap.Field) {
	fields = append(fields,
		zap.String("stage", stage),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	ctxzap.Debug(ctx, "stage finished", fields...)
}
