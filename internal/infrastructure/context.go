package infrastructure

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// NewID returns a random identifier for requests and what-if sessions
func NewID() string {
	return uuid.NewString()
}

// WithTraceID stores the id used to correlate log lines of one request or session
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, traceID)
}

// GetTraceID returns the stored trace id, or the active span's trace id
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDContextKey).(string); ok && traceID != "" {
		return traceID
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// WithComponent tags logger with the emitting component
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(slog.String("component", component))
}

// WithEntity tags logger with the entity under evaluation and its as-of day
func WithEntity(logger *slog.Logger, entityID string, asOf time.Time) *slog.Logger {
	return logger.With(
		slog.String("entity_id", entityID),
		slog.String("as_of", asOf.Format(time.DateOnly)),
	)
}
