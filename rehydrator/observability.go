package rehydrator

import (
	"context"
	"time"
)

// Logger defines the interface for structured logging within the rehydration
// engine and the store engines. Compatible with slog.Logger and similar
// structured loggers.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ContextualLogger defines the interface for context-aware structured logging.
// Preferred over Logger when trace correlation is desired, so log records can
// carry the active span context.
type ContextualLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// MetricsCollector defines the interface for collecting rehydration metrics.
// Implementations can bridge to Prometheus, OpenTelemetry, StatsD, or any
// other metrics backend.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
	RecordValue(metric string, value float64, labels map[string]string)
}

// ContextualMetricsCollector extends MetricsCollector with context-aware
// variants, allowing implementations to attach exemplars or trace metadata.
type ContextualMetricsCollector interface {
	MetricsCollector

	RecordDurationContext(ctx context.Context, metric string, duration time.Duration, labels map[string]string)
	IncrementCounterContext(ctx context.Context, metric string, labels map[string]string)
	RecordValueContext(ctx context.Context, metric string, value float64, labels map[string]string)
}

// SpanContext represents an active tracing span.
type SpanContext interface {
	// SetStatus sets the status of the span, e.g. "success" or "error".
	SetStatus(status string)

	// AddAttribute adds a key-value attribute to the span.
	AddAttribute(key string, value string)
}

// TracingCollector defines the interface for distributed tracing of
// rehydration and store operations.
type TracingCollector interface {
	// StartSpan starts a new span with the given name and attributes,
	// returning the derived context and the span handle.
	StartSpan(ctx context.Context, name string, attributes map[string]string) (context.Context, SpanContext)

	// FinishSpan completes the span with a final status and optional
	// additional attributes.
	FinishSpan(span SpanContext, status string, attributes map[string]string)
}
