package oteladapters_test

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"

	"github.com/badock/object-graph-rehydrator-go/rehydrator/oteladapters"
)

// TestTraceCorrelation verifies that the SlogBridgeLogger includes trace and span IDs
// in log messages when tracing is active.
func TestTraceCorrelation(t *testing.T) {
	// Setup OpenTelemetry tracer
	tracerProvider := trace.NewTracerProvider()
	otel.SetTracerProvider(tracerProvider)
	defer tracerProvider.Shutdown(context.Background())

	tracer := otel.Tracer("test")

	// Create SlogBridgeLogger that will use OpenTelemetry
	logger := oteladapters.NewSlogBridgeLogger("test")

	// Test without tracing context
	t.Run("without_trace_context", func(t *testing.T) {
		ctx := context.Background()

		logger.InfoContext(ctx, "test message without trace")

		// The message goes through the global LoggerProvider, so the exact
		// output depends on the OTel setup. We mainly verify it doesn't crash.
	})

	// Test with tracing context
	t.Run("with_trace_context", func(t *testing.T) {
		// Create a span to establish trace context
		ctx, span := tracer.Start(context.Background(), "test-operation")
		defer span.End()

		logger.InfoContext(ctx, "test message with trace")

		// The bridge picks the trace and span IDs up from the context.
		// We mainly verify it doesn't crash and accepts the span context.
	})
}

// TestSlogBridgeLoggerInterface verifies that SlogBridgeLogger properly implements
// the rehydrator.ContextualLogger interface.
func TestSlogBridgeLoggerInterface(t *testing.T) {
	logger := oteladapters.NewSlogBridgeLogger("test")
	ctx := context.Background()

	// Test all interface methods
	logger.DebugContext(ctx, "debug message", "key", "value")
	logger.InfoContext(ctx, "info message", "key", "value")
	logger.WarnContext(ctx, "warn message", "key", "value")
	logger.ErrorContext(ctx, "error message", "key", "value")

	// If we get here without panicking, the interface is properly implemented
}
