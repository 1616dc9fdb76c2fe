package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/badock/object-graph-rehydrator-go/rehydrator"
	"github.com/badock/object-graph-rehydrator-go/rehydrator/oteladapters"
	"github.com/badock/object-graph-rehydrator-go/rehydrator/promadapters"
)

const serviceName = "rehydrator-load-generator"

// ObservabilityConfig holds the observability adapters shared by the engine
// and the record store.
type ObservabilityConfig struct {
	Logger           rehydrator.Logger
	ContextualLogger rehydrator.ContextualLogger
	MetricsCollector rehydrator.MetricsCollector
	TracingCollector rehydrator.TracingCollector
}

// NewObservabilityConfig builds the adapters selected by the configuration.
// Logging goes to stdout as JSON, traces to the globally registered tracer
// provider, and metrics either to the global meter or to the process default
// Prometheus registry.
func (c Config) NewObservabilityConfig() ObservabilityConfig {
	if !c.ObservabilityEnabled {
		return ObservabilityConfig{}
	}

	obsConfig := ObservabilityConfig{
		ContextualLogger: oteladapters.NewSlogBridgeLoggerWithHandler(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})),
		TracingCollector: oteladapters.NewTracingCollector(otel.Tracer(serviceName)),
	}

	switch c.MetricsBackend {
	case "prometheus":
		obsConfig.MetricsCollector = promadapters.NewMetricsCollector()
		log.Printf("Metrics register into the default Prometheus registry")
	default:
		obsConfig.MetricsCollector = oteladapters.NewMetricsCollector(otel.Meter(serviceName))
	}

	return obsConfig
}

// setupTracing initialises OpenTelemetry tracing for the load generator.
//
// Exporting is opt-in: when REHYDRATOR_OTEL_ENDPOINT is empty, setupTracing
// returns a no-op shutdown function and no global provider is registered, so
// spans stay no-ops.
//
// The returned shutdown function flushes pending spans and should be deferred
// by the caller.
func setupTracing(ctx context.Context) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	endpoint := os.Getenv("REHYDRATOR_OTEL_ENDPOINT")
	if endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(endpoint),
	)
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	log.Printf("Exporting traces to %s", endpoint)

	return tp.Shutdown, nil
}
