package rehydrator

// Option configures an Engine during construction.
type Option func(*Engine) error

// WithLogger configures structured logging for the engine.
// Without it logging is disabled.
func WithLogger(logger Logger) Option {
	return func(engine *Engine) error {
		engine.logger = logger

		return nil
	}
}

// WithContextualLogger configures context-aware structured logging for the
// engine. When both loggers are configured the contextual one wins.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(engine *Engine) error {
		engine.contextualLogger = logger

		return nil
	}
}

// WithMetrics configures metrics collection for the engine.
// Without it metrics collection is disabled.
func WithMetrics(collector MetricsCollector) Option {
	return func(engine *Engine) error {
		engine.metricsCollector = collector

		return nil
	}
}

// WithTracing configures distributed tracing for the engine.
// Without it tracing is disabled.
func WithTracing(collector TracingCollector) Option {
	return func(engine *Engine) error {
		engine.tracingCollector = collector

		return nil
	}
}
