package redisengine

import (
	"github.com/badock/object-graph-rehydrator-go/rehydrator"
)

// Option defines a functional option for configuring a Store.
type Option func(*Store) error

// WithKeyPrefix overrides the prefix prepended to every record key.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) error {
		if prefix == "" {
			return rehydrator.ErrEmptyKeyPrefix
		}

		s.keyPrefix = prefix

		return nil
	}
}

// WithLogger sets the logger for the Store.
func WithLogger(logger rehydrator.Logger) Option {
	return func(s *Store) error {
		s.logger = logger

		return nil
	}
}

// WithContextualLogger sets a context-aware logger for the Store, preferred
// over the plain logger when both are configured.
func WithContextualLogger(logger rehydrator.ContextualLogger) Option {
	return func(s *Store) error {
		s.contextualLogger = logger

		return nil
	}
}

// WithMetrics sets the metrics collector for the Store.
func WithMetrics(collector rehydrator.MetricsCollector) Option {
	return func(s *Store) error {
		s.metricsCollector = collector

		return nil
	}
}

// WithTracing sets the tracing collector for the Store.
func WithTracing(collector rehydrator.TracingCollector) Option {
	return func(s *Store) error {
		s.tracingCollector = collector

		return nil
	}
}
