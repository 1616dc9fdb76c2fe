// Package promadapters provides Prometheus implementations of the rehydrator
// observability interfaces for users who expose metrics through a Prometheus
// registry instead of OpenTelemetry.
package promadapters

import (
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/badock/object-graph-rehydrator-go/rehydrator"
)

// MetricsCollector implements rehydrator.MetricsCollector using Prometheus instruments.
// It maps the rehydrator metrics interface onto Prometheus vectors:
//   - RecordDuration -> HistogramVec (for measuring operation durations)
//   - IncrementCounter -> CounterVec (for counting operations and errors)
//   - RecordValue -> GaugeVec (for current values like object counts)
//
// Vectors are created on demand with the label names of the first observation for
// a metric name; later observations with a different label set are dropped.
// Registration follows promauto semantics and panics when a metric cannot be
// registered with the configured registerer, e.g. when the same name was already
// registered with different label names.
//
// The collector is safe for concurrent use.
type MetricsCollector struct {
	factory    promauto.Factory
	mu         sync.RWMutex
	histograms map[string]*prometheus.HistogramVec
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
}

// NewMetricsCollector creates a Prometheus metrics collector that registers its
// instruments with the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegisterer(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegisterer creates a Prometheus metrics collector that
// registers its instruments with the provided registerer. Pass a fresh
// prometheus.NewRegistry() to keep instruments out of the default registry,
// e.g. in tests.
func NewMetricsCollectorWithRegisterer(registerer prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		factory:    promauto.With(registerer),
		histograms: make(map[string]*prometheus.HistogramVec),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}
}

// RecordDuration records a duration measurement on a Prometheus histogram.
// Durations are observed in seconds with the default buckets.
func (m *MetricsCollector) RecordDuration(metricName string, duration time.Duration, labels map[string]string) {
	histogram := m.getOrCreateHistogram(metricName, labelNamesOf(labels))

	observer, err := histogram.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		return
	}

	observer.Observe(duration.Seconds())
}

// IncrementCounter increments a Prometheus counter by one.
func (m *MetricsCollector) IncrementCounter(metricName string, labels map[string]string) {
	counter := m.getOrCreateCounter(metricName, labelNamesOf(labels))

	metric, err := counter.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		return
	}

	metric.Inc()
}

// RecordValue sets a Prometheus gauge to the given value.
func (m *MetricsCollector) RecordValue(metricName string, value float64, labels map[string]string) {
	gauge := m.getOrCreateGauge(metricName, labelNamesOf(labels))

	metric, err := gauge.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		return
	}

	metric.Set(value)
}

// labelNamesOf returns the sorted label names of a labels map.
func labelNamesOf(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// getOrCreateHistogram gets an existing histogram vector or creates a new one for the given metric name.
func (m *MetricsCollector) getOrCreateHistogram(name string, labelNames []string) *prometheus.HistogramVec {
	m.mu.RLock()
	histogram, exists := m.histograms[name]
	m.mu.RUnlock()
	if exists {
		return histogram
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if histogram, exists = m.histograms[name]; exists {
		return histogram
	}

	histogram = m.factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    name,
		Help:    "Rehydration operation duration",
		Buckets: prometheus.DefBuckets,
	}, labelNames)

	m.histograms[name] = histogram
	return histogram
}

// getOrCreateCounter gets an existing counter vector or creates a new one for the given metric name.
func (m *MetricsCollector) getOrCreateCounter(name string, labelNames []string) *prometheus.CounterVec {
	m.mu.RLock()
	counter, exists := m.counters[name]
	m.mu.RUnlock()
	if exists {
		return counter
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if counter, exists = m.counters[name]; exists {
		return counter
	}

	counter = m.factory.NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: "Rehydration operation counter",
	}, labelNames)

	m.counters[name] = counter
	return counter
}

// getOrCreateGauge gets an existing gauge vector or creates a new one for the given metric name.
func (m *MetricsCollector) getOrCreateGauge(name string, labelNames []string) *prometheus.GaugeVec {
	m.mu.RLock()
	gauge, exists := m.gauges[name]
	m.mu.RUnlock()
	if exists {
		return gauge
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if gauge, exists = m.gauges[name]; exists {
		return gauge
	}

	gauge = m.factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: name,
		Help: "Rehydration current value",
	}, labelNames)

	m.gauges[name] = gauge
	return gauge
}

// Ensure MetricsCollector implements rehydrator.MetricsCollector.
var _ rehydrator.MetricsCollector = (*MetricsCollector)(nil)
