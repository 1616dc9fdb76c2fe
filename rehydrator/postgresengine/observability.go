package postgresengine

import (
	"context"
	"math"
	"time"

	"github.com/badock/object-graph-rehydrator-go/rehydrator"
)

// logQueryWithDuration logs SQL queries with execution time at debug level if a logger is configured.
func (s Store) logQueryWithDuration(
	ctx context.Context,
	sqlQuery string,
	action string,
	duration time.Duration,
) {
	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action,
			logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)

		return
	}

	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted+action,
			logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level if a logger is configured.
func (s Store) logOperation(ctx context.Context, action string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
		return
	}

	if s.logger != nil {
		s.logger.Info(logMsgOperation+action, args...)
	}
}

// logError logs error information at the error level if a logger is configured.
func (s Store) logError(
	ctx context.Context,
	message string,
	err error,
	args ...any,
) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, message, allArgs...)
		return
	}

	if s.logger != nil {
		s.logger.Error(message, allArgs...)
	}
}

// logWarn logs non-critical issues at the warn level if a logger is configured.
func (s Store) logWarn(ctx context.Context, message string, err error) {
	if s.contextualLogger != nil {
		s.contextualLogger.WarnContext(ctx, message, logAttrError, err.Error())
		return
	}

	if s.logger != nil {
		s.logger.Warn(message, logAttrError, err.Error())
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// recordDurationMetric records a duration metric if the collector is configured,
// preferring the context-aware method when the collector supports it.
func (s Store) recordDurationMetric(
	ctx context.Context,
	metricName string,
	duration time.Duration,
	status string,
) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		labelEngine: engineName,
		labelStatus: status,
	}

	if contextualCollector, ok := s.metricsCollector.(rehydrator.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricName, duration, labels)
		return
	}

	s.metricsCollector.RecordDuration(metricName, duration, labels)
}

// startSpan starts a tracing span if the tracing collector is configured.
func (s Store) startSpan(
	ctx context.Context,
	name string,
	attributes map[string]string,
) (context.Context, rehydrator.SpanContext) {
	if s.tracingCollector == nil {
		return ctx, nil
	}

	return s.tracingCollector.StartSpan(ctx, name, attributes)
}

// finishSpanSuccess finishes a tracing span for a successful operation.
func (s Store) finishSpanSuccess(span rehydrator.SpanContext) {
	if s.tracingCollector == nil || span == nil {
		return
	}

	s.tracingCollector.FinishSpan(span, statusSuccess, nil)
}

// finishSpanError finishes a tracing span with error details.
func (s Store) finishSpanError(span rehydrator.SpanContext, err error) {
	if s.tracingCollector == nil || span == nil {
		return
	}

	s.tracingCollector.FinishSpan(span, statusError, map[string]string{
		spanAttrError: err.Error(),
	})
}
