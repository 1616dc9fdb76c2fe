package rehydrator_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/badock/object-graph-rehydrator-go/rehydrator"
	"github.com/badock/object-graph-rehydrator-go/test/userland"
	"github.com/badock/object-graph-rehydrator-go/testutil/helper"
)

//nolint:funlen
func Test_Engine_Rehydrate_Logging(t *testing.T) {
	ctx := context.Background()

	t.Run("successful_rehydration_logs_debug_with_counts", func(t *testing.T) {
		logSpy := helper.NewLogHandlerSpy(false)
		engine, _ := helper.GivenEngineWithMemoryStore(t, rehydrator.WithLogger(slog.New(logSpy)))
		session := rehydrator.NewSession()

		_, err := engine.Rehydrate(ctx, session,
			helper.FixtureServerRecordWithNetworks("srv-1", "net-1", "net-2"))

		assert.NoError(t, err)
		assert.True(t, logSpy.
			HasDebugLogWithMessage("rehydration completed").
			WithDurationMS().
			WithObjectCount().
			WithAttributeKey("session_id").
			WithAttributeKey("report").
			Assert())
	})

	t.Run("dropped_field_logs_warning_with_field_and_identity", func(t *testing.T) {
		logSpy := helper.NewLogHandlerSpy(false)
		engine, _ := helper.GivenEngineWithMemoryStore(t, rehydrator.WithLogger(slog.New(logSpy)))
		session := rehydrator.NewSession()

		doc := helper.FixtureServerRecord("srv-1")
		doc["flavor"] = "m1.large"

		_, err := engine.Rehydrate(ctx, session, doc)

		assert.NoError(t, err)
		assert.True(t, logSpy.
			HasWarnLogWithMessage("dropped field during population").
			WithAttribute("field", "flavor").
			WithAttribute("identity_key", "Server-srv-1").
			WithAttributeKey("error").
			Assert())
	})

	t.Run("failed_rehydration_logs_error", func(t *testing.T) {
		logSpy := helper.NewLogHandlerSpy(false)
		engine, _ := helper.GivenEngineWithMemoryStore(t, rehydrator.WithLogger(slog.New(logSpy)))
		session := rehydrator.NewSession()

		_, err := engine.Rehydrate(ctx, session,
			helper.FixtureObjectRef(userland.ServerClassname, userland.ServerCollection, "srv-missing"))

		assert.Error(t, err)
		assert.True(t, logSpy.
			HasErrorLogWithMessage("rehydration failed").
			WithAttributeKey("error").
			WithAttributeKey("session_id").
			Assert())
	})

	t.Run("unknown_classname_logs_warning", func(t *testing.T) {
		logSpy := helper.NewLogHandlerSpy(false)
		engine, _ := helper.GivenEngineWithMemoryStore(t, rehydrator.WithLogger(slog.New(logSpy)))
		session := rehydrator.NewSession()

		doc := rehydrator.Document{
			rehydrator.KeyClassname: "Flavor",
			rehydrator.KeyID:        "f-1",
		}

		_, err := engine.Rehydrate(ctx, session, doc)

		assert.NoError(t, err)
		assert.True(t, logSpy.
			HasWarnLogWithMessage("classname not registered, producing no object").
			WithAttribute("classname", "Flavor").
			Assert())
	})

	t.Run("contextual_logger_takes_precedence", func(t *testing.T) {
		logSpy := helper.NewLogHandlerSpy(false)
		contextualSpy := helper.NewContextualLoggerSpy(true)
		engine, _ := helper.GivenEngineWithMemoryStore(t,
			rehydrator.WithLogger(slog.New(logSpy)),
			rehydrator.WithContextualLogger(contextualSpy))
		session := rehydrator.NewSession()

		_, err := engine.Rehydrate(ctx, session, helper.FixtureServerRecord("srv-1"))

		assert.NoError(t, err)
		assert.True(t, contextualSpy.HasDebugLog("rehydration completed"))
		assert.Equal(t, 0, logSpy.GetRecordCount())
	})
}

//nolint:funlen
func Test_Engine_Rehydrate_Metrics(t *testing.T) {
	ctx := context.Background()

	t.Run("successful_rehydration_records_duration_and_object_counters", func(t *testing.T) {
		metricsSpy := helper.NewMetricsCollectorSpy(true)
		engine, _ := helper.GivenEngineWithMemoryStore(t, rehydrator.WithMetrics(metricsSpy))
		session := rehydrator.NewSession()

		_, err := engine.Rehydrate(ctx, session,
			helper.FixtureServerRecordWithNetworks("srv-1", "net-1", "net-2"))

		assert.NoError(t, err)
		assert.True(t, metricsSpy.
			HasDurationRecordForMetric("rehydrator_rehydrate_duration_seconds").
			WithOperation("rehydrate").
			WithStatus("success").
			Assert())
		assert.Equal(t, 3, metricsSpy.CountCounterRecordsForMetric("rehydrator_objects_rehydrated_total"))
		assert.True(t, metricsSpy.
			HasCounterRecordForMetric("rehydrator_objects_rehydrated_total").
			WithClassname(userland.NetworkClassname).
			Assert())
		assert.True(t, metricsSpy.
			HasCounterRecordForMetric("rehydrator_objects_rehydrated_total").
			WithClassname(userland.ServerClassname).
			Assert())
	})

	t.Run("failed_rehydration_records_error_duration", func(t *testing.T) {
		metricsSpy := helper.NewMetricsCollectorSpy(true)
		engine, _ := helper.GivenEngineWithMemoryStore(t, rehydrator.WithMetrics(metricsSpy))
		session := rehydrator.NewSession()

		_, err := engine.Rehydrate(ctx, session,
			helper.FixtureObjectRef(userland.ServerClassname, userland.ServerCollection, "srv-missing"))

		assert.Error(t, err)
		assert.True(t, metricsSpy.
			HasDurationRecordForMetric("rehydrator_rehydrate_duration_seconds").
			WithOperation("rehydrate").
			WithStatus("error").
			Assert())
	})

	t.Run("dropped_field_increments_drop_counter", func(t *testing.T) {
		metricsSpy := helper.NewMetricsCollectorSpy(true)
		engine, _ := helper.GivenEngineWithMemoryStore(t, rehydrator.WithMetrics(metricsSpy))
		session := rehydrator.NewSession()

		doc := helper.FixtureServerRecord("srv-1")
		doc["flavor"] = "m1.large"

		_, err := engine.Rehydrate(ctx, session, doc)

		assert.NoError(t, err)
		assert.True(t, metricsSpy.
			HasCounterRecordForMetric("rehydrator_fields_dropped_total").
			WithClassname(userland.ServerClassname).
			Assert())
	})

	t.Run("recovered_sequence_increments_recovery_counter", func(t *testing.T) {
		metricsSpy := helper.NewMetricsCollectorSpy(true)
		engine, _ := helper.GivenEngineWithMemoryStore(t, rehydrator.WithMetrics(metricsSpy))
		session := rehydrator.NewSession()

		doc := helper.FixtureServerRecord("srv-1")
		doc["networks"] = nil

		_, err := engine.Rehydrate(ctx, session, doc)

		assert.NoError(t, err)
		assert.True(t, metricsSpy.
			HasCounterRecordForMetric("rehydrator_fields_recovered_total").
			WithClassname(userland.ServerClassname).
			Assert())
	})
}

func Test_Engine_Rehydrate_Tracing(t *testing.T) {
	ctx := context.Background()

	t.Run("successful_rehydration_finishes_span_with_object_count", func(t *testing.T) {
		tracingSpy := helper.NewTracingCollectorSpy(true)
		engine, _ := helper.GivenEngineWithMemoryStore(t, rehydrator.WithTracing(tracingSpy))
		session := rehydrator.NewSession()

		_, err := engine.Rehydrate(ctx, session,
			helper.FixtureServerRecordWithNetworks("srv-1", "net-1", "net-2"))

		assert.NoError(t, err)
		assert.Equal(t, 1, tracingSpy.GetSpanRecordCount())
		assert.True(t, tracingSpy.
			HasSpanRecordForName("rehydrator.rehydrate").
			WithStatus("success").
			WithStartAttribute("operation", "rehydrate").
			WithEndAttribute("object_count", "3").
			Assert())
	})

	t.Run("failed_rehydration_finishes_span_with_error_status", func(t *testing.T) {
		tracingSpy := helper.NewTracingCollectorSpy(true)
		engine, _ := helper.GivenEngineWithMemoryStore(t, rehydrator.WithTracing(tracingSpy))
		session := rehydrator.NewSession()

		_, err := engine.Rehydrate(ctx, session,
			helper.FixtureObjectRef(userland.ServerClassname, userland.ServerCollection, "srv-missing"))

		assert.Error(t, err)
		assert.True(t, tracingSpy.
			HasSpanRecordForName("rehydrator.rehydrate").
			WithStatus("error").
			Assert())
	})
}
