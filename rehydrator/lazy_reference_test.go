package rehydrator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/badock/object-graph-rehydrator-go/rehydrator"
	"github.com/badock/object-graph-rehydrator-go/test/userland"
	"github.com/badock/object-graph-rehydrator-go/testutil/helper"
)

//nolint:funlen
func Test_NewLazyReference_Validation(t *testing.T) {
	engine, _ := helper.GivenEngineWithMemoryStore(t)

	tests := []struct {
		name        string
		build       func() (*rehydrator.LazyReference, error)
		expectedErr error
	}{
		{
			name: "nil_engine_is_rejected",
			build: func() (*rehydrator.LazyReference, error) {
				return rehydrator.NewLazyReference(nil, userland.ServerCollection, "srv-1")
			},
			expectedErr: rehydrator.ErrNilEngine,
		},
		{
			name: "empty_collection_is_rejected",
			build: func() (*rehydrator.LazyReference, error) {
				return rehydrator.NewLazyReference(engine, "", "srv-1")
			},
			expectedErr: rehydrator.ErrEmptyCollectionName,
		},
		{
			name: "empty_id_is_rejected",
			build: func() (*rehydrator.LazyReference, error) {
				return rehydrator.NewLazyReference(engine, userland.ServerCollection, "")
			},
			expectedErr: rehydrator.ErrEmptyRecordID,
		},
		{
			name: "nil_shared_session_is_rejected",
			build: func() (*rehydrator.LazyReference, error) {
				return rehydrator.NewLazyReference(engine, userland.ServerCollection, "srv-1",
					rehydrator.WithSharedSession(nil))
			},
			expectedErr: rehydrator.ErrNilSession,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()

			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}

	t.Run("valid_reference_carries_its_coordinates", func(t *testing.T) {
		ref, err := rehydrator.NewLazyReference(engine, userland.ServerCollection, "srv-1")

		assert.NoError(t, err)
		assert.Equal(t, userland.ServerCollection, ref.Collection())
		assert.Equal(t, "srv-1", ref.ID())
		assert.NotNil(t, ref.Session())
	})
}

func Test_LazyReference_ConstructionAndString_NeverFetch(t *testing.T) {
	engine, store := helper.GivenEngineWithMemoryStore(t)

	ref, err := rehydrator.NewLazyReference(engine, userland.ServerCollection, "srv-1")
	assert.NoError(t, err)

	assert.Equal(t, "Lazy(servers_srv-1)", ref.String())
	assert.Equal(t, 0, store.TotalFetchCount())
}

func Test_LazyReference_Resolve_FetchesOnceAndMemoizes(t *testing.T) {
	ctx := context.Background()
	engine, store := helper.GivenEngineWithMemoryStore(t)
	helper.GivenServerRecordWasSaved(t, ctx, store, "srv-1")

	ref, err := rehydrator.NewLazyReference(engine, userland.ServerCollection, "srv-1")
	assert.NoError(t, err)

	first, resolveErr := ref.Resolve(ctx)
	assert.NoError(t, resolveErr)

	server, ok := first.(*userland.Server)
	assert.True(t, ok)
	assert.Equal(t, "srv-1", server.ID)

	second, resolveErr := ref.Resolve(ctx)
	assert.NoError(t, resolveErr)
	assert.Same(t, server, second.(*userland.Server))

	assert.Equal(t, 1, store.FetchCount(userland.ServerCollection, "srv-1"))
}

func Test_LazyReference_Resolve_MemoizesFailure(t *testing.T) {
	ctx := context.Background()
	engine, store := helper.GivenEngineWithMemoryStore(t)

	ref, err := rehydrator.NewLazyReference(engine, userland.ServerCollection, "srv-gone")
	assert.NoError(t, err)

	_, firstErr := ref.Resolve(ctx)
	assert.ErrorIs(t, firstErr, rehydrator.ErrRecordNotFound)

	_, secondErr := ref.Resolve(ctx)
	assert.ErrorIs(t, secondErr, rehydrator.ErrRecordNotFound)

	// The failed fetch is memoized as well, the store saw exactly one attempt.
	assert.Equal(t, 1, store.FetchCount(userland.ServerCollection, "srv-gone"))
}

func Test_LazyReference_IsPresent(t *testing.T) {
	ctx := context.Background()

	t.Run("present_record_reports_true", func(t *testing.T) {
		engine, store := helper.GivenEngineWithMemoryStore(t)
		helper.GivenServerRecordWasSaved(t, ctx, store, "srv-1")

		ref, err := rehydrator.NewLazyReference(engine, userland.ServerCollection, "srv-1")
		assert.NoError(t, err)

		present, presentErr := ref.IsPresent(ctx)

		assert.NoError(t, presentErr)
		assert.True(t, present)
		assert.Equal(t, 1, store.FetchCount(userland.ServerCollection, "srv-1"))
	})

	t.Run("unreconstructible_record_reports_false", func(t *testing.T) {
		engine, store := helper.GivenEngineWithMemoryStore(t)

		saveErr := store.Save(ctx, "blobs", "b-1", rehydrator.Document{"payload": "opaque"})
		assert.NoError(t, saveErr, "error in arranging test data")

		ref, err := rehydrator.NewLazyReference(engine, "blobs", "b-1")
		assert.NoError(t, err)

		present, presentErr := ref.IsPresent(ctx)

		assert.NoError(t, presentErr)
		assert.False(t, present)
	})
}

func Test_LazyReference_SharedSession_ReusesIdentity(t *testing.T) {
	ctx := context.Background()
	engine, store := helper.GivenEngineWithMemoryStore(t)
	session := rehydrator.NewSession()

	inline, err := engine.Rehydrate(ctx, session, helper.FixtureServerRecord("srv-1"))
	assert.NoError(t, err)
	assert.Equal(t, 0, store.TotalFetchCount())

	helper.GivenServerRecordWasSaved(t, ctx, store, "srv-1")

	ref, refErr := rehydrator.NewLazyReference(engine, userland.ServerCollection, "srv-1",
		rehydrator.WithSharedSession(session))
	assert.NoError(t, refErr)
	assert.Same(t, session, ref.Session())

	resolved, resolveErr := ref.Resolve(ctx)
	assert.NoError(t, resolveErr)

	// The record is fetched, but the identity cache wins over a second instance.
	assert.Same(t, inline.(*userland.Server), resolved.(*userland.Server))
	assert.Equal(t, 1, store.FetchCount(userland.ServerCollection, "srv-1"))
}

//nolint:funlen
func Test_ResolvedAs_TypedAccess(t *testing.T) {
	ctx := context.Background()

	t.Run("typed_get_returns_the_domain_object", func(t *testing.T) {
		engine, store := helper.GivenEngineWithMemoryStore(t)
		helper.GivenServerRecordWasSaved(t, ctx, store, "srv-1")

		ref, err := rehydrator.NewLazyReference(engine, userland.ServerCollection, "srv-1")
		assert.NoError(t, err)

		server, getErr := rehydrator.ResolvedAs[*userland.Server](ref).Get(ctx)

		assert.NoError(t, getErr)
		assert.Equal(t, "srv-1", server.ID)
	})

	t.Run("wrong_type_fails_without_a_second_fetch", func(t *testing.T) {
		engine, store := helper.GivenEngineWithMemoryStore(t)
		helper.GivenServerRecordWasSaved(t, ctx, store, "srv-1")

		ref, err := rehydrator.NewLazyReference(engine, userland.ServerCollection, "srv-1")
		assert.NoError(t, err)

		_, getErr := rehydrator.ResolvedAs[*userland.Network](ref).Get(ctx)
		assert.ErrorIs(t, getErr, rehydrator.ErrResolvedWrongType)

		server, retryErr := rehydrator.ResolvedAs[*userland.Server](ref).Get(ctx)
		assert.NoError(t, retryErr)
		assert.Equal(t, "srv-1", server.ID)

		assert.Equal(t, 1, store.FetchCount(userland.ServerCollection, "srv-1"))
	})

	t.Run("absent_object_returns_the_zero_value", func(t *testing.T) {
		engine, store := helper.GivenEngineWithMemoryStore(t)

		saveErr := store.Save(ctx, "blobs", "b-1", rehydrator.Document{"payload": "opaque"})
		assert.NoError(t, saveErr, "error in arranging test data")

		ref, err := rehydrator.NewLazyReference(engine, "blobs", "b-1")
		assert.NoError(t, err)

		server, getErr := rehydrator.ResolvedAs[*userland.Server](ref).Get(ctx)

		assert.NoError(t, getErr)
		assert.Nil(t, server)
	})

	t.Run("zero_value_wrapper_reports_nil_reference", func(t *testing.T) {
		var empty rehydrator.Resolved[*userland.Server]

		_, getErr := empty.Get(ctx)

		assert.ErrorIs(t, getErr, rehydrator.ErrNilReference)
	})

	t.Run("ref_exposes_the_underlying_reference", func(t *testing.T) {
		engine, _ := helper.GivenEngineWithMemoryStore(t)

		ref, err := rehydrator.NewLazyReference(engine, userland.ServerCollection, "srv-1")
		assert.NoError(t, err)

		typed := rehydrator.ResolvedAs[*userland.Server](ref)

		assert.Same(t, ref, typed.Ref())
	})
}

func Test_LazyReference_Resolve_Observability(t *testing.T) {
	ctx := context.Background()

	t.Run("successful_resolve_records_span_and_duration", func(t *testing.T) {
		metricsSpy := helper.NewMetricsCollectorSpy(true)
		tracingSpy := helper.NewTracingCollectorSpy(true)
		engine, store := helper.GivenEngineWithMemoryStore(t,
			rehydrator.WithMetrics(metricsSpy),
			rehydrator.WithTracing(tracingSpy))
		helper.GivenServerRecordWasSaved(t, ctx, store, "srv-1")

		ref, err := rehydrator.NewLazyReference(engine, userland.ServerCollection, "srv-1")
		assert.NoError(t, err)

		_, resolveErr := ref.Resolve(ctx)
		assert.NoError(t, resolveErr)

		assert.True(t, metricsSpy.
			HasDurationRecordForMetric("rehydrator_lazy_resolve_duration_seconds").
			WithOperation("lazy_resolve").
			WithStatus("success").
			Assert())
		assert.True(t, tracingSpy.
			HasSpanRecordForName("rehydrator.lazy_resolve").
			WithStatus("success").
			WithStartAttribute("collection", userland.ServerCollection).
			WithStartAttribute("record_id", "srv-1").
			Assert())
	})

	t.Run("failed_resolve_records_error_signals", func(t *testing.T) {
		metricsSpy := helper.NewMetricsCollectorSpy(true)
		contextualSpy := helper.NewContextualLoggerSpy(true)
		engine, _ := helper.GivenEngineWithMemoryStore(t,
			rehydrator.WithMetrics(metricsSpy),
			rehydrator.WithContextualLogger(contextualSpy))

		ref, err := rehydrator.NewLazyReference(engine, userland.ServerCollection, "srv-gone")
		assert.NoError(t, err)

		_, resolveErr := ref.Resolve(ctx)
		assert.ErrorIs(t, resolveErr, rehydrator.ErrRecordNotFound)

		assert.True(t, metricsSpy.
			HasDurationRecordForMetric("rehydrator_lazy_resolve_duration_seconds").
			WithOperation("lazy_resolve").
			WithStatus("error").
			Assert())
		assert.True(t, contextualSpy.HasErrorLog("resolving lazy reference failed"))
	})
}
