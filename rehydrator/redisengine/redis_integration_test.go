//go:build integration

package redisengine_test

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/badock/object-graph-rehydrator-go/rehydrator"
	"github.com/badock/object-graph-rehydrator-go/rehydrator/redisengine"
	"github.com/badock/object-graph-rehydrator-go/test/userland"
	"github.com/badock/object-graph-rehydrator-go/testutil/helper"
	"github.com/badock/object-graph-rehydrator-go/testutil/rediswrapper"
)

func Test_Store_SaveAndFetch_RoundTrip(t *testing.T) {
	ctx := context.Background()
	wrapper := rediswrapper.CreateWrapperWithTestConfig(t)

	store, storeErr := redisengine.NewStoreFromClient(wrapper.Client)
	assert.NoError(t, storeErr, "error in arranging test data")

	saved := helper.FixtureServerRecord("srv-1")
	assert.NoError(t, store.Save(ctx, userland.ServerCollection, "srv-1", saved))

	fetched, fetchErr := store.Fetch(ctx, userland.ServerCollection, "srv-1")

	assert.NoError(t, fetchErr)
	assert.Equal(t, saved, fetched)
}

func Test_Store_Fetch_MissingRecord(t *testing.T) {
	ctx := context.Background()
	wrapper := rediswrapper.CreateWrapperWithTestConfig(t)

	store, storeErr := redisengine.NewStoreFromClient(wrapper.Client)
	assert.NoError(t, storeErr, "error in arranging test data")

	_, err := store.Fetch(ctx, userland.ServerCollection, "srv-missing")

	assert.ErrorIs(t, err, rehydrator.ErrRecordNotFound)
}

func Test_Store_KeyFormat(t *testing.T) {
	ctx := context.Background()
	wrapper := rediswrapper.CreateWrapperWithTestConfig(t)

	t.Run("default_prefix", func(t *testing.T) {
		store, storeErr := redisengine.NewStoreFromClient(wrapper.Client)
		assert.NoError(t, storeErr, "error in arranging test data")

		assert.NoError(t, store.Save(ctx, userland.ServerCollection, "srv-1",
			helper.FixtureServerRecord("srv-1")))

		payload, getErr := wrapper.Client.Get(ctx, "record:servers:srv-1").Bytes()
		assert.NoError(t, getErr)
		assert.NotEmpty(t, payload)
	})

	t.Run("custom_prefix", func(t *testing.T) {
		store, storeErr := redisengine.NewStoreFromClient(wrapper.Client,
			redisengine.WithKeyPrefix("inventory:"))
		assert.NoError(t, storeErr, "error in arranging test data")

		assert.NoError(t, store.Save(ctx, userland.ServerCollection, "srv-2",
			helper.FixtureServerRecord("srv-2")))

		payload, getErr := wrapper.Client.Get(ctx, "inventory:servers:srv-2").Bytes()
		assert.NoError(t, getErr)
		assert.NotEmpty(t, payload)
	})
}

func Test_Store_Delete(t *testing.T) {
	ctx := context.Background()
	wrapper := rediswrapper.CreateWrapperWithTestConfig(t)

	store, storeErr := redisengine.NewStoreFromClient(wrapper.Client)
	assert.NoError(t, storeErr, "error in arranging test data")

	assert.NoError(t, store.Save(ctx, userland.ServerCollection, "srv-1",
		helper.FixtureServerRecord("srv-1")))

	assert.NoError(t, store.Delete(ctx, userland.ServerCollection, "srv-1"))

	_, fetchErr := store.Fetch(ctx, userland.ServerCollection, "srv-1")
	assert.ErrorIs(t, fetchErr, rehydrator.ErrRecordNotFound)

	// Deleting a record that is already gone is not an error.
	assert.NoError(t, store.Delete(ctx, userland.ServerCollection, "srv-1"))
}

func Test_Store_Health(t *testing.T) {
	wrapper := rediswrapper.CreateWrapperWithTestConfig(t)

	store, storeErr := redisengine.NewStoreFromClient(wrapper.Client)
	assert.NoError(t, storeErr, "error in arranging test data")

	assert.NoError(t, store.Health(context.Background()))
}

func Test_NewStoreFromURL_OwnsItsClient(t *testing.T) {
	ctx := context.Background()
	wrapper := rediswrapper.CreateWrapperWithTestConfig(t)

	store, storeErr := redisengine.NewStoreFromURL(ctx, wrapper.URL)
	assert.NoError(t, storeErr)

	assert.NoError(t, store.Health(ctx))
	assert.NoError(t, store.Close())

	// The store created its own client, so Close really closed it.
	assert.ErrorIs(t, store.Health(ctx), redis.ErrClosed)
}

func Test_Store_Fetch_Observability(t *testing.T) {
	ctx := context.Background()
	wrapper := rediswrapper.CreateWrapperWithTestConfig(t)

	metricsSpy := helper.NewMetricsCollectorSpy(true)
	tracingSpy := helper.NewTracingCollectorSpy(true)

	store, storeErr := redisengine.NewStoreFromClient(wrapper.Client,
		redisengine.WithMetrics(metricsSpy),
		redisengine.WithTracing(tracingSpy))
	assert.NoError(t, storeErr, "error in arranging test data")

	assert.NoError(t, store.Save(ctx, userland.ServerCollection, "srv-1",
		helper.FixtureServerRecord("srv-1")))

	_, fetchErr := store.Fetch(ctx, userland.ServerCollection, "srv-1")
	assert.NoError(t, fetchErr)

	assert.True(t, metricsSpy.
		HasDurationRecordForMetric("rehydrator_store_fetch_duration_seconds").
		WithLabel("engine", "redis").
		WithStatus("success").
		Assert())
	assert.True(t, metricsSpy.
		HasDurationRecordForMetric("rehydrator_store_save_duration_seconds").
		WithLabel("engine", "redis").
		WithStatus("success").
		Assert())
	assert.True(t, tracingSpy.
		HasSpanRecordForName("redisengine.fetch").
		WithStatus("success").
		WithStartAttribute("collection", userland.ServerCollection).
		Assert())

	_, missErr := store.Fetch(ctx, userland.ServerCollection, "srv-missing")
	assert.ErrorIs(t, missErr, rehydrator.ErrRecordNotFound)

	assert.True(t, metricsSpy.
		HasDurationRecordForMetric("rehydrator_store_fetch_duration_seconds").
		WithLabel("engine", "redis").
		WithStatus("not_found").
		Assert())
}

func Test_Engine_EndToEnd_WithRedisStore(t *testing.T) {
	ctx := context.Background()
	wrapper := rediswrapper.CreateWrapperWithTestConfig(t)

	store, storeErr := redisengine.NewStoreFromClient(wrapper.Client)
	assert.NoError(t, storeErr, "error in arranging test data")

	registry, registryErr := userland.BuildRegistry()
	assert.NoError(t, registryErr, "error in arranging test data")

	engine, engineErr := rehydrator.NewEngine(store, registry)
	assert.NoError(t, engineErr, "error in arranging test data")

	host := helper.FixtureServerRecord("srv-host")
	assert.NoError(t, store.Save(ctx, userland.ServerCollection, "srv-host", host))

	guest := helper.FixtureServerRecord("srv-guest")
	guest["host"] = helper.FixtureObjectRef(userland.ServerClassname, userland.ServerCollection, "srv-host")
	assert.NoError(t, store.Save(ctx, userland.ServerCollection, "srv-guest", guest))

	session := rehydrator.NewSession()

	result, err := engine.Rehydrate(ctx, session,
		helper.FixtureObjectRef(userland.ServerClassname, userland.ServerCollection, "srv-guest"))

	assert.NoError(t, err)
	server, ok := result.(*userland.Server)
	assert.True(t, ok)
	assert.Equal(t, "srv-guest", server.ID)
	assert.NotNil(t, server.Host)
	assert.Equal(t, "srv-host", server.Host.ID)
	assert.Equal(t, 2, session.ObjectCount())

	ref, refErr := rehydrator.NewLazyReference(engine, userland.ServerCollection, "srv-host",
		rehydrator.WithSharedSession(session))
	assert.NoError(t, refErr)

	resolved, resolveErr := rehydrator.ResolvedAs[*userland.Server](ref).Get(ctx)
	assert.NoError(t, resolveErr)
	assert.Same(t, server.Host, resolved)
}
