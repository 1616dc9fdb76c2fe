//go:build integration

package postgresengine_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"

	"github.com/badock/object-graph-rehydrator-go/rehydrator"
	"github.com/badock/object-graph-rehydrator-go/rehydrator/postgresengine"
	"github.com/badock/object-graph-rehydrator-go/test/userland"
	"github.com/badock/object-graph-rehydrator-go/testutil/helper"
	"github.com/badock/object-graph-rehydrator-go/testutil/postgresengine/config"
	"github.com/badock/object-graph-rehydrator-go/testutil/postgresengine/helper/postgreswrapper"
)

func Test_Store_SaveAndFetch_RoundTrip(t *testing.T) {
	ctx := context.Background()
	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	postgreswrapper.CleanUp(t, wrapper)

	store := wrapper.GetStore()

	saved := helper.FixtureServerRecord("srv-1")
	assert.NoError(t, store.Save(ctx, userland.ServerCollection, "srv-1", saved))

	fetched, fetchErr := store.Fetch(ctx, userland.ServerCollection, "srv-1")

	assert.NoError(t, fetchErr)
	assert.Equal(t, saved, fetched)
}

func Test_Store_Fetch_MissingRecord(t *testing.T) {
	ctx := context.Background()
	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	postgreswrapper.CleanUp(t, wrapper)

	_, err := wrapper.GetStore().Fetch(ctx, userland.ServerCollection, "srv-missing")

	assert.ErrorIs(t, err, rehydrator.ErrRecordNotFound)
}

func Test_Store_Save_UpsertsExistingRecord(t *testing.T) {
	ctx := context.Background()
	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	postgreswrapper.CleanUp(t, wrapper)

	store := wrapper.GetStore()

	record := helper.FixtureServerRecord("srv-1")
	assert.NoError(t, store.Save(ctx, userland.ServerCollection, "srv-1", record))

	record["state"] = "ERROR"
	assert.NoError(t, store.Save(ctx, userland.ServerCollection, "srv-1", record))

	fetched, fetchErr := store.Fetch(ctx, userland.ServerCollection, "srv-1")

	assert.NoError(t, fetchErr)
	assert.Equal(t, "ERROR", fetched["state"])
	assert.Equal(t, 1, postgreswrapper.CountRecords(t, wrapper, userland.ServerCollection))
}

func Test_Store_Delete(t *testing.T) {
	ctx := context.Background()
	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	postgreswrapper.CleanUp(t, wrapper)

	store := wrapper.GetStore()

	assert.NoError(t, store.Save(ctx, userland.ServerCollection, "srv-1",
		helper.FixtureServerRecord("srv-1")))

	assert.NoError(t, store.Delete(ctx, userland.ServerCollection, "srv-1"))

	_, fetchErr := store.Fetch(ctx, userland.ServerCollection, "srv-1")
	assert.ErrorIs(t, fetchErr, rehydrator.ErrRecordNotFound)

	// Deleting a record that is already gone is not an error.
	assert.NoError(t, store.Delete(ctx, userland.ServerCollection, "srv-1"))
}

func Test_Store_Health(t *testing.T) {
	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()

	assert.NoError(t, wrapper.GetStore().Health(context.Background()))
}

func Test_Store_CustomTableName(t *testing.T) {
	ctx := context.Background()
	wrapper := postgreswrapper.CreateWrapperWithTableName(t, "inventory_records")
	defer wrapper.Close()
	postgreswrapper.CleanUp(t, wrapper)

	store := wrapper.GetStore()

	saved := helper.FixtureServerRecord("srv-1")
	assert.NoError(t, store.Save(ctx, userland.ServerCollection, "srv-1", saved))

	fetched, fetchErr := store.Fetch(ctx, userland.ServerCollection, "srv-1")

	assert.NoError(t, fetchErr)
	assert.Equal(t, saved, fetched)
	assert.Equal(t, 1, postgreswrapper.CountRecords(t, wrapper, userland.ServerCollection))
}

func Test_Store_EmptyTableNameIsRejected(t *testing.T) {
	err := postgreswrapper.TryCreateStoreWithTableName(t, "")

	assert.ErrorIs(t, err, rehydrator.ErrEmptyTableName)
}

func Test_Store_ReplicaPoolServesFetches(t *testing.T) {
	ctx := context.Background()
	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	postgreswrapper.CleanUp(t, wrapper)

	// Both pools point at the same test database, the replica path is
	// exercised without a real replication topology.
	primary, primaryErr := pgxpool.NewWithConfig(ctx, config.PostgresPGXPoolSingleConfig())
	assert.NoError(t, primaryErr, "error in arranging test data")
	defer primary.Close()

	replica, replicaErr := pgxpool.NewWithConfig(ctx, config.PostgresPGXPoolSingleConfig())
	assert.NoError(t, replicaErr, "error in arranging test data")
	defer replica.Close()

	store, storeErr := postgresengine.NewStoreFromPGXPoolWithReplica(primary, replica)
	assert.NoError(t, storeErr, "error in arranging test data")

	saved := helper.FixtureServerRecord("srv-replica")
	assert.NoError(t, store.Save(ctx, userland.ServerCollection, "srv-replica", saved))

	fetched, fetchErr := store.Fetch(ctx, userland.ServerCollection, "srv-replica")

	assert.NoError(t, fetchErr)
	assert.Equal(t, saved, fetched)
}

func Test_Store_Observability(t *testing.T) {
	ctx := context.Background()
	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	postgreswrapper.CleanUp(t, wrapper)

	logSpy := helper.NewLogHandlerSpy(false)
	metricsSpy := helper.NewMetricsCollectorSpy(true)
	tracingSpy := helper.NewTracingCollectorSpy(true)

	db := config.PostgresSQLDBSingleConfig()
	defer func() { _ = db.Close() }()

	store, storeErr := postgresengine.NewStoreFromSQLDB(db,
		postgresengine.WithLogger(slog.New(logSpy)),
		postgresengine.WithMetrics(metricsSpy),
		postgresengine.WithTracing(tracingSpy))
	assert.NoError(t, storeErr, "error in arranging test data")

	assert.NoError(t, store.Save(ctx, userland.ServerCollection, "srv-1",
		helper.FixtureServerRecord("srv-1")))

	_, fetchErr := store.Fetch(ctx, userland.ServerCollection, "srv-1")
	assert.NoError(t, fetchErr)

	assert.True(t, logSpy.
		HasInfoLogWithMessage("store operation: record saved").
		WithAttribute("collection", userland.ServerCollection).
		WithAttribute("record_id", "srv-1").
		WithAttributeKey("rows_affected").
		WithDurationMS().
		Assert())
	assert.True(t, logSpy.
		HasInfoLogWithMessage("store operation: record fetched").
		WithAttribute("collection", userland.ServerCollection).
		WithDurationMS().
		Assert())
	assert.True(t, logSpy.
		HasDebugLogWithMessage("executed sql for: fetch").
		WithAttributeKey("query").
		WithDurationMS().
		Assert())
	assert.True(t, logSpy.
		HasDebugLogWithMessage("executed sql for: save").
		WithAttributeKey("query").
		Assert())

	assert.True(t, metricsSpy.
		HasDurationRecordForMetric("rehydrator_store_save_duration_seconds").
		WithLabel("engine", "postgres").
		WithStatus("success").
		Assert())
	assert.True(t, metricsSpy.
		HasDurationRecordForMetric("rehydrator_store_fetch_duration_seconds").
		WithLabel("engine", "postgres").
		WithStatus("success").
		Assert())

	assert.True(t, tracingSpy.
		HasSpanRecordForName("postgresengine.save").
		WithStatus("success").
		WithStartAttribute("collection", userland.ServerCollection).
		Assert())
	assert.True(t, tracingSpy.
		HasSpanRecordForName("postgresengine.fetch").
		WithStatus("success").
		WithStartAttribute("record_id", "srv-1").
		Assert())

	_, missErr := store.Fetch(ctx, userland.ServerCollection, "srv-missing")
	assert.ErrorIs(t, missErr, rehydrator.ErrRecordNotFound)

	assert.True(t, metricsSpy.
		HasDurationRecordForMetric("rehydrator_store_fetch_duration_seconds").
		WithLabel("engine", "postgres").
		WithStatus("not_found").
		Assert())
}

func Test_Engine_EndToEnd_WithPostgresStore(t *testing.T) {
	ctx := context.Background()
	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	postgreswrapper.CleanUp(t, wrapper)

	store := wrapper.GetStore()

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
