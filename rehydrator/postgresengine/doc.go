// Package postgresengine provides a PostgreSQL implementation of the rehydrator record store.
//
// This package stores simplified records in a single PostgreSQL table keyed by
// (collection, record_id) with the payload held in a jsonb column, supporting
// multiple database adapters (pgx, sql.DB, sqlx). Saving a record upserts the
// row, so the table always holds the latest simplified state per record.
//
// Key features:
//   - Multiple database adapter support (PGX, SQL, SQLX)
//   - Optional read replica routing for fetches with the PGX adapter
//   - Upsert-based saves keyed by collection and record id
//   - Configurable table names with dual-logger, metrics, and tracing support
//
// Usage examples:
//
//	// Basic usage
//	db, _ := pgxpool.New(context.Background(), dsn)
//	store, _ := postgresengine.NewStoreFromPGXPool(db)
//
//	// With a custom table name and structured logging
//	store, _ := postgresengine.NewStoreFromPGXPool(
//		db,
//		postgresengine.WithTableName("inventory_records"),
//		postgresengine.WithLogger(logger),
//	)
//
//	// Routing fetches through a read replica
//	store, _ := postgresengine.NewStoreFromPGXPoolWithReplica(primaryPool, replicaPool)
//
//	document, _ := store.Fetch(ctx, "servers", "srv-1")
//	err := store.Save(ctx, "servers", "srv-1", document)
package postgresengine
