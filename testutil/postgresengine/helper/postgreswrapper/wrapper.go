package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/badock/object-graph-rehydrator-go/rehydrator/postgresengine"
	"github.com/badock/object-graph-rehydrator-go/testutil/postgresengine/config"
)

// Engine type constants
const (
	typePGXPool = "pgx.pool"
	typeSQLDB   = "sql.db"
	typeSQLXDB  = "sqlx.db"
)

const defaultTableName = "records"

// Wrapper interface to abstract over different adapter types
type Wrapper interface {
	GetStore() postgresengine.Store
	TableName() string
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing
type PGXPoolWrapper struct {
	pool      *pgxpool.Pool
	store     postgresengine.Store
	tableName string
}

func (w *PGXPoolWrapper) GetStore() postgresengine.Store {
	return w.store
}

func (w *PGXPoolWrapper) TableName() string {
	return w.tableName
}

func (w *PGXPoolWrapper) Close() {
	w.pool.Close()
}

// SQLDBWrapper wraps sql.DB-based testing
type SQLDBWrapper struct {
	db        *sql.DB
	store     postgresengine.Store
	tableName string
}

func (w *SQLDBWrapper) GetStore() postgresengine.Store {
	return w.store
}

func (w *SQLDBWrapper) TableName() string {
	return w.tableName
}

func (w *SQLDBWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// SQLXWrapper wraps sqlx.DB-based testing
type SQLXWrapper struct {
	db        *sqlx.DB
	store     postgresengine.Store
	tableName string
}

func (w *SQLXWrapper) GetStore() postgresengine.Store {
	return w.store
}

func (w *SQLXWrapper) TableName() string {
	return w.tableName
}

func (w *SQLXWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// CreateWrapperWithTestConfig creates the appropriate wrapper based on the ADAPTER_TYPE environment variable.
func CreateWrapperWithTestConfig(t testing.TB) Wrapper {
	return createWrapperWithTestConfig(t, defaultTableName)
}

// CreateWrapperWithTableName creates a wrapper whose store uses a custom record table.
func CreateWrapperWithTableName(t testing.TB, tableName string) Wrapper {
	return createWrapperWithTestConfig(t, tableName)
}

// TryCreateStoreWithTableName tries to create a store with the given table name and returns the error (for testing error cases).
func TryCreateStoreWithTableName(t testing.TB, tableName string) error {
	adapterTypeFromEnv := strings.ToLower(os.Getenv("ADAPTER_TYPE"))

	var options []postgresengine.Option
	if tableName != defaultTableName {
		options = append(options, postgresengine.WithTableName(tableName))
	}

	switch adapterTypeFromEnv {
	case typePGXPool, "":
		connPool, err := pgxpool.NewWithConfig(context.Background(), config.PostgresPGXPoolSingleConfig())
		assert.NoError(t, err, "error connecting to DB pool in test setup")
		defer connPool.Close()

		_, err = postgresengine.NewStoreFromPGXPool(connPool, options...)
		return err

	case typeSQLDB:
		db := config.PostgresSQLDBSingleConfig()
		defer func(db *sql.DB) {
			_ = db.Close() // makes no sense to handle this
		}(db)

		_, err := postgresengine.NewStoreFromSQLDB(db, options...)
		return err

	case typeSQLXDB:
		db := config.PostgresSQLXSingleConfig()
		defer func(db *sqlx.DB) {
			_ = db.Close() // makes no sense to handle this
		}(db)

		_, err := postgresengine.NewStoreFromSQLX(db, options...)
		return err

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", adapterTypeFromEnv))
	}
}

// createWrapperWithTestConfig is the internal function that handles both default and custom table names.
func createWrapperWithTestConfig(t testing.TB, tableName string) Wrapper {
	adapterTypeFromEnv := strings.ToLower(os.Getenv("ADAPTER_TYPE"))

	var options []postgresengine.Option
	if tableName != defaultTableName {
		options = append(options, postgresengine.WithTableName(tableName))
	}

	switch adapterTypeFromEnv {
	case typePGXPool, "":
		connPool, err := pgxpool.NewWithConfig(context.Background(), config.PostgresPGXPoolSingleConfig())
		assert.NoError(t, err, "error connecting to DB pool in test setup")

		_, err = connPool.Exec(context.Background(), createTableSQL(tableName))
		assert.NoError(t, err, "error creating the record table in test setup")

		store, err := postgresengine.NewStoreFromPGXPool(connPool, options...)
		assert.NoError(t, err, "error creating record store")

		return &PGXPoolWrapper{pool: connPool, store: store, tableName: tableName}

	case typeSQLDB:
		db := config.PostgresSQLDBSingleConfig()

		_, err := db.Exec(createTableSQL(tableName))
		assert.NoError(t, err, "error creating the record table in test setup")

		store, err := postgresengine.NewStoreFromSQLDB(db, options...)
		assert.NoError(t, err, "error creating record store")

		return &SQLDBWrapper{db: db, store: store, tableName: tableName}

	case typeSQLXDB:
		db := config.PostgresSQLXSingleConfig()

		_, err := db.Exec(createTableSQL(tableName))
		assert.NoError(t, err, "error creating the record table in test setup")

		store, err := postgresengine.NewStoreFromSQLX(db, options...)
		assert.NoError(t, err, "error creating record store")

		return &SQLXWrapper{db: db, store: store, tableName: tableName}

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", adapterTypeFromEnv))
	}
}

// CleanUp truncates the record table for the given wrapper.
func CleanUp(t testing.TB, wrapper Wrapper) {
	query := fmt.Sprintf("TRUNCATE TABLE %s", wrapper.TableName())

	switch w := wrapper.(type) {
	case *PGXPoolWrapper:
		_, err := w.pool.Exec(context.Background(), query)
		assert.NoError(t, err, "error cleaning up the record table")

	case *SQLDBWrapper:
		_, err := w.db.Exec(query)
		assert.NoError(t, err, "error cleaning up the record table")

	case *SQLXWrapper:
		_, err := w.db.Exec(query)
		assert.NoError(t, err, "error cleaning up the record table")

	default:
		panic(fmt.Sprintf("unsupported wrapper type: %T", w))
	}
}

// CountRecords counts the rows stored for a collection for the given wrapper.
func CountRecords(t testing.TB, wrapper Wrapper, collection string) int {
	query := fmt.Sprintf("SELECT count(*) FROM %s WHERE collection = '%s'", wrapper.TableName(), collection)

	var cnt int
	var err error

	switch w := wrapper.(type) {
	case *PGXPoolWrapper:
		row := w.pool.QueryRow(context.Background(), query)
		err = row.Scan(&cnt)

	case *SQLDBWrapper:
		row := w.db.QueryRow(query)
		err = row.Scan(&cnt)

	case *SQLXWrapper:
		row := w.db.QueryRow(query)
		err = row.Scan(&cnt)

	default:
		panic(fmt.Sprintf("unsupported wrapper type: %T", w))
	}

	assert.NoError(t, err, "error in arranging test data")

	return cnt
}

func createTableSQL(tableName string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		collection TEXT NOT NULL,
		record_id  TEXT NOT NULL,
		payload    JSONB NOT NULL,
		PRIMARY KEY (collection, record_id)
	)`, tableName)
}
