package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/badock/object-graph-rehydrator-go/rehydrator"
	"github.com/badock/object-graph-rehydrator-go/rehydrator/postgresengine/internal/adapters"
)

const (
	defaultRecordTableName       = "records"
	logMsgBuildSelectQueryFailed = "failed to build select query"
	logMsgBuildUpsertQueryFailed = "failed to build upsert query"
	logMsgBuildDeleteQueryFailed = "failed to build delete query"
	logMsgDBQueryFailed          = "database query execution failed"
	logMsgDBExecFailed           = "database execution failed during record save"
	logMsgDBDeleteFailed         = "database execution failed during record delete"
	logMsgCloseRowsFailed        = "failed to close database rows"
	logMsgScanRowFailed          = "failed to scan database row"
	logMsgDecodePayloadFailed    = "failed to decode record payload"
	logMsgEncodePayloadFailed    = "failed to encode record payload"
	logMsgRowsAffectedFailed     = "failed to get rows affected count"
	logMsgRecordFetched          = "record fetched"
	logMsgRecordSaved            = "record saved"
	logMsgRecordDeleted          = "record deleted"
	logMsgSQLExecuted            = "executed sql for: "
	logMsgOperation              = "store operation: "
	logAttrError                 = "error"
	logAttrQuery                 = "query"
	logAttrDurationMS            = "duration_ms"
	logAttrCollection            = "collection"
	logAttrRecordID              = "record_id"
	logAttrRowsAffected          = "rows_affected"
	logActionFetch               = "fetch"
	logActionSave                = "save"
	logActionDelete              = "delete"
	colCollection                = "collection"
	colRecordID                  = "record_id"
	colPayload                   = "payload"
	dialectPostgres              = "postgres"
	castJsonb                    = "?::jsonb"
	conflictTarget               = "collection, record_id"
	healthQuery                  = "SELECT 1"

	metricFetchDuration  = "rehydrator_store_fetch_duration_seconds"
	metricSaveDuration   = "rehydrator_store_save_duration_seconds"
	metricDeleteDuration = "rehydrator_store_delete_duration_seconds"
	labelEngine          = "engine"
	labelStatus          = "status"
	engineName           = "postgres"
	statusSuccess        = "success"
	statusError          = "error"
	statusNotFound       = "not_found"
	spanNameFetch        = "postgresengine.fetch"
	spanNameSave         = "postgresengine.save"
	spanNameDelete       = "postgresengine.delete"
	spanAttrOperation    = "operation"
	spanAttrCollection   = "collection"
	spanAttrRecordID     = "record_id"
	spanAttrError        = "error"
)

type (
	sqlQueryString    = string
	rowsAffectedInt64 = int64
	queryDuration     = time.Duration
)

// Store persists simplified records in a single PostgreSQL table, one row per
// record keyed by (collection, record_id) with the payload held in a jsonb
// column. It leverages a database adapter and supports customizable logging,
// metrics, tracing, and record table configuration.
//
// Fetch satisfies the read side the rehydration engine depends on, Save and
// Delete cover the write side for services maintaining the simplified state.
type Store struct {
	db               adapters.DBAdapter
	recordTableName  string
	logger           rehydrator.Logger
	contextualLogger rehydrator.ContextualLogger
	metricsCollector rehydrator.MetricsCollector
	tracingCollector rehydrator.TracingCollector
}

// NewStoreFromPGXPool creates a new Store using a pgx Pool with optional configuration.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, rehydrator.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options...)
}

// NewStoreFromPGXPoolWithReplica creates a new Store using a primary pgx Pool
// for writes and a replica pgx Pool for reads, with optional configuration.
func NewStoreFromPGXPoolWithReplica(primary *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (Store, error) {
	if primary == nil || replica == nil {
		return Store{}, rehydrator.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapterWithReplica(primary, replica), options...)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, rehydrator.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, rehydrator.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

func newStore(db adapters.DBAdapter, options ...Option) (Store, error) {
	store := Store{
		db:              db,
		recordTableName: defaultRecordTableName,
	}

	for _, option := range options {
		if err := option(&store); err != nil {
			return Store{}, err
		}
	}

	return store, nil
}

// Fetch retrieves the simplified record stored for (collection, id) and
// returns it as a rehydrator.Document.
// It returns rehydrator.ErrRecordNotFound if no row exists for the key.
func (s Store) Fetch(ctx context.Context, collection string, id string) (rehydrator.Document, error) {
	if collection == "" {
		return nil, rehydrator.ErrEmptyCollectionName
	}

	if id == "" {
		return nil, rehydrator.ErrEmptyRecordID
	}

	sqlQuery, buildQueryErr := s.buildSelectQuery(collection, id)
	if buildQueryErr != nil {
		s.logError(ctx, logMsgBuildSelectQueryFailed, buildQueryErr)
		return nil, buildQueryErr
	}

	ctx, span := s.startSpan(ctx, spanNameFetch, map[string]string{
		spanAttrOperation:  logActionFetch,
		spanAttrCollection: collection,
		spanAttrRecordID:   id,
	})

	rows, duration, queryErr := s.executeFetchQuery(ctx, sqlQuery)
	if queryErr != nil {
		s.recordDurationMetric(ctx, metricFetchDuration, duration, statusError)
		s.finishSpanError(span, queryErr)

		return nil, queryErr
	}
	defer s.closeRows(ctx, rows)

	document, processErr := s.processFetchResult(ctx, rows)
	if processErr != nil {
		s.recordDurationMetric(ctx, metricFetchDuration, duration, fetchStatusForError(processErr))
		s.finishSpanError(span, processErr)

		return nil, processErr
	}

	s.recordDurationMetric(ctx, metricFetchDuration, duration, statusSuccess)
	s.finishSpanSuccess(span)
	s.logOperation(ctx, logMsgRecordFetched,
		logAttrCollection, collection,
		logAttrRecordID, id,
		logAttrDurationMS, toMilliseconds(duration))

	return document, nil
}

// Save stores the simplified record for (collection, id), inserting a new row
// or replacing the payload of an existing one.
func (s Store) Save(ctx context.Context, collection string, id string, document rehydrator.Document) error {
	if collection == "" {
		return rehydrator.ErrEmptyCollectionName
	}

	if id == "" {
		return rehydrator.ErrEmptyRecordID
	}

	payloadJSON, marshalErr := rehydrator.MarshalDocumentToJSON(document)
	if marshalErr != nil {
		s.logError(ctx, logMsgEncodePayloadFailed, marshalErr)
		return errors.Join(rehydrator.ErrSavingRecordFailed, marshalErr)
	}

	sqlQuery, buildQueryErr := s.buildUpsertQuery(collection, id, payloadJSON)
	if buildQueryErr != nil {
		s.logError(ctx, logMsgBuildUpsertQueryFailed, buildQueryErr)
		return buildQueryErr
	}

	ctx, span := s.startSpan(ctx, spanNameSave, map[string]string{
		spanAttrOperation:  logActionSave,
		spanAttrCollection: collection,
		spanAttrRecordID:   id,
	})

	rowsAffected, duration, execErr := s.executeSaveQuery(ctx, sqlQuery)
	if execErr != nil {
		s.recordDurationMetric(ctx, metricSaveDuration, duration, statusError)
		s.finishSpanError(span, execErr)

		return execErr
	}

	s.recordDurationMetric(ctx, metricSaveDuration, duration, statusSuccess)
	s.finishSpanSuccess(span)
	s.logOperation(ctx, logMsgRecordSaved,
		logAttrCollection, collection,
		logAttrRecordID, id,
		logAttrRowsAffected, rowsAffected,
		logAttrDurationMS, toMilliseconds(duration))

	return nil
}

// Delete removes the record stored for (collection, id).
// Deleting a record that does not exist is not an error.
func (s Store) Delete(ctx context.Context, collection string, id string) error {
	if collection == "" {
		return rehydrator.ErrEmptyCollectionName
	}

	if id == "" {
		return rehydrator.ErrEmptyRecordID
	}

	sqlQuery, buildQueryErr := s.buildDeleteQuery(collection, id)
	if buildQueryErr != nil {
		s.logError(ctx, logMsgBuildDeleteQueryFailed, buildQueryErr)
		return buildQueryErr
	}

	ctx, span := s.startSpan(ctx, spanNameDelete, map[string]string{
		spanAttrOperation:  logActionDelete,
		spanAttrCollection: collection,
		spanAttrRecordID:   id,
	})

	start := time.Now()
	result, execErr := s.db.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	s.logQueryWithDuration(ctx, sqlQuery, logActionDelete, duration)

	if execErr != nil {
		deleteErr := errors.Join(rehydrator.ErrSavingRecordFailed, execErr)
		s.recordDurationMetric(ctx, metricDeleteDuration, duration, statusError)
		s.finishSpanError(span, deleteErr)
		s.logError(ctx, logMsgDBDeleteFailed, execErr, logAttrQuery, sqlQuery)

		return deleteErr
	}

	rowsAffected := s.rowsAffectedOrZero(ctx, result)

	s.recordDurationMetric(ctx, metricDeleteDuration, duration, statusSuccess)
	s.finishSpanSuccess(span)
	s.logOperation(ctx, logMsgRecordDeleted,
		logAttrCollection, collection,
		logAttrRecordID, id,
		logAttrRowsAffected, rowsAffected,
		logAttrDurationMS, toMilliseconds(duration))

	return nil
}

// Health verifies that the underlying database connection is usable.
func (s Store) Health(ctx context.Context) error {
	rows, queryErr := s.db.Query(ctx, healthQuery)
	if queryErr != nil {
		return queryErr
	}

	return rows.Close()
}

// executeFetchQuery executes the SQL select query and returns rows with timing information.
func (s Store) executeFetchQuery(ctx context.Context, sqlQuery string) (
	adapters.DBRows,
	queryDuration,
	error,
) {

	start := time.Now()
	rows, queryErr := s.db.Query(ctx, sqlQuery)
	duration := time.Since(start)
	s.logQueryWithDuration(ctx, sqlQuery, logActionFetch, duration)

	if queryErr != nil {
		s.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		return nil, duration, errors.Join(rehydrator.ErrFetchingRecordFailed, queryErr)
	}

	return rows, duration, nil
}

// processFetchResult turns the single result row into a Document.
func (s Store) processFetchResult(ctx context.Context, rows adapters.DBRows) (rehydrator.Document, error) {
	if !rows.Next() {
		return nil, rehydrator.ErrRecordNotFound
	}

	var payload []byte

	if scanErr := rows.Scan(&payload); scanErr != nil {
		s.logError(ctx, logMsgScanRowFailed, scanErr)
		return nil, errors.Join(rehydrator.ErrFetchingRecordFailed, scanErr)
	}

	document, decodeErr := rehydrator.BuildDocumentFromJSON(payload)
	if decodeErr != nil {
		s.logError(ctx, logMsgDecodePayloadFailed, decodeErr)
		return nil, errors.Join(rehydrator.ErrDecodingPayloadFailed, decodeErr)
	}

	return document, nil
}

// executeSaveQuery executes the SQL upsert query and returns rows affected and duration.
func (s Store) executeSaveQuery(ctx context.Context, sqlQuery string) (
	rowsAffectedInt64,
	queryDuration,
	error,
) {

	start := time.Now()
	result, execErr := s.db.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	s.logQueryWithDuration(ctx, sqlQuery, logActionSave, duration)

	if execErr != nil {
		s.logError(ctx, logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)
		return 0, duration, errors.Join(rehydrator.ErrSavingRecordFailed, execErr)
	}

	return s.rowsAffectedOrZero(ctx, result), duration, nil
}

// rowsAffectedOrZero reads the affected row count, it only feeds log
// attributes so a failure is reported but does not fail the operation.
func (s Store) rowsAffectedOrZero(ctx context.Context, result adapters.DBResult) rowsAffectedInt64 {
	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		s.logWarn(ctx, logMsgRowsAffectedFailed, rowsAffectedErr)
		return 0
	}

	return rowsAffected
}

// closeRows safely closes database rows and logs any errors.
func (s Store) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		s.logWarn(ctx, logMsgCloseRowsFailed, closeErr)
	}
}

func (s Store) buildSelectQuery(collection string, id string) (sqlQueryString, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(s.recordTableName).
		Select(colPayload).
		Where(
			goqu.C(colCollection).Eq(collection),
			goqu.C(colRecordID).Eq(id),
		)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(rehydrator.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (s Store) buildUpsertQuery(collection string, id string, payloadJSON []byte) (sqlQueryString, error) {
	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(s.recordTableName).
		Cols(colCollection, colRecordID, colPayload).
		Vals(goqu.Vals{
			collection,
			id,
			goqu.L(castJsonb, string(payloadJSON)),
		}).
		OnConflict(goqu.DoUpdate(conflictTarget, goqu.Record{
			colPayload: goqu.L(castJsonb, string(payloadJSON)),
		}))

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(rehydrator.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (s Store) buildDeleteQuery(collection string, id string) (sqlQueryString, error) {
	deleteStmt := goqu.Dialect(dialectPostgres).
		Delete(s.recordTableName).
		Where(
			goqu.C(colCollection).Eq(collection),
			goqu.C(colRecordID).Eq(id),
		)

	sqlQuery, _, toSQLErr := deleteStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(rehydrator.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// fetchStatusForError maps a fetch failure to the metric status label.
func fetchStatusForError(err error) string {
	if errors.Is(err, rehydrator.ErrRecordNotFound) {
		return statusNotFound
	}

	return statusError
}

// Compile-time check that the store satisfies the engine's read interface.
var _ rehydrator.Store = Store{}
