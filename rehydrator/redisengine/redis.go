package redisengine

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/badock/object-graph-rehydrator-go/rehydrator"
)

// DefaultKeyPrefix is prepended to every record key unless WithKeyPrefix
// overrides it.
const DefaultKeyPrefix = "record:"

const (
	logMsgRecordFetched  = "record fetched"
	logMsgRecordSaved    = "record saved"
	logMsgRecordDeleted  = "record deleted"
	logMsgFetchFailed    = "fetching record failed"
	logMsgSaveFailed     = "saving record failed"
	logMsgDeleteFailed   = "deleting record failed"
	logMsgDecodingFailed = "decoding record payload failed"
	logMsgEncodingFailed = "encoding record payload failed"

	logAttrError      = "error"
	logAttrDurationMS = "duration_ms"
	logAttrCollection = "collection"
	logAttrRecordID   = "record_id"
	logAttrKey        = "key"

	metricFetchDuration  = "rehydrator_store_fetch_duration_seconds"
	metricSaveDuration   = "rehydrator_store_save_duration_seconds"
	metricDeleteDuration = "rehydrator_store_delete_duration_seconds"

	labelEngine = "engine"
	labelStatus = "status"

	engineName = "redis"

	statusSuccess  = "success"
	statusError    = "error"
	statusNotFound = "not_found"

	spanNameFetch  = "redisengine.fetch"
	spanNameSave   = "redisengine.save"
	spanNameDelete = "redisengine.delete"

	spanAttrCollection = "collection"
	spanAttrRecordID   = "record_id"
	spanAttrError      = "error"

	pingTimeout = 5 * time.Second
)

// Store is a Redis-backed record store. Every record lives under one key,
// "<prefix><collection>:<id>", holding the record's simplified form as a JSON
// document. It implements rehydrator.Store and is safe for concurrent use.
type Store struct {
	client           *redis.Client
	keyPrefix        string
	ownsClient       bool
	logger           rehydrator.Logger
	contextualLogger rehydrator.ContextualLogger
	metricsCollector rehydrator.MetricsCollector
	tracingCollector rehydrator.TracingCollector
}

// NewStoreFromClient creates a Store on top of an existing Redis client. The
// caller keeps ownership of the client; Close on the store will not close it.
func NewStoreFromClient(client *redis.Client, options ...Option) (*Store, error) {
	if client == nil {
		return nil, rehydrator.ErrNilRedisClient
	}

	store := &Store{
		client:    client,
		keyPrefix: DefaultKeyPrefix,
	}

	for _, option := range options {
		if optionErr := option(store); optionErr != nil {
			return nil, optionErr
		}
	}

	return store, nil
}

// NewStoreFromURL creates a Store with its own Redis client, connected and
// pinged from the given URL, e.g. "redis://localhost:6379/0". The store owns
// this client, Close releases it.
func NewStoreFromURL(ctx context.Context, url string, options ...Option) (*Store, error) {
	opts, parseErr := redis.ParseURL(url)
	if parseErr != nil {
		return nil, errors.Join(rehydrator.ErrParsingRedisURLFailed, parseErr)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if pingErr := client.Ping(pingCtx).Err(); pingErr != nil {
		_ = client.Close()

		return nil, errors.Join(rehydrator.ErrConnectingToRedisFailed, pingErr)
	}

	store := &Store{
		client:     client,
		keyPrefix:  DefaultKeyPrefix,
		ownsClient: true,
	}

	for _, option := range options {
		if optionErr := option(store); optionErr != nil {
			_ = client.Close()

			return nil, optionErr
		}
	}

	return store, nil
}

// Fetch retrieves the record stored under (collection, id) and decodes it into
// a document. A missing key maps to rehydrator.ErrRecordNotFound.
func (s *Store) Fetch(ctx context.Context, collection string, id string) (rehydrator.Document, error) {
	if collection == "" {
		return nil, rehydrator.ErrEmptyCollectionName
	}

	if id == "" {
		return nil, rehydrator.ErrEmptyRecordID
	}

	key := s.recordKey(collection, id)

	start := time.Now()
	ctx, span := s.startSpan(ctx, spanNameFetch, map[string]string{
		spanAttrCollection: collection,
		spanAttrRecordID:   id,
	})

	payloadJSON, getErr := s.client.Get(ctx, key).Bytes()

	duration := time.Since(start)

	if errors.Is(getErr, redis.Nil) {
		s.recordDurationMetric(ctx, metricFetchDuration, duration, storeLabels(statusNotFound))
		s.finishSpanError(span, rehydrator.ErrRecordNotFound)

		return nil, rehydrator.ErrRecordNotFound
	}

	if getErr != nil {
		fetchErr := errors.Join(rehydrator.ErrFetchingRecordFailed, getErr)
		s.recordDurationMetric(ctx, metricFetchDuration, duration, storeLabels(statusError))
		s.finishSpanError(span, fetchErr)
		s.logErrorContext(ctx, logMsgFetchFailed, fetchErr, logAttrKey, key)

		return nil, fetchErr
	}

	doc, decodeErr := rehydrator.BuildDocumentFromJSON(payloadJSON)
	if decodeErr != nil {
		fetchErr := errors.Join(rehydrator.ErrDecodingPayloadFailed, decodeErr)
		s.recordDurationMetric(ctx, metricFetchDuration, duration, storeLabels(statusError))
		s.finishSpanError(span, fetchErr)
		s.logErrorContext(ctx, logMsgDecodingFailed, fetchErr, logAttrKey, key)

		return nil, fetchErr
	}

	s.recordDurationMetric(ctx, metricFetchDuration, duration, storeLabels(statusSuccess))
	s.finishSpanSuccess(span)
	s.logDebugContext(ctx, logMsgRecordFetched,
		logAttrCollection, collection,
		logAttrRecordID, id,
		logAttrDurationMS, duration.Milliseconds())

	return doc, nil
}

// Save encodes the document as JSON and stores it under (collection, id),
// replacing any previous record. The rehydration engine itself never saves;
// this serves seeding, tooling, and the round-trip tests.
func (s *Store) Save(ctx context.Context, collection string, id string, doc rehydrator.Document) error {
	if collection == "" {
		return rehydrator.ErrEmptyCollectionName
	}

	if id == "" {
		return rehydrator.ErrEmptyRecordID
	}

	payloadJSON, marshalErr := rehydrator.MarshalDocumentToJSON(doc)
	if marshalErr != nil {
		saveErr := errors.Join(rehydrator.ErrSavingRecordFailed, marshalErr)
		s.logErrorContext(ctx, logMsgEncodingFailed, saveErr,
			logAttrCollection, collection,
			logAttrRecordID, id)

		return saveErr
	}

	key := s.recordKey(collection, id)

	start := time.Now()
	ctx, span := s.startSpan(ctx, spanNameSave, map[string]string{
		spanAttrCollection: collection,
		spanAttrRecordID:   id,
	})

	setErr := s.client.Set(ctx, key, payloadJSON, 0).Err()

	duration := time.Since(start)

	if setErr != nil {
		saveErr := errors.Join(rehydrator.ErrSavingRecordFailed, setErr)
		s.recordDurationMetric(ctx, metricSaveDuration, duration, storeLabels(statusError))
		s.finishSpanError(span, saveErr)
		s.logErrorContext(ctx, logMsgSaveFailed, saveErr, logAttrKey, key)

		return saveErr
	}

	s.recordDurationMetric(ctx, metricSaveDuration, duration, storeLabels(statusSuccess))
	s.finishSpanSuccess(span)
	s.logDebugContext(ctx, logMsgRecordSaved,
		logAttrCollection, collection,
		logAttrRecordID, id,
		logAttrDurationMS, duration.Milliseconds())

	return nil
}

// Delete removes the record stored under (collection, id). Deleting a missing
// record is not an error.
func (s *Store) Delete(ctx context.Context, collection string, id string) error {
	if collection == "" {
		return rehydrator.ErrEmptyCollectionName
	}

	if id == "" {
		return rehydrator.ErrEmptyRecordID
	}

	key := s.recordKey(collection, id)

	start := time.Now()
	ctx, span := s.startSpan(ctx, spanNameDelete, map[string]string{
		spanAttrCollection: collection,
		spanAttrRecordID:   id,
	})

	delErr := s.client.Del(ctx, key).Err()

	duration := time.Since(start)

	if delErr != nil {
		deleteErr := errors.Join(rehydrator.ErrSavingRecordFailed, delErr)
		s.recordDurationMetric(ctx, metricDeleteDuration, duration, storeLabels(statusError))
		s.finishSpanError(span, deleteErr)
		s.logErrorContext(ctx, logMsgDeleteFailed, deleteErr, logAttrKey, key)

		return deleteErr
	}

	s.recordDurationMetric(ctx, metricDeleteDuration, duration, storeLabels(statusSuccess))
	s.finishSpanSuccess(span)
	s.logDebugContext(ctx, logMsgRecordDeleted,
		logAttrCollection, collection,
		logAttrRecordID, id,
		logAttrDurationMS, duration.Milliseconds())

	return nil
}

// Health checks whether the Redis connection is usable.
func (s *Store) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the Redis client if the store created it. Stores built on a
// caller-supplied client leave its lifecycle to the caller.
func (s *Store) Close() error {
	if !s.ownsClient {
		return nil
	}

	return s.client.Close()
}

func (s *Store) recordKey(collection string, id string) string {
	return s.keyPrefix + collection + ":" + id
}

func (s *Store) logDebugContext(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, msg, args...)

		return
	}

	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Store) logErrorContext(ctx context.Context, msg string, err error, args ...any) {
	attrs := append([]any{logAttrError, err.Error()}, args...)

	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, msg, attrs...)

		return
	}

	if s.logger != nil {
		s.logger.Error(msg, attrs...)
	}
}

func (s *Store) recordDurationMetric(ctx context.Context, metric string, duration time.Duration, labels map[string]string) {
	if s.metricsCollector == nil {
		return
	}

	if contextual, ok := s.metricsCollector.(rehydrator.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, duration, labels)

		return
	}

	s.metricsCollector.RecordDuration(metric, duration, labels)
}

func (s *Store) startSpan(ctx context.Context, name string, attributes map[string]string) (context.Context, rehydrator.SpanContext) {
	if s.tracingCollector == nil {
		return ctx, nil
	}

	return s.tracingCollector.StartSpan(ctx, name, attributes)
}

func (s *Store) finishSpanSuccess(span rehydrator.SpanContext) {
	if s.tracingCollector == nil || span == nil {
		return
	}

	s.tracingCollector.FinishSpan(span, statusSuccess, nil)
}

func (s *Store) finishSpanError(span rehydrator.SpanContext, err error) {
	if s.tracingCollector == nil || span == nil {
		return
	}

	s.tracingCollector.FinishSpan(span, statusError, map[string]string{
		spanAttrError: err.Error(),
	})
}

func storeLabels(status string) map[string]string {
	return map[string]string{labelEngine: engineName, labelStatus: status}
}

var _ rehydrator.Store = (*Store)(nil)
