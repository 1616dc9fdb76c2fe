package rehydrator

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"time"
)

const (
	logMsgRehydrationCompleted  = "rehydration completed"
	logMsgRehydrationFailed     = "rehydration failed"
	logMsgLazyResolveCompleted  = "lazy reference resolved"
	logMsgLazyResolveFailed     = "resolving lazy reference failed"
	logMsgFieldDropped          = "dropped field during population"
	logMsgFieldRecovered        = "substituted empty sequence for null field"
	logMsgUnresolvableClassname = "could not resolve classname, producing no object"
	logMsgUnknownClassname      = "classname not registered, producing no object"
	logMsgMissingRecordID       = "record id missing, producing no object"
	logMsgOwnershipCopyFailed   = "direct ownership copy failed"
	logMsgOwnershipRepaired     = "ownership copy repaired a dropped field"

	logAttrError       = "error"
	logAttrDurationMS  = "duration_ms"
	logAttrSessionID   = "session_id"
	logAttrObjectCount = "object_count"
	logAttrClassname   = "classname"
	logAttrCollection  = "collection"
	logAttrRecordID    = "record_id"
	logAttrField       = "field"
	logAttrIdentityKey = "identity_key"
	logAttrReport      = "report"
)

const (
	metricRehydrateDuration   = "rehydrator_rehydrate_duration_seconds"
	metricLazyResolveDuration = "rehydrator_lazy_resolve_duration_seconds"
	metricObjectsRehydrated   = "rehydrator_objects_rehydrated_total"
	metricFieldsDropped       = "rehydrator_fields_dropped_total"
	metricFieldsRecovered     = "rehydrator_fields_recovered_total"

	labelOperation = "operation"
	labelStatus    = "status"
	labelClassname = "classname"

	statusSuccess = "success"
	statusError   = "error"

	operationRehydrate   = "rehydrate"
	operationLazyResolve = "lazy_resolve"

	spanNameRehydrate   = "rehydrator.rehydrate"
	spanNameLazyResolve = "rehydrator.lazy_resolve"

	spanAttrOperation   = "operation"
	spanAttrSessionID   = "session_id"
	spanAttrObjectCount = "object_count"
	spanAttrCollection  = "collection"
	spanAttrRecordID    = "record_id"
	spanAttrError       = "error"
)

// Store is the capability the engine requires from a record store: fetch the
// full simplified record stored under (collection, id). Implementations wrap
// concrete backends, see the redisengine and postgresengine packages.
type Store interface {
	Fetch(ctx context.Context, collection string, id string) (Document, error)
}

// Engine rehydrates simplified values into typed domain objects. It holds no
// per-request state, all of that lives in the Session, so a single Engine is
// safe to share across goroutines as long as each goroutine works on its own
// session.
type Engine struct {
	store            Store
	registry         TypeRegistry
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

// NewEngine creates a rehydration engine on top of the given record store and
// type registry.
func NewEngine(store Store, registry TypeRegistry, options ...Option) (*Engine, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	if registry == nil {
		return nil, ErrNilRegistry
	}

	engine := &Engine{
		store:    store,
		registry: registry,
	}

	for _, option := range options {
		if optionErr := option(engine); optionErr != nil {
			return nil, optionErr
		}
	}

	return engine, nil
}

// Rehydrate converts one simplified value into its typed in-memory form
// within the given session. Scalars come back unchanged, sequences are
// rebuilt element-wise, tagged mappings become time.Time, netip.Prefix, or
// reconstructed domain objects.
//
// Reconstruction failures that concern single fields are absorbed into the
// session's population report; store failures abort the whole call.
func (e *Engine) Rehydrate(ctx context.Context, session *Session, value any) (any, error) {
	if session == nil {
		return nil, ErrNilSession
	}

	start := time.Now()
	ctx, span := e.startSpan(ctx, spanNameRehydrate, map[string]string{
		spanAttrOperation: operationRehydrate,
		spanAttrSessionID: session.ID(),
	})

	objectsBefore := session.ObjectCount()

	result, rehydrateErr := e.rehydrateValue(ctx, session, value)

	duration := time.Since(start)

	if rehydrateErr != nil {
		e.recordDurationMetric(ctx, metricRehydrateDuration, duration, errorLabels(operationRehydrate))
		e.finishSpanError(span, rehydrateErr)
		e.logErrorContext(ctx, logMsgRehydrationFailed, rehydrateErr,
			logAttrSessionID, session.ID())

		return nil, rehydrateErr
	}

	objectCount := session.ObjectCount() - objectsBefore

	e.recordDurationMetric(ctx, metricRehydrateDuration, duration, successLabels(operationRehydrate))
	e.finishSpanSuccess(span, map[string]string{
		spanAttrObjectCount: strconv.Itoa(objectCount),
	})
	e.logDebugContext(ctx, logMsgRehydrationCompleted,
		logAttrDurationMS, duration.Milliseconds(),
		logAttrObjectCount, objectCount,
		logAttrSessionID, session.ID(),
		logAttrReport, session.Report().String())

	return result, nil
}

// rehydrateValue dispatches one simplified value by shape. Scalars pass
// through untouched, sequences recurse element-wise, mappings go through
// strategy and object dispatch.
func (e *Engine) rehydrateValue(ctx context.Context, session *Session, value any) (any, error) {
	switch typed := value.(type) {
	case nil:
		return nil, nil
	case Sequence:
		out := make(Sequence, 0, len(typed))

		for _, element := range typed {
			rehydrated, elementErr := e.rehydrateValue(ctx, session, element)
			if elementErr != nil {
				return nil, elementErr
			}

			out = append(out, rehydrated)
		}

		return out, nil
	case Document:
		return e.rehydrateMapping(ctx, session, typed)
	default:
		return value, nil
	}
}

func (e *Engine) rehydrateMapping(ctx context.Context, session *Session, doc Document) (any, error) {
	switch strategyOf(doc) {
	case StrategyDatetime:
		return rehydrateDatetime(doc)
	case StrategyIPNetwork:
		return rehydrateIPNetwork(doc)
	}

	classname := classnameOf(doc)
	if classname == "" && isIndirection(doc) {
		classname, _ = e.registry.ClassnameForCollection(collectionOf(doc))
	}

	if classname == "" {
		if hasClassnameKey(doc) || isIndirection(doc) {
			e.logWarnContext(ctx, logMsgUnresolvableClassname,
				logAttrCollection, collectionOf(doc))

			return nil, nil
		}

		// A mapping without type tags is plain data and passes through.
		return doc, nil
	}

	id, hasID := recordID(doc)
	if !hasID {
		e.logWarnContext(ctx, logMsgMissingRecordID, logAttrClassname, classname)

		return nil, nil
	}

	return e.reconstructObject(ctx, session, doc, classname, id)
}

// resolveReference fetches the full record stored under (collection, id) and
// reconstructs the object it describes. Lazy references resolve through this.
func (e *Engine) resolveReference(ctx context.Context, session *Session, collection string, id string) (any, error) {
	record, fetchErr := e.store.Fetch(ctx, collection, id)
	if fetchErr != nil {
		return nil, fetchErr
	}

	classname := classnameOf(record)
	if classname == "" {
		classname, _ = e.registry.ClassnameForCollection(collection)
	}

	if classname == "" {
		e.logWarnContext(ctx, logMsgUnresolvableClassname,
			logAttrCollection, collection,
			logAttrRecordID, id)

		return nil, nil
	}

	recordedID, hasID := recordID(record)
	if !hasID {
		recordedID = id
	}

	return e.reconstructObject(ctx, session, record, classname, recordedID)
}

// reconstructObject turns one object-tagged record into a live domain object.
// The empty instance enters the session cache before any field is populated,
// so cyclic references find it instead of recursing forever.
func (e *Engine) reconstructObject(
	ctx context.Context,
	session *Session,
	doc Document,
	classname string,
	id string,
) (any, error) {
	key := identityKey(classname, id)

	if cached, hit := session.lookup(key); hit {
		return cached, nil
	}

	blueprint, known := e.registry.BlueprintFor(classname)
	if !known {
		e.logWarnContext(ctx, logMsgUnknownClassname,
			logAttrClassname, classname,
			logAttrRecordID, id)

		return nil, nil
	}

	obj := blueprint.spawn()
	session.store(key, obj)

	record := doc

	if isIndirection(doc) {
		collection := collectionOf(doc)
		if collection == "" {
			collection = blueprint.Collection()
		}

		fetched, fetchErr := e.store.Fetch(ctx, collection, id)
		if fetchErr != nil {
			return nil, fetchErr
		}

		record = fetched
	}

	if populateErr := e.populateObject(ctx, session, blueprint, obj, record, key); populateErr != nil {
		return nil, populateErr
	}

	if fixer, ok := obj.(RelationshipFixer); ok {
		fixer.FixupRelationships()
	}

	e.incrementCounterMetric(ctx, metricObjectsRehydrated,
		map[string]string{labelClassname: classname})

	reconstructed, _ := session.lookup(key)

	return reconstructed, nil
}

// populateObject assigns all domain fields of one record in sorted field
// order, then copies the ownership fields verbatim.
func (e *Engine) populateObject(
	ctx context.Context,
	session *Session,
	blueprint TypeBlueprint,
	obj any,
	record Document,
	key IdentityKeyString,
) error {
	fields := make([]string, 0, len(record))

	for name := range record {
		if isBookkeepingKey(name) {
			continue
		}

		fields = append(fields, name)
	}

	slices.Sort(fields)

	for _, field := range fields {
		if fieldErr := e.populateField(ctx, session, blueprint, obj, key, field, record[field]); fieldErr != nil {
			return fieldErr
		}
	}

	e.copyOwnershipFields(ctx, session, blueprint, obj, record, key)

	return nil
}

// populateField rehydrates and assigns a single field. Strategy handler
// failures and assignment failures are absorbed into the population report;
// only store failures from nested references bubble up.
func (e *Engine) populateField(
	ctx context.Context,
	session *Session,
	blueprint TypeBlueprint,
	obj any,
	key IdentityKeyString,
	field string,
	raw any,
) error {
	setter, hasSetter := blueprint.setterFor(field)
	if !hasSetter {
		e.reportDroppedField(ctx, session, blueprint, key, field, ErrNoFieldSetter)

		return nil
	}

	value, rehydrateErr := e.rehydrateValue(ctx, session, raw)
	if rehydrateErr != nil {
		if isHandlerError(rehydrateErr) {
			e.reportDroppedField(ctx, session, blueprint, key, field, rehydrateErr)

			return nil
		}

		return rehydrateErr
	}

	assignErr := setter(obj, value)
	if assignErr == nil {
		session.report.add(FieldReport{IdentityKey: key, Field: field, Outcome: FieldPopulated})

		return nil
	}

	if value == nil && errors.Is(assignErr, ErrNilSequence) {
		if retryErr := setter(obj, Sequence{}); retryErr == nil {
			session.report.add(FieldReport{IdentityKey: key, Field: field, Outcome: FieldRecovered})
			e.logDebugContext(ctx, logMsgFieldRecovered,
				logAttrIdentityKey, key,
				logAttrField, field)
			e.incrementCounterMetric(ctx, metricFieldsRecovered,
				map[string]string{labelClassname: blueprint.Classname()})

			return nil
		}
	}

	e.reportDroppedField(ctx, session, blueprint, key, field, assignErr)

	return nil
}

// copyOwnershipFields copies user_id and project_id from the record verbatim
// after the generic loop ran, so ownership attribution survives any
// suppressed assignment failure.
func (e *Engine) copyOwnershipFields(
	ctx context.Context,
	session *Session,
	blueprint TypeBlueprint,
	obj any,
	record Document,
	key IdentityKeyString,
) {
	for _, field := range [...]string{keyUserID, keyProjectID} {
		raw, present := record[field]
		if !present {
			continue
		}

		setter, hasSetter := blueprint.setterFor(field)
		if !hasSetter {
			continue
		}

		if copyErr := setter(obj, raw); copyErr != nil {
			e.logWarnContext(ctx, logMsgOwnershipCopyFailed,
				logAttrIdentityKey, key,
				logAttrField, field,
				logAttrError, copyErr.Error())

			continue
		}

		if outcome, recorded := session.report.outcomeOf(key, field); recorded && outcome == FieldDropped {
			session.report.amend(key, field, FieldRecovered, nil)
			e.logDebugContext(ctx, logMsgOwnershipRepaired,
				logAttrIdentityKey, key,
				logAttrField, field)
		}
	}
}

func (e *Engine) reportDroppedField(
	ctx context.Context,
	session *Session,
	blueprint TypeBlueprint,
	key IdentityKeyString,
	field string,
	cause error,
) {
	session.report.add(FieldReport{IdentityKey: key, Field: field, Outcome: FieldDropped, Err: cause})
	e.logWarnContext(ctx, logMsgFieldDropped,
		logAttrIdentityKey, key,
		logAttrField, field,
		logAttrError, cause.Error())
	e.incrementCounterMetric(ctx, metricFieldsDropped,
		map[string]string{labelClassname: blueprint.Classname()})
}

func (e *Engine) logDebugContext(ctx context.Context, msg string, args ...any) {
	if e.contextualLogger != nil {
		e.contextualLogger.DebugContext(ctx, msg, args...)

		return
	}

	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}

func (e *Engine) logWarnContext(ctx context.Context, msg string, args ...any) {
	if e.contextualLogger != nil {
		e.contextualLogger.WarnContext(ctx, msg, args...)

		return
	}

	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}

func (e *Engine) logErrorContext(ctx context.Context, msg string, err error, args ...any) {
	attrs := append([]any{logAttrError, err.Error()}, args...)

	if e.contextualLogger != nil {
		e.contextualLogger.ErrorContext(ctx, msg, attrs...)

		return
	}

	if e.logger != nil {
		e.logger.Error(msg, attrs...)
	}
}

func (e *Engine) recordDurationMetric(ctx context.Context, metric string, duration time.Duration, labels map[string]string) {
	if e.metricsCollector == nil {
		return
	}

	if contextual, ok := e.metricsCollector.(ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, duration, labels)

		return
	}

	e.metricsCollector.RecordDuration(metric, duration, labels)
}

func (e *Engine) incrementCounterMetric(ctx context.Context, metric string, labels map[string]string) {
	if e.metricsCollector == nil {
		return
	}

	if contextual, ok := e.metricsCollector.(ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)

		return
	}

	e.metricsCollector.IncrementCounter(metric, labels)
}

func (e *Engine) startSpan(ctx context.Context, name string, attributes map[string]string) (context.Context, SpanContext) {
	if e.tracingCollector == nil {
		return ctx, nil
	}

	return e.tracingCollector.StartSpan(ctx, name, attributes)
}

func (e *Engine) finishSpanSuccess(span SpanContext, attributes map[string]string) {
	if e.tracingCollector == nil || span == nil {
		return
	}

	e.tracingCollector.FinishSpan(span, statusSuccess, attributes)
}

func (e *Engine) finishSpanError(span SpanContext, err error) {
	if e.tracingCollector == nil || span == nil {
		return
	}

	e.tracingCollector.FinishSpan(span, statusError, map[string]string{
		spanAttrError: err.Error(),
	})
}

func successLabels(operation string) map[string]string {
	return map[string]string{labelOperation: operation, labelStatus: statusSuccess}
}

func errorLabels(operation string) map[string]string {
	return map[string]string{labelOperation: operation, labelStatus: statusError}
}
