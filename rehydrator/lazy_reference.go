package rehydrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// LazyReferenceOption configures a LazyReference during construction.
type LazyReferenceOption func(*LazyReference) error

// WithSharedSession makes the reference resolve into an existing session
// instead of a private one, so it shares the identity cache with everything
// else that session has reconstructed.
func WithSharedSession(session *Session) LazyReferenceOption {
	return func(ref *LazyReference) error {
		if session == nil {
			return ErrNilSession
		}

		ref.session = session

		return nil
	}
}

// LazyReference is a stand-in for a stored domain object, known only by its
// (collection, id) coordinates. Construction never touches the store; the
// record is fetched on the first Resolve call and never again, whether that
// first attempt succeeded or failed. A failed resolve is permanent for this
// reference, create a new one to retry.
//
// The resolve itself is guarded for concurrent callers, but the underlying
// session is not, so resolve shared-session references from one goroutine.
type LazyReference struct {
	engine     *Engine
	collection string
	id         string
	session    *Session

	resolveOnce sync.Once
	resolved    any
	resolveErr  error
}

// NewLazyReference creates a lazy reference to the record stored under
// (collection, id). Without options it resolves into a fresh private session.
func NewLazyReference(engine *Engine, collection string, id string, options ...LazyReferenceOption) (*LazyReference, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}

	if collection == "" {
		return nil, ErrEmptyCollectionName
	}

	if id == "" {
		return nil, ErrEmptyRecordID
	}

	ref := &LazyReference{
		engine:     engine,
		collection: collection,
		id:         id,
	}

	for _, option := range options {
		if optionErr := option(ref); optionErr != nil {
			return nil, optionErr
		}
	}

	if ref.session == nil {
		ref.session = NewSession()
	}

	return ref, nil
}

// Collection returns the store collection this reference points into.
func (ref *LazyReference) Collection() string {
	return ref.collection
}

// ID returns the record id this reference points at.
func (ref *LazyReference) ID() string {
	return ref.id
}

// Session returns the session this reference resolves into.
func (ref *LazyReference) Session() *Session {
	return ref.session
}

// Resolve fetches and reconstructs the referenced object. The store is hit at
// most once over the lifetime of the reference; later calls return the
// memoized object or the memoized error. A nil result with a nil error means
// the record exists but names no reconstructible type.
func (ref *LazyReference) Resolve(ctx context.Context) (any, error) {
	ref.resolveOnce.Do(func() {
		engine := ref.engine

		start := time.Now()
		ctx, span := engine.startSpan(ctx, spanNameLazyResolve, map[string]string{
			spanAttrOperation:  operationLazyResolve,
			spanAttrCollection: ref.collection,
			spanAttrRecordID:   ref.id,
		})

		resolved, resolveErr := engine.resolveReference(ctx, ref.session, ref.collection, ref.id)

		duration := time.Since(start)

		if resolveErr != nil {
			engine.recordDurationMetric(ctx, metricLazyResolveDuration, duration, errorLabels(operationLazyResolve))
			engine.finishSpanError(span, resolveErr)
			engine.logErrorContext(ctx, logMsgLazyResolveFailed, resolveErr,
				logAttrCollection, ref.collection,
				logAttrRecordID, ref.id)

			ref.resolveErr = resolveErr

			return
		}

		engine.recordDurationMetric(ctx, metricLazyResolveDuration, duration, successLabels(operationLazyResolve))
		engine.finishSpanSuccess(span, nil)
		engine.logDebugContext(ctx, logMsgLazyResolveCompleted,
			logAttrCollection, ref.collection,
			logAttrRecordID, ref.id,
			logAttrDurationMS, duration.Milliseconds())

		ref.resolved = resolved
	})

	return ref.resolved, ref.resolveErr
}

// IsPresent resolves the reference and reports whether it yielded an object.
// Unlike String, this does touch the store.
func (ref *LazyReference) IsPresent(ctx context.Context) (bool, error) {
	resolved, resolveErr := ref.Resolve(ctx)
	if resolveErr != nil {
		return false, resolveErr
	}

	return resolved != nil, nil
}

// String renders the reference from its coordinates alone. Logging and
// debugger display of an unresolved reference never trigger a fetch.
func (ref *LazyReference) String() string {
	return fmt.Sprintf("Lazy(%s_%s)", ref.collection, ref.id)
}

var _ fmt.Stringer = (*LazyReference)(nil)

// Resolved wraps a LazyReference with a typed accessor, sparing callers the
// type assertion on the resolved object.
type Resolved[T any] struct {
	ref *LazyReference
}

// ResolvedAs types an existing lazy reference as T.
func ResolvedAs[T any](ref *LazyReference) Resolved[T] {
	return Resolved[T]{ref: ref}
}

// Get resolves the underlying reference and returns the object as T. An
// absent object comes back as the zero value of T with a nil error.
func (r Resolved[T]) Get(ctx context.Context) (T, error) {
	var zero T

	if r.ref == nil {
		return zero, ErrNilReference
	}

	resolved, resolveErr := r.ref.Resolve(ctx)
	if resolveErr != nil {
		return zero, resolveErr
	}

	if resolved == nil {
		return zero, nil
	}

	typed, ok := resolved.(T)
	if !ok {
		return zero, errors.Join(
			ErrResolvedWrongType,
			fmt.Errorf("expected %T, got %T", zero, resolved))
	}

	return typed, nil
}

// Ref returns the underlying untyped reference.
func (r Resolved[T]) Ref() *LazyReference {
	return r.ref
}
