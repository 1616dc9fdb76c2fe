package rehydrator_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/badock/object-graph-rehydrator-go/rehydrator"
	"github.com/badock/object-graph-rehydrator-go/test/userland"
	"github.com/badock/object-graph-rehydrator-go/testutil/helper"
)

// auditedVolume exists to exercise population with a setter that validates.
type auditedVolume struct {
	ID     string
	UserID string
}

// linkedRack counts relationship fixup invocations.
type linkedRack struct {
	ID     string
	fixups int
}

func (r *linkedRack) FixupRelationships() {
	r.fixups++
}

func givenEngineForBlueprint(t *testing.T, blueprint rehydrator.TypeBlueprint) *rehydrator.Engine {
	t.Helper()

	registry := rehydrator.NewRegistry()
	assert.NoError(t, registry.Register(blueprint), "error in arranging test data")

	engine, err := rehydrator.NewEngine(helper.NewMemoryStore(), registry)
	assert.NoError(t, err, "error in arranging test data")

	return engine
}

//nolint:funlen
func Test_Engine_OwnershipCopy(t *testing.T) {
	ctx := context.Background()

	t.Run("direct_copy_repairs_a_dropped_ownership_field", func(t *testing.T) {
		errRejected := errors.New("user id rejected")
		attempts := 0

		blueprint, buildErr := rehydrator.BuildTypeBlueprint("AuditedVolume").
			ConstructedBy(func() any { return &auditedVolume{} }).
			StoredInCollection("audited_volumes").
			WithSetter("id", rehydrator.StringField(func(v *auditedVolume, value string) { v.ID = value })).
			WithSetter("user_id", func(obj any, value any) error {
				volume, ok := obj.(*auditedVolume)
				if !ok {
					return rehydrator.ErrWrongObjectType
				}

				attempts++
				if attempts == 1 {
					return errRejected
				}

				owner, ok := value.(string)
				if !ok {
					return rehydrator.ErrUnassignableFieldValue
				}

				volume.UserID = owner

				return nil
			}).
			Finalize()
		assert.NoError(t, buildErr)

		engine := givenEngineForBlueprint(t, blueprint)
		session := rehydrator.NewSession()

		doc := rehydrator.Document{
			rehydrator.KeyClassname: "AuditedVolume",
			rehydrator.KeyID:        "vol-1",
			"user_id":               "user-7",
		}

		result, err := engine.Rehydrate(ctx, session, doc)

		assert.NoError(t, err)
		volume, ok := result.(*auditedVolume)
		assert.True(t, ok)
		assert.Equal(t, "vol-1", volume.ID)
		assert.Equal(t, "user-7", volume.UserID)
		assert.Equal(t, 2, attempts)

		assert.Equal(t, 1, session.Report().Populated())
		assert.Equal(t, 1, session.Report().Recovered())
		assert.Equal(t, 0, session.Report().Dropped())
	})

	t.Run("failed_direct_copy_leaves_the_field_dropped", func(t *testing.T) {
		logSpy := helper.NewLogHandlerSpy(false)
		engine, _ := helper.GivenEngineWithMemoryStore(t, rehydrator.WithLogger(slog.New(logSpy)))
		session := rehydrator.NewSession()

		doc := helper.FixtureServerRecord("srv-1")
		doc["user_id"] = float64(77)

		result, err := engine.Rehydrate(ctx, session, doc)

		assert.NoError(t, err)
		server, ok := result.(*userland.Server)
		assert.True(t, ok)
		assert.Empty(t, server.UserID)

		dropped := session.Report().DroppedFields()
		assert.Len(t, dropped, 1)
		assert.Equal(t, "user_id", dropped[0].Field)
		assert.True(t, logSpy.
			HasWarnLogWithMessage("direct ownership copy failed").
			WithAttribute("field", "user_id").
			Assert())
	})

	t.Run("ownership_fields_are_not_double_counted_on_success", func(t *testing.T) {
		engine, _ := helper.GivenEngineWithMemoryStore(t)
		session := rehydrator.NewSession()

		_, err := engine.Rehydrate(ctx, session, helper.FixtureServerRecord("srv-1"))

		assert.NoError(t, err)
		assert.Equal(t, 8, session.Report().Populated())
		assert.Equal(t, 0, session.Report().Recovered())
	})
}

func Test_Engine_RelationshipFixup_RunsOncePerObject(t *testing.T) {
	ctx := context.Background()

	blueprint, buildErr := rehydrator.BuildTypeBlueprint("Rack").
		ConstructedBy(func() any { return &linkedRack{} }).
		StoredInCollection("racks").
		WithSetter("id", rehydrator.StringField(func(r *linkedRack, value string) { r.ID = value })).
		Finalize()
	assert.NoError(t, buildErr)

	engine := givenEngineForBlueprint(t, blueprint)
	session := rehydrator.NewSession()

	doc := rehydrator.Document{
		rehydrator.KeyClassname: "Rack",
		rehydrator.KeyID:        "rack-1",
	}

	first, err := engine.Rehydrate(ctx, session, doc)
	assert.NoError(t, err)

	second, err := engine.Rehydrate(ctx, session, doc)
	assert.NoError(t, err)

	rack, ok := first.(*linkedRack)
	assert.True(t, ok)
	assert.Same(t, rack, second.(*linkedRack))
	assert.Equal(t, 1, rack.fixups)
}
