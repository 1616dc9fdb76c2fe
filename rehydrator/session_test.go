package rehydrator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/badock/object-graph-rehydrator-go/rehydrator"
	"github.com/badock/object-graph-rehydrator-go/testutil/helper"
)

func Test_NewSession_StartsEmptyWithAUniqueID(t *testing.T) {
	first := rehydrator.NewSession()
	second := rehydrator.NewSession()

	assert.NotEmpty(t, first.ID())
	assert.NotEmpty(t, second.ID())
	assert.NotEqual(t, first.ID(), second.ID())

	assert.Equal(t, 0, first.ObjectCount())
	assert.Equal(t, 0, first.Report().Populated())
	assert.Equal(t, "0 populated, 0 recovered, 0 dropped", first.Report().String())
}

func Test_Session_CountsReconstructedObjects(t *testing.T) {
	engine, _ := helper.GivenEngineWithMemoryStore(t)
	session := rehydrator.NewSession()

	_, err := engine.Rehydrate(context.Background(), session,
		helper.FixtureServerRecordWithNetworks("srv-1", "net-1", "net-2"))
	assert.NoError(t, err)

	assert.Equal(t, 3, session.ObjectCount())

	// Rehydrating the same graph again adds nothing new.
	_, err = engine.Rehydrate(context.Background(), session,
		helper.FixtureServerRecordWithNetworks("srv-1", "net-1", "net-2"))
	assert.NoError(t, err)

	assert.Equal(t, 3, session.ObjectCount())
}
