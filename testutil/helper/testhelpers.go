package helper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/badock/object-graph-rehydrator-go/rehydrator"
	"github.com/badock/object-graph-rehydrator-go/test/userland"
)

// FixtureDatetimeValue is the wire form of the timestamp used by the record
// fixtures, FixtureCreatedAtTime is its parsed counterpart.
const FixtureDatetimeValue = "Jan 02 2020 03:04:05"

// FixtureSubnetValue is the wire form of the network prefix used by the
// record fixtures.
const FixtureSubnetValue = "10.0.0.0/24"

const (
	FixtureUserID    = "user-7"
	FixtureProjectID = "project-9"
)

// FixtureCreatedAtTime returns the time encoded by FixtureDatetimeValue.
func FixtureCreatedAtTime() time.Time {
	return time.Date(2020, time.January, 2, 3, 4, 5, 0, time.UTC)
}

// GivenUniqueID generates a unique record id for testing.
func GivenUniqueID(t testing.TB) string {
	id, err := uuid.NewV7()
	assert.NoError(t, err, "error in arranging test data")

	return id.String()
}

// FixtureDatetime builds a datetime-tagged mapping.
func FixtureDatetime(value string, timezone string) rehydrator.Document {
	doc := rehydrator.Document{
		rehydrator.KeyStrategy: rehydrator.StrategyDatetime,
		rehydrator.KeyValue:    value,
	}

	if timezone != "" {
		doc[rehydrator.KeyTimezone] = timezone
	}

	return doc
}

// FixtureIPNetwork builds an ip-network-tagged mapping.
func FixtureIPNetwork(value string) rehydrator.Document {
	return rehydrator.Document{
		rehydrator.KeyStrategy: rehydrator.StrategyIPNetwork,
		rehydrator.KeyValue:    value,
	}
}

// FixtureObjectRef builds an object-ref indirection stub carrying an explicit
// classname.
func FixtureObjectRef(classname string, collection string, id string) rehydrator.Document {
	return rehydrator.Document{
		rehydrator.KeyStrategy:   rehydrator.StrategyObjectRef,
		rehydrator.KeyClassname:  classname,
		rehydrator.KeyCollection: collection,
		rehydrator.KeyID:         id,
	}
}

// FixtureBareRef builds an object-ref indirection stub without a classname,
// so the engine has to resolve the type from the collection.
func FixtureBareRef(collection string, id string) rehydrator.Document {
	return rehydrator.Document{
		rehydrator.KeyStrategy:   rehydrator.StrategyObjectRef,
		rehydrator.KeyCollection: collection,
		rehydrator.KeyID:         id,
	}
}

// FixtureServerRecord builds the full simplified record of one server,
// without networks or host.
func FixtureServerRecord(serverID string) rehydrator.Document {
	return rehydrator.Document{
		rehydrator.KeyClassname:  userland.ServerClassname,
		rehydrator.KeyCollection: userland.ServerCollection,
		rehydrator.KeyID:         serverID,
		"name":                   "server-" + serverID,
		"state":                  "active",
		"vcpus":                  float64(4),
		"created_at":             FixtureDatetime(FixtureDatetimeValue, "UTC"),
		"subnet":                 FixtureIPNetwork(FixtureSubnetValue),
		"user_id":                FixtureUserID,
		"project_id":             FixtureProjectID,
	}
}

// FixtureServerRecordWithNetworks builds a full server record embedding the
// given networks as inline records.
func FixtureServerRecordWithNetworks(serverID string, networkIDs ...string) rehydrator.Document {
	networks := make(rehydrator.Sequence, 0, len(networkIDs))
	for _, networkID := range networkIDs {
		networks = append(networks, FixtureNetworkRecord(networkID))
	}

	doc := FixtureServerRecord(serverID)
	doc["networks"] = networks

	return doc
}

// FixtureNetworkRecord builds the full simplified record of one network,
// without a server back-reference.
func FixtureNetworkRecord(networkID string) rehydrator.Document {
	return rehydrator.Document{
		rehydrator.KeyClassname:  userland.NetworkClassname,
		rehydrator.KeyCollection: userland.NetworkCollection,
		rehydrator.KeyID:         networkID,
		"label":                  "net-" + networkID,
		"cidr":                   FixtureIPNetwork("192.168.0.0/16"),
	}
}

// FixtureSecurityGroupRecord builds the full simplified record of one
// security group.
func FixtureSecurityGroupRecord(groupID string) rehydrator.Document {
	return rehydrator.Document{
		rehydrator.KeyClassname:  userland.SecurityGroupClassname,
		rehydrator.KeyCollection: userland.SecurityGroupCollection,
		rehydrator.KeyID:         groupID,
		"name":                   "group-" + groupID,
		"rules":                  rehydrator.Sequence{"tcp:22", "tcp:80"},
		"user_id":                FixtureUserID,
		"project_id":             FixtureProjectID,
	}
}

// RecordSaver is the capability the seeding helpers need from a store.
type RecordSaver interface {
	Save(ctx context.Context, collection string, id string, doc rehydrator.Document) error
}

// GivenServerRecordWasSaved seeds a full server record into the store.
func GivenServerRecordWasSaved(
	t testing.TB,
	ctx context.Context, //nolint:revive
	store RecordSaver,
	serverID string,
) rehydrator.Document {

	doc := FixtureServerRecord(serverID)
	err := store.Save(ctx, userland.ServerCollection, serverID, doc)
	assert.NoError(t, err, "error in arranging test data")

	return doc
}

// GivenNetworkRecordWasSaved seeds a full network record into the store.
func GivenNetworkRecordWasSaved(
	t testing.TB,
	ctx context.Context, //nolint:revive
	store RecordSaver,
	networkID string,
) rehydrator.Document {

	doc := FixtureNetworkRecord(networkID)
	err := store.Save(ctx, userland.NetworkCollection, networkID, doc)
	assert.NoError(t, err, "error in arranging test data")

	return doc
}

// GivenSecurityGroupRecordWasSaved seeds a full security group record into
// the store.
func GivenSecurityGroupRecordWasSaved(
	t testing.TB,
	ctx context.Context, //nolint:revive
	store RecordSaver,
	groupID string,
) rehydrator.Document {

	doc := FixtureSecurityGroupRecord(groupID)
	err := store.Save(ctx, userland.SecurityGroupCollection, groupID, doc)
	assert.NoError(t, err, "error in arranging test data")

	return doc
}

// GivenEngineWithMemoryStore wires a fresh engine, registry, and in-memory
// store together, the default arrangement for the engine test suites.
func GivenEngineWithMemoryStore(t testing.TB, options ...rehydrator.Option) (*rehydrator.Engine, *MemoryStore) {
	registry, registryErr := userland.BuildRegistry()
	assert.NoError(t, registryErr, "error in arranging test data")

	store := NewMemoryStore()

	engine, engineErr := rehydrator.NewEngine(store, registry, options...)
	assert.NoError(t, engineErr, "error in arranging test data")

	return engine, store
}
