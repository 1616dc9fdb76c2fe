package inventory

import (
	"time"

	"github.com/badock/object-graph-rehydrator-go/rehydrator"
)

const VolumeClassname = "Volume"

const VolumeCollection = "volumes"

// Volume is a block storage device attached to an instance. The instance
// back-link is not stored, it is restored by Instance.FixupRelationships.
type Volume struct {
	ID         string
	Device     string
	SizeGB     int64
	AttachedAt time.Time
	Instance   *Instance
}

func BuildVolumeBlueprint() (rehydrator.TypeBlueprint, error) {
	return rehydrator.BuildTypeBlueprint(VolumeClassname).
		ConstructedBy(func() any { return &Volume{} }).
		StoredInCollection(VolumeCollection).
		WithSetter("id", rehydrator.StringField(func(v *Volume, value string) { v.ID = value })).
		WithSetter("device", rehydrator.StringField(func(v *Volume, value string) { v.Device = value })).
		WithSetter("size_gb", rehydrator.IntField(func(v *Volume, value int64) { v.SizeGB = value })).
		WithSetter("attached_at", rehydrator.TimeField(func(v *Volume, value time.Time) { v.AttachedAt = value })).
		Finalize()
}
