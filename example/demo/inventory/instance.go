package inventory

import (
	"net/netip"
	"time"

	"github.com/badock/object-graph-rehydrator-go/rehydrator"
)

const InstanceClassname = "Instance"

const InstanceCollection = "instances"

// Instance is a running compute instance together with its attached volumes.
// The host field points at the hypervisor the instance is placed on, stored
// as a reference and fetched when the instance is rehydrated.
type Instance struct {
	ID         string
	Hostname   string
	Flavor     string
	VCPUs      int64
	LaunchedAt time.Time
	Subnet     netip.Prefix
	UserID     string
	ProjectID  string
	Volumes    []*Volume
	Host       *Hypervisor
}

// FixupRelationships back-links every attached volume to this instance.
func (i *Instance) FixupRelationships() {
	for _, volume := range i.Volumes {
		if volume != nil {
			volume.Instance = i
		}
	}
}

func BuildInstanceBlueprint() (rehydrator.TypeBlueprint, error) {
	return rehydrator.BuildTypeBlueprint(InstanceClassname).
		ConstructedBy(func() any { return &Instance{} }).
		StoredInCollection(InstanceCollection).
		WithSetter("id", rehydrator.StringField(func(i *Instance, v string) { i.ID = v })).
		WithSetter("hostname", rehydrator.StringField(func(i *Instance, v string) { i.Hostname = v })).
		WithSetter("flavor", rehydrator.StringField(func(i *Instance, v string) { i.Flavor = v })).
		WithSetter("vcpus", rehydrator.IntField(func(i *Instance, v int64) { i.VCPUs = v })).
		WithSetter("launched_at", rehydrator.TimeField(func(i *Instance, v time.Time) { i.LaunchedAt = v })).
		WithSetter("subnet", rehydrator.PrefixField(func(i *Instance, v netip.Prefix) { i.Subnet = v })).
		WithSetter("user_id", rehydrator.StringField(func(i *Instance, v string) { i.UserID = v })).
		WithSetter("project_id", rehydrator.StringField(func(i *Instance, v string) { i.ProjectID = v })).
		WithSetter("volumes", rehydrator.SliceField(func(i *Instance, v []*Volume) { i.Volumes = v })).
		WithSetter("host", rehydrator.ObjectField(func(i *Instance, v *Hypervisor) { i.Host = v })).
		Finalize()
}
