package inventory

import (
	"github.com/badock/object-graph-rehydrator-go/rehydrator"
)

const HypervisorClassname = "Hypervisor"

const HypervisorCollection = "hypervisors"

// Hypervisor is a physical machine instances are placed on. Many instances
// reference the same hypervisor, so within one session they all share the
// same reconstructed object.
type Hypervisor struct {
	ID            string
	FQDN          string
	Rack          string
	CapacityVCPUs int64
}

func BuildHypervisorBlueprint() (rehydrator.TypeBlueprint, error) {
	return rehydrator.BuildTypeBlueprint(HypervisorClassname).
		ConstructedBy(func() any { return &Hypervisor{} }).
		StoredInCollection(HypervisorCollection).
		WithSetter("id", rehydrator.StringField(func(h *Hypervisor, v string) { h.ID = v })).
		WithSetter("fqdn", rehydrator.StringField(func(h *Hypervisor, v string) { h.FQDN = v })).
		WithSetter("rack", rehydrator.StringField(func(h *Hypervisor, v string) { h.Rack = v })).
		WithSetter("capacity_vcpus", rehydrator.IntField(func(h *Hypervisor, v int64) { h.CapacityVCPUs = v })).
		Finalize()
}
