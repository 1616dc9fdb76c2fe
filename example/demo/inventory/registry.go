package inventory

import (
	"github.com/badock/object-graph-rehydrator-go/rehydrator"
)

// BuildRegistry assembles the registry for the compute fleet domain.
func BuildRegistry() (*rehydrator.Registry, error) {
	registry := rehydrator.NewRegistry()

	builders := []func() (rehydrator.TypeBlueprint, error){
		BuildInstanceBlueprint,
		BuildVolumeBlueprint,
		BuildHypervisorBlueprint,
	}

	for _, build := range builders {
		blueprint, buildErr := build()
		if buildErr != nil {
			return nil, buildErr
		}

		if registerErr := registry.Register(blueprint); registerErr != nil {
			return nil, registerErr
		}
	}

	return registry, nil
}
