package userland

import (
	"github.com/badock/object-graph-rehydrator-go/rehydrator"
)

// BuildRegistry assembles the registry for the compute inventory domain used
// across the test suites.
func BuildRegistry() (*rehydrator.Registry, error) {
	registry := rehydrator.NewRegistry()

	builders := []func() (rehydrator.TypeBlueprint, error){
		BuildServerBlueprint,
		BuildNetworkBlueprint,
		BuildSecurityGroupBlueprint,
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
