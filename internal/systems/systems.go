// Package systems bundles the built-in computation modules.
package systems

import (
	"github.com/vk/goad/internal/registry"
	"github.com/vk/goad/internal/systems/aerodynamics"
	"github.com/vk/goad/internal/systems/geometry"
	"github.com/vk/goad/internal/systems/mass"
	"github.com/vk/goad/internal/systems/sellar"
)

// RegisterAll registers every built-in module.
func RegisterAll(r *registry.Registry) error {
	modules := []registry.Module{
		sellar.Module{},
		geometry.Module{},
		aerodynamics.Module{},
		mass.Module{},
	}
	for _, m := range modules {
		if err := m.Register(r); err != nil {
			return err
		}
	}
	return nil
}
