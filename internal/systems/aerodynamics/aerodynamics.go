// Package aerodynamics provides lift-induced drag estimation.
package aerodynamics

import (
	"context"
	"math"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/goad/internal/registry"
)

// Module registers the aerodynamics systems.
type Module struct{}

func (Module) Register(r *registry.Registry) error {
	return r.Register(&registry.Definition{
		ID:          "aerodynamics.induced_drag",
		Description: "lift-induced drag coefficient from the lifting-line model",
		Inputs: []registry.PortDef{
			{Name: "data:aerodynamics:cruise:cl", Desc: "cruise lift coefficient"},
			{Name: "data:geometry:wing:aspect_ratio", Default: []float64{9.5}},
		},
		Outputs: []registry.PortDef{
			{Name: "data:aerodynamics:cruise:cdi"},
		},
		Options: map[string]cty.Value{
			// Oswald efficiency factor
			"oswald": cty.NumberFloatVal(0.8),
		},
	}, computeInducedDrag)
}

func computeInducedDrag(ctx context.Context, call *registry.Call) error {
	cl := call.InputScalar("data:aerodynamics:cruise:cl")
	ar := call.InputScalar("data:geometry:wing:aspect_ratio")
	oswald, err := call.OptionFloat("oswald")
	if err != nil {
		return err
	}

	call.SetOutputScalar("data:aerodynamics:cruise:cdi", cl*cl/(math.Pi*ar*oswald))
	return nil
}
