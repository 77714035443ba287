// Package mass provides structural mass estimation systems.
package mass

import (
	"context"
	"math"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/goad/internal/registry"
)

// Module registers the mass systems.
type Module struct{}

func (Module) Register(r *registry.Registry) error {
	return r.Register(&registry.Definition{
		ID:          "mass.wing",
		Description: "statistical wing mass from planform and takeoff weight",
		Inputs: []registry.PortDef{
			{Name: "data:geometry:wing:area", Units: "m**2"},
			{Name: "data:weight:aircraft:mtow", Units: "kg", Desc: "maximum takeoff weight"},
		},
		Outputs: []registry.PortDef{
			{Name: "data:weight:airframe:wing:mass", Units: "kg"},
		},
		Options: map[string]cty.Value{
			// regression coefficient of the statistical model
			"k_factor": cty.NumberFloatVal(2.5),
		},
	}, computeWingMass)
}

func computeWingMass(ctx context.Context, call *registry.Call) error {
	area := call.InputScalar("data:geometry:wing:area")
	mtow := call.InputScalar("data:weight:aircraft:mtow")
	k, err := call.OptionFloat("k_factor")
	if err != nil {
		return err
	}

	call.SetOutputScalar("data:weight:airframe:wing:mass",
		k*math.Pow(area, 0.7)*math.Pow(mtow, 0.3))
	return nil
}
