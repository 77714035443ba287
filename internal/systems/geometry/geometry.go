// Package geometry provides wing geometry estimation systems.
package geometry

import (
	"context"
	"math"

	"github.com/vk/goad/internal/registry"
)

// Module registers the geometry systems.
type Module struct{}

func (Module) Register(r *registry.Registry) error {
	return r.Register(&registry.Definition{
		ID:          "geometry.wing",
		Description: "wing planform from reference area and aspect ratio",
		Inputs: []registry.PortDef{
			{Name: "data:geometry:wing:area", Units: "m**2", Desc: "wing reference area"},
			{Name: "data:geometry:wing:aspect_ratio", Default: []float64{9.5}},
		},
		Outputs: []registry.PortDef{
			{Name: "data:geometry:wing:span", Units: "m"},
			{Name: "data:geometry:wing:mean_chord", Units: "m"},
		},
	}, computeWing)
}

func computeWing(ctx context.Context, call *registry.Call) error {
	area := call.InputScalar("data:geometry:wing:area")
	ar := call.InputScalar("data:geometry:wing:aspect_ratio")

	span := math.Sqrt(ar * area)
	call.SetOutputScalar("data:geometry:wing:span", span)
	call.SetOutputScalar("data:geometry:wing:mean_chord", area/span)
	return nil
}
