// Package sellar provides the classic two-discipline Sellar problem, used
// as the reference coupled model for solver and analysis testing.
package sellar

import (
	"context"
	"math"

	"github.com/vk/goad/internal/registry"
)

// Module registers the Sellar disciplines and its objective/constraint
// functions.
type Module struct{}

func (Module) Register(r *registry.Registry) error {
	for _, def := range definitions() {
		if err := r.Register(def.def, def.compute); err != nil {
			return err
		}
	}
	return nil
}

type entry struct {
	def     *registry.Definition
	compute registry.Compute
}

func definitions() []entry {
	return []entry{
		{
			def: &registry.Definition{
				ID:          "sellar.disc1",
				Description: "first discipline of the Sellar problem",
				Inputs: []registry.PortDef{
					{Name: "x", Desc: "local design variable"},
					{Name: "z", Default: []float64{5, 2}, Desc: "shared design variables"},
					{Name: "y2", Default: []float64{1}, Desc: "coupling from discipline 2"},
				},
				Outputs: []registry.PortDef{{Name: "y1"}},
			},
			compute: disc1,
		},
		{
			def: &registry.Definition{
				ID:          "sellar.disc2",
				Description: "second discipline of the Sellar problem",
				Inputs: []registry.PortDef{
					{Name: "z", Default: []float64{5, 2}, Desc: "shared design variables"},
					{Name: "y1", Default: []float64{1}, Desc: "coupling from discipline 1"},
				},
				Outputs: []registry.PortDef{{Name: "y2"}},
			},
			compute: disc2,
		},
		{
			def: &registry.Definition{
				ID:          "sellar.functions",
				Description: "objective and constraints of the Sellar problem",
				Inputs: []registry.PortDef{
					{Name: "x", Desc: "local design variable"},
					{Name: "z", Default: []float64{5, 2}},
					{Name: "y1", Default: []float64{1}},
					{Name: "y2", Default: []float64{1}},
				},
				Outputs: []registry.PortDef{
					{Name: "f"}, {Name: "g1"}, {Name: "g2"},
				},
			},
			compute: functions,
		},
	}
}

func disc1(ctx context.Context, call *registry.Call) error {
	z := call.Input("z")
	x := call.InputScalar("x")
	y2 := call.InputScalar("y2")
	call.SetOutputScalar("y1", z[0]*z[0]+z[1]+x-0.2*y2)
	return nil
}

func disc2(ctx context.Context, call *registry.Call) error {
	z := call.Input("z")
	y1 := call.InputScalar("y1")
	// the coupling variable may go negative during early sweeps
	if y1 < 0 {
		y1 = -y1
	}
	call.SetOutputScalar("y2", math.Sqrt(y1)+z[0]+z[1])
	return nil
}

func functions(ctx context.Context, call *registry.Call) error {
	x := call.InputScalar("x")
	z := call.Input("z")
	y1 := call.InputScalar("y1")
	y2 := call.InputScalar("y2")

	call.SetOutputScalar("f", x*x+z[1]+y1+math.Exp(-y2))
	call.SetOutputScalar("g1", 3.16-y1)
	call.SetOutputScalar("g2", y2-24)
	return nil
}
