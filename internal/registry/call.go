package registry

import (
	"fmt"
	"math"

	"github.com/zclconf/go-cty/cty"
)

// Call is the per-execution view a compute function works against: input
// values keyed by declared port name, an output buffer, and the resolved
// construction options.
type Call struct {
	inputs  map[string][]float64
	outputs map[string][]float64
	options map[string]cty.Value
}

// NewCall assembles a call for a system execution. The runtime owns both
// maps; outputs written by the compute function land in outputs.
func NewCall(inputs, outputs map[string][]float64, options map[string]cty.Value) *Call {
	return &Call{inputs: inputs, outputs: outputs, options: options}
}

// Input returns the array value of the named input port.
func (c *Call) Input(name string) []float64 {
	return c.inputs[name]
}

// InputScalar returns the first element of the named input port.
func (c *Call) InputScalar(name string) float64 {
	v := c.inputs[name]
	if len(v) == 0 {
		return math.NaN()
	}
	return v[0]
}

// SetOutput stores an array value on the named output port.
func (c *Call) SetOutput(name string, value []float64) {
	c.outputs[name] = append([]float64(nil), value...)
}

// SetOutputScalar stores a scalar on the named output port.
func (c *Call) SetOutputScalar(name string, value float64) {
	c.outputs[name] = []float64{value}
}

// Option returns the resolved construction option, cty.NilVal if absent.
func (c *Call) Option(name string) cty.Value {
	if v, ok := c.options[name]; ok {
		return v
	}
	return cty.NilVal
}

// OptionFloat returns a numeric construction option.
func (c *Call) OptionFloat(name string) (float64, error) {
	v, ok := c.options[name]
	if !ok {
		return 0, fmt.Errorf("option %q is not set", name)
	}
	if !v.Type().Equals(cty.Number) {
		return 0, fmt.Errorf("option %q is not a number", name)
	}
	f, _ := v.AsBigFloat().Float64()
	return f, nil
}
