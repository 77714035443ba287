package expr

import (
	"reflect"

	"github.com/zclconf/go-cty/cty"
)

// SolverSpec is the evaluated form of a solver-selection expression such as
// goad::nonlinear_block_gs({maxiter = 50}). It is attached to a model group
// and consumed by the runtime.
type SolverSpec struct {
	Kind    string
	MaxIter int
	RTol    float64
}

// DriverSpec is the evaluated form of a driver-selection expression such as
// goad::slsqp_driver({maxiter = 100}). The core carries it opaquely to the
// runtime; no optimization loop is implemented here.
type DriverSpec struct {
	Kind    string
	MaxIter int
	Tol     float64
}

// Solver and driver values cross the HCL boundary as capsules so that
// expression evaluation stays inside the cty type system.
var (
	solverCapsule = cty.Capsule("solver", reflect.TypeOf(SolverSpec{}))
	driverCapsule = cty.Capsule("driver", reflect.TypeOf(DriverSpec{}))
)

// SolverVal wraps a SolverSpec into a cty capsule value.
func SolverVal(spec *SolverSpec) cty.Value {
	return cty.CapsuleVal(solverCapsule, spec)
}

// DriverVal wraps a DriverSpec into a cty capsule value.
func DriverVal(spec *DriverSpec) cty.Value {
	return cty.CapsuleVal(driverCapsule, spec)
}

// AsSolverSpec unwraps a solver capsule, reporting whether v is one.
func AsSolverSpec(v cty.Value) (*SolverSpec, bool) {
	if v == cty.NilVal || !v.Type().Equals(solverCapsule) {
		return nil, false
	}
	return v.EncapsulatedValue().(*SolverSpec), true
}

// AsDriverSpec unwraps a driver capsule, reporting whether v is one.
func AsDriverSpec(v cty.Value) (*DriverSpec, bool) {
	if v == cty.NilVal || !v.Type().Equals(driverCapsule) {
		return nil, false
	}
	return v.EncapsulatedValue().(*DriverSpec), true
}
