package expr

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Namespace is the single alias under which constructor functions are
// exposed to restricted expressions, e.g. goad::nonlinear_block_gs(...).
const Namespace = "goad"

// namespaceFunctions returns the allowlisted constructor table. Every entry
// is registered both bare and namespace-qualified.
func namespaceFunctions() map[string]function.Function {
	funcs := map[string]function.Function{
		"nonlinear_block_gs": solverFunc("nonlinear_block_gs", 50, 1e-10),
		"linear_block_gs":    solverFunc("linear_block_gs", 10, 1e-10),
		"slsqp_driver":       driverFunc("slsqp", 100, 1e-6),
		"cobyla_driver":      driverFunc("cobyla", 200, 1e-4),
	}
	qualified := make(map[string]function.Function, 2*len(funcs))
	for name, fn := range funcs {
		qualified[name] = fn
		qualified[Namespace+"::"+name] = fn
	}
	return qualified
}

// solverFunc builds a constructor returning a SolverSpec capsule. It takes
// zero arguments or a single options object, e.g. {maxiter = 50, rtol = 1e-8}.
func solverFunc(kind string, defaultMaxIter int, defaultRTol float64) function.Function {
	return function.New(&function.Spec{
		VarParam: &function.Parameter{
			Name:      "options",
			Type:      cty.DynamicPseudoType,
			AllowNull: true,
		},
		Type: function.StaticReturnType(solverCapsule),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			spec := &SolverSpec{Kind: kind, MaxIter: defaultMaxIter, RTol: defaultRTol}
			opts, err := singleOptionsArg(args)
			if err != nil {
				return cty.NilVal, err
			}
			for name, val := range opts {
				switch name {
				case "maxiter":
					n, err := intOption(name, val)
					if err != nil {
						return cty.NilVal, err
					}
					spec.MaxIter = n
				case "rtol":
					f, err := floatOption(name, val)
					if err != nil {
						return cty.NilVal, err
					}
					spec.RTol = f
				default:
					return cty.NilVal, fmt.Errorf("unknown option %q for %s", name, kind)
				}
			}
			return SolverVal(spec), nil
		},
	})
}

// driverFunc builds a constructor returning a DriverSpec capsule.
func driverFunc(kind string, defaultMaxIter int, defaultTol float64) function.Function {
	return function.New(&function.Spec{
		VarParam: &function.Parameter{
			Name:      "options",
			Type:      cty.DynamicPseudoType,
			AllowNull: true,
		},
		Type: function.StaticReturnType(driverCapsule),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			spec := &DriverSpec{Kind: kind, MaxIter: defaultMaxIter, Tol: defaultTol}
			opts, err := singleOptionsArg(args)
			if err != nil {
				return cty.NilVal, err
			}
			for name, val := range opts {
				switch name {
				case "maxiter":
					n, err := intOption(name, val)
					if err != nil {
						return cty.NilVal, err
					}
					spec.MaxIter = n
				case "tol":
					f, err := floatOption(name, val)
					if err != nil {
						return cty.NilVal, err
					}
					spec.Tol = f
				default:
					return cty.NilVal, fmt.Errorf("unknown option %q for %s driver", name, kind)
				}
			}
			return DriverVal(spec), nil
		},
	})
}

func singleOptionsArg(args []cty.Value) (map[string]cty.Value, error) {
	switch len(args) {
	case 0:
		return nil, nil
	case 1:
		opts := args[0]
		if opts.IsNull() {
			return nil, nil
		}
		if !opts.Type().IsObjectType() && !opts.Type().IsMapType() {
			return nil, fmt.Errorf("constructor options must be an object, got %s", opts.Type().FriendlyName())
		}
		return opts.AsValueMap(), nil
	default:
		return nil, fmt.Errorf("constructors take at most one options object, got %d arguments", len(args))
	}
}

func intOption(name string, val cty.Value) (int, error) {
	f, err := floatOption(name, val)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func floatOption(name string, val cty.Value) (float64, error) {
	if !val.Type().Equals(cty.Number) {
		return 0, fmt.Errorf("option %q must be a number, got %s", name, val.Type().FriendlyName())
	}
	f, _ := val.AsBigFloat().Float64()
	return f, nil
}
