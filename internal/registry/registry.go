// Package registry maps component identifiers to instantiable discipline
// systems with declared input/output ports. A Registry is an explicit,
// constructible object so that tests and embedding applications can build
// isolated instances instead of sharing process-wide state.
package registry

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/goad/internal/variable"
)

// UnknownIdentifierError reports a lookup of an identifier that no
// registered component matches.
type UnknownIdentifierError struct {
	ID string
}

func (e *UnknownIdentifierError) Error() string {
	return fmt.Sprintf("no system registered with identifier %q", e.ID)
}

// PortDef declares one input or output port of a component. A nil Default
// on an input is the NaN sentinel: the port is mandatory and must be
// supplied externally unless another component's output feeds it.
type PortDef struct {
	Name    string
	Units   string
	Desc    string
	Default []float64
	Shape   []int
}

// size returns the number of elements the port holds.
func (p PortDef) size() int {
	if len(p.Shape) > 0 {
		n := 1
		for _, d := range p.Shape {
			n *= d
		}
		return n
	}
	if len(p.Default) > 0 {
		return len(p.Default)
	}
	return 1
}

// InputDefault returns the declared default of an input port, or the NaN
// sentinel when none was declared.
func (p PortDef) InputDefault() []float64 {
	if p.Default != nil {
		return append([]float64(nil), p.Default...)
	}
	return variable.NaNArray(p.size())
}

// OutputDefault returns the declared default of an output port. Outputs
// without a declared default start at 1.0 so that iterative solvers have a
// harmless initial guess.
func (p PortDef) OutputDefault() []float64 {
	if p.Default != nil {
		return append([]float64(nil), p.Default...)
	}
	out := make([]float64, p.size())
	for i := range out {
		out[i] = 1.0
	}
	return out
}

// Definition describes a registrable component: identifier, ports and
// declared construction options.
type Definition struct {
	ID          string
	Description string
	Inputs      []PortDef
	Outputs     []PortDef
	// Options maps declared option names to their default values.
	Options map[string]cty.Value
	// Handler names the compute function bound to this definition. It is
	// set for manifest-declared components; Go-registered components bind
	// their compute directly.
	Handler string
}

// Compute is the computation of a leaf component: read inputs from the
// call, write outputs to it.
type Compute func(ctx context.Context, call *Call) error

// System is an instantiated leaf component: a definition bound to its
// compute function with resolved construction options.
type System struct {
	Def     *Definition
	Compute Compute
	Options map[string]cty.Value
}

// Module is implemented by component packages that register their
// definitions and handlers into a registry.
type Module interface {
	Register(r *Registry) error
}

// Registry holds the registered definitions and named compute handlers for
// a single application instance.
type Registry struct {
	fs       afero.Fs
	defs     map[string]*Definition
	computes map[string]Compute // keyed by definition ID
	handlers map[string]Compute // named handlers for manifest binding
}

// New creates an empty registry backed by the OS filesystem.
func New() *Registry {
	return NewWithFs(afero.NewOsFs())
}

// NewWithFs creates an empty registry whose folder discovery reads from the
// given filesystem.
func NewWithFs(fsys afero.Fs) *Registry {
	return &Registry{
		fs:       fsys,
		defs:     make(map[string]*Definition),
		computes: make(map[string]Compute),
		handlers: make(map[string]Compute),
	}
}

// Register adds a definition with its compute function. Registering an
// identifier twice is an error.
func (r *Registry) Register(def *Definition, compute Compute) error {
	if def == nil || def.ID == "" {
		return fmt.Errorf("definition must have an identifier")
	}
	if compute == nil {
		return fmt.Errorf("system %q: compute function must not be nil", def.ID)
	}
	if _, exists := r.defs[def.ID]; exists {
		return fmt.Errorf("system %q is already registered", def.ID)
	}
	r.defs[def.ID] = def
	r.computes[def.ID] = compute
	return nil
}

// MustRegister is Register for statically known-good definitions.
func (r *Registry) MustRegister(def *Definition, compute Compute) {
	if err := r.Register(def, compute); err != nil {
		panic(err)
	}
}

// RegisterHandler adds a named compute handler that folder manifests can
// bind to.
func (r *Registry) RegisterHandler(name string, compute Compute) error {
	if name == "" || compute == nil {
		return fmt.Errorf("handler registration requires a name and a compute function")
	}
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("handler %q is already registered", name)
	}
	r.handlers[name] = compute
	return nil
}

// GetSystem instantiates the component registered under id, applying the
// given construction options on top of the declared defaults. Unknown
// identifiers yield an UnknownIdentifierError; unknown option names are
// rejected.
func (r *Registry) GetSystem(id string, options map[string]cty.Value) (*System, error) {
	def, ok := r.defs[id]
	if !ok {
		return nil, &UnknownIdentifierError{ID: id}
	}

	resolved := make(map[string]cty.Value, len(def.Options))
	for name, val := range def.Options {
		resolved[name] = val
	}
	for name, val := range options {
		if _, declared := def.Options[name]; !declared {
			return nil, fmt.Errorf("system %q has no option %q", id, name)
		}
		resolved[name] = val
	}

	return &System{
		Def:     def,
		Compute: r.computes[id],
		Options: resolved,
	}, nil
}

// IDs returns the registered identifiers in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.defs))
	for id := range r.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
