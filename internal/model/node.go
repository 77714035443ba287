// Package model holds the assembled computational graph: a tree of groups
// and registry-resolved leaf components whose ports are promoted to global
// names, plus the analysis of which input ports remain externally unbound.
package model

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/goad/internal/expr"
	"github.com/vk/goad/internal/registry"
)

// Node is a vertex of the assembled tree: a Group or a Component.
type Node interface {
	Name() string
	Path() string
}

// Component is a leaf of the tree: an instantiated registry system.
type Component struct {
	name string
	path string
	sys  *registry.System
}

// Name returns the node name given by its configuration key.
func (c *Component) Name() string { return c.name }

// Path returns the dotted path from the model root.
func (c *Component) Path() string { return c.path }

// System returns the instantiated registry system.
func (c *Component) System() *registry.System { return c.sys }

// Group is an interior node: an ordered collection of sub-nodes with
// structural options such as the nonlinear solver choice.
type Group struct {
	name     string
	path     string
	children []Node

	solver       *expr.SolverSpec
	linearSolver *expr.SolverSpec
	options      map[string]cty.Value
}

// Name returns the node name given by its configuration key.
func (g *Group) Name() string { return g.name }

// Path returns the dotted path from the model root.
func (g *Group) Path() string { return g.path }

// Children returns the sub-nodes in declaration order.
func (g *Group) Children() []Node {
	return append([]Node(nil), g.children...)
}

// Solver returns the nonlinear solver selected for this group, nil if none.
func (g *Group) Solver() *expr.SolverSpec { return g.solver }

// LinearSolver returns the linear solver selected for this group, nil if
// none.
func (g *Group) LinearSolver() *expr.SolverSpec { return g.linearSolver }

// Option returns a generic structural option set on the group, cty.NilVal
// if absent.
func (g *Group) Option(name string) cty.Value {
	if v, ok := g.options[name]; ok {
		return v
	}
	return cty.NilVal
}

// PortRef is the absolute identity of one input or output port on a
// component, together with its declaration.
type PortRef struct {
	Component *Component
	Def       registry.PortDef
	// AbsName is the component path joined with the declared port name.
	AbsName string
	// Promoted is the externally visible name shared across the model.
	Promoted string
}
