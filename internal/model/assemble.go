package model

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/goad/internal/config"
	"github.com/vk/goad/internal/ctxlog"
	"github.com/vk/goad/internal/expr"
	"github.com/vk/goad/internal/registry"
)

// rootName is the path segment of the model root group.
const rootName = "model"

// Model is the assembled graph. Promotion tables are resolved by Setup;
// analysis operations fail with NotReadyError before that.
type Model struct {
	root       *Group
	components []*Component

	setupDone       bool
	inputRefs       map[string][]*PortRef // promoted input name -> identities
	inputOrder      []string              // first-seen promoted input names
	outputRefs      map[string][]*PortRef
	outputOrder     []string
	promotedOutputs map[string]struct{}
}

// Assemble interprets the declarative model tree, resolving each leaf
// through the registry and each attribute assignment through the restricted
// evaluator. The returned model still needs Setup before analysis.
func Assemble(ctx context.Context, spec config.Spec, reg *registry.Registry, ev *expr.Evaluator) (*Model, error) {
	if spec == nil {
		return nil, &config.NoProblemDefinedError{Reason: "model tree is empty"}
	}

	m := &Model{
		root: &Group{name: rootName, path: rootName},
	}

	switch node := spec.(type) {
	case *config.LeafSpec:
		if err := m.addComponent(m.root, node.ID, node, ev, reg); err != nil {
			return nil, wrapChild(rootName, err)
		}
	case *config.GroupSpec:
		if err := m.populateGroup(ctx, m.root, node, reg, ev); err != nil {
			return nil, wrapChild(rootName, err)
		}
	default:
		return nil, &config.NoProblemDefinedError{Reason: fmt.Sprintf("unsupported model node type %T", spec)}
	}

	ctxlog.FromContext(ctx).Debug("Model assembled.", "components", len(m.components))
	return m, nil
}

func (m *Model) populateGroup(ctx context.Context, group *Group, spec *config.GroupSpec, reg *registry.Registry, ev *expr.Evaluator) error {
	for _, attr := range spec.Attrs {
		if err := applyAttr(group, attr, ev); err != nil {
			return err
		}
	}

	for _, child := range spec.Children {
		switch node := child.Spec.(type) {
		case *config.LeafSpec:
			if err := m.addComponent(group, child.Name, node, ev, reg); err != nil {
				return wrapChild(child.Name, err)
			}
		case *config.GroupSpec:
			sub := &Group{name: child.Name, path: group.path + "." + child.Name}
			if err := m.populateGroup(ctx, sub, node, reg, ev); err != nil {
				return wrapChild(child.Name, err)
			}
			group.children = append(group.children, sub)
		default:
			return fmt.Errorf("node %q: unsupported spec type %T", child.Name, child.Spec)
		}
	}
	return nil
}

// applyAttr evaluates one attribute assignment and applies it to the group.
// Failures surface as BadInstructionError carrying the attribute key; the
// enclosing recursion levels extend the path on the way out.
func applyAttr(group *Group, attr config.Attr, ev *expr.Evaluator) error {
	val, err := ev.Eval(attr.Source)
	if err != nil {
		return &BadInstructionError{Path: []string{attr.Name}, Source: attr.Source, Err: err}
	}

	switch attr.Name {
	case "nonlinear_solver":
		spec, ok := expr.AsSolverSpec(val)
		if !ok {
			return &BadInstructionError{Path: []string{attr.Name}, Source: attr.Source,
				Err: fmt.Errorf("expression is not a solver constructor")}
		}
		group.solver = spec
	case "linear_solver":
		spec, ok := expr.AsSolverSpec(val)
		if !ok {
			return &BadInstructionError{Path: []string{attr.Name}, Source: attr.Source,
				Err: fmt.Errorf("expression is not a solver constructor")}
		}
		group.linearSolver = spec
	default:
		if group.options == nil {
			group.options = make(map[string]cty.Value)
		}
		group.options[attr.Name] = val
	}
	return nil
}

func (m *Model) addComponent(parent *Group, name string, spec *config.LeafSpec, ev *expr.Evaluator, reg *registry.Registry) error {
	var options map[string]cty.Value
	if len(spec.Options) > 0 {
		options = make(map[string]cty.Value, len(spec.Options))
		for _, opt := range spec.Options {
			val, err := ev.Eval(opt.Source)
			if err != nil {
				return &BadInstructionError{Path: []string{opt.Name}, Source: opt.Source, Err: err}
			}
			options[opt.Name] = val
		}
	}

	sys, err := reg.GetSystem(spec.ID, options)
	if err != nil {
		return err
	}

	comp := &Component{
		name: name,
		path: parent.path + "." + name,
		sys:  sys,
	}
	parent.children = append(parent.children, comp)
	m.components = append(m.components, comp)
	return nil
}

// wrapChild extends error context with the enclosing key name, keeping
// BadInstructionError path accumulation intact.
func wrapChild(key string, err error) error {
	if bad, ok := err.(*BadInstructionError); ok {
		return bad.prepend(key)
	}
	return fmt.Errorf("%s: %w", key, err)
}

// Setup resolves the promotion tables: for every component, each declared
// port name becomes a promoted global name collecting all concrete port
// identities that share it. Traversal is declaration order, which fixes the
// deterministic tie-breaks used by the unconnected-input consolidation.
func (m *Model) Setup() {
	m.inputRefs = make(map[string][]*PortRef)
	m.outputRefs = make(map[string][]*PortRef)
	m.promotedOutputs = make(map[string]struct{})
	m.inputOrder = nil
	m.outputOrder = nil

	for _, comp := range m.components {
		for _, port := range comp.sys.Def.Inputs {
			ref := &PortRef{
				Component: comp,
				Def:       port,
				AbsName:   comp.path + "." + port.Name,
				Promoted:  port.Name,
			}
			if _, seen := m.inputRefs[port.Name]; !seen {
				m.inputOrder = append(m.inputOrder, port.Name)
			}
			m.inputRefs[port.Name] = append(m.inputRefs[port.Name], ref)
		}
		for _, port := range comp.sys.Def.Outputs {
			ref := &PortRef{
				Component: comp,
				Def:       port,
				AbsName:   comp.path + "." + port.Name,
				Promoted:  port.Name,
			}
			if _, seen := m.outputRefs[port.Name]; !seen {
				m.outputOrder = append(m.outputOrder, port.Name)
			}
			m.outputRefs[port.Name] = append(m.outputRefs[port.Name], ref)
			m.promotedOutputs[port.Name] = struct{}{}
		}
	}
	m.setupDone = true
}

// Root returns the root group.
func (m *Model) Root() *Group { return m.root }

// Components returns the leaf components in declaration order.
func (m *Model) Components() []*Component {
	return append([]*Component(nil), m.components...)
}

// PromotedInputNames returns the promoted input names in first-seen order.
func (m *Model) PromotedInputNames() ([]string, error) {
	if !m.setupDone {
		return nil, &NotReadyError{Operation: "input name listing"}
	}
	return append([]string(nil), m.inputOrder...), nil
}

// PromotedOutputNames returns the promoted output names in first-seen order.
func (m *Model) PromotedOutputNames() ([]string, error) {
	if !m.setupDone {
		return nil, &NotReadyError{Operation: "output name listing"}
	}
	return append([]string(nil), m.outputOrder...), nil
}

// IsConnected reports whether the promoted input name is fed by some output
// within the model.
func (m *Model) IsConnected(promotedName string) (bool, error) {
	if !m.setupDone {
		return false, &NotReadyError{Operation: "connection lookup"}
	}
	_, ok := m.promotedOutputs[promotedName]
	return ok, nil
}
