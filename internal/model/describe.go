package model

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// Describe renders the assembled group/component tree for inspection.
func (m *Model) Describe() string {
	tree := treeprint.NewWithRoot(m.root.name)
	describeGroup(tree, m.root)
	return tree.String()
}

func describeGroup(tree treeprint.Tree, group *Group) {
	if group.solver != nil {
		tree.AddMetaNode("solver", fmt.Sprintf("%s(maxiter=%d)", group.solver.Kind, group.solver.MaxIter))
	}
	for _, child := range group.children {
		switch node := child.(type) {
		case *Component:
			tree.AddMetaNode(node.name, node.sys.Def.ID)
		case *Group:
			describeGroup(tree.AddBranch(node.name), node)
		}
	}
}
