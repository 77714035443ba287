package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/goad/internal/config"
	"github.com/vk/goad/internal/expr"
	"github.com/vk/goad/internal/registry"
)

func noop(ctx context.Context, call *registry.Call) error { return nil }

// testRegistry builds a hermetic registry:
//
//	compute_x: inputs a (mandatory), b (optional, 2.0) -> output c
//	compute_y: input c -> output d
//	compute_z: input b (optional, 5.0) -> output e
func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	r.MustRegister(&registry.Definition{
		ID: "compute_x",
		Inputs: []registry.PortDef{
			{Name: "a", Units: "m"},
			{Name: "b", Default: []float64{2.0}},
		},
		Outputs: []registry.PortDef{{Name: "c"}},
		Options: map[string]cty.Value{"foo": cty.NumberIntVal(0)},
	}, noop)
	r.MustRegister(&registry.Definition{
		ID:      "compute_y",
		Inputs:  []registry.PortDef{{Name: "c"}},
		Outputs: []registry.PortDef{{Name: "d"}},
	}, noop)
	r.MustRegister(&registry.Definition{
		ID:      "compute_z",
		Inputs:  []registry.PortDef{{Name: "b", Default: []float64{5.0}}},
		Outputs: []registry.PortDef{{Name: "e"}},
	}, noop)
	return r
}

func assemble(t *testing.T, spec config.Spec) *Model {
	t.Helper()
	m, err := Assemble(context.Background(), spec, testRegistry(t), expr.NewEvaluator())
	require.NoError(t, err)
	return m
}

func TestAssemble_LeafWithOptionNeverRecurses(t *testing.T) {
	t.Parallel()

	m := assemble(t, &config.LeafSpec{
		ID:      "compute_x",
		Options: []config.Attr{{Name: "foo", Source: "1"}},
	})

	comps := m.Components()
	require.Len(t, comps, 1)
	assert.Equal(t, "compute_x", comps[0].System().Def.ID)
	assert.True(t, comps[0].System().Options["foo"].RawEquals(cty.NumberIntVal(1)))
}

func TestAssemble_GroupWithOneLeaf(t *testing.T) {
	t.Parallel()

	m := assemble(t, &config.GroupSpec{
		Children: []config.Child{
			{Name: "sub", Spec: &config.LeafSpec{ID: "compute_y"}},
		},
	})

	children := m.Root().Children()
	require.Len(t, children, 1)
	comp, ok := children[0].(*Component)
	require.True(t, ok)
	assert.Equal(t, "sub", comp.Name())
	assert.Equal(t, "model.sub", comp.Path())
}

func TestAssemble_UnknownIdentifier(t *testing.T) {
	t.Parallel()

	_, err := Assemble(context.Background(), &config.GroupSpec{
		Children: []config.Child{
			{Name: "sub", Spec: &config.LeafSpec{ID: "not_there"}},
		},
	}, testRegistry(t), expr.NewEvaluator())

	var unknown *registry.UnknownIdentifierError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "not_there", unknown.ID)
}

func TestAssemble_BadInstructionPathAccumulation(t *testing.T) {
	t.Parallel()

	spec := &config.GroupSpec{
		Children: []config.Child{
			{Name: "a", Spec: &config.GroupSpec{
				Children: []config.Child{
					{Name: "b", Spec: &config.GroupSpec{
						Attrs: []config.Attr{{Name: "bad_attr", Source: "1/0"}},
					}},
				},
			}},
		},
	}

	_, err := Assemble(context.Background(), spec, testRegistry(t), expr.NewEvaluator())

	var bad *BadInstructionError
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, []string{"model", "a", "b", "bad_attr"}, bad.Path)
	assert.Equal(t, "1/0", bad.Source)
	assert.Error(t, bad.Err)
}

func TestAssemble_SolverAttribute(t *testing.T) {
	t.Parallel()

	m := assemble(t, &config.GroupSpec{
		Attrs: []config.Attr{
			{Name: "nonlinear_solver", Source: "goad::nonlinear_block_gs({maxiter = 7})"},
		},
		Children: []config.Child{
			{Name: "sub", Spec: &config.LeafSpec{ID: "compute_y"}},
		},
	})

	require.NotNil(t, m.Root().Solver())
	assert.Equal(t, 7, m.Root().Solver().MaxIter)
}

func TestAssemble_NonSolverValueForSolverAttribute(t *testing.T) {
	t.Parallel()

	_, err := Assemble(context.Background(), &config.GroupSpec{
		Attrs: []config.Attr{{Name: "nonlinear_solver", Source: "42"}},
	}, testRegistry(t), expr.NewEvaluator())

	var bad *BadInstructionError
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, []string{"model", "nonlinear_solver"}, bad.Path)
}

func TestAnalysis_RequiresSetup(t *testing.T) {
	t.Parallel()

	m := assemble(t, &config.LeafSpec{ID: "compute_x"})

	_, _, err := m.UnconnectedInputs()
	var notReady *NotReadyError
	require.ErrorAs(t, err, &notReady)
}

func TestUnconnectedInputs_Partition(t *testing.T) {
	t.Parallel()

	// compute_x feeds c into compute_y; a and b stay external.
	m := assemble(t, &config.GroupSpec{
		Children: []config.Child{
			{Name: "first", Spec: &config.LeafSpec{ID: "compute_x"}},
			{Name: "second", Spec: &config.LeafSpec{ID: "compute_y"}},
		},
	})
	m.Setup()

	mandatory, optional, err := m.UnconnectedInputs()
	require.NoError(t, err)
	assert.Equal(t, []string{"model.first.a"}, mandatory)
	assert.Equal(t, []string{"model.first.b"}, optional)

	// Every promoted input is in exactly one of the three categories.
	names, err := m.PromotedInputNames()
	require.NoError(t, err)
	seen := make(map[string]int)
	for _, name := range names {
		connected, err := m.IsConnected(name)
		require.NoError(t, err)
		if connected {
			seen[name]++
		}
	}
	for _, abs := range append(append([]string(nil), mandatory...), optional...) {
		for _, name := range names {
			if abs == "model.first."+name || abs == "model.second."+name {
				seen[name]++
			}
		}
	}
	for _, name := range names {
		assert.Equal(t, 1, seen[name], "input %q must fall in exactly one category", name)
	}
}

func TestUnconnectedInputVariables_FirstDefaultWins(t *testing.T) {
	t.Parallel()

	// b is optional with default 2.0 on compute_x and 5.0 on compute_z;
	// declaration order makes 2.0 the retained default.
	m := assemble(t, &config.GroupSpec{
		Children: []config.Child{
			{Name: "first", Spec: &config.LeafSpec{ID: "compute_x"}},
			{Name: "third", Spec: &config.LeafSpec{ID: "compute_z"}},
		},
	})
	m.Setup()

	vars, err := m.UnconnectedInputVariables(true)
	require.NoError(t, err)

	b, err := vars.Get("b")
	require.NoError(t, err)
	assert.Equal(t, []float64{2.0}, b.Value())
}

func TestUnconnectedInputVariables_MandatoryOnly(t *testing.T) {
	t.Parallel()

	m := assemble(t, &config.LeafSpec{ID: "compute_x"})
	m.Setup()

	vars, err := m.UnconnectedInputVariables(false)
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, vars.Names())
	a, _ := vars.Get("a")
	assert.True(t, a.IsMandatory())
	assert.Equal(t, "m", a.Units())
}

func TestDescribe_RendersTree(t *testing.T) {
	t.Parallel()

	m := assemble(t, &config.GroupSpec{
		Children: []config.Child{
			{Name: "geometry", Spec: &config.GroupSpec{
				Children: []config.Child{
					{Name: "wing", Spec: &config.LeafSpec{ID: "compute_x"}},
				},
			}},
		},
	})

	out := m.Describe()
	assert.Contains(t, out, "geometry")
	assert.Contains(t, out, "wing")
	assert.Contains(t, out, "compute_x")
}
