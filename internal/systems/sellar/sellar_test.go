package sellar_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/goad/internal/config"
	"github.com/vk/goad/internal/expr"
	"github.com/vk/goad/internal/model"
	"github.com/vk/goad/internal/registry"
	"github.com/vk/goad/internal/runtime"
	"github.com/vk/goad/internal/systems/sellar"
	"github.com/vk/goad/internal/variable"
)

// The MDA reference values at x=1, z=(5,2) come from the literature on the
// Sellar problem.
func TestSellar_MDAConvergence(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	require.NoError(t, sellar.Module{}.Register(reg))

	spec := &config.GroupSpec{
		Attrs: []config.Attr{
			{Name: "nonlinear_solver", Source: "goad::nonlinear_block_gs({maxiter = 100, rtol = 1e-12})"},
		},
		Children: []config.Child{
			{Name: "disc1", Spec: &config.LeafSpec{ID: "sellar.disc1"}},
			{Name: "disc2", Spec: &config.LeafSpec{ID: "sellar.disc2"}},
			{Name: "functions", Spec: &config.LeafSpec{ID: "sellar.functions"}},
		},
	}
	m, err := model.Assemble(context.Background(), spec, reg, expr.NewEvaluator())
	require.NoError(t, err)
	m.Setup()

	inputs := variable.NewSet(
		variable.MustNew("x", variable.Metadata{Value: 1.0}),
		variable.MustNew("z", variable.Metadata{Value: []float64{5.0, 2.0}}),
	)
	result, err := runtime.New(m).Run(context.Background(), inputs)
	require.NoError(t, err)

	y1, _ := result.Outputs.Get("y1")
	y2, _ := result.Outputs.Get("y2")
	f, _ := result.Outputs.Get("f")

	assert.InDelta(t, 25.588, y1.Scalar(), 1e-2)
	assert.InDelta(t, 12.058, y2.Scalar(), 1e-2)
	assert.InDelta(t, 28.588, f.Scalar(), 1e-2)
}

func TestSellar_OnlyCouplingIsUnconnected(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	require.NoError(t, sellar.Module{}.Register(reg))

	m, err := model.Assemble(context.Background(), &config.GroupSpec{
		Children: []config.Child{
			{Name: "disc1", Spec: &config.LeafSpec{ID: "sellar.disc1"}},
			{Name: "disc2", Spec: &config.LeafSpec{ID: "sellar.disc2"}},
			{Name: "functions", Spec: &config.LeafSpec{ID: "sellar.functions"}},
		},
	}, reg, expr.NewEvaluator())
	require.NoError(t, err)
	m.Setup()

	mandatory, optional, err := m.UnconnectedInputs()
	require.NoError(t, err)

	// x has the NaN sentinel, z a usable default; the couplings y1 and y2
	// are produced inside the model.
	assert.Equal(t, []string{"model.disc1.x", "model.functions.x"}, mandatory)
	assert.Equal(t, []string{
		"model.disc1.z", "model.disc2.z", "model.functions.z",
	}, optional)
}
