package config

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
input_file  = "data/inputs.yml"
output_file = "data/outputs.yml"

module_folders = ["modules"]

driver = goad::slsqp_driver({maxiter = 100})

model {
  nonlinear_solver = goad::nonlinear_block_gs({maxiter = 50})

  geometry {
    id = "geometry.wing"
  }

  aerodynamics {
    cruise {
      id          = "aerodynamics.induced_drag"
      low_speed   = false
    }
  }
}

optimization {
  design_var {
    name  = "data:geometry:wing:aspect_ratio"
    lower = 6
    upper = 12
  }

  constraint {
    name  = "data:weight:airframe:wing:mass"
    upper = 9000
  }

  objective {
    name = "data:mission:fuel"
  }
}
`

func TestParse_FullConfiguration(t *testing.T) {
	t.Parallel()

	cfg, err := Parse(context.Background(), []byte(sampleConfig), "sample.hcl")
	require.NoError(t, err)

	assert.Equal(t, "data/inputs.yml", cfg.InputFile)
	assert.Equal(t, "data/outputs.yml", cfg.OutputFile)
	assert.Equal(t, []string{"modules"}, cfg.ModuleFolders)
	assert.Equal(t, "goad::slsqp_driver({maxiter = 100})", cfg.Driver)

	root, ok := cfg.Model.(*GroupSpec)
	require.True(t, ok)
	require.Len(t, root.Attrs, 1)
	assert.Equal(t, "nonlinear_solver", root.Attrs[0].Name)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "geometry", root.Children[0].Name)
	assert.Equal(t, "aerodynamics", root.Children[1].Name)

	leaf, ok := root.Children[0].Spec.(*LeafSpec)
	require.True(t, ok)
	assert.Equal(t, "geometry.wing", leaf.ID)

	aero, ok := root.Children[1].Spec.(*GroupSpec)
	require.True(t, ok)
	require.Len(t, aero.Children, 1)
	cruise, ok := aero.Children[0].Spec.(*LeafSpec)
	require.True(t, ok)
	assert.Equal(t, "aerodynamics.induced_drag", cruise.ID)
	require.Len(t, cruise.Options, 1)
	assert.Equal(t, "low_speed", cruise.Options[0].Name)
	assert.Equal(t, "false", cruise.Options[0].Source)

	require.NotNil(t, cfg.Optimization)
	require.Len(t, cfg.Optimization.DesignVars, 1)
	dv := cfg.Optimization.DesignVars[0]
	assert.Equal(t, "data:geometry:wing:aspect_ratio", dv.Name)
	require.NotNil(t, dv.Lower)
	assert.Equal(t, 6.0, *dv.Lower)
}

func TestParse_LeafIgnoresNestedBlocks(t *testing.T) {
	t.Parallel()

	src := `
input_file  = "in.yml"
output_file = "out.yml"

model {
  id  = "compute_x"
  foo = 1

  sub {
    id = "never_assembled"
  }
}
`
	cfg, err := Parse(context.Background(), []byte(src), "leaf.hcl")
	require.NoError(t, err)

	leaf, ok := cfg.Model.(*LeafSpec)
	require.True(t, ok, "presence of id must make the node a leaf")
	assert.Equal(t, "compute_x", leaf.ID)
	require.Len(t, leaf.Options, 1)
	assert.Equal(t, "foo", leaf.Options[0].Name)
}

func TestParse_MissingRequiredKeys(t *testing.T) {
	t.Parallel()

	_, err := Parse(context.Background(), []byte(`output_file = "o.yml"`+"\nmodel {}\n"), "c.hcl")
	var missing *MissingKeyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, KeyInputFile, missing.Key)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestParse_MissingModelSection(t *testing.T) {
	t.Parallel()

	src := "input_file = \"i.yml\"\noutput_file = \"o.yml\"\n"
	_, err := Parse(context.Background(), []byte(src), "c.hcl")

	var noProblem *NoProblemDefinedError
	require.ErrorAs(t, err, &noProblem)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestParse_DuplicateOptimizationNames(t *testing.T) {
	t.Parallel()

	src := `
input_file  = "i.yml"
output_file = "o.yml"

model {
  comp { id = "x" }
}

optimization {
  objective { name = "f" }
  objective { name = "f" }
}
`
	_, err := Parse(context.Background(), []byte(src), "c.hcl")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestOptimization_NameKeyedRoundTrip(t *testing.T) {
	t.Parallel()

	lower, upper := 0.0, 10.0
	optim := &Optimization{
		DesignVars: []*Record{
			{Name: "z", Lower: &lower, Upper: &upper},
			{Name: "a", Lower: &lower},
		},
		Objectives: []*Record{{Name: "f"}},
	}

	rebuilt := FromNameKeyed(optim.ByName())

	// Name-keyed round trips keep contents but normalize order to name order.
	require.Len(t, rebuilt.DesignVars, 2)
	assert.Equal(t, "a", rebuilt.DesignVars[0].Name)
	assert.Equal(t, "z", rebuilt.DesignVars[1].Name)
	require.NotNil(t, rebuilt.DesignVars[1].Upper)
	assert.Equal(t, 10.0, *rebuilt.DesignVars[1].Upper)
	require.Len(t, rebuilt.Objectives, 1)
}

func TestSave_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg, err := Parse(ctx, []byte(sampleConfig), "sample.hcl")
	require.NoError(t, err)

	fsys := afero.NewMemMapFs()
	require.NoError(t, Save(fsys, "out/saved.hcl", cfg))

	reloaded, err := NewLoaderWithFs(fsys).Load(ctx, "out/saved.hcl")
	require.NoError(t, err)

	assert.Equal(t, cfg.InputFile, reloaded.InputFile)
	assert.Equal(t, cfg.OutputFile, reloaded.OutputFile)
	assert.Equal(t, cfg.Driver, reloaded.Driver)
	assert.Equal(t, cfg.Model, reloaded.Model)
	assert.Equal(t, cfg.Optimization, reloaded.Optimization)
}

func TestSave_KeepsProgrammaticOptimizationEdits(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg, err := Parse(ctx, []byte(sampleConfig), "sample.hcl")
	require.NoError(t, err)

	keyed := cfg.Optimization.ByName()
	newUpper := 14.0
	keyed.DesignVars["data:geometry:wing:aspect_ratio"].Upper = &newUpper
	cfg.Optimization = FromNameKeyed(keyed)

	fsys := afero.NewMemMapFs()
	require.NoError(t, Save(fsys, "saved.hcl", cfg))

	reloaded, err := NewLoaderWithFs(fsys).Load(ctx, "saved.hcl")
	require.NoError(t, err)
	require.Len(t, reloaded.Optimization.DesignVars, 1)
	assert.Equal(t, 14.0, *reloaded.Optimization.DesignVars[0].Upper)
}
