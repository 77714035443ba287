package configurator

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/vk/goad/internal/config"
	"github.com/vk/goad/internal/datafile"
	"github.com/vk/goad/internal/expr"
	"github.com/vk/goad/internal/model"
	"github.com/vk/goad/internal/runtime"
	"github.com/vk/goad/internal/variable"
)

// Problem is one runnable instance of the configured model, bound to its
// input and output data files.
type Problem struct {
	fs    afero.Fs
	model *model.Model

	driver      *expr.DriverSpec
	inputPath   string
	outputPath  string
	designVars  []*config.Record
	constraints []*config.Record
	objectives  []*config.Record

	inputs  *variable.Set
	outputs *variable.Set
}

// Model returns the assembled model.
func (p *Problem) Model() *model.Model { return p.model }

// Driver returns the configured driver, nil when the configuration names
// none. The core carries it as data; no optimization loop runs here.
func (p *Problem) Driver() *expr.DriverSpec { return p.driver }

// DesignVars returns the design-variable records attached to this problem.
func (p *Problem) DesignVars() []*config.Record { return p.designVars }

// Constraints returns the constraint records attached to this problem.
func (p *Problem) Constraints() []*config.Record { return p.constraints }

// Objectives returns the objective records attached to this problem.
func (p *Problem) Objectives() []*config.Record { return p.objectives }

// InputPath returns the resolved input data file location.
func (p *Problem) InputPath() string { return p.inputPath }

// OutputPath returns the resolved output data file location.
func (p *Problem) OutputPath() string { return p.outputPath }

// Inputs returns the current input variable set, nil before ReadInputs or
// SetInputs.
func (p *Problem) Inputs() *variable.Set { return p.inputs }

// SetInputs replaces the input variable set directly, bypassing the input
// file.
func (p *Problem) SetInputs(vars *variable.Set) { p.inputs = vars }

// ReadInputs loads the input data file and merges its values over the
// declared defaults of the unconnected inputs. Variables in the file that
// the model does not consume are ignored.
func (p *Problem) ReadInputs() error {
	needed, err := p.model.UnconnectedInputVariables(true)
	if err != nil {
		return err
	}

	loaded, err := datafile.NewFile(p.fs, p.inputPath).Load()
	if err != nil {
		return fmt.Errorf("reading problem inputs: %w", err)
	}
	needed.Update(loaded, false)

	p.inputs = needed
	return nil
}

// Run executes the model once. Inputs are read from the input file when
// none were set yet. The outputs of a successful run are retained for
// WriteOutputs.
func (p *Problem) Run(ctx context.Context) (*runtime.Result, error) {
	if p.inputs == nil {
		if err := p.ReadInputs(); err != nil {
			return nil, err
		}
	}

	result, err := runtime.New(p.model).Run(ctx, p.inputs)
	if err != nil {
		return result, err
	}
	p.outputs = result.Outputs
	return result, nil
}

// Outputs returns the outputs of the last successful run, nil before that.
func (p *Problem) Outputs() *variable.Set { return p.outputs }

// WriteOutputs writes the output data file: the values of the last run, or
// the declared output defaults when the problem has not run yet.
func (p *Problem) WriteOutputs() error {
	outputs := p.outputs
	if outputs == nil {
		var err error
		outputs, err = p.model.OutputVariables()
		if err != nil {
			return err
		}
	}
	return datafile.NewFile(p.fs, p.outputPath).Save(outputs)
}
