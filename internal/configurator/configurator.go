// Package configurator owns the problem lifecycle: it loads a configuration
// file, explores the declared module folders, and turns the configuration
// into runnable problems.
package configurator

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/vk/goad/internal/config"
	"github.com/vk/goad/internal/ctxlog"
	"github.com/vk/goad/internal/datafile"
	"github.com/vk/goad/internal/expr"
	"github.com/vk/goad/internal/model"
	"github.com/vk/goad/internal/registry"
)

// Configurator binds a registry to one loaded configuration.
type Configurator struct {
	fs   afero.Fs
	reg  *registry.Registry
	ev   *expr.Evaluator
	cfg  *config.Config
	path string
}

// New builds a configurator over the OS filesystem.
func New(reg *registry.Registry) *Configurator {
	return NewWithFs(afero.NewOsFs(), reg)
}

// NewWithFs builds a configurator over the given filesystem. The registry
// should be built over the same filesystem so that module folder exploration
// and configuration loading see the same files.
func NewWithFs(fsys afero.Fs, reg *registry.Registry) *Configurator {
	return &Configurator{fs: fsys, reg: reg, ev: expr.NewEvaluator()}
}

// Load reads the configuration file and explores every module folder it
// declares, registering the component manifests found there.
func (c *Configurator) Load(ctx context.Context, path string) error {
	cfg, err := config.NewLoaderWithFs(c.fs).Load(ctx, path)
	if err != nil {
		return err
	}

	for _, folder := range cfg.ModuleFolderPaths() {
		if err := c.reg.ExploreFolder(ctx, folder); err != nil {
			return err
		}
	}

	c.cfg = cfg
	c.path = path
	ctxlog.FromContext(ctx).Info("Configuration loaded.",
		"path", path, "module_folders", len(cfg.ModuleFolders))
	return nil
}

// Config returns the loaded configuration, nil before Load.
func (c *Configurator) Config() *config.Config { return c.cfg }

// Registry returns the registry this configurator resolves components
// against.
func (c *Configurator) Registry() *registry.Registry { return c.reg }

// Save writes the current configuration back to disk. An empty path saves
// to the location it was loaded from.
func (c *Configurator) Save(path string) error {
	if c.cfg == nil {
		return &config.NoProblemDefinedError{Reason: "no configuration loaded"}
	}
	if path == "" {
		path = c.path
	}
	if path == "" {
		return fmt.Errorf("%w: no target path for saving", config.ErrConfiguration)
	}
	return config.Save(c.fs, path, c.cfg)
}

// GetOptimizationDefinition returns the optimization setup as name-keyed
// record maps. The returned records are copies.
func (c *Configurator) GetOptimizationDefinition() (*config.NameKeyed, error) {
	if c.cfg == nil {
		return nil, &config.NoProblemDefinedError{Reason: "no configuration loaded"}
	}
	optim := c.cfg.Optimization
	if optim == nil {
		optim = &config.Optimization{}
	}
	return optim.ByName(), nil
}

// SetOptimizationDefinition replaces the optimization setup from a
// name-keyed view, validating name uniqueness. The change is in-memory
// until Save.
func (c *Configurator) SetOptimizationDefinition(keyed *config.NameKeyed) error {
	if c.cfg == nil {
		return &config.NoProblemDefinedError{Reason: "no configuration loaded"}
	}
	optim := config.FromNameKeyed(keyed)
	if err := optim.Validate(); err != nil {
		return err
	}
	c.cfg.Optimization = optim
	return nil
}

// GetProblem assembles the configured model into a runnable problem. With
// readInputs the input file is loaded immediately and the design variables
// are attached; without it the problem starts from declared defaults and
// carries constraints and objectives only.
func (c *Configurator) GetProblem(ctx context.Context, readInputs bool) (*Problem, error) {
	if c.cfg == nil {
		return nil, &config.NoProblemDefinedError{Reason: "no configuration loaded"}
	}

	m, err := model.Assemble(ctx, c.cfg.Model, c.reg, c.ev)
	if err != nil {
		return nil, err
	}
	m.Setup()

	p := &Problem{
		fs:         c.fs,
		model:      m,
		inputPath:  c.cfg.InputPath(),
		outputPath: c.cfg.OutputPath(),
	}

	if c.cfg.Driver != "" {
		val, err := c.ev.Eval(c.cfg.Driver)
		if err != nil {
			return nil, fmt.Errorf("evaluating driver: %w", err)
		}
		driver, ok := expr.AsDriverSpec(val)
		if !ok {
			return nil, fmt.Errorf("%w: driver expression %q is not a driver constructor",
				config.ErrConfiguration, c.cfg.Driver)
		}
		p.driver = driver
	}

	if optim := c.cfg.Optimization; optim != nil {
		p.constraints = cloneRecords(optim.Constraints)
		p.objectives = cloneRecords(optim.Objectives)
		if readInputs {
			p.designVars = cloneRecords(optim.DesignVars)
		}
		if c.cfg.AutoScaling {
			autoScale(p.designVars)
			autoScale(p.constraints)
		}
	}

	if readInputs {
		if err := p.ReadInputs(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// WriteNeededInputs generates the input data file listing the unconnected
// inputs of the configured model, mandatory ones at the NaN sentinel;
// optional inputs and their defaults are included only when requested. When
// a source path is given, values found there pre-fill the generated file;
// sourceFormatter overrides the extension-based format inference for that
// file and may be nil.
func (c *Configurator) WriteNeededInputs(ctx context.Context, sourcePath string, sourceFormatter datafile.Formatter, withOptional bool) error {
	p, err := c.GetProblem(ctx, false)
	if err != nil {
		return err
	}

	vars, err := p.model.UnconnectedInputVariables(withOptional)
	if err != nil {
		return err
	}
	if sourcePath != "" {
		sourceFile := datafile.NewFile(c.fs, sourcePath)
		if sourceFormatter != nil {
			sourceFile = datafile.NewFileWithFormatter(c.fs, sourcePath, sourceFormatter)
		}
		source, err := sourceFile.Load()
		if err != nil {
			return err
		}
		vars.Update(source, false)
	}

	if err := p.model.LogUnconnectedInputs(ctx); err != nil {
		return err
	}
	return datafile.NewFile(c.fs, p.inputPath).Save(vars)
}

// autoScale derives missing scaling references from declared bounds: a
// lower bound becomes ref0, an upper bound becomes ref. Each side applies
// independently and never overwrites an explicit reference.
func autoScale(records []*config.Record) {
	for _, rec := range records {
		if rec.Lower != nil && rec.Ref0 == nil {
			v := *rec.Lower
			rec.Ref0 = &v
		}
		if rec.Upper != nil && rec.Ref == nil {
			v := *rec.Upper
			rec.Ref = &v
		}
	}
}

func cloneRecords(records []*config.Record) []*config.Record {
	out := make([]*config.Record, len(records))
	for i, rec := range records {
		out[i] = rec.Clone()
	}
	return out
}
