package registry

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/goad/internal/ctxlog"
	"github.com/vk/goad/internal/fsutil"
)

// Manifest schemas for folder-declared components. A manifest binds a
// declared interface (ports, options) to a pre-registered Go handler:
//
//	component "geometry.wing" {
//	  handler = "compute_wing_geometry"
//	  input "data:geometry:wing:area" { units = "m**2" }
//	  output "data:geometry:wing:span" { units = "m" }
//	}
type manifestFile struct {
	Components []*manifestComponent `hcl:"component,block"`
	Remain     hcl.Body             `hcl:",remain"`
}

type manifestComponent struct {
	ID          string            `hcl:"id,label"`
	Description string            `hcl:"description,optional"`
	Handler     string            `hcl:"handler"`
	Inputs      []*manifestPort   `hcl:"input,block"`
	Outputs     []*manifestPort   `hcl:"output,block"`
	Options     []*manifestOption `hcl:"option,block"`
}

type manifestPort struct {
	Name    string     `hcl:"name,label"`
	Units   string     `hcl:"units,optional"`
	Desc    string     `hcl:"desc,optional"`
	Default *cty.Value `hcl:"default,optional"`
	Shape   []int      `hcl:"shape,optional"`
}

type manifestOption struct {
	Name    string    `hcl:"name,label"`
	Default cty.Value `hcl:"default"`
}

// ExploreFolder recursively loads .hcl component manifests from the given
// folder and registers them. A nonexistent folder is logged and skipped,
// since optional plugin folders are not fatal. Malformed manifests and
// unresolved handler names are errors.
func (r *Registry) ExploreFolder(ctx context.Context, folderPath string) error {
	logger := ctxlog.FromContext(ctx)

	exists, err := afero.DirExists(r.fs, folderPath)
	if err != nil {
		return fmt.Errorf("checking module folder %s: %w", folderPath, err)
	}
	if !exists {
		logger.Warn("Skipped module folder: it does not exist.", "path", folderPath)
		return nil
	}

	filePaths, err := fsutil.FindFilesByExtension(r.fs, folderPath, ".hcl")
	if err != nil {
		return fmt.Errorf("walking module folder %s: %w", folderPath, err)
	}
	if len(filePaths) == 0 {
		logger.Warn("No .hcl manifest files found in module folder.", "path", folderPath)
		return nil
	}

	parser := hclparse.NewParser()
	loaded := 0
	for _, filePath := range filePaths {
		src, err := afero.ReadFile(r.fs, filePath)
		if err != nil {
			return fmt.Errorf("reading manifest %s: %w", filePath, err)
		}
		hclFile, diags := parser.ParseHCL(src, filePath)
		if diags.HasErrors() {
			return fmt.Errorf("parsing manifest %s: %w", filePath, diags)
		}

		var manifest manifestFile
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &manifest); diags.HasErrors() {
			return fmt.Errorf("decoding manifest %s: %w", filePath, diags)
		}

		for _, comp := range manifest.Components {
			if err := r.registerFromManifest(comp); err != nil {
				return fmt.Errorf("manifest %s: %w", filePath, err)
			}
			loaded++
		}
		logger.Debug("Loaded component manifest.", "file", filePath)
	}

	logger.Info("Module folder explored.", "path", folderPath, "components_loaded", loaded)
	return nil
}

func (r *Registry) registerFromManifest(comp *manifestComponent) error {
	compute, ok := r.handlers[comp.Handler]
	if !ok {
		return fmt.Errorf("component %q references unregistered handler %q", comp.ID, comp.Handler)
	}

	def := &Definition{
		ID:          comp.ID,
		Description: comp.Description,
		Handler:     comp.Handler,
	}
	for _, in := range comp.Inputs {
		port, err := manifestPortDef(in)
		if err != nil {
			return fmt.Errorf("component %q input %q: %w", comp.ID, in.Name, err)
		}
		def.Inputs = append(def.Inputs, port)
	}
	for _, out := range comp.Outputs {
		port, err := manifestPortDef(out)
		if err != nil {
			return fmt.Errorf("component %q output %q: %w", comp.ID, out.Name, err)
		}
		def.Outputs = append(def.Outputs, port)
	}
	if len(comp.Options) > 0 {
		def.Options = make(map[string]cty.Value, len(comp.Options))
		for _, opt := range comp.Options {
			def.Options[opt.Name] = opt.Default
		}
	}

	return r.Register(def, compute)
}

func manifestPortDef(p *manifestPort) (PortDef, error) {
	def := PortDef{
		Name:  p.Name,
		Units: p.Units,
		Desc:  p.Desc,
		Shape: p.Shape,
	}
	if p.Default != nil {
		values, err := numbersOf(*p.Default)
		if err != nil {
			return PortDef{}, err
		}
		def.Default = values
	}
	return def, nil
}

func numbersOf(v cty.Value) ([]float64, error) {
	if v.IsNull() {
		return nil, nil
	}
	if v.Type().Equals(cty.Number) {
		f, _ := v.AsBigFloat().Float64()
		return []float64{f}, nil
	}
	if v.Type().IsTupleType() || v.Type().IsListType() {
		var out []float64
		for it := v.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			sub, err := numbersOf(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
		return out, nil
	}
	return nil, fmt.Errorf("default must be a number or a list of numbers, got %s", v.Type().FriendlyName())
}
