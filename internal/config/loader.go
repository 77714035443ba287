package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/goad/internal/ctxlog"
)

// Loader reads problem configuration files.
type Loader struct {
	fs afero.Fs
}

// NewLoader creates a loader reading from the OS filesystem.
func NewLoader() *Loader {
	return NewLoaderWithFs(afero.NewOsFs())
}

// NewLoaderWithFs creates a loader reading from the given filesystem.
func NewLoaderWithFs(fsys afero.Fs) *Loader {
	return &Loader{fs: fsys}
}

// Load reads and parses the configuration file at path. Relative file
// locations inside the configuration resolve against the file's directory.
func (l *Loader) Load(ctx context.Context, path string) (*Config, error) {
	src, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration %s: %w", path, err)
	}
	cfg, err := Parse(ctx, src, path)
	if err != nil {
		return nil, err
	}
	cfg.Dir = filepath.Dir(path)
	return cfg, nil
}

// Parse interprets configuration source. The filename is used for
// diagnostics only.
func Parse(ctx context.Context, src []byte, filename string) (*Config, error) {
	logger := ctxlog.FromContext(ctx)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing configuration %s: %w", filename, diags)
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("configuration %s: unsupported body type", filename)
	}

	cfg := &Config{}

	for _, attr := range sortedAttributes(body.Attributes) {
		switch attr.Name {
		case KeyInputFile:
			s, err := stringAttr(attr)
			if err != nil {
				return nil, err
			}
			cfg.InputFile = s
		case KeyOutputFile:
			s, err := stringAttr(attr)
			if err != nil {
				return nil, err
			}
			cfg.OutputFile = s
		case KeyModuleFolders:
			folders, err := stringListAttr(attr)
			if err != nil {
				return nil, err
			}
			cfg.ModuleFolders = folders
		case KeyDriver:
			cfg.Driver = exprSource(src, attr.Expr)
		case KeyAutoScaling:
			b, err := boolAttr(attr)
			if err != nil {
				return nil, err
			}
			cfg.AutoScaling = b
		default:
			logger.Warn("Ignoring unknown configuration attribute.", "name", attr.Name)
		}
	}

	if cfg.InputFile == "" {
		return nil, &MissingKeyError{Key: KeyInputFile}
	}
	if cfg.OutputFile == "" {
		return nil, &MissingKeyError{Key: KeyOutputFile}
	}

	var modelSeen bool
	for _, block := range body.Blocks {
		switch block.Type {
		case BlockModel:
			if modelSeen {
				return nil, &NoProblemDefinedError{Reason: "more than one model section"}
			}
			modelSeen = true
			if len(block.Labels) > 0 {
				return nil, &NoProblemDefinedError{Reason: "model section takes no labels"}
			}
			spec, err := parseModelBody(ctx, src, block.Body)
			if err != nil {
				return nil, err
			}
			cfg.Model = spec
		case BlockOptim:
			optim, err := parseOptimization(block)
			if err != nil {
				return nil, err
			}
			cfg.Optimization = optim
		default:
			logger.Warn("Ignoring unknown configuration section.", "name", block.Type)
		}
	}

	if cfg.Model == nil {
		return nil, &NoProblemDefinedError{Reason: fmt.Sprintf("section %q is missing", BlockModel)}
	}
	return cfg, nil
}

// parseModelBody resolves one node of the declarative model into its tagged
// form. A node holding the reserved id attribute is a leaf: its remaining
// attributes become construction options and nested blocks are not treated
// as substructure. Any other node is a group whose blocks are sub-nodes and
// whose attributes are assignments on the group itself.
func parseModelBody(ctx context.Context, src []byte, body *hclsyntax.Body) (Spec, error) {
	logger := ctxlog.FromContext(ctx)
	attrs := sortedAttributes(body.Attributes)

	if idAttr := body.Attributes[KeyID]; idAttr != nil {
		id, err := stringAttr(idAttr)
		if err != nil {
			return nil, err
		}
		leaf := &LeafSpec{ID: id}
		for _, attr := range attrs {
			if attr.Name == KeyID {
				continue
			}
			leaf.Options = append(leaf.Options, Attr{
				Name:   attr.Name,
				Source: exprSource(src, attr.Expr),
			})
		}
		for _, block := range body.Blocks {
			logger.Warn("Ignoring sub-node of a leaf component.",
				"component", id, "sub_node", block.Type)
		}
		return leaf, nil
	}

	group := &GroupSpec{}
	for _, attr := range attrs {
		group.Attrs = append(group.Attrs, Attr{
			Name:   attr.Name,
			Source: exprSource(src, attr.Expr),
		})
	}

	seen := make(map[string]struct{}, len(body.Blocks))
	for _, block := range body.Blocks {
		if len(block.Labels) > 0 {
			return nil, fmt.Errorf("%w: model node %q takes no labels", ErrConfiguration, block.Type)
		}
		if _, dup := seen[block.Type]; dup {
			return nil, fmt.Errorf("%w: duplicate model node %q", ErrConfiguration, block.Type)
		}
		seen[block.Type] = struct{}{}

		child, err := parseModelBody(ctx, src, block.Body)
		if err != nil {
			return nil, err
		}
		group.Children = append(group.Children, Child{Name: block.Type, Spec: child})
	}
	return group, nil
}

// optimizationSchema is the gohcl shape of the optimization section.
type optimizationSchema struct {
	DesignVars  []*Record `hcl:"design_var,block"`
	Constraints []*Record `hcl:"constraint,block"`
	Objectives  []*Record `hcl:"objective,block"`
	Remain      hcl.Body  `hcl:",remain"`
}

func parseOptimization(block *hclsyntax.Block) (*Optimization, error) {
	var schema optimizationSchema
	if diags := gohcl.DecodeBody(block.Body, nil, &schema); diags.HasErrors() {
		return nil, fmt.Errorf("%w: decoding optimization section: %w", ErrConfiguration, diags)
	}
	optim := &Optimization{
		DesignVars:  schema.DesignVars,
		Constraints: schema.Constraints,
		Objectives:  schema.Objectives,
	}
	if err := optim.Validate(); err != nil {
		return nil, err
	}
	return optim, nil
}

func sortedAttributes(attrs hclsyntax.Attributes) []*hclsyntax.Attribute {
	out := make([]*hclsyntax.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, attr)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Range().Start.Byte < out[j].Range().Start.Byte
	})
	return out
}

// exprSource returns the exact expression text as written in the file.
func exprSource(src []byte, expression hclsyntax.Expression) string {
	rng := expression.Range()
	if rng.Start.Byte < 0 || rng.End.Byte > len(src) {
		return ""
	}
	return string(src[rng.Start.Byte:rng.End.Byte])
}

func stringAttr(attr *hclsyntax.Attribute) (string, error) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() || val.IsNull() || val.Type() != cty.String {
		return "", fmt.Errorf("%w: attribute %q must be a literal string", ErrConfiguration, attr.Name)
	}
	return val.AsString(), nil
}

func boolAttr(attr *hclsyntax.Attribute) (bool, error) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() || val.IsNull() || val.Type() != cty.Bool {
		return false, fmt.Errorf("%w: attribute %q must be a literal bool", ErrConfiguration, attr.Name)
	}
	return val.True(), nil
}

func stringListAttr(attr *hclsyntax.Attribute) ([]string, error) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() || val.IsNull() || !(val.Type().IsTupleType() || val.Type().IsListType()) {
		return nil, fmt.Errorf("%w: attribute %q must be a list of strings", ErrConfiguration, attr.Name)
	}
	var out []string
	for it := val.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		if elem.Type() != cty.String {
			return nil, fmt.Errorf("%w: attribute %q must be a list of strings", ErrConfiguration, attr.Name)
		}
		out = append(out, elem.AsString())
	}
	return out, nil
}
