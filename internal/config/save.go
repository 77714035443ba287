package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/goad/internal/fsutil"
)

// Save serializes the live in-memory configuration back to HCL at the given
// path, creating destination directories as needed. Attribute expressions
// keep their original source text, so a save/load cycle reproduces the same
// model tree and optimization contents.
func Save(fsys afero.Fs, path string, cfg *Config) error {
	if cfg.Model == nil {
		return &NoProblemDefinedError{Reason: "cannot save a configuration without a model section"}
	}

	file := hclwrite.NewEmptyFile()
	root := file.Body()

	root.SetAttributeValue(KeyInputFile, cty.StringVal(cfg.InputFile))
	root.SetAttributeValue(KeyOutputFile, cty.StringVal(cfg.OutputFile))
	if len(cfg.ModuleFolders) > 0 {
		folders := make([]cty.Value, len(cfg.ModuleFolders))
		for i, folder := range cfg.ModuleFolders {
			folders[i] = cty.StringVal(folder)
		}
		root.SetAttributeValue(KeyModuleFolders, cty.TupleVal(folders))
	}
	if cfg.Driver != "" {
		root.SetAttributeRaw(KeyDriver, rawTokens(cfg.Driver))
	}
	if cfg.AutoScaling {
		root.SetAttributeValue(KeyAutoScaling, cty.True)
	}

	root.AppendNewline()
	modelBlock := root.AppendNewBlock(BlockModel, nil)
	writeModelBody(modelBlock.Body(), cfg.Model)

	if cfg.Optimization != nil {
		root.AppendNewline()
		optimBlock := root.AppendNewBlock(BlockOptim, nil)
		writeOptimization(optimBlock.Body(), cfg.Optimization)
	}

	if err := fsutil.EnsureParentDir(fsys, path); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := afero.WriteFile(fsys, path, file.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing configuration %s: %w", path, err)
	}
	return nil
}

func writeModelBody(body *hclwrite.Body, spec Spec) {
	switch node := spec.(type) {
	case *LeafSpec:
		body.SetAttributeValue(KeyID, cty.StringVal(node.ID))
		for _, opt := range node.Options {
			body.SetAttributeRaw(opt.Name, rawTokens(opt.Source))
		}
	case *GroupSpec:
		for _, attr := range node.Attrs {
			body.SetAttributeRaw(attr.Name, rawTokens(attr.Source))
		}
		for _, child := range node.Children {
			childBlock := body.AppendNewBlock(child.Name, nil)
			writeModelBody(childBlock.Body(), child.Spec)
		}
	}
}

func writeOptimization(body *hclwrite.Body, optim *Optimization) {
	writeRecords(body, "design_var", optim.DesignVars)
	writeRecords(body, "constraint", optim.Constraints)
	writeRecords(body, "objective", optim.Objectives)
}

func writeRecords(body *hclwrite.Body, blockType string, records []*Record) {
	for _, rec := range records {
		block := body.AppendNewBlock(blockType, nil)
		recBody := block.Body()
		recBody.SetAttributeValue("name", cty.StringVal(rec.Name))
		setNumber(recBody, "lower", rec.Lower)
		setNumber(recBody, "upper", rec.Upper)
		setNumber(recBody, "ref", rec.Ref)
		setNumber(recBody, "ref0", rec.Ref0)
		setNumber(recBody, "scaler", rec.Scaler)
		setNumber(recBody, "adder", rec.Adder)
	}
}

func setNumber(body *hclwrite.Body, name string, value *float64) {
	if value == nil {
		return
	}
	body.SetAttributeValue(name, cty.NumberFloatVal(*value))
}

// rawTokens re-emits stored expression source verbatim.
func rawTokens(source string) hclwrite.Tokens {
	return hclwrite.Tokens{
		{Type: hclsyntax.TokenIdent, Bytes: []byte(source)},
	}
}
