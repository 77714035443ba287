// Package config holds the declarative problem definition: the nested model
// table, the optimization setup and the I/O file locations, loaded from and
// saved back to HCL configuration files.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Reserved keys of the configuration format.
const (
	KeyID            = "id"
	KeyInputFile     = "input_file"
	KeyOutputFile    = "output_file"
	KeyModuleFolders = "module_folders"
	KeyDriver        = "driver"
	KeyAutoScaling   = "auto_scaling"
	BlockModel       = "model"
	BlockOptim       = "optimization"
)

// ErrConfiguration is the category sentinel for malformed or incomplete
// configurations; match with errors.Is.
var ErrConfiguration = errors.New("invalid configuration")

// MissingKeyError reports an absent required top-level key.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("required configuration key %q is missing", e.Key)
}

func (e *MissingKeyError) Unwrap() error { return ErrConfiguration }

// NoProblemDefinedError reports a missing or mis-shaped model section.
type NoProblemDefinedError struct {
	Reason string
}

func (e *NoProblemDefinedError) Error() string {
	return fmt.Sprintf("no problem defined: %s", e.Reason)
}

func (e *NoProblemDefinedError) Unwrap() error { return ErrConfiguration }

// Spec is a node of the parsed model tree: either a LeafSpec naming a
// registry component or a GroupSpec holding substructure. The tagged tree
// is resolved once at parse time, so the assembler never re-tests key
// presence during recursion.
type Spec interface {
	isSpec()
}

// Attr is an attribute assignment on a model node. Source is the exact
// expression text from the configuration file; it is evaluated by the
// restricted evaluator at assembly time.
type Attr struct {
	Name   string
	Source string
}

// LeafSpec is a model node carrying the reserved id key: a registry
// component reference with construction options.
type LeafSpec struct {
	ID string
	// Options are the remaining attributes of the node, as expression
	// sources in source order.
	Options []Attr
}

func (*LeafSpec) isSpec() {}

// Child is a named sub-node of a group.
type Child struct {
	Name string
	Spec Spec
}

// GroupSpec is a model node without an id: an ordered collection of named
// sub-nodes plus attribute assignments on the group itself.
type GroupSpec struct {
	Children []Child
	Attrs    []Attr
}

func (*GroupSpec) isSpec() {}

// Config is the in-memory form of a problem configuration file. File
// locations are kept exactly as written; resolution against the
// configuration directory happens through the *Path methods.
type Config struct {
	// Dir is the directory of the file this configuration was loaded from,
	// used to resolve relative paths. Empty for programmatic configs.
	Dir string

	InputFile     string
	OutputFile    string
	ModuleFolders []string
	// Driver is the driver-selection expression source, empty if none.
	Driver      string
	AutoScaling bool

	Model        Spec
	Optimization *Optimization
}

// InputPath returns the input file location resolved against the
// configuration directory.
func (c *Config) InputPath() string { return c.resolve(c.InputFile) }

// OutputPath returns the output file location resolved against the
// configuration directory.
func (c *Config) OutputPath() string { return c.resolve(c.OutputFile) }

// ModuleFolderPaths returns the module folders resolved against the
// configuration directory.
func (c *Config) ModuleFolderPaths() []string {
	out := make([]string, len(c.ModuleFolders))
	for i, folder := range c.ModuleFolders {
		out[i] = c.resolve(folder)
	}
	return out
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.Dir == "" {
		return path
	}
	return filepath.Join(c.Dir, path)
}
