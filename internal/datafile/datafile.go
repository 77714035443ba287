// Package datafile reads and writes variable data files. A variable name
// such as data:geometry:wing:area maps to a nested document tree; each leaf
// carries the value, units and description of one variable.
package datafile

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/vk/goad/internal/fsutil"
	"github.com/vk/goad/internal/variable"
)

// Separator splits a variable name into document tree levels.
const Separator = ":"

// Reader decodes one on-disk representation into a variable set.
type Reader interface {
	Read(r io.Reader) (*variable.Set, error)
}

// Writer encodes a variable set into one on-disk representation.
type Writer interface {
	Write(w io.Writer, vars *variable.Set) error
}

// Formatter converts between a variable set and one on-disk representation.
type Formatter interface {
	Reader
	Writer
}

// ForPath selects a formatter from the file extension: .xml is the XML
// layout, everything else the YAML layout.
func ForPath(path string) Formatter {
	if strings.EqualFold(filepath.Ext(path), ".xml") {
		return &XMLFormatter{}
	}
	return &YAMLFormatter{}
}

// File binds a path on a filesystem to its formatter.
type File struct {
	fs        afero.Fs
	path      string
	formatter Formatter
}

// NewFile builds a file handle with the formatter inferred from the path.
func NewFile(fsys afero.Fs, path string) *File {
	return &File{fs: fsys, path: path, formatter: ForPath(path)}
}

// NewFileWithFormatter builds a file handle with an explicit formatter.
func NewFileWithFormatter(fsys afero.Fs, path string, formatter Formatter) *File {
	return &File{fs: fsys, path: path, formatter: formatter}
}

// Path returns the bound file path.
func (f *File) Path() string { return f.path }

// Load reads the whole file into a variable set.
func (f *File) Load() (*variable.Set, error) {
	handle, err := f.fs.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("opening data file: %w", err)
	}
	defer handle.Close()

	vars, err := f.formatter.Read(handle)
	if err != nil {
		return nil, fmt.Errorf("reading data file %s: %w", f.path, err)
	}
	return vars, nil
}

// Save writes the variable set, creating parent directories as needed.
func (f *File) Save(vars *variable.Set) error {
	if err := fsutil.EnsureParentDir(f.fs, f.path); err != nil {
		return err
	}
	handle, err := f.fs.Create(f.path)
	if err != nil {
		return fmt.Errorf("creating data file: %w", err)
	}
	defer handle.Close()

	if err := f.formatter.Write(handle, vars); err != nil {
		return fmt.Errorf("writing data file %s: %w", f.path, err)
	}
	return nil
}
