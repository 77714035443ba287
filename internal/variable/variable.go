// Package variable provides the named, unit-aware value cells exchanged
// between discipline components, data files and the problem configurator.
package variable

import (
	"fmt"
	"math"
	"strings"
)

// Metadata carries the recognized construction attributes of a Variable.
// It is the explicit schema for ingestion: readers that work from raw,
// file-derived maps should go through FromMap, which drops unknown keys.
type Metadata struct {
	// Value is a scalar (float64 or int) or a flat []float64 array.
	Value any
	// Units associated to the value, empty if dimensionless or unknown.
	Units string
	// Desc is a human-readable description.
	Desc string
	// Shape of the value. If nil, it is inferred from Value.
	Shape []int
	// Tags is a free set of marker strings, ignored by equality.
	Tags []string
}

// Variable is a named value cell with units, shape and description.
// The name is immutable once constructed; colons delimit its namespace
// segments (e.g. "data:geometry:wing:area").
type Variable struct {
	name  string
	value []float64
	units string
	desc  string
	shape []int
	tags  map[string]struct{}

	// shapeInferred records that shape came from the value, in which case
	// it is recomputed on every value reassignment.
	shapeInferred bool
}

// New builds a Variable from its name and metadata. An empty name is
// rejected. A nil Metadata.Value defaults to a single NaN, which marks the
// variable as not externally valued yet.
func New(name string, meta Metadata) (*Variable, error) {
	if name == "" {
		return nil, fmt.Errorf("variable name must not be empty")
	}

	v := &Variable{
		name: name,
		tags: make(map[string]struct{}, len(meta.Tags)),
	}
	for _, tag := range meta.Tags {
		v.tags[tag] = struct{}{}
	}

	value, err := coerceValue(meta.Value)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", name, err)
	}
	v.value = value

	if meta.Shape != nil {
		if size(meta.Shape) != len(v.value) {
			return nil, fmt.Errorf("variable %q: shape %v does not match value length %d", name, meta.Shape, len(v.value))
		}
		v.shape = append([]int(nil), meta.Shape...)
	} else {
		v.shape = inferShape(v.value)
		v.shapeInferred = true
	}

	v.units = meta.Units
	v.desc = meta.Desc
	if v.desc == "" {
		v.desc = catalogDescription(name)
	}
	return v, nil
}

// MustNew is New for statically known-good metadata, used by component
// declarations.
func MustNew(name string, meta Metadata) *Variable {
	v, err := New(name, meta)
	if err != nil {
		panic(err)
	}
	return v
}

// recognized construction keys for map-based ingestion. Anything else in
// the incoming map is dropped, so file readers can pass raw documents
// through without pre-filtering.
var recognizedKeys = map[string]struct{}{
	"value": {}, "units": {}, "desc": {}, "shape": {}, "tags": {},
}

// FromMap builds a Variable from a raw metadata map, retaining only
// recognized keys.
func FromMap(name string, raw map[string]any) (*Variable, error) {
	meta := Metadata{}
	for key, val := range raw {
		if _, ok := recognizedKeys[key]; !ok {
			continue
		}
		switch key {
		case "value":
			meta.Value = val
		case "units":
			if s, ok := val.(string); ok {
				meta.Units = s
			}
		case "desc":
			if s, ok := val.(string); ok {
				meta.Desc = s
			}
		case "shape":
			shape, err := coerceShape(val)
			if err != nil {
				return nil, fmt.Errorf("variable %q: %w", name, err)
			}
			meta.Shape = shape
		case "tags":
			meta.Tags = coerceTags(val)
		}
	}
	return New(name, meta)
}

// Name returns the immutable variable name.
func (v *Variable) Name() string { return v.name }

// Value returns the backing array. Scalars are single-element arrays.
func (v *Variable) Value() []float64 { return v.value }

// Scalar returns the first element of the value.
func (v *Variable) Scalar() float64 {
	if len(v.value) == 0 {
		return math.NaN()
	}
	return v.value[0]
}

// SetValue reassigns the value. When the shape was inferred rather than
// declared, it is recomputed from the new value.
func (v *Variable) SetValue(value any) error {
	coerced, err := coerceValue(value)
	if err != nil {
		return fmt.Errorf("variable %q: %w", v.name, err)
	}
	v.value = coerced
	if v.shapeInferred {
		v.shape = inferShape(v.value)
	}
	return nil
}

// Units returns the units string, empty if none.
func (v *Variable) Units() string { return v.units }

// SetUnits replaces the units string.
func (v *Variable) SetUnits(units string) { v.units = units }

// Description returns the description, empty if none.
func (v *Variable) Description() string { return v.desc }

// SetDescription replaces the description.
func (v *Variable) SetDescription(desc string) { v.desc = desc }

// Shape returns the declared or inferred shape.
func (v *Variable) Shape() []int { return v.shape }

// Tags returns the marker tags in unspecified order.
func (v *Variable) Tags() []string {
	tags := make([]string, 0, len(v.tags))
	for tag := range v.tags {
		tags = append(tags, tag)
	}
	return tags
}

// AddTag adds a marker tag.
func (v *Variable) AddTag(tag string) {
	v.tags[tag] = struct{}{}
}

// HasTag reports whether the tag is set.
func (v *Variable) HasTag(tag string) bool {
	_, ok := v.tags[tag]
	return ok
}

// IsMandatory reports whether the value is the NaN sentinel, i.e. every
// element is NaN. Such a variable must be supplied externally before a run.
func (v *Variable) IsMandatory() bool {
	return AllNaN(v.value)
}

// Equals compares two variables treating NaN as equal to NaN. Tags are
// excluded from the comparison; everything else (name, value, units,
// description, shape) must match.
func (v *Variable) Equals(other *Variable) bool {
	if other == nil {
		return false
	}
	if v.name != other.name || v.units != other.units || v.desc != other.desc {
		return false
	}
	if !equalShape(v.shape, other.shape) {
		return false
	}
	return EqualValues(v.value, other.value)
}

func (v *Variable) String() string {
	return fmt.Sprintf("Variable(name=%s, value=%v, units=%q)", v.name, v.value, v.units)
}

// Clone returns a deep copy of the variable.
func (v *Variable) Clone() *Variable {
	c := &Variable{
		name:          v.name,
		value:         append([]float64(nil), v.value...),
		units:         v.units,
		desc:          v.desc,
		shape:         append([]int(nil), v.shape...),
		tags:          make(map[string]struct{}, len(v.tags)),
		shapeInferred: v.shapeInferred,
	}
	for tag := range v.tags {
		c.tags[tag] = struct{}{}
	}
	return c
}

// EqualValues compares two arrays elementwise, treating NaN as equal to NaN.
func EqualValues(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] == b[i] {
			continue
		}
		if math.IsNaN(a[i]) && math.IsNaN(b[i]) {
			continue
		}
		return false
	}
	return true
}

// AllNaN reports whether every element of the array is NaN. An empty array
// is not considered NaN.
func AllNaN(values []float64) bool {
	if len(values) == 0 {
		return false
	}
	for _, x := range values {
		if !math.IsNaN(x) {
			return false
		}
	}
	return true
}

// NaNArray returns an array of n NaN values, the sentinel for a mandatory,
// not-yet-supplied input.
func NaNArray(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func coerceValue(value any) ([]float64, error) {
	switch x := value.(type) {
	case nil:
		return []float64{math.NaN()}, nil
	case float64:
		return []float64{x}, nil
	case float32:
		return []float64{float64(x)}, nil
	case int:
		return []float64{float64(x)}, nil
	case int64:
		return []float64{float64(x)}, nil
	case []float64:
		if len(x) == 0 {
			return nil, fmt.Errorf("value array must not be empty")
		}
		return append([]float64(nil), x...), nil
	case []any:
		out := make([]float64, 0, len(x))
		for _, item := range x {
			sub, err := coerceValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("value array must not be empty")
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", value)
	}
}

func coerceShape(value any) ([]int, error) {
	switch x := value.(type) {
	case []int:
		return append([]int(nil), x...), nil
	case []any:
		out := make([]int, 0, len(x))
		for _, item := range x {
			switch n := item.(type) {
			case int:
				out = append(out, n)
			case float64:
				out = append(out, int(n))
			default:
				return nil, fmt.Errorf("unsupported shape element type %T", item)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported shape type %T", value)
	}
}

func coerceTags(value any) []string {
	switch x := value.(type) {
	case []string:
		return x
	case []any:
		var out []string
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return strings.Fields(x)
	default:
		return nil
	}
}

func inferShape(value []float64) []int {
	return []int{len(value)}
}

func equalShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func size(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
