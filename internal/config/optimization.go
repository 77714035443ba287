package config

import (
	"fmt"
	"sort"
)

// Record is one design-variable, constraint or objective entry. Numeric
// fields are pointers so that absent and zero are distinguishable; only
// these fields survive a round trip through the file format.
type Record struct {
	Name   string   `hcl:"name"`
	Lower  *float64 `hcl:"lower,optional"`
	Upper  *float64 `hcl:"upper,optional"`
	Ref    *float64 `hcl:"ref,optional"`
	Ref0   *float64 `hcl:"ref0,optional"`
	Scaler *float64 `hcl:"scaler,optional"`
	Adder  *float64 `hcl:"adder,optional"`
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	c.Lower = clonePtr(r.Lower)
	c.Upper = clonePtr(r.Upper)
	c.Ref = clonePtr(r.Ref)
	c.Ref0 = clonePtr(r.Ref0)
	c.Scaler = clonePtr(r.Scaler)
	c.Adder = clonePtr(r.Adder)
	return &c
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Optimization is the on-disk shape of the optimization setup: an ordered
// record list per category. Names are unique within a category; a name may
// appear in several categories.
type Optimization struct {
	DesignVars  []*Record
	Constraints []*Record
	Objectives  []*Record
}

// NameKeyed is the in-memory, name-indexed view of an Optimization.
type NameKeyed struct {
	DesignVars  map[string]*Record
	Constraints map[string]*Record
	Objectives  map[string]*Record
}

// Validate checks name uniqueness within each category.
func (o *Optimization) Validate() error {
	for category, records := range map[string][]*Record{
		"design_var": o.DesignVars,
		"constraint": o.Constraints,
		"objective":  o.Objectives,
	} {
		seen := make(map[string]struct{}, len(records))
		for _, rec := range records {
			if rec.Name == "" {
				return fmt.Errorf("%w: %s record without a name", ErrConfiguration, category)
			}
			if _, dup := seen[rec.Name]; dup {
				return fmt.Errorf("%w: duplicate %s record %q", ErrConfiguration, category, rec.Name)
			}
			seen[rec.Name] = struct{}{}
		}
	}
	return nil
}

// ByName converts to the name-keyed view. Records are deep-copied so edits
// to the view do not alias the stored configuration.
func (o *Optimization) ByName() *NameKeyed {
	return &NameKeyed{
		DesignVars:  recordsByName(o.DesignVars),
		Constraints: recordsByName(o.Constraints),
		Objectives:  recordsByName(o.Objectives),
	}
}

// FromNameKeyed rebuilds the record lists from a name-keyed view. Records
// are emitted in name order: the original array order is not preserved
// after a name-keyed round trip, which is a documented property of this
// representation, not a defect.
func FromNameKeyed(keyed *NameKeyed) *Optimization {
	return &Optimization{
		DesignVars:  recordsFromMap(keyed.DesignVars),
		Constraints: recordsFromMap(keyed.Constraints),
		Objectives:  recordsFromMap(keyed.Objectives),
	}
}

func recordsByName(records []*Record) map[string]*Record {
	out := make(map[string]*Record, len(records))
	for _, rec := range records {
		out[rec.Name] = rec.Clone()
	}
	return out
}

func recordsFromMap(records map[string]*Record) []*Record {
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*Record, 0, len(records))
	for _, name := range names {
		rec := records[name].Clone()
		rec.Name = name
		out = append(out, rec)
	}
	return out
}
