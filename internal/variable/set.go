package variable

import "fmt"

// NotFoundError is returned when a name-indexed lookup misses.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("variable %q not found", e.Name)
}

// Set is an ordered, name-unique collection of variables. Appending a
// variable whose name is already present replaces the existing entry in
// place, so first-seen positions are stable across updates.
type Set struct {
	items []*Variable
}

// NewSet builds a Set from the given variables, applying Append semantics
// in order.
func NewSet(vars ...*Variable) *Set {
	s := &Set{}
	for _, v := range vars {
		// Append only fails on nil, which would be a programming error here.
		if err := s.Append(v); err != nil {
			panic(err)
		}
	}
	return s
}

// Len returns the number of variables in the set.
func (s *Set) Len() int { return len(s.items) }

// Names returns the variable names in set order.
func (s *Set) Names() []string {
	names := make([]string, len(s.items))
	for i, v := range s.items {
		names[i] = v.name
	}
	return names
}

// Variables returns the members in set order. The slice is a copy but the
// variables are shared.
func (s *Set) Variables() []*Variable {
	return append([]*Variable(nil), s.items...)
}

// At returns the variable at position i.
func (s *Set) At(i int) *Variable { return s.items[i] }

// Append adds v at the end of the set, unless its name is already used, in
// which case v replaces the previous entry at its original position.
func (s *Set) Append(v *Variable) error {
	if v == nil {
		return fmt.Errorf("cannot append a nil variable")
	}
	if i := s.index(v.name); i >= 0 {
		s.items[i] = v
		return nil
	}
	s.items = append(s.items, v)
	return nil
}

// Get returns the variable with the given name, or a NotFoundError.
func (s *Set) Get(name string) (*Variable, error) {
	if i := s.index(name); i >= 0 {
		return s.items[i], nil
	}
	return nil, &NotFoundError{Name: name}
}

// Contains reports whether a variable with the given name is present.
func (s *Set) Contains(name string) bool {
	return s.index(name) >= 0
}

// Set updates the named variable from the given metadata, or constructs and
// appends a new one if the name is absent.
func (s *Set) Set(name string, meta Metadata) error {
	v, err := New(name, meta)
	if err != nil {
		return err
	}
	return s.Append(v)
}

// Remove deletes the named variable, or returns a NotFoundError.
func (s *Set) Remove(name string) error {
	i := s.index(name)
	if i < 0 {
		return &NotFoundError{Name: name}
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

// Update replaces same-named entries from other. Variables of other that
// are not yet in the set are added only when addVariables is true, after
// the existing entries and in other's order.
func (s *Set) Update(other *Set, addVariables bool) {
	if other == nil {
		return
	}
	for _, v := range other.items {
		if addVariables || s.Contains(v.name) {
			// Append cannot fail: v came from a valid set.
			_ = s.Append(v)
		}
	}
}

// Clone returns a deep copy of the set.
func (s *Set) Clone() *Set {
	c := &Set{items: make([]*Variable, len(s.items))}
	for i, v := range s.items {
		c.items[i] = v.Clone()
	}
	return c
}

func (s *Set) index(name string) int {
	for i, v := range s.items {
		if v.name == name {
			return i
		}
	}
	return -1
}
