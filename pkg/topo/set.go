package topo

import (
	"maps"
	"slices"
)

// Set is an unordered set of package names.
type Set map[string]struct{}

// NewSet returns a set holding names.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s Set) Add(name string)      { s[name] = struct{}{} }
func (s Set) Delete(name string)   { delete(s, name) }
func (s Set) Has(name string) bool { _, ok := s[name]; return ok }

// Sorted returns the members in ascending order.
func (s Set) Sorted() []string { return slices.Sorted(maps.Keys(s)) }

// Clone returns a copy of s. Cloning a nil set yields an empty set.
func (s Set) Clone() Set {
	c := make(Set, len(s))
	maps.Copy(c, s)
	return c
}

// Equal reports whether s and o hold the same names.
func (s Set) Equal(o Set) bool {
	if len(s) != len(o) {
		return false
	}
	for n := range s {
		if !o.Has(n) {
			return false
		}
	}
	return true
}
