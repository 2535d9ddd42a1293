package topo

import (
	"slices"
	"strings"

	"github.com/matzehuels/wsbuild/pkg/errors"
	"github.com/matzehuels/wsbuild/pkg/manifest"
)

// Entry is one element of an ordering.
//
// A regular entry has Package set and lists in Depends, sorted, the reduced
// dependencies that take part in the ordering. A cycle entry has a nil
// Package and the names it could not order in Cycle; it is always the last
// entry of a result.
type Entry struct {
	Path    string
	Package *manifest.Package
	Depends []string
	Cycle   []string
}

// IsCycle reports whether e is the terminal cycle entry.
func (e Entry) IsCycle() bool { return e.Package == nil }

// Name returns the package name, or the cycle label for a cycle entry.
func (e Entry) Name() string {
	if e.IsCycle() {
		return e.CycleLabel()
	}
	return e.Package.Name
}

// CycleLabel returns the cycle members joined by ", ".
func (e Entry) CycleLabel() string { return strings.Join(e.Cycle, ", ") }

// Sort orders the packages of u so that each package follows everything in
// its DependsForTopologicalOrder set. Names in a set that are not keys of u
// are ignored. Among the packages that are ready the alphabetically first is
// emitted next.
//
// If the remaining packages all wait on each other, Sort appends one cycle
// entry and stops. u is never modified.
func Sort(u Universe) []Entry {
	pending := make(map[string]Set, len(u))
	dependents := make(map[string][]string, len(u))
	var ready []string

	for _, name := range u.Names() {
		deps := NewSet()
		for dep := range u[name].DependsForTopologicalOrder {
			if _, ok := u[dep]; ok {
				deps.Add(dep)
				dependents[dep] = append(dependents[dep], name)
			}
		}
		pending[name] = deps
		if len(deps) == 0 {
			ready = append(ready, name)
		}
	}

	entries := make([]Entry, 0, len(u))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]

		d := u[name]
		entries = append(entries, Entry{
			Path:    d.Path,
			Package: d.Package,
			Depends: restrictedDepends(d, u),
		})
		delete(pending, name)

		for _, dependent := range dependents[name] {
			deps, ok := pending[dependent]
			if !ok {
				continue
			}
			deps.Delete(name)
			if len(deps) == 0 {
				i, _ := slices.BinarySearch(ready, dependent)
				ready = slices.Insert(ready, i, dependent)
			}
		}
	}

	if len(pending) > 0 {
		entries = append(entries, Entry{Cycle: reduceCycleSet(pending)})
	}
	return entries
}

func restrictedDepends(d *Decorated, u Universe) []string {
	deps := make([]string, 0, len(d.DependsForTopologicalOrder))
	for _, name := range d.DependsForTopologicalOrder.Sorted() {
		if _, ok := u[name]; ok {
			deps = append(deps, name)
		}
	}
	return deps
}

// reduceCycleSet drops packages nobody in the remainder depends on until
// the set of depended-upon names stops changing. If that empties the
// remainder, every remaining name is returned instead.
func reduceCycleSet(remaining map[string]Set) []string {
	all := make(Set, len(remaining))
	left := make(map[string]Set, len(remaining))
	for name, deps := range remaining {
		all.Add(name)
		left[name] = deps
	}

	var last Set
	for {
		depended := NewSet()
		for _, deps := range left {
			for name := range deps {
				depended.Add(name)
			}
		}
		for name := range left {
			if !depended.Has(name) {
				delete(left, name)
			}
		}
		if last != nil && last.Equal(depended) {
			break
		}
		last = depended
	}

	if len(left) == 0 {
		return all.Sorted()
	}
	names := NewSet()
	for name := range left {
		names.Add(name)
	}
	return names.Sorted()
}

// CheckCycle returns a DEPENDENCY_CYCLE error when entries end in a cycle
// entry.
func CheckCycle(entries []Entry) error {
	if len(entries) == 0 || !entries[len(entries)-1].IsCycle() {
		return nil
	}
	return errors.New(errors.ErrCodeCycle,
		"circular dependency between packages: %s", entries[len(entries)-1].CycleLabel())
}

// Names returns the entry names in order.
func Names(entries []Entry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names
}
