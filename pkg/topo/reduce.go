package topo

import (
	"maps"
	"slices"

	"github.com/matzehuels/wsbuild/pkg/manifest"
)

// Decorated pairs a package with its location and its reduced dependency set.
type Decorated struct {
	Path    string
	Package *manifest.Package

	// DependsForTopologicalOrder is nil until [ReduceAll] (or an explicit
	// [Reduce]) fills it in.
	DependsForTopologicalOrder Set
}

// Name returns the package name.
func (d *Decorated) Name() string { return d.Package.Name }

// Decorate wraps pkg without computing its dependency set.
func Decorate(path string, pkg *manifest.Package) *Decorated {
	return &Decorated{Path: path, Package: pkg}
}

// Universe maps package names to the packages taking part in one ordering
// pass. It is the set of names [Reduce] may recurse into.
type Universe map[string]*Decorated

// Names returns the package names in ascending order.
func (u Universe) Names() []string { return slices.Sorted(maps.Keys(u)) }

var (
	directKinds = []manifest.Kind{manifest.KindBuild, manifest.KindBuildtool, manifest.KindTest}
	exportKinds = []manifest.Kind{manifest.KindBuildExport, manifest.KindBuildtoolExport, manifest.KindExec}
)

// Reduce returns the names in universe that must be built before pkg.
//
// Members of materialized group dependencies count both as direct
// dependencies and as exported ones. A package that reaches itself through
// its dependencies ends up in its own set, which [Sort] reports as a cycle.
func Reduce(pkg *manifest.Package, universe Universe) Set {
	deps := NewSet()
	for _, name := range append(pkg.Names(directKinds...), pkg.GroupMembers()...) {
		if d, ok := universe[name]; ok && !deps.Has(name) {
			addRunDepends(d.Package, universe, deps)
		}
	}
	return deps
}

// addRunDepends adds pkg and, recursively, its exported dependencies to acc.
// Names already in acc are not expanded again, which also stops the
// recursion on export-only cycles.
func addRunDepends(pkg *manifest.Package, universe Universe, acc Set) {
	acc.Add(pkg.Name)
	for _, name := range append(pkg.Names(exportKinds...), pkg.GroupMembers()...) {
		if d, ok := universe[name]; ok && !acc.Has(name) {
			addRunDepends(d.Package, universe, acc)
		}
	}
}

// ReduceAll sets DependsForTopologicalOrder on every package of u, reducing
// against u itself.
func ReduceAll(u Universe) {
	for _, d := range u {
		d.DependsForTopologicalOrder = Reduce(d.Package, u)
	}
}
