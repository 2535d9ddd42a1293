package workspace

import (
	"github.com/matzehuels/wsbuild/pkg/dag"
	"github.com/matzehuels/wsbuild/pkg/manifest"
	"github.com/matzehuels/wsbuild/pkg/topo"
)

// PackagesOf converts an ordering back into the packages it contains.
// A trailing cycle entry is ignored.
func PackagesOf(entries []topo.Entry) Packages {
	pkgs := make(Packages, len(entries))
	for _, e := range entries {
		if !e.IsCycle() {
			pkgs[e.Path] = e.Package
		}
	}
	return pkgs
}

// OrderedDependencies returns the names in e.Depends ordered among
// themselves, using pkgs as the universe. e itself is never part of the
// result.
func OrderedDependencies(pkgs Packages, e topo.Entry) ([]string, error) {
	if len(e.Depends) == 0 {
		return nil, nil
	}
	entries, err := TopologicalOrderPackages(pkgs, PackageOptions{Whitelist: e.Depends})
	if err != nil {
		return nil, err
	}
	if err := topo.CheckCycle(entries); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, d := range entries {
		if d.Package.Name != e.Package.Name {
			names = append(names, d.Package.Name)
		}
	}
	return names, nil
}

// DependsOn returns the names of the entries whose reduced dependencies
// contain name, in order.
func DependsOn(entries []topo.Entry, name string) []string {
	var names []string
	for _, e := range entries {
		if e.IsCycle() {
			continue
		}
		for _, d := range e.Depends {
			if d == name {
				names = append(names, e.Package.Name)
				break
			}
		}
	}
	return names
}

// Dependencies returns the sorted, unique dependency names of p over the
// given kinds. Group members count as run dependencies.
func Dependencies(p *manifest.Package, kinds ...manifest.Kind) []string {
	set := topo.NewSet(p.Names(kinds...)...)
	for _, k := range kinds {
		if k == manifest.KindExec {
			for _, m := range p.GroupMembers() {
				set.Add(m)
			}
		}
	}
	return set.Sorted()
}

// Graph returns the dependency graph of an ordering. Every entry becomes a
// node carrying its path, version and build type; edges run from each
// reduced dependency to its dependent. When entries end in a cycle the
// cycle members are added as well, with their edges among each other, so
// the cycle can be drawn. pkgs supplies their descriptors and may be nil
// for an acyclic ordering.
func Graph(entries []topo.Entry, pkgs Packages) *dag.DAG {
	g := dag.New(dag.Metadata{"packages": len(entries)})

	add := func(path string, p *manifest.Package) {
		_ = g.AddNode(dag.Node{
			ID: p.Name,
			Meta: dag.Metadata{
				"path":       path,
				"version":    p.Version,
				"build_type": p.BuildTypeOrDefault(),
			},
		})
	}

	var members []string
	for _, e := range entries {
		if e.IsCycle() {
			members = e.Cycle
			continue
		}
		add(e.Path, e.Package)
	}

	universe := make(topo.Universe)
	for path, p := range pkgs {
		universe[p.Name] = topo.Decorate(path, p)
	}
	for _, name := range members {
		if d, ok := universe[name]; ok {
			add(d.Path, d.Package)
			if n, ok := g.Node(name); ok {
				n.Meta["cycle"] = true
			}
		}
	}

	for _, e := range entries {
		if e.IsCycle() {
			continue
		}
		for _, dep := range e.Depends {
			_ = g.AddEdge(dag.Edge{From: dep, To: e.Package.Name})
		}
	}
	if len(members) > 0 {
		topo.ReduceAll(universe)
		for _, name := range members {
			d, ok := universe[name]
			if !ok {
				continue
			}
			for _, dep := range d.DependsForTopologicalOrder.Sorted() {
				if _, ok := g.Node(dep); ok {
					_ = g.AddEdge(dag.Edge{From: dep, To: name, Meta: dag.Metadata{"cycle": true}})
				}
			}
		}
	}
	return g
}
