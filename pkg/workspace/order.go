package workspace

import (
	"context"
	"path/filepath"
	"slices"

	"github.com/matzehuels/wsbuild/pkg/errors"
	"github.com/matzehuels/wsbuild/pkg/topo"
)

// OrderOptions restricts and extends an ordering.
type OrderOptions struct {
	// Whitelist keeps only the named packages in the result. Their
	// dependencies are still resolved against the whole workspace.
	Whitelist []string

	// Blacklist removes the named primary packages before dependencies are
	// resolved. An underlay package of the same name takes their place.
	Blacklist []string

	// Underlays are additional workspace roots, closest first. Their
	// packages satisfy dependencies but never appear in the result, and a
	// primary package hides an underlay package of the same name.
	Underlays []string

	// Env is the context conditions are evaluated in.
	Env map[string]string

	Discover DiscoverOptions
}

// TopologicalOrder discovers the workspace at root and its underlays and
// returns the ordering of the primary packages. Entry paths are relative to
// root.
//
// A name used by two packages of the primary workspace is an error even
// when the whitelist or blacklist would drop one of them.
func TopologicalOrder(ctx context.Context, root string, opts OrderOptions) ([]topo.Entry, error) {
	pkgs, err := FindUniquePackages(ctx, root, opts.Discover)
	if err != nil {
		return nil, err
	}

	// The closest underlay is merged last so it wins.
	byName := make(map[string]string)
	underlay := make(Packages)
	for _, ws := range slices.Backward(opts.Underlays) {
		found, err := FindUniquePackages(ctx, ws, opts.Discover)
		if err != nil {
			return nil, err
		}
		for path, p := range found {
			if prev, ok := byName[p.Name]; ok {
				delete(underlay, prev)
			}
			abs := filepath.Join(ws, path)
			byName[p.Name] = abs
			underlay[abs] = p
		}
	}

	pkgs, underlay, err = Resolve(opts.Env, pkgs, underlay)
	if err != nil {
		return nil, err
	}
	return TopologicalOrderPackages(pkgs, PackageOptions{
		Whitelist: opts.Whitelist,
		Blacklist: opts.Blacklist,
		Underlay:  underlay,
	})
}

// PackageOptions configures [TopologicalOrderPackages].
type PackageOptions struct {
	Whitelist []string
	Blacklist []string

	// Underlay packages, keyed by path and with unique names.
	Underlay Packages
}

// TopologicalOrderPackages orders packages already in memory. Conditions
// and group members must have been resolved, see [Resolve].
func TopologicalOrderPackages(pkgs Packages, opts PackageOptions) ([]topo.Entry, error) {
	if err := checkPair(pkgs); err != nil {
		return nil, err
	}

	whitelist := topo.NewSet(opts.Whitelist...)
	blacklist := topo.NewSet(opts.Blacklist...)

	universe := make(topo.Universe, len(pkgs)+len(opts.Underlay))
	ordered := make(topo.Universe, len(pkgs)+len(opts.Underlay))
	for _, path := range pkgs.Paths() {
		p := pkgs[path]
		if blacklist.Has(p.Name) {
			continue
		}
		d := topo.Decorate(path, p)
		universe[p.Name] = d
		if len(whitelist) == 0 || whitelist.Has(p.Name) {
			ordered[p.Name] = d
		}
	}

	fromUnderlay := topo.NewSet()
	for _, path := range opts.Underlay.Paths() {
		p := opts.Underlay[path]
		if _, ok := universe[p.Name]; ok {
			continue
		}
		d := topo.Decorate(path, p)
		universe[p.Name] = d
		ordered[p.Name] = d
		fromUnderlay.Add(p.Name)
	}

	topo.ReduceAll(universe)
	entries := topo.Sort(ordered)

	return slices.DeleteFunc(entries, func(e topo.Entry) bool {
		return !e.IsCycle() && fromUnderlay.Has(e.Package.Name)
	}), nil
}

// checkPair reports the first name, in path order, that two packages share.
func checkPair(pkgs Packages) error {
	seen := make(map[string]string, len(pkgs))
	for _, path := range pkgs.Paths() {
		name := pkgs[path].Name
		if prev, ok := seen[name]; ok {
			return errors.New(errors.ErrCodeDuplicatePackage,
				"Two packages with the same name '%s' in the workspace:\n- %s\n- %s", name, prev, path)
		}
		seen[name] = path
	}
	return nil
}

// Resolve evaluates every package's conditions against env and fills in
// the members of group dependencies from both package sets. It returns
// resolved copies; the inputs are not modified. underlay may be nil.
func Resolve(env map[string]string, primary, underlay Packages) (Packages, Packages, error) {
	primary, err := evaluate(primary, env)
	if err != nil {
		return nil, nil, err
	}
	underlay, err = evaluate(underlay, env)
	if err != nil {
		return nil, nil, err
	}

	members := groupMembers(primary, underlay)
	for _, set := range []Packages{primary, underlay} {
		for path, p := range set {
			if len(p.GroupDepends) > 0 {
				set[path] = p.WithGroupMembers(members)
			}
		}
	}
	return primary, underlay, nil
}

func evaluate(pkgs Packages, env map[string]string) (Packages, error) {
	out := make(Packages, len(pkgs))
	for path, p := range pkgs {
		e, err := p.Evaluate(env)
		if err != nil {
			return nil, err
		}
		out[path] = e
	}
	return out, nil
}

// groupMembers maps each group name to the names of the packages that
// declare membership. A name is listed once even if several sets hold it.
func groupMembers(sets ...Packages) map[string][]string {
	seen := make(map[string]topo.Set)
	for _, set := range sets {
		for _, p := range set {
			for _, g := range p.MemberOfGroups {
				if seen[g] == nil {
					seen[g] = topo.NewSet()
				}
				seen[g].Add(p.Name)
			}
		}
	}
	members := make(map[string][]string, len(seen))
	for g, names := range seen {
		members[g] = names.Sorted()
	}
	return members
}
