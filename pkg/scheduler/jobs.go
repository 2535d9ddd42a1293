package scheduler

import (
	"path/filepath"
	"slices"

	"github.com/matzehuels/wsbuild/pkg/buildtype"
	"github.com/matzehuels/wsbuild/pkg/manifest"
	"github.com/matzehuels/wsbuild/pkg/topo"
	"github.com/matzehuels/wsbuild/pkg/workspace"
)

// Layout places the spaces of a workspace.
type Layout struct {
	// BasePath is the directory entry paths are relative to.
	BasePath string

	// BuildSpace holds one build directory per package.
	BuildSpace string

	// InstallSpace is the shared install prefix, or the parent of the
	// per-package prefixes when Isolated is set.
	InstallSpace string
	Isolated     bool
}

// InstallPrefix returns the install prefix of the named package.
func (l Layout) InstallPrefix(name string) string {
	if l.Isolated {
		return filepath.Join(l.InstallSpace, name)
	}
	return l.InstallSpace
}

// SharePath returns the share directory the named package installs to.
func (l Layout) SharePath(name string) string {
	return filepath.Join(l.InstallPrefix(name), "share", name)
}

// Job is one package ready to be handed to the callback.
type Job struct {
	Name string

	// Wait lists the jobs that must be done before this one starts.
	Wait []string

	Context *buildtype.Context
}

// Prepare builds the jobs of plan. template supplies the flags shared by
// every package; each job gets its own copy with the package, its spaces
// and its dependency paths filled in.
//
// In a reversed plan a job waits for the jobs that depend on it.
func Prepare(plan *Plan, layout Layout, template *buildtype.Context, reverse bool) ([]Job, error) {
	if template == nil {
		template = &buildtype.Context{}
	}
	var all []topo.Entry
	for _, e := range plan.Entries {
		all = append(all, e.Entry)
	}
	universe := workspace.PackagesOf(all)
	inWorkspace := make(map[string]bool, len(all))
	for _, e := range all {
		inWorkspace[e.Package.Name] = true
	}

	selected := plan.Selected()
	scheduled := make(map[string]bool, len(selected))
	for _, e := range selected {
		scheduled[e.Package.Name] = true
	}

	jobs := make([]Job, 0, len(selected))
	for _, e := range selected {
		name := e.Package.Name
		ordered, err := workspace.OrderedDependencies(universe, e)
		if err != nil {
			return nil, err
		}

		bc := template.Clone()
		bc.Package = e.Package
		bc.SourceSpace = filepath.Join(layout.BasePath, e.Path)
		bc.BuildSpace = filepath.Join(layout.BuildSpace, name)
		bc.InstallSpace = layout.InstallPrefix(name)
		bc.Isolated = layout.Isolated
		bc.BuildDependencies = nil
		for _, d := range ordered {
			bc.BuildDependencies = append(bc.BuildDependencies, layout.SharePath(d))
		}
		bc.ExecDependencyPaths = nil
		for _, d := range e.Package.Names(manifest.KindExec) {
			if inWorkspace[d] {
				bc.ExecDependencyPaths = append(bc.ExecDependencyPaths, layout.SharePath(d))
			}
		}

		jobs = append(jobs, Job{Name: name, Context: bc})
	}

	for i := range jobs {
		jobs[i].Wait = waitsFor(selected, i, scheduled, reverse)
	}
	return jobs, nil
}

func waitsFor(selected []topo.Entry, i int, scheduled map[string]bool, reverse bool) []string {
	name := selected[i].Package.Name
	var wait []string
	if !reverse {
		for _, d := range selected[i].Depends {
			if d != name && scheduled[d] {
				wait = append(wait, d)
			}
		}
		return wait
	}
	for _, e := range selected {
		if e.Package.Name != name && slices.Contains(e.Depends, name) {
			wait = append(wait, e.Package.Name)
		}
	}
	slices.Sort(wait)
	return wait
}
