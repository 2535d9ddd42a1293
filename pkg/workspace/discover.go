package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/wsbuild/pkg/errors"
	"github.com/matzehuels/wsbuild/pkg/manifest"
)

// IgnoreMarkers are the file names that exclude a directory and everything
// below it from discovery.
var IgnoreMarkers = []string{"WSBUILD_IGNORE", "AMENT_IGNORE"}

// Packages maps a package path to its descriptor. Paths of a discovered
// workspace are relative to its root.
type Packages map[string]*manifest.Package

// Paths returns the package paths in ascending order.
func (p Packages) Paths() []string {
	paths := make([]string, 0, len(p))
	for path := range p {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	return paths
}

// ByName returns the package named name and its path.
func (p Packages) ByName(name string) (string, *manifest.Package, bool) {
	for _, path := range p.Paths() {
		if p[path].Name == name {
			return path, p[path], true
		}
	}
	return "", nil, false
}

// DiscoverOptions configures package discovery.
type DiscoverOptions struct {
	// Registry recognizes manifests. Nil means manifest.DefaultRegistry().
	Registry *manifest.Registry

	// Cache memoizes parsed manifests. Nil disables caching.
	Cache *ManifestCache

	// Exclude lists directories that are not searched, typically the build
	// and install spaces when they live inside the workspace.
	Exclude []string

	// Workers bounds concurrent manifest parsing. Zero means GOMAXPROCS.
	Workers int
}

func (o DiscoverOptions) registry() *manifest.Registry {
	if o.Registry == nil {
		return manifest.DefaultRegistry()
	}
	return o.Registry
}

// FindPackagePaths returns the sorted, root-relative paths of all package
// directories under root. Symbolic links to directories are followed; a
// directory reached twice through links is searched once.
func FindPackagePaths(ctx context.Context, root string, opts DiscoverOptions) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "workspace %s", root)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "workspace %s is not a directory", root)
	}

	w := &walker{
		ctx:      ctx,
		root:     root,
		registry: opts.registry(),
		exclude:  make(map[string]bool, len(opts.Exclude)),
		visited:  make(map[string]bool),
	}
	for _, p := range opts.Exclude {
		if real, err := filepath.EvalSymlinks(p); err == nil {
			w.exclude[real] = true
		}
	}
	if err := w.walk(root); err != nil {
		return nil, err
	}
	slices.Sort(w.paths)
	return w.paths, nil
}

type walker struct {
	ctx      context.Context
	root     string
	registry *manifest.Registry
	exclude  map[string]bool
	visited  map[string]bool
	paths    []string
}

func (w *walker) walk(dir string) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}
	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return nil
	}
	if w.visited[real] || w.exclude[real] {
		return nil
	}
	w.visited[real] = true

	for _, marker := range IgnoreMarkers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return nil
		}
	}
	if w.registry.Exists(dir) {
		rel, err := filepath.Rel(w.root, dir)
		if err != nil {
			return err
		}
		w.paths = append(w.paths, rel)
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", dir)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		child := filepath.Join(dir, e.Name())
		if !e.IsDir() {
			if e.Type()&os.ModeSymlink == 0 {
				continue
			}
			if info, err := os.Stat(child); err != nil || !info.IsDir() {
				continue
			}
		}
		if err := w.walk(child); err != nil {
			return err
		}
	}
	return nil
}

// FindPackages discovers and parses every package under root.
func FindPackages(ctx context.Context, root string, opts DiscoverOptions) (Packages, error) {
	paths, err := FindPackagePaths(ctx, root, opts)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	registry := opts.registry()

	for _, path := range paths {
		if err := errors.ValidatePath(filepath.ToSlash(path)); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "package path %q", path)
		}
	}

	var mu sync.Mutex
	pkgs := make(Packages, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := opts.Cache.Load(filepath.Join(root, path), registry.Parse)
			if err != nil {
				return err
			}
			mu.Lock()
			pkgs[path] = p
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pkgs, nil
}

// FindUniquePackages is [FindPackages] followed by a name collision check.
// Every duplicated name is reported with all of its paths.
func FindUniquePackages(ctx context.Context, root string, opts DiscoverOptions) (Packages, error) {
	pkgs, err := FindPackages(ctx, root, opts)
	if err != nil {
		return nil, err
	}
	if err := checkUnique(pkgs); err != nil {
		return nil, err
	}
	return pkgs, nil
}

func checkUnique(pkgs Packages) error {
	byName := make(map[string][]string)
	for _, path := range pkgs.Paths() {
		name := pkgs[path].Name
		byName[name] = append(byName[name], path)
	}

	var names []string
	for name, paths := range byName {
		if len(paths) > 1 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	slices.Sort(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Multiple packages found with the same name %q:", name)
		for _, path := range byName[name] {
			fmt.Fprintf(&b, "\n- %s", path)
		}
	}
	return errors.New(errors.ErrCodeDuplicatePackage, "%s", b.String())
}
