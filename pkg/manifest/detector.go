package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/philopon/go-toposort"

	"github.com/matzehuels/wsbuild/pkg/errors"
)

// Detector recognizes and reads one manifest format.
type Detector interface {
	// Name identifies the format (e.g., "toml", "cmake").
	Name() string
	// Filename is the manifest file the detector looks for in a package directory.
	Filename() string
	// Depends lists detectors that must be consulted before this one.
	Depends() []string
	// Parse reads the manifest file at path.
	Parse(path string) (*Package, error)
}

// Registry is an ordered set of detectors. The order is topological over
// each detector's Depends, ties broken by name.
type Registry struct {
	detectors []Detector
}

// NewRegistry orders the given detectors. It fails on duplicate names and
// on dependency cycles between detectors.
func NewRegistry(ds ...Detector) (*Registry, error) {
	byName := make(map[string]Detector, len(ds))
	for _, d := range ds {
		if err := errors.ValidateManifestFilename(d.Filename()); err != nil {
			return nil, fmt.Errorf("detector %q: %w", d.Name(), err)
		}
		if _, dup := byName[d.Name()]; dup {
			return nil, fmt.Errorf("multiple manifest detectors named %q", d.Name())
		}
		byName[d.Name()] = d
	}

	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	slices.Sort(names)

	graph := toposort.NewGraph(len(names))
	for _, n := range names {
		graph.AddNode(n)
	}
	for _, n := range names {
		for _, dep := range byName[n].Depends() {
			if _, ok := byName[dep]; ok {
				graph.AddEdge(dep, n)
			}
		}
	}
	sorted, ok := graph.Toposort()
	if !ok {
		return nil, fmt.Errorf("failed to determine topological order of manifest detectors: %v", names)
	}

	r := &Registry{detectors: make([]Detector, len(sorted))}
	for i, n := range sorted {
		r.detectors[i] = byName[n]
	}
	return r, nil
}

// DefaultRegistry returns a registry with every built-in format.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(TOMLDetector{}, YAMLDetector{}, XMLDetector{}, CMakeDetector{}, PythonDetector{})
	if err != nil {
		panic(err)
	}
	return r
}

// Names returns detector names in consultation order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.detectors))
	for i, d := range r.detectors {
		names[i] = d.Name()
	}
	return names
}

// Detect returns the first detector whose manifest exists in dir.
func (r *Registry) Detect(dir string) (Detector, bool) {
	for _, d := range r.detectors {
		if fileExists(filepath.Join(dir, d.Filename())) {
			return d, true
		}
	}
	return nil, false
}

// Exists reports whether dir contains a manifest of any known format.
func (r *Registry) Exists(dir string) bool {
	_, ok := r.Detect(dir)
	return ok
}

// Parse reads the package in dir with the first matching detector.
func (r *Registry) Parse(dir string) (*Package, error) {
	d, ok := r.Detect(dir)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidManifest, "no package manifest found in %s", dir)
	}
	path := filepath.Join(dir, d.Filename())
	pkg, err := d.Parse(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", path)
	}
	if err := errors.ValidatePackageName(pkg.Name); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	pkg.Filename = path
	pkg.Format = d.Name()
	return pkg, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
