package buildtype

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/matzehuels/wsbuild/pkg/errors"
)

// Phase names used in logs, hooks and errors.
const (
	PhaseBuild     = "build"
	PhaseInstall   = "install"
	PhaseTest      = "test"
	PhaseUninstall = "uninstall"
)

// Options are the command-line settings plugins may pick up in
// ExtendContext.
type Options struct {
	CMakeArgs      []string
	AmentCMakeArgs []string
	CTestArgs      []string
	ForceConfigure bool
	BazelArgs      []string
	Python         string
}

// Plugin drives one build system.
type Plugin interface {
	Name() string
	Description() string

	// ExtendContext returns the extension values the plugin needs. It may
	// return nil.
	ExtendContext(opts Options) *Extender

	Build(ctx context.Context, bc *Context) ([]Action, error)
	Install(ctx context.Context, bc *Context) ([]Action, error)
}

// Tester is implemented by plugins that can run a package's tests.
type Tester interface {
	Test(ctx context.Context, bc *Context) ([]Action, error)
}

// Uninstaller is implemented by plugins that can remove installed files.
type Uninstaller interface {
	Uninstall(ctx context.Context, bc *Context) ([]Action, error)
}

// Actions returns the actions of phase, or an UNSUPPORTED error when p does
// not implement it.
func Actions(ctx context.Context, p Plugin, phase string, bc *Context) ([]Action, error) {
	switch phase {
	case PhaseBuild:
		return p.Build(ctx, bc)
	case PhaseInstall:
		return p.Install(ctx, bc)
	case PhaseTest:
		if t, ok := p.(Tester); ok {
			return t.Test(ctx, bc)
		}
	case PhaseUninstall:
		if u, ok := p.(Uninstaller); ok {
			return u.Uninstall(ctx, bc)
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown phase %q", phase)
	}
	return nil, unsupported(p.Name(), phase)
}

func unsupported(buildType, phase string) error {
	return errors.New(errors.ErrCodeUnsupported, "build type %q does not support %s", buildType, phase)
}

// Factory creates a plugin.
type Factory func() Plugin

// Registry maps build type names to plugin factories. It is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry with every built-in plugin.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("cmake", func() Plugin { return NewCMake("cmake") })
	r.Register("ament_cmake", func() Plugin { return NewCMake("ament_cmake") })
	r.Register("bazel", func() Plugin { return NewBazel() })
	r.Register("ament_python", func() Plugin { return NewAmentPython() })
	r.Register("script", func() Plugin { return NewScript() })
	return r
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Get creates the plugin registered for name.
func (r *Registry) Get(name string) (Plugin, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownBuildType,
			"unknown build type %q (available: %v)", name, r.Names())
	}
	return f(), nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Names returns the registered build types in ascending order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}
