package buildtype

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/matzehuels/wsbuild/pkg/cache"
)

// Context keys set by the cmake plugins.
const (
	KeyCMakeArgs           = "cmake_args"
	KeyAmentCMakeArgs      = "ament_cmake_args"
	KeyCTestArgs           = "ctest_args"
	KeyForceCMakeConfigure = "force_cmake_configure"
)

// CMake builds CMake projects with make. The ament_cmake flavour also
// enables ament testing and symlink install through cmake variables.
type CMake struct {
	buildType string

	hasTarget TargetProbe
	lookPath  func(string) (string, error)
}

// NewCMake returns the plugin for buildType, "cmake" or "ament_cmake".
func NewCMake(buildType string) *CMake {
	return &CMake{buildType: buildType, hasTarget: MakeHasTarget, lookPath: exec.LookPath}
}

func (p *CMake) Name() string { return p.buildType }

func (p *CMake) Description() string {
	if p.ament() {
		return "ament flavoured cmake project"
	}
	return "plain cmake project"
}

func (p *CMake) ament() bool { return p.buildType == "ament_cmake" }

func (p *CMake) ExtendContext(opts Options) *Extender {
	ext := NewExtender().
		Add(KeyForceCMakeConfigure, opts.ForceConfigure).
		Add(KeyCMakeArgs, nonNil(opts.CMakeArgs)).
		Add(KeyCTestArgs, nonNil(opts.CTestArgs))
	if p.ament() {
		ext.Add(KeyAmentCMakeArgs, nonNil(opts.AmentCMakeArgs))
	}
	return ext
}

func (p *CMake) cacheKey() string {
	if p.ament() {
		return KeyAmentCMakeArgs
	}
	return KeyCMakeArgs
}

func (p *CMake) config(bc *Context) map[string]any {
	cfg := map[string]any{
		"cmake_args":      nonNil(bc.Strings(KeyCMakeArgs)),
		"build_tests":     bc.BuildTests,
		"symlink_install": bc.SymlinkInstall,
	}
	if p.ament() {
		cfg["ament_cmake_args"] = nonNil(bc.Strings(KeyAmentCMakeArgs))
	}
	return cfg
}

// shouldConfigure decides whether cmake has to run and records the current
// configuration in the build space cache.
func (p *CMake) shouldConfigure(ctx context.Context, bc *Context) (bool, error) {
	configure := bc.Bool(KeyForceCMakeConfigure) ||
		!isFile(filepath.Join(bc.BuildSpace, "Makefile")) ||
		!isFile(filepath.Join(bc.BuildSpace, "CMakeCache.txt"))

	cfg := p.config(bc)
	store := bc.Store()
	changed, err := cache.Changed(ctx, store, p.cacheKey(), cfg)
	if err != nil {
		return false, err
	}
	if changed {
		configure = true
		bc.Log().Warn("Running cmake because arguments have changed.", "package", bc.Package.Name)
	}
	if !bc.DryRun {
		if err := cache.SetJSON(ctx, store, p.cacheKey(), cfg); err != nil {
			return false, err
		}
	}
	return configure, nil
}

func (p *CMake) Build(ctx context.Context, bc *Context) ([]Action, error) {
	configure, err := p.shouldConfigure(ctx, bc)
	if err != nil {
		return nil, err
	}

	env := p.env(bc)
	var actions []Action
	if configure {
		args := []string{p.cmakeExecutable(bc), bc.SourceSpace}
		if p.ament() {
			if bc.BuildTests {
				args = append(args, "-DAMENT_ENABLE_TESTING=1")
			}
			if bc.SymlinkInstall {
				args = append(args, "-DAMENT_CMAKE_SYMLINK_INSTALL=1")
			}
		}
		args = append(args, bc.Strings(KeyCMakeArgs)...)
		if p.ament() {
			args = append(args, bc.Strings(KeyAmentCMakeArgs)...)
		}
		args = append(args, "-DCMAKE_INSTALL_PREFIX="+bc.InstallSpace)
		actions = append(actions, Action{Cmd: args, Env: env})
	} else {
		actions = append(actions, Action{Cmd: []string{"make", "cmake_check_build_system"}, Env: env})
	}
	actions = append(actions, Action{Cmd: append([]string{"make"}, bc.MakeFlags...), Env: env})
	return actions, nil
}

func (p *CMake) Test(ctx context.Context, bc *Context) ([]Action, error) {
	if !bc.BuildTests {
		bc.Log().Warn("tests were not enabled for this build", "package", bc.Package.Name)
	}
	if !bc.DryRun && !p.hasTarget(ctx, bc.BuildSpace, "test") {
		bc.Log().Warnf("Could not run tests for '%s' package because it has no 'test' target", p.buildType)
		return nil, nil
	}

	var args []string
	if v, ok := os.LookupEnv("ARGS"); !ok {
		args = []string{"-V"}
	} else if v != "" {
		args = []string{v}
	}
	args = append(args, bc.Strings(KeyCTestArgs)...)

	cmd := []string{"make", "test"}
	if len(args) > 0 {
		cmd = append(cmd, "ARGS="+strings.Join(args, " "))
	}
	return []Action{{Cmd: cmd, Env: p.env(bc)}}, nil
}

func (p *CMake) Install(ctx context.Context, bc *Context) ([]Action, error) {
	var actions []Action
	if bc.DryRun || p.hasTarget(ctx, bc.BuildSpace, "install") {
		actions = append(actions, Action{Cmd: []string{"make", "install"}, Env: p.env(bc)})
	} else {
		bc.Log().Warnf("Could not run installation for '%s' package because it has no 'install' target", p.buildType)
	}
	actions = append(actions, Function("create package marker", writePackageMarker))
	return actions, nil
}

func (p *CMake) Uninstall(ctx context.Context, bc *Context) ([]Action, error) {
	if !bc.DryRun && !p.hasTarget(ctx, bc.BuildSpace, "uninstall") {
		bc.Log().Warnf("Could not run uninstall for '%s' package because it has no 'uninstall' target", p.buildType)
		return nil, nil
	}
	return []Action{{Cmd: []string{"make", "uninstall"}, Env: p.env(bc)}}, nil
}

// cmakeExecutable honours CMAKE_COMMAND, then prefers cmake3 over cmake.
func (p *CMake) cmakeExecutable(bc *Context) string {
	if v, ok := bc.Getenv("CMAKE_COMMAND"); ok && v != "" {
		return v
	}
	for _, name := range []string{"cmake3", "cmake"} {
		if path, err := p.lookPath(name); err == nil {
			return path
		}
	}
	return "cmake"
}

// env points CMAKE_PREFIX_PATH at the install prefixes of the build
// dependencies.
func (p *CMake) env(bc *Context) []string {
	prefixes := prefixPath(bc.BuildDependencies)
	if len(prefixes) == 0 {
		return nil
	}
	if cur, ok := bc.Getenv("CMAKE_PREFIX_PATH"); ok && cur != "" {
		prefixes = append(prefixes, cur)
	}
	return []string{"CMAKE_PREFIX_PATH=" + strings.Join(prefixes, string(os.PathListSeparator))}
}

// MarkerPath returns the resource index entry that marks pkg as installed
// in installSpace.
func MarkerPath(installSpace, pkg string) string {
	return filepath.Join(installSpace, "share", "ament_index", "resource_index", "packages", pkg)
}

func writePackageMarker(ctx context.Context, bc *Context) error {
	path := MarkerPath(bc.InstallSpace, bc.Package.Name)
	if isFile(path) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, nil, 0o644)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var (
	_ Tester      = (*CMake)(nil)
	_ Uninstaller = (*CMake)(nil)
)
