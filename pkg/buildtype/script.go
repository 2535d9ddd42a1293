package buildtype

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
)

// Script runs shell scripts shipped with the package: build.sh, install.sh,
// test.sh and uninstall.sh in the source space. A missing build or install
// script is a no-op; a missing test or uninstall script makes the phase
// unsupported.
//
// The scripts see the build context as WSBUILD_* environment variables, for
// example WSBUILD_INSTALL_SPACE and WSBUILD_BUILD_TESTS. Extension values are
// exported the same way, so "cmake_args" becomes WSBUILD_CMAKE_ARGS.
type Script struct{}

// NewScript returns the script plugin.
func NewScript() *Script { return &Script{} }

func (*Script) Name() string                    { return "script" }
func (*Script) Description() string             { return "package driven by shell scripts" }
func (*Script) ExtendContext(Options) *Extender { return nil }

func (s *Script) Build(ctx context.Context, bc *Context) ([]Action, error) {
	return s.optional(bc, "build.sh"), nil
}

func (s *Script) Install(ctx context.Context, bc *Context) ([]Action, error) {
	return s.optional(bc, "install.sh"), nil
}

func (s *Script) Test(ctx context.Context, bc *Context) ([]Action, error) {
	return s.required(bc, PhaseTest, "test.sh")
}

func (s *Script) Uninstall(ctx context.Context, bc *Context) ([]Action, error) {
	return s.required(bc, PhaseUninstall, "uninstall.sh")
}

func (s *Script) optional(bc *Context, name string) []Action {
	path := filepath.Join(bc.SourceSpace, name)
	if !isFile(path) {
		bc.Log().Debug("no script", "package", bc.Package.Name, "script", name)
		return nil
	}
	return []Action{s.action(bc, path)}
}

func (s *Script) required(bc *Context, phase, name string) ([]Action, error) {
	path := filepath.Join(bc.SourceSpace, name)
	if !isFile(path) {
		return nil, unsupported(s.Name(), phase)
	}
	return []Action{s.action(bc, path)}, nil
}

func (s *Script) action(bc *Context, path string) Action {
	return Action{Cmd: []string{"sh", path}, Env: ScriptEnv(bc)}
}

// ScriptEnv returns the WSBUILD_* variables describing bc.
func ScriptEnv(bc *Context) []string {
	vars := []struct {
		name  string
		value string
	}{
		{"packageName", bc.Package.Name},
		{"sourceSpace", bc.SourceSpace},
		{"buildSpace", bc.BuildSpace},
		{"installSpace", bc.InstallSpace},
		{"buildDependencies", strings.Join(bc.BuildDependencies, ":")},
		{"isolated", strconv.FormatBool(bc.Isolated)},
		{"symlinkInstall", strconv.FormatBool(bc.SymlinkInstall)},
		{"buildTests", strconv.FormatBool(bc.BuildTests)},
		{"makeFlags", strings.Join(bc.MakeFlags, " ")},
	}
	env := make([]string, 0, len(vars)+len(bc.ext))
	for _, v := range vars {
		env = append(env, envName(v.name)+"="+v.value)
	}
	for _, k := range bc.Keys() {
		var val string
		switch v := bc.ext[k].(type) {
		case string:
			val = v
		case []string:
			val = strings.Join(v, " ")
		case bool:
			val = strconv.FormatBool(v)
		}
		env = append(env, envName(k)+"="+val)
	}
	return env
}

func envName(key string) string {
	return "WSBUILD_" + strcase.ToScreamingSnake(key)
}

var (
	_ Tester      = (*Script)(nil)
	_ Uninstaller = (*Script)(nil)
)
