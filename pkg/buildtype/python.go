package buildtype

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/matzehuels/wsbuild/pkg/errors"
)

// KeyPythonExecutable names the interpreter used for ament_python packages.
const KeyPythonExecutable = "python_executable"

const defaultPython = "python3"

// LibDirProbe returns the site-packages directory python installs pure
// modules into under prefix.
type LibDirProbe func(ctx context.Context, python, prefix string) (string, error)

// AmentPython installs setuptools packages and registers them in the ament
// resource index. With symlink install the package is installed in develop
// mode from links in the build space.
type AmentPython struct {
	libDir LibDirProbe
}

// NewAmentPython returns the ament_python plugin.
func NewAmentPython() *AmentPython { return &AmentPython{libDir: PythonLibDir} }

func (*AmentPython) Name() string        { return "ament_python" }
func (*AmentPython) Description() string { return "setuptools package with an ament index entry" }

func (*AmentPython) ExtendContext(opts Options) *Extender {
	python := opts.Python
	if python == "" {
		python = defaultPython
	}
	return NewExtender().Add(KeyPythonExecutable, python)
}

func python(bc *Context) string {
	if s := bc.String(KeyPythonExecutable); s != "" {
		return s
	}
	return defaultPython
}

// sitePackages asks the interpreter for its library directory under prefix
// and falls back to lib/python3/site-packages.
func (p *AmentPython) sitePackages(ctx context.Context, bc *Context, prefix string) string {
	dir, err := p.libDir(ctx, python(bc), prefix)
	if err != nil || dir == "" {
		dir = filepath.Join(prefix, "lib", "python3", "site-packages")
		bc.Log().Warn("Could not determine python library directory", "package", bc.Package.Name, "fallback", dir, "err", err)
	}
	return dir
}

// pythonPath lists the package's own library directory, then the same
// relative directory under every dependency prefix.
func (p *AmentPython) pythonPath(bc *Context, lib string) []string {
	paths := []string{lib}
	if rel, err := filepath.Rel(bc.InstallSpace, lib); err == nil && !strings.HasPrefix(rel, "..") {
		for _, prefix := range prefixPath(bc.BuildDependencies) {
			if prefix != bc.InstallSpace {
				paths = append(paths, filepath.Join(prefix, rel))
			}
		}
	}
	if cur, ok := bc.Getenv("PYTHONPATH"); ok && cur != "" {
		paths = append(paths, cur)
	}
	return paths
}

func (p *AmentPython) env(bc *Context, lib string) []string {
	return []string{"PYTHONPATH=" + strings.Join(p.pythonPath(bc, lib), string(os.PathListSeparator))}
}

func (p *AmentPython) Build(ctx context.Context, bc *Context) ([]Action, error) {
	if !isFile(filepath.Join(bc.SourceSpace, "setup.py")) {
		return nil, errors.New(errors.ErrCodeInvalidPackage,
			"ament_python package %q has no setup.py in %s", bc.Package.Name, bc.SourceSpace)
	}
	lib := p.sitePackages(ctx, bc, bc.InstallSpace)
	rel, err := filepath.Rel(bc.InstallSpace, lib)
	if err != nil {
		return nil, err
	}
	hook := fmt.Sprintf("export PYTHONPATH=\"$AMENT_CURRENT_PREFIX/%s${PYTHONPATH:+:$PYTHONPATH}\"\n", filepath.ToSlash(rel))
	return []Action{Function("prepare environment hook", func(ctx context.Context, bc *Context) error {
		path := hookPath(bc.BuildSpace, bc.Package.Name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		return os.WriteFile(path, []byte(hook), 0o644)
	})}, nil
}

func (p *AmentPython) Install(ctx context.Context, bc *Context) ([]Action, error) {
	lib := p.sitePackages(ctx, bc, bc.InstallSpace)
	env := p.env(bc, lib)
	py := python(bc)
	bin := filepath.Join(bc.InstallSpace, "bin")

	actions := []Action{Function("deploy package files", func(ctx context.Context, bc *Context) error {
		return deployPythonFiles(bc, lib)
	})}

	if !bc.SymlinkInstall {
		if developed(bc.BuildSpace, bc.Package.Name) {
			actions = append(actions, p.undevelop(bc, env))
		}
		actions = append(actions, Action{
			Cmd: []string{py, "setup.py",
				"egg_info", "--egg-base", bc.BuildSpace,
				"build", "--build-base", filepath.Join(bc.BuildSpace, "build"),
				"install", "--prefix", bc.InstallSpace,
				"--install-scripts", bin,
				"--record", installLog(bc.BuildSpace),
				"--single-version-externally-managed",
			},
			Dir: bc.SourceSpace,
			Env: env,
		})
	} else {
		actions = append(actions,
			Function("undo previous install", undoRecordedInstall),
			Function("link sources into build space", linkPythonSources),
			Action{
				Cmd: []string{py, "setup.py", "develop", "--prefix", bc.InstallSpace, "--script-dir", bin, "--no-deps"},
				Dir: bc.BuildSpace,
				Env: env,
			},
		)
	}
	actions = append(actions, Function("create package marker", writePackageMarker))
	return actions, nil
}

func (p *AmentPython) Test(ctx context.Context, bc *Context) ([]Action, error) {
	lib := p.sitePackages(ctx, bc, bc.InstallSpace)
	results := filepath.Join(bc.BuildSpace, "test_results", bc.Package.Name, "pytest.xunit.xml")
	return []Action{{
		Cmd: []string{python(bc), "-m", "pytest",
			"--junit-xml=" + results,
			"-o", "cache_dir=" + filepath.Join(bc.BuildSpace, ".pytest_cache"),
		},
		Dir: bc.SourceSpace,
		Env: p.env(bc, lib),
	}}, nil
}

func (p *AmentPython) Uninstall(ctx context.Context, bc *Context) ([]Action, error) {
	var actions []Action
	if developed(bc.BuildSpace, bc.Package.Name) {
		lib := p.sitePackages(ctx, bc, bc.InstallSpace)
		actions = append(actions, p.undevelop(bc, p.env(bc, lib)))
	}
	actions = append(actions,
		Function("undo previous install", undoRecordedInstall),
		Function("remove package files", removePythonFiles),
	)
	return actions, nil
}

func (p *AmentPython) undevelop(bc *Context, env []string) Action {
	return Action{
		Cmd: []string{python(bc), "setup.py", "develop", "--prefix", bc.InstallSpace,
			"--script-dir", filepath.Join(bc.InstallSpace, "bin"), "--uninstall"},
		Dir: bc.BuildSpace,
		Env: env,
	}
}

// PythonLibDir asks python for the purelib directory of prefix.
func PythonLibDir(ctx context.Context, python, prefix string) (string, error) {
	script := fmt.Sprintf("import sysconfig; print(sysconfig.get_path('purelib', vars={'base': %q, 'platbase': %q}))", prefix, prefix)
	out, err := exec.CommandContext(ctx, python, "-c", script).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func hookPath(prefix, pkg string) string {
	return filepath.Join(prefix, "share", pkg, "environment", "pythonpath.sh")
}

func installLog(buildSpace string) string { return filepath.Join(buildSpace, "install.log") }

// developed reports whether the build space holds a develop mode install:
// an egg-info directory next to a linked setup.py.
func developed(buildSpace, pkg string) bool {
	info, err := os.Stat(filepath.Join(buildSpace, pkg+".egg-info"))
	if err != nil || !info.IsDir() {
		return false
	}
	return isSymlink(filepath.Join(buildSpace, "setup.py"))
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// deployedFiles are the files deployPythonFiles places in the install space.
func deployedFiles(bc *Context) []string {
	share := filepath.Join(bc.InstallSpace, "share", bc.Package.Name)
	files := []string{hookPath(bc.InstallSpace, bc.Package.Name)}
	if bc.Package.Filename != "" {
		files = append(files, filepath.Join(share, filepath.Base(bc.Package.Filename)))
	}
	return files
}

func deployPythonFiles(bc *Context, lib string) error {
	if err := os.MkdirAll(lib, 0o755); err != nil {
		return err
	}
	hook := hookPath(bc.InstallSpace, bc.Package.Name)
	if err := copyFile(hookPath(bc.BuildSpace, bc.Package.Name), hook); err != nil {
		return err
	}
	if bc.Package.Filename != "" {
		dst := filepath.Join(bc.InstallSpace, "share", bc.Package.Name, filepath.Base(bc.Package.Filename))
		if err := copyFile(bc.Package.Filename, dst); err != nil {
			return err
		}
	}
	return nil
}

func removePythonFiles(ctx context.Context, bc *Context) error {
	files := append(deployedFiles(bc), MarkerPath(bc.InstallSpace, bc.Package.Name))
	for _, f := range files {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	share := filepath.Join(bc.InstallSpace, "share", bc.Package.Name)
	for _, dir := range []string{filepath.Join(share, "environment"), share} {
		removeIfEmpty(dir)
	}
	return nil
}

// undoRecordedInstall removes the files listed in the setuptools install
// record of the build space, then the record itself.
func undoRecordedInstall(ctx context.Context, bc *Context) error {
	path := installLog(bc.BuildSpace)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		file := strings.TrimSpace(sc.Text())
		if file == "" {
			continue
		}
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			return err
		}
		removeIfEmpty(filepath.Dir(file))
	}
	if err := sc.Err(); err != nil {
		return err
	}
	bc.Log().Debug("Removed previous install", "package", bc.Package.Name, "record", path)
	return os.Remove(path)
}

// linkPythonSources links setup.py and the package sources into the build
// space so that a develop install picks up edits without reinstalling.
func linkPythonSources(ctx context.Context, bc *Context) error {
	entries, err := os.ReadDir(bc.SourceSpace)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(bc.BuildSpace, 0o755); err != nil {
		return err
	}
	for _, e := range entries {
		name := e.Name()
		src := filepath.Join(bc.SourceSpace, name)
		switch {
		case name == "setup.py" || name == "setup.cfg" || name == "package.xml" || name == "resource":
		case e.IsDir() && isFile(filepath.Join(src, "__init__.py")):
		default:
			continue
		}
		dst := filepath.Join(bc.BuildSpace, name)
		if target, err := os.Readlink(dst); err == nil && target == src {
			continue
		}
		if err := os.RemoveAll(dst); err != nil {
			return err
		}
		if err := os.Symlink(src, dst); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, info.Mode().Perm())
}

func removeIfEmpty(dir string) {
	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		_ = os.Remove(dir)
	}
}

var (
	_ Tester      = (*AmentPython)(nil)
	_ Uninstaller = (*AmentPython)(nil)
)
