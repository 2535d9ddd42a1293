package cli

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/wsbuild/pkg/buildtype"
	"github.com/matzehuels/wsbuild/pkg/errors"
)

// fixture is a workspace of script packages: core <- util <- app.
type fixture struct {
	t    *testing.T
	root string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	t.Chdir(root)
	t.Setenv(configEnv, "")
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	f := &fixture{t: t, root: root}
	f.pkg("src/core", "core")
	f.pkg("src/util", "util", "core")
	f.pkg("src/app", "app", "util", "core")
	return f
}

func (f *fixture) pkg(rel, name string, deps ...string) {
	f.t.Helper()
	quoted := make([]string, len(deps))
	for i, d := range deps {
		quoted[i] = fmt.Sprintf("%q", d)
	}
	content := fmt.Sprintf("name = %q\nversion = \"1.0.0\"\nbuild_type = \"script\"\n\n[depends]\nbuild = [%s]\n",
		name, strings.Join(quoted, ", "))
	f.write(filepath.Join(rel, "package.toml"), content)
	f.write(filepath.Join(rel, "build.sh"), `echo "$WSBUILD_PACKAGE_NAME" > built.txt`+"\n")
}

func (f *fixture) write(rel, content string) {
	f.t.Helper()
	path := filepath.Join(f.root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		f.t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(f.root, rel))
	return err == nil
}

// execute runs the CLI with args and returns what it printed to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var logs bytes.Buffer
	c := New(&logs, LogInfo)
	c.Registry = buildtype.DefaultRegistry()

	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

func TestListCommand(t *testing.T) {
	newFixture(t)

	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"list", "--names-only"}, []string{"app", "core", "util"}},
		{[]string{"list", "--names-only", "--topological-order"}, []string{"core", "util", "app"}},
		{[]string{"list", "--paths-only"}, []string{"src/app", "src/core", "src/util"}},
		{[]string{"list", "--names-only", "--depends-on", "util"}, []string{"app"}},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if err != nil {
				t.Fatalf("execute() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, lines(out)); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListCommandTable(t *testing.T) {
	newFixture(t)
	out, err := execute(t, "list")
	if err != nil {
		t.Fatalf("execute() error: %v", err)
	}
	for _, want := range []string{"Package", "Build type", "src/core", "script", "1.0.0"} {
		if !strings.Contains(out, want) {
			t.Errorf("table %q lacks %q", out, want)
		}
	}
}

func TestDepsCommand(t *testing.T) {
	newFixture(t)

	out, err := execute(t, "deps", "app")
	if err != nil {
		t.Fatalf("execute() error: %v", err)
	}
	if diff := cmp.Diff([]string{"core", "util"}, lines(out)); diff != "" {
		t.Errorf("deps mismatch (-want +got):\n%s", diff)
	}

	if out, _ := execute(t, "deps", "--test", "app"); strings.TrimSpace(out) != "" {
		t.Errorf("deps --test = %q, want nothing", out)
	}

	_, err = execute(t, "deps", "ap")
	if !errors.Is(err, errors.ErrCodePackageNotFound) || !strings.Contains(err.Error(), "did you mean 'app'") {
		t.Errorf("unknown package: err = %v", err)
	}
}

func TestOrderCommand(t *testing.T) {
	newFixture(t)

	out, err := execute(t, "order", "--levels")
	if err != nil {
		t.Fatalf("execute() error: %v", err)
	}
	if diff := cmp.Diff([]string{"0: core", "1: util", "2: app"}, lines(out)); diff != "" {
		t.Errorf("levels mismatch (-want +got):\n%s", diff)
	}

	out, err = execute(t, "order", "--format", "json")
	if err != nil {
		t.Fatalf("execute() error: %v", err)
	}
	if !strings.Contains(out, `"name": "core"`) || !strings.Contains(out, `"path": "src/util"`) {
		t.Errorf("json output = %s", out)
	}

	if _, err := execute(t, "order", "--format", "xml"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("unknown format: err = %v", err)
	}
}

func TestOrderCommandFilters(t *testing.T) {
	newFixture(t)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"packages", []string{"--packages", "app,util"}, []string{"util", "app"}},
		{"exclude", []string{"--exclude", "core"}, []string{"util", "app"}},
		{"both", []string{"--packages", "app", "--exclude", "util"}, []string{"app"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"order"}, tt.args...)...)
			if err != nil {
				t.Fatalf("execute() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, lines(out)); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOrderCommandCycle(t *testing.T) {
	f := newFixture(t)
	f.pkg("src/core", "core", "app")

	_, err := execute(t, "order")
	if !errors.Is(err, errors.ErrCodeCycle) {
		t.Fatalf("err = %v, want DEPENDENCY_CYCLE", err)
	}

	out, err := execute(t, "order", "--format", "yaml")
	if !errors.Is(err, errors.ErrCodeCycle) {
		t.Errorf("yaml: err = %v, want DEPENDENCY_CYCLE", err)
	}
	if !strings.Contains(out, "cycle:") {
		t.Errorf("yaml output lacks the cycle: %s", out)
	}
}

func TestGraphCommand(t *testing.T) {
	newFixture(t)
	out, err := execute(t, "graph")
	if err != nil {
		t.Fatalf("execute() error: %v", err)
	}
	for _, want := range []string{"digraph G {", `"core" -> "util";`, `"util" -> "app";`} {
		if !strings.Contains(out, want) {
			t.Errorf("dot output lacks %q:\n%s", want, out)
		}
	}
}

func TestGraphCommandReduce(t *testing.T) {
	newFixture(t)
	out, err := execute(t, "graph")
	if err != nil {
		t.Fatalf("execute() error: %v", err)
	}
	if !strings.Contains(out, `"core" -> "app";`) {
		t.Fatalf("unreduced graph lacks the direct edge:\n%s", out)
	}

	out, err = execute(t, "graph", "--reduce")
	if err != nil {
		t.Fatalf("execute(--reduce) error: %v", err)
	}
	if strings.Contains(out, `"core" -> "app";`) {
		t.Errorf("reduced graph keeps the implied edge:\n%s", out)
	}
	if !strings.Contains(out, `"util" -> "app";`) {
		t.Errorf("reduced graph lost a required edge:\n%s", out)
	}
}

func TestGraphCommandInput(t *testing.T) {
	f := newFixture(t)
	saved, err := execute(t, "graph", "--format", "json")
	if err != nil {
		t.Fatalf("execute(--format json) error: %v", err)
	}
	f.write("graph.json", saved)
	// The workspace is gone; rendering must rely on the saved file alone.
	if err := os.RemoveAll(filepath.Join(f.root, "src")); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "graph", "--input", "graph.json")
	if err != nil {
		t.Fatalf("execute(--input) error: %v", err)
	}
	if !strings.Contains(out, `"util" -> "app";`) {
		t.Errorf("rendered graph lacks an edge:\n%s", out)
	}

	if _, err := execute(t, "graph", "--input", "missing.json"); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("missing input: err = %v, want INVALID_PATH", err)
	}
}

func TestBuildCommand(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, "build")
	if err != nil {
		t.Fatalf("execute() error: %v", err)
	}
	for _, name := range []string{"core", "util", "app"} {
		if !f.exists(filepath.Join("build", name, "built.txt")) {
			t.Errorf("package %s was not built", name)
		}
	}
	if !strings.Contains(out, "# Topological order") || !strings.Contains(out, "Built 3 packages") {
		t.Errorf("output = %q", out)
	}
}

func TestBuildCommandParallel(t *testing.T) {
	f := newFixture(t)
	if _, err := execute(t, "build", "--parallel", "--workers", "2"); err != nil {
		t.Fatalf("execute() error: %v", err)
	}
	for _, name := range []string{"core", "util", "app"} {
		if !f.exists(filepath.Join("build", name, "built.txt")) {
			t.Errorf("package %s was not built", name)
		}
	}
}

func TestBuildCommandSelection(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, "build", "--start-with", "util", "--skip", "app")
	if err != nil {
		t.Fatalf("execute() error: %v", err)
	}
	if f.exists("build/core/built.txt") || f.exists("build/app/built.txt") {
		t.Error("skipped packages were built")
	}
	if !f.exists("build/util/built.txt") {
		t.Error("util was not built")
	}
	if !strings.Contains(out, "(core)") || !strings.Contains(out, "(app)") {
		t.Errorf("plan does not mark skipped packages: %q", out)
	}

	_, err = execute(t, "build", "--start-with", "utl")
	if !errors.Is(err, errors.ErrCodeSelection) {
		t.Errorf("unknown package: err = %v, want INVALID_SELECTION", err)
	}
}

func TestBuildCommandFailure(t *testing.T) {
	f := newFixture(t)
	f.write("src/util/build.sh", "exit 3\n")

	_, err := execute(t, "build")
	if !errors.Is(err, errors.ErrCodePackageFailed) {
		t.Fatalf("err = %v, want PACKAGE_FAILED", err)
	}
	var cmdErr *buildtype.CommandError
	if !stderrors.As(err, &cmdErr) || cmdErr.ExitCode != 3 {
		t.Errorf("CommandError = %v, want exit code 3", cmdErr)
	}
	if f.exists("build/app/built.txt") {
		t.Error("app was built after its dependency failed")
	}
}

func TestBuildCommandConfig(t *testing.T) {
	f := newFixture(t)
	f.write("wsbuild.toml", "build_space = \"out\"\nskip_packages = [\"app\"]\n")

	if _, err := execute(t, "build"); err != nil {
		t.Fatalf("execute() error: %v", err)
	}
	if !f.exists("out/core/built.txt") {
		t.Error("build_space from the config file was not used")
	}
	if f.exists("out/app/built.txt") {
		t.Error("skip_packages from the config file was not used")
	}

	if _, err := execute(t, "build", "--build-space", "cli"); err != nil {
		t.Fatalf("execute() error: %v", err)
	}
	if !f.exists("cli/core/built.txt") {
		t.Error("--build-space did not override the config file")
	}
}

func TestTestCommandCollectsFailures(t *testing.T) {
	f := newFixture(t)
	f.write("src/util/test.sh", "exit 1\n")
	f.write("src/app/test.sh", "touch tested.txt\n")

	out, err := execute(t, "test")
	if !errors.Is(err, errors.ErrCodePackageFailed) || !strings.Contains(err.Error(), "[util]") {
		t.Fatalf("err = %v, want test failure of util", err)
	}
	if !f.exists("build/app/tested.txt") {
		t.Error("app was not tested after util's tests failed")
	}
	if !strings.Contains(out, "tests failed in 1 package: util") {
		t.Errorf("summary = %q", out)
	}
}

func TestUninstallCommandReversesOrder(t *testing.T) {
	f := newFixture(t)
	log := filepath.Join(f.root, "uninstalled.txt")
	for _, name := range []string{"core", "util", "app"} {
		f.write(filepath.Join("src", name, "uninstall.sh"), fmt.Sprintf("echo %s >> %q\n", name, log))
	}

	if _, err := execute(t, "uninstall", "--start-with", "util"); err != nil {
		t.Fatalf("execute() error: %v", err)
	}
	data, err := os.ReadFile(log)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"app", "util"}, lines(string(data))); diff != "" {
		t.Errorf("uninstall order mismatch (-want +got):\n%s", diff)
	}
}

func TestCleanCacheCommand(t *testing.T) {
	f := newFixture(t)
	f.write("build/core/cmake_args.cache", "{}")
	f.write("build/core/Makefile", "")

	out, err := execute(t, "clean-cache")
	if err != nil {
		t.Fatalf("execute() error: %v", err)
	}
	if f.exists("build/core/cmake_args.cache") || !f.exists("build/core/Makefile") {
		t.Error("clean-cache removed the wrong files")
	}
	if !strings.Contains(out, "Cleared 1 cache entry") {
		t.Errorf("output = %q", out)
	}
}

func TestTestResultsCommand(t *testing.T) {
	f := newFixture(t)
	f.write("build/test_results/core/ctest.xml", `<testsuite tests="2"/>`)
	f.write("build/test_results/util/pytest.xunit.xml", `<testsuite tests="3" failures="1"/>`)
	core := filepath.Join("test_results", "core", "ctest.xml")
	util := filepath.Join("test_results", "util", "pytest.xunit.xml")

	out, err := execute(t, "test-results")
	if !errors.Is(err, errors.ErrCodePackageFailed) {
		t.Errorf("execute() error = %v, want %s", err, errors.ErrCodePackageFailed)
	}
	if !strings.Contains(out, util+": 3 tests, 0 errors, 1 failures, 0 skipped") || strings.Contains(out, core) {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "Summary: 5 tests, 0 errors, 1 failures, 0 skipped") {
		t.Errorf("summary = %q", out)
	}

	out, _ = execute(t, "test-results", "--all")
	if !strings.Contains(out, core+": 2 tests") {
		t.Errorf("--all output = %q", out)
	}

	out, err = execute(t, "test-results", filepath.Join("build", "test_results", "core"))
	if err != nil {
		t.Fatalf("execute() error: %v", err)
	}
	if !strings.Contains(out, "Summary: 2 tests, 0 errors, 0 failures, 0 skipped") {
		t.Errorf("output = %q", out)
	}
}

func TestPackageNameAndVersionCommands(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, "package-name", filepath.Join("src", "util"))
	if err != nil || out != "util\n" {
		t.Errorf("package-name = %q, %v", out, err)
	}
	out, err = execute(t, "package-version", filepath.Join("src", "util"))
	if err != nil || out != "1.0.0\n" {
		t.Errorf("package-version = %q, %v", out, err)
	}

	t.Chdir(filepath.Join(f.root, "src", "core"))
	if out, err := execute(t, "package-name"); err != nil || out != "core\n" {
		t.Errorf("package-name in package dir = %q, %v", out, err)
	}

	if _, err := execute(t, "package-name", f.root); !errors.Is(err, errors.ErrCodeInvalidManifest) {
		t.Errorf("without manifest: error = %v, want %s", err, errors.ErrCodeInvalidManifest)
	}
}
