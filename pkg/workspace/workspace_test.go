package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/wsbuild/pkg/errors"
	"github.com/matzehuels/wsbuild/pkg/manifest"
	"github.com/matzehuels/wsbuild/pkg/topo"
)

func quoted(names []string) string {
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(q, ", ")
}

// writePkg writes a package.toml for name with build dependencies into
// root/rel. extra is appended to the [depends] table.
func writePkg(t *testing.T, root, rel, name string, build []string, extra string) {
	t.Helper()
	dir := filepath.Join(root, rel)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := fmt.Sprintf("name = %q\n\n[depends]\nbuild = [%s]\n%s\n", name, quoted(build), extra)
	if err := os.WriteFile(filepath.Join(dir, "package.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func entryNames(entries []topo.Entry) []string { return topo.Names(entries) }

func TestFindPackagePaths(t *testing.T) {
	root := t.TempDir()
	writePkg(t, root, "src/a", "a", nil, "")
	writePkg(t, root, "src/a/nested", "nested", nil, "")
	writePkg(t, root, "src/b", "b", nil, "")
	writePkg(t, root, "src/ignored/c", "c", nil, "")
	touch(t, filepath.Join(root, "src/ignored/WSBUILD_IGNORE"))
	writePkg(t, root, "legacy/d", "d", nil, "")
	touch(t, filepath.Join(root, "legacy/d/AMENT_IGNORE"))
	writePkg(t, root, ".hidden/e", "e", nil, "")
	writePkg(t, root, "build/f", "f", nil, "")

	paths, err := FindPackagePaths(context.Background(), root, DiscoverOptions{
		Exclude: []string{filepath.Join(root, "build")},
	})
	if err != nil {
		t.Fatalf("FindPackagePaths() error: %v", err)
	}
	want := []string{filepath.Join("src", "a"), filepath.Join("src", "b")}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("FindPackagePaths() mismatch (-want +got):\n%s", diff)
	}
}

func TestFindPackagePaths_Symlink(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	writePkg(t, other, "linked", "linked", nil, "")
	if err := os.Symlink(filepath.Join(other, "linked"), filepath.Join(root, "linked")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	// A loop back to the root is searched once.
	if err := os.Symlink(root, filepath.Join(root, "loop")); err != nil {
		t.Fatal(err)
	}

	paths, err := FindPackagePaths(context.Background(), root, DiscoverOptions{})
	if err != nil {
		t.Fatalf("FindPackagePaths() error: %v", err)
	}
	if diff := cmp.Diff([]string{"linked"}, paths); diff != "" {
		t.Errorf("FindPackagePaths() mismatch (-want +got):\n%s", diff)
	}
}

func TestFindPackagePaths_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	touch(t, file)
	_, err := FindPackagePaths(context.Background(), file, DiscoverOptions{})
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("FindPackagePaths(file) = %v, want code %s", err, errors.ErrCodeInvalidPath)
	}
}

func TestFindUniquePackages_Duplicate(t *testing.T) {
	root := t.TempDir()
	writePkg(t, root, "one/foo", "foo", nil, "")
	writePkg(t, root, "two/foo", "foo", nil, "")
	writePkg(t, root, "bar", "bar", nil, "")

	_, err := FindUniquePackages(context.Background(), root, DiscoverOptions{})
	if !errors.Is(err, errors.ErrCodeDuplicatePackage) {
		t.Fatalf("FindUniquePackages() = %v, want code %s", err, errors.ErrCodeDuplicatePackage)
	}
	msg := errors.UserMessage(err)
	for _, want := range []string{`"foo"`, filepath.Join("one", "foo"), filepath.Join("two", "foo")} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q does not mention %s", msg, want)
		}
	}
}

func TestFindPackages_InvalidManifest(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "bad", "package.toml"))

	_, err := FindPackages(context.Background(), root, DiscoverOptions{})
	if !errors.Is(err, errors.ErrCodeInvalidManifest) {
		t.Errorf("FindPackages() = %v, want code %s", err, errors.ErrCodeInvalidManifest)
	}
}

func TestFindPackages_InvalidPath(t *testing.T) {
	root := t.TempDir()
	writePkg(t, root, "src/ok", "ok", nil, "")
	writePkg(t, root, "src/bad\tname", "bad", nil, "")

	_, err := FindPackages(context.Background(), root, DiscoverOptions{})
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("FindPackages() error = %v, want INVALID_PATH", err)
	}
}

func TestManifestCache(t *testing.T) {
	root := t.TempDir()
	writePkg(t, root, "a", "a", nil, "")
	writePkg(t, root, "b", "b", nil, "")
	cache := NewManifestCache()
	opts := DiscoverOptions{Cache: cache, Workers: 2}

	for range 2 {
		if _, err := FindPackages(context.Background(), root, opts); err != nil {
			t.Fatalf("FindPackages() error: %v", err)
		}
	}
	hits, misses := cache.Stats()
	if hits != 2 || misses != 2 || cache.Len() != 2 {
		t.Errorf("Stats() = %d hits, %d misses, Len() = %d; want 2, 2, 2", hits, misses, cache.Len())
	}

	var nilCache *ManifestCache
	if nilCache.Len() != 0 {
		t.Error("nil cache should be empty")
	}
}

func TestTopologicalOrder(t *testing.T) {
	root := t.TempDir()
	writePkg(t, root, "app", "app", []string{"lib", "boost"}, "")
	writePkg(t, root, "lib", "lib", []string{"core"}, "")
	writePkg(t, root, "core", "core", nil, "")
	writePkg(t, root, "tools", "tools", nil, "")

	entries, err := TopologicalOrder(context.Background(), root, OrderOptions{})
	if err != nil {
		t.Fatalf("TopologicalOrder() error: %v", err)
	}
	if diff := cmp.Diff([]string{"core", "lib", "app", "tools"}, entryNames(entries)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if entries[2].Path != "app" {
		t.Errorf("Path = %q, want %q", entries[2].Path, "app")
	}
}

func TestTopologicalOrder_DuplicateEvenIfFiltered(t *testing.T) {
	root := t.TempDir()
	writePkg(t, root, "x/foo", "foo", nil, "")
	writePkg(t, root, "y/foo", "foo", nil, "")
	writePkg(t, root, "bar", "bar", nil, "")

	_, err := TopologicalOrder(context.Background(), root, OrderOptions{
		Whitelist: []string{"bar"},
		Blacklist: []string{"foo"},
	})
	if !errors.Is(err, errors.ErrCodeDuplicatePackage) {
		t.Errorf("TopologicalOrder() = %v, want code %s", err, errors.ErrCodeDuplicatePackage)
	}
}

func TestTopologicalOrder_Underlays(t *testing.T) {
	overlay := t.TempDir()
	near := t.TempDir()
	far := t.TempDir()

	writePkg(t, overlay, "app", "app", []string{"msgs", "core"}, "")
	writePkg(t, overlay, "core", "core", nil, "")
	// The overlay hides this one.
	writePkg(t, near, "core", "core", []string{"app"}, "")
	writePkg(t, near, "msgs", "msgs", nil, `exec = ["runtime"]`)
	writePkg(t, far, "msgs", "msgs", []string{"never"}, "")
	writePkg(t, far, "runtime", "runtime", nil, "")
	writePkg(t, far, "unused", "unused", nil, "")

	entries, err := TopologicalOrder(context.Background(), overlay, OrderOptions{
		Underlays: []string{near, far},
	})
	if err != nil {
		t.Fatalf("TopologicalOrder() error: %v", err)
	}
	if diff := cmp.Diff([]string{"core", "app"}, entryNames(entries)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"core", "msgs", "runtime"}, entries[1].Depends); diff != "" {
		t.Errorf("app depends mismatch (-want +got):\n%s", diff)
	}
}

func TestTopologicalOrder_Blacklist(t *testing.T) {
	root := t.TempDir()
	writePkg(t, root, "app", "app", []string{"lib"}, "")
	writePkg(t, root, "lib", "lib", nil, "")

	entries, err := TopologicalOrder(context.Background(), root, OrderOptions{Blacklist: []string{"lib"}})
	if err != nil {
		t.Fatalf("TopologicalOrder() error: %v", err)
	}
	if diff := cmp.Diff([]string{"app"}, entryNames(entries)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if len(entries[0].Depends) != 0 {
		t.Errorf("Depends = %v, want none", entries[0].Depends)
	}
}

func TestTopologicalOrder_Conditions(t *testing.T) {
	root := t.TempDir()
	writePkg(t, root, "app", "app", nil, `test = [{ name = "ros1_bridge", condition = "$ROS_VERSION == 1" }, { name = "gtest_vendor", condition = "$ROS_VERSION == 2" }]`)
	writePkg(t, root, "ros1_bridge", "ros1_bridge", nil, "")
	writePkg(t, root, "gtest_vendor", "gtest_vendor", nil, "")

	entries, err := TopologicalOrder(context.Background(), root, OrderOptions{
		Env: map[string]string{"ROS_VERSION": "2"},
	})
	if err != nil {
		t.Fatalf("TopologicalOrder() error: %v", err)
	}
	if diff := cmp.Diff([]string{"gtest_vendor", "app", "ros1_bridge"}, entryNames(entries)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"gtest_vendor"}, entries[1].Depends); diff != "" {
		t.Errorf("app depends mismatch (-want +got):\n%s", diff)
	}
}

func TestTopologicalOrder_Groups(t *testing.T) {
	root := t.TempDir()
	writePkg(t, root, "host", "host", nil, `group = ["plugins"]`)
	for _, name := range []string{"zeta_plugin", "alpha_plugin"} {
		dir := filepath.Join(root, name)
		touch(t, filepath.Join(dir, "package.toml"))
		content := fmt.Sprintf("name = %q\nmember_of_groups = [\"plugins\"]\n", name)
		if err := os.WriteFile(filepath.Join(dir, "package.toml"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := TopologicalOrder(context.Background(), root, OrderOptions{})
	if err != nil {
		t.Fatalf("TopologicalOrder() error: %v", err)
	}
	if diff := cmp.Diff([]string{"alpha_plugin", "zeta_plugin", "host"}, entryNames(entries)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"alpha_plugin", "zeta_plugin"}, entries[2].Package.GroupMembers()); diff != "" {
		t.Errorf("group members mismatch (-want +got):\n%s", diff)
	}
}

func TestTopologicalOrder_Cycle(t *testing.T) {
	root := t.TempDir()
	writePkg(t, root, "a", "A", []string{"B"}, "")
	writePkg(t, root, "b", "B", []string{"C"}, "")
	writePkg(t, root, "c", "C", []string{"A"}, "")

	entries, err := TopologicalOrder(context.Background(), root, OrderOptions{})
	if err != nil {
		t.Fatalf("TopologicalOrder() error: %v", err)
	}
	if len(entries) != 1 || !entries[0].IsCycle() || entries[0].CycleLabel() != "A, B, C" {
		t.Errorf("entries = %v, want one cycle entry \"A, B, C\"", entryNames(entries))
	}
}

func pkgs(ps ...*manifest.Package) Packages {
	out := make(Packages, len(ps))
	for _, p := range ps {
		out["src/"+p.Name] = p
	}
	return out
}

func deps(names ...string) []manifest.Dependency {
	out := make([]manifest.Dependency, len(names))
	for i, n := range names {
		out[i] = manifest.Dependency{Name: n}
	}
	return out
}

func TestTopologicalOrderPackages_SingleWhitelisted(t *testing.T) {
	u := pkgs(
		&manifest.Package{Name: "A"},
		&manifest.Package{Name: "B", BuildDepends: deps("A")},
	)
	entries, err := TopologicalOrderPackages(u, PackageOptions{Whitelist: []string{"A"}})
	if err != nil {
		t.Fatalf("TopologicalOrderPackages() error: %v", err)
	}
	want := []topo.Entry{{Path: "src/A", Package: u["src/A"], Depends: []string{}}}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestTopologicalOrderPackages_Duplicate(t *testing.T) {
	u := Packages{
		"x/foo": &manifest.Package{Name: "foo"},
		"y/foo": &manifest.Package{Name: "foo"},
	}
	_, err := TopologicalOrderPackages(u, PackageOptions{})
	if !errors.Is(err, errors.ErrCodeDuplicatePackage) {
		t.Fatalf("TopologicalOrderPackages() = %v, want code %s", err, errors.ErrCodeDuplicatePackage)
	}
	want := "Two packages with the same name 'foo' in the workspace:\n- x/foo\n- y/foo"
	if got := errors.UserMessage(err); got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
}

func TestOrderedDependencies(t *testing.T) {
	u := pkgs(
		&manifest.Package{Name: "app", BuildDepends: deps("lib", "msgs")},
		&manifest.Package{Name: "lib", BuildDepends: deps("msgs"), ExecDepends: deps("core")},
		&manifest.Package{Name: "msgs"},
		&manifest.Package{Name: "core"},
	)
	entries, err := TopologicalOrderPackages(u, PackageOptions{})
	if err != nil {
		t.Fatal(err)
	}
	app := entries[len(entries)-1]

	got, err := OrderedDependencies(PackagesOf(entries), app)
	if err != nil {
		t.Fatalf("OrderedDependencies() error: %v", err)
	}
	if diff := cmp.Diff([]string{"core", "msgs", "lib"}, got); diff != "" {
		t.Errorf("OrderedDependencies() mismatch (-want +got):\n%s", diff)
	}

	if got := DependsOn(entries, "msgs"); !cmp.Equal(got, []string{"lib", "app"}) {
		t.Errorf("DependsOn(msgs) = %v, want [lib app]", got)
	}
}

func TestDependencies(t *testing.T) {
	p := &manifest.Package{
		Name:         "p",
		BuildDepends: deps("b", "a"),
		ExecDepends:  deps("a", "r"),
		TestDepends:  deps("t"),
		GroupDepends: []manifest.GroupDependency{{Name: "g", Members: []string{"m"}}},
	}
	if got := Dependencies(p, manifest.KindBuild); !cmp.Equal(got, []string{"a", "b"}) {
		t.Errorf("Dependencies(build) = %v", got)
	}
	if got := Dependencies(p, manifest.KindExec, manifest.KindTest); !cmp.Equal(got, []string{"a", "m", "r", "t"}) {
		t.Errorf("Dependencies(exec, test) = %v", got)
	}
}

func TestGraph(t *testing.T) {
	u := pkgs(
		&manifest.Package{Name: "app", BuildDepends: deps("lib")},
		&manifest.Package{Name: "lib", Version: "1.0"},
	)
	entries, _ := TopologicalOrderPackages(u, PackageOptions{})

	g := Graph(entries, u)
	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Fatalf("graph has %d nodes and %d edges, want 2 and 1", g.NodeCount(), g.EdgeCount())
	}
	n, _ := g.Node("lib")
	if n.Meta["version"] != "1.0" || n.Meta["path"] != "src/lib" {
		t.Errorf("lib meta = %v", n.Meta)
	}
}

func TestGraph_Cycle(t *testing.T) {
	u := pkgs(
		&manifest.Package{Name: "base"},
		&manifest.Package{Name: "x", BuildDepends: deps("y", "base")},
		&manifest.Package{Name: "y", BuildDepends: deps("x")},
	)
	entries, _ := TopologicalOrderPackages(u, PackageOptions{})

	g := Graph(entries, u)
	if g.NodeCount() != 3 {
		t.Fatalf("NodeCount() = %d, want 3", g.NodeCount())
	}
	x, _ := g.Node("x")
	if x.Meta["cycle"] != true {
		t.Error("cycle member not marked")
	}
	if err := g.Validate(); err == nil {
		t.Error("Validate() = nil, want cycle error")
	}
}
