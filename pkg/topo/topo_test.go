package topo

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/wsbuild/pkg/errors"
	"github.com/matzehuels/wsbuild/pkg/manifest"
)

func deps(names ...string) []manifest.Dependency {
	out := make([]manifest.Dependency, len(names))
	for i, n := range names {
		out[i] = manifest.Dependency{Name: n}
	}
	return out
}

func pkg(name string, build ...string) *manifest.Package {
	return &manifest.Package{Name: name, BuildDepends: deps(build...)}
}

func universe(pkgs ...*manifest.Package) Universe {
	u := make(Universe, len(pkgs))
	for _, p := range pkgs {
		u[p.Name] = Decorate("src/"+p.Name, p)
	}
	ReduceAll(u)
	return u
}

func TestReduce_ExportRecursion(t *testing.T) {
	a := pkg("a", "b")
	b := &manifest.Package{Name: "b", ExecDepends: deps("c")}
	c := &manifest.Package{Name: "c", BuildExportDepends: deps("d")}
	d := pkg("d")
	u := universe(a, b, c, d)

	got := u["a"].DependsForTopologicalOrder.Sorted()
	if diff := cmp.Diff([]string{"b", "c", "d"}, got); diff != "" {
		t.Errorf("Reduce(a) mismatch (-want +got):\n%s", diff)
	}
}

func TestReduce_OnlyExportEdgesRecurse(t *testing.T) {
	// b's plain build dependency is not visible to a.
	a := pkg("a", "b")
	b := pkg("b", "c")
	c := pkg("c")
	u := universe(a, b, c)

	got := u["a"].DependsForTopologicalOrder.Sorted()
	if diff := cmp.Diff([]string{"b"}, got); diff != "" {
		t.Errorf("Reduce(a) mismatch (-want +got):\n%s", diff)
	}
}

func TestReduce_Kinds(t *testing.T) {
	p := &manifest.Package{
		Name:             "p",
		BuildtoolDepends: deps("tool"),
		TestDepends:      deps("gtest"),
		DocDepends:       deps("doxygen"),
		ExecDepends:      deps("runtime"),
	}
	u := universe(p, pkg("tool"), pkg("gtest"), pkg("doxygen"), pkg("runtime"))

	got := u["p"].DependsForTopologicalOrder.Sorted()
	if diff := cmp.Diff([]string{"gtest", "tool"}, got); diff != "" {
		t.Errorf("Reduce(p) mismatch (-want +got):\n%s", diff)
	}
}

func TestReduce_ExternalNamesIgnored(t *testing.T) {
	a := pkg("a", "boost", "b")
	b := &manifest.Package{Name: "b", ExecDepends: deps("python3")}
	u := universe(a, b)

	got := u["a"].DependsForTopologicalOrder.Sorted()
	if diff := cmp.Diff([]string{"b"}, got); diff != "" {
		t.Errorf("Reduce(a) mismatch (-want +got):\n%s", diff)
	}
}

func TestReduce_ExportCycleTerminates(t *testing.T) {
	a := pkg("a", "b")
	b := &manifest.Package{Name: "b", ExecDepends: deps("c")}
	c := &manifest.Package{Name: "c", ExecDepends: deps("b")}
	u := universe(a, b, c)

	got := u["a"].DependsForTopologicalOrder.Sorted()
	if diff := cmp.Diff([]string{"b", "c"}, got); diff != "" {
		t.Errorf("Reduce(a) mismatch (-want +got):\n%s", diff)
	}
}

func TestReduce_GroupMembers(t *testing.T) {
	a := &manifest.Package{
		Name:         "a",
		GroupDepends: []manifest.GroupDependency{{Name: "plugins", Members: []string{"p1", "p2"}}},
	}
	p1 := &manifest.Package{Name: "p1", ExecDepends: deps("core")}
	u := universe(a, p1, pkg("p2"), pkg("core"))

	got := u["a"].DependsForTopologicalOrder.Sorted()
	if diff := cmp.Diff([]string{"core", "p1", "p2"}, got); diff != "" {
		t.Errorf("Reduce(a) mismatch (-want +got):\n%s", diff)
	}
}

func TestSort_Diamond(t *testing.T) {
	u := universe(pkg("A", "B", "C"), pkg("B", "D"), pkg("C", "D"), pkg("D"))

	entries := Sort(u)
	if diff := cmp.Diff([]string{"D", "B", "C", "A"}, Names(entries)); diff != "" {
		t.Errorf("Sort() mismatch (-want +got):\n%s", diff)
	}
	if err := CheckCycle(entries); err != nil {
		t.Errorf("CheckCycle() = %v, want nil", err)
	}
	if diff := cmp.Diff([]string{"B", "C"}, entries[3].Depends); diff != "" {
		t.Errorf("A depends mismatch (-want +got):\n%s", diff)
	}
	if entries[0].Path != "src/D" {
		t.Errorf("Path = %q, want %q", entries[0].Path, "src/D")
	}
}

func TestSort_Cycle(t *testing.T) {
	u := universe(pkg("A", "B"), pkg("B", "C"), pkg("C", "A"))

	entries := Sort(u)
	if len(entries) != 1 {
		t.Fatalf("Sort() returned %d entries, want 1: %v", len(entries), Names(entries))
	}
	e := entries[0]
	if !e.IsCycle() {
		t.Fatal("entry is not a cycle entry")
	}
	if got := e.CycleLabel(); got != "A, B, C" {
		t.Errorf("CycleLabel() = %q, want %q", got, "A, B, C")
	}
	if e.Path != "" || e.Depends != nil {
		t.Errorf("cycle entry has Path=%q Depends=%v", e.Path, e.Depends)
	}

	err := CheckCycle(entries)
	if !errors.Is(err, errors.ErrCodeCycle) {
		t.Errorf("CheckCycle() = %v, want code %s", err, errors.ErrCodeCycle)
	}
}

func TestSort_CycleAfterValidPrefix(t *testing.T) {
	// z depends on the cycle but nobody depends on z, so it is dropped
	// from the label.
	u := universe(pkg("base"), pkg("x", "base", "y"), pkg("y", "x"), pkg("z", "x"))

	entries := Sort(u)
	if diff := cmp.Diff([]string{"base", "x, y"}, Names(entries)); diff != "" {
		t.Errorf("Sort() mismatch (-want +got):\n%s", diff)
	}
}

func TestSort_CycleSetIsConservative(t *testing.T) {
	// m sits between two cycles and cannot be told apart from them.
	u := universe(
		pkg("a", "b"), pkg("b", "a"),
		pkg("m", "a"),
		pkg("x", "m", "y"), pkg("y", "x"),
	)

	entries := Sort(u)
	last := entries[len(entries)-1]
	if diff := cmp.Diff([]string{"a", "b", "m", "x", "y"}, last.Cycle); diff != "" {
		t.Errorf("Cycle mismatch (-want +got):\n%s", diff)
	}
}

func TestSort_SelfDependency(t *testing.T) {
	u := universe(pkg("a", "a"), pkg("b"))

	entries := Sort(u)
	if diff := cmp.Diff([]string{"b", "a"}, Names(entries)); diff != "" {
		t.Errorf("Sort() mismatch (-want +got):\n%s", diff)
	}
	if !entries[1].IsCycle() {
		t.Error("self dependency should yield a cycle entry")
	}
}

func TestSort_DoesNotMutateInput(t *testing.T) {
	u := universe(pkg("A", "B"), pkg("B"))
	before := u["A"].DependsForTopologicalOrder.Clone()

	Sort(u)
	Sort(u)

	if !u["A"].DependsForTopologicalOrder.Equal(before) {
		t.Errorf("DependsForTopologicalOrder changed: %v, want %v",
			u["A"].DependsForTopologicalOrder.Sorted(), before.Sorted())
	}
}

func TestSort_IgnoresNamesOutsideUniverse(t *testing.T) {
	u := universe(pkg("a"), pkg("b"))
	u["b"].DependsForTopologicalOrder = NewSet("a", "gone")

	entries := Sort(u)
	if diff := cmp.Diff([]string{"a", "b"}, Names(entries)); diff != "" {
		t.Errorf("Sort() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a"}, entries[1].Depends); diff != "" {
		t.Errorf("Depends mismatch (-want +got):\n%s", diff)
	}
}

func TestSort_Empty(t *testing.T) {
	if got := Sort(Universe{}); len(got) != 0 {
		t.Errorf("Sort(empty) = %v, want empty", Names(got))
	}
}

func randomPackages(r *rand.Rand, n int) []*manifest.Package {
	pkgs := make([]*manifest.Package, n)
	for i := range pkgs {
		var build []string
		// Only lower indices, so the graph is acyclic.
		for j := 0; j < i; j++ {
			if r.Intn(4) == 0 {
				build = append(build, fmt.Sprintf("p%02d", j))
			}
		}
		pkgs[i] = pkg(fmt.Sprintf("p%02d", i), build...)
		if r.Intn(3) == 0 && i > 0 {
			pkgs[i].ExecDepends = deps(fmt.Sprintf("p%02d", r.Intn(i)))
		}
	}
	return pkgs
}

func TestSort_DeterministicAndValid(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		pkgs := randomPackages(r, 30)
		want := Names(Sort(universe(pkgs...)))

		r.Shuffle(len(pkgs), func(i, j int) { pkgs[i], pkgs[j] = pkgs[j], pkgs[i] })
		entries := Sort(universe(pkgs...))
		if diff := cmp.Diff(want, Names(entries)); diff != "" {
			t.Fatalf("trial %d: order differs after shuffle (-want +got):\n%s", trial, diff)
		}

		pos := make(map[string]int, len(entries))
		for i, e := range entries {
			if e.IsCycle() {
				t.Fatalf("trial %d: unexpected cycle %s", trial, e.CycleLabel())
			}
			for _, d := range e.Depends {
				if p, ok := pos[d]; !ok || p >= i {
					t.Errorf("trial %d: %s emitted before its dependency %s", trial, e.Name(), d)
				}
			}
			pos[e.Name()] = i
		}
		if len(entries) != len(pkgs) {
			t.Errorf("trial %d: %d entries, want %d", trial, len(entries), len(pkgs))
		}
	}
}

func TestLevels(t *testing.T) {
	u := universe(pkg("A", "B", "C"), pkg("B", "D"), pkg("C", "D"), pkg("D"), pkg("E"))

	levels, err := Levels(Sort(u))
	if err != nil {
		t.Fatalf("Levels() error: %v", err)
	}
	got := make([][]string, len(levels))
	for i, l := range levels {
		got[i] = Names(l)
	}
	want := [][]string{{"D", "E"}, {"B", "C"}, {"A"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Levels() mismatch (-want +got):\n%s", diff)
	}
}

func TestLevels_HandBuiltCycle(t *testing.T) {
	entries := []Entry{
		{Path: "a", Package: &manifest.Package{Name: "a"}, Depends: []string{"b"}},
		{Path: "b", Package: &manifest.Package{Name: "b"}, Depends: []string{"a"}},
	}
	if _, err := Levels(entries); !errors.Is(err, errors.ErrCodeCycle) {
		t.Errorf("Levels() = %v, want code %s", err, errors.ErrCodeCycle)
	}
}

func TestLevels_Cycle(t *testing.T) {
	u := universe(pkg("A", "B"), pkg("B", "A"))
	if _, err := Levels(Sort(u)); !errors.Is(err, errors.ErrCodeCycle) {
		t.Errorf("Levels() = %v, want code %s", err, errors.ErrCodeCycle)
	}
}
