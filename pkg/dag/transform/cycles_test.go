package transform

import (
	"testing"

	"github.com/matzehuels/wsbuild/pkg/dag"
)

func build(t *testing.T, ids []string, edges [][2]string) *dag.DAG {
	t.Helper()
	g := dag.New(nil)
	for _, id := range ids {
		if err := g.AddNode(dag.Node{ID: id}); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(dag.Edge{From: e[0], To: e[1]}); err != nil {
			t.Fatalf("AddEdge(%s->%s): %v", e[0], e[1], err)
		}
	}
	return g
}

func TestBreakCycles_NoCycles(t *testing.T) {
	g := build(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})

	if removed := BreakCycles(g); len(removed) != 0 {
		t.Errorf("BreakCycles() removed %v, want none", removed)
	}
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", g.EdgeCount())
	}
}

func TestBreakCycles_SimpleCycle(t *testing.T) {
	g := build(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})

	removed := BreakCycles(g)
	if len(removed) != 1 {
		t.Fatalf("BreakCycles() removed %d edges, want 1", len(removed))
	}
	if removed[0].From != "b" || removed[0].To != "a" {
		t.Errorf("removed = %s->%s, want b->a", removed[0].From, removed[0].To)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() after BreakCycles = %v", err)
	}
}

func TestBreakCycles_TriangleWithTail(t *testing.T) {
	g := build(t, []string{"a", "b", "c", "d"}, [][2]string{
		{"d", "a"}, {"a", "b"}, {"b", "c"}, {"c", "a"},
	})

	removed := BreakCycles(g)
	if len(removed) != 1 {
		t.Fatalf("BreakCycles() removed %d edges, want 1", len(removed))
	}
	if removed[0].From != "c" || removed[0].To != "a" {
		t.Errorf("removed = %s->%s, want c->a", removed[0].From, removed[0].To)
	}
	if g.EdgeCount() != 3 {
		t.Errorf("EdgeCount() = %d, want 3", g.EdgeCount())
	}
}

func TestBreakCycles_SelfLoop(t *testing.T) {
	g := build(t, []string{"a"}, [][2]string{{"a", "a"}})

	if removed := BreakCycles(g); len(removed) != 1 {
		t.Errorf("BreakCycles() removed %d edges, want 1", len(removed))
	}
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d, want 0", g.EdgeCount())
	}
}
