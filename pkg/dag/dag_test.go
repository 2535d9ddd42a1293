package dag

import (
	"errors"
	"testing"
)

func TestAddNodeErrors(t *testing.T) {
	g := New(nil)
	if err := g.AddNode(Node{}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(empty) = %v, want %v", err, ErrInvalidNodeID)
	}
	if err := g.AddNode(Node{ID: "a"}); err != nil {
		t.Fatalf("AddNode(a) error: %v", err)
	}
	if err := g.AddNode(Node{ID: "a"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode(a) twice = %v, want %v", err, ErrDuplicateNodeID)
	}
	n, _ := g.Node("a")
	if n.Meta == nil {
		t.Error("Meta should be initialized")
	}
}

func TestAddEdgeErrors(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: "a"})
	if err := g.AddEdge(Edge{From: "x", To: "a"}); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("AddEdge(x->a) = %v, want %v", err, ErrUnknownSourceNode)
	}
	if err := g.AddEdge(Edge{From: "a", To: "x"}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("AddEdge(a->x) = %v, want %v", err, ErrUnknownTargetNode)
	}
}

func TestNodesSorted(t *testing.T) {
	g := New(nil)
	for _, id := range []string{"c", "a", "b"} {
		_ = g.AddNode(Node{ID: id})
	}
	ids := NodeIDs(g.Nodes())
	if ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Errorf("Nodes() = %v, want [a b c]", ids)
	}
}

func TestSetRowsAndNodesInRow(t *testing.T) {
	g := New(nil)
	for _, id := range []string{"z", "y", "x"} {
		_ = g.AddNode(Node{ID: id})
	}
	g.SetRows(map[string]int{"x": 1, "z": 1})

	if got := NodeIDs(g.NodesInRow(1)); len(got) != 2 || got[0] != "x" || got[1] != "z" {
		t.Errorf("NodesInRow(1) = %v, want [x z]", got)
	}
	if got := NodeIDs(g.NodesInRow(0)); len(got) != 1 || got[0] != "y" {
		t.Errorf("NodesInRow(0) = %v, want [y]", got)
	}
	if g.MaxRow() != 1 || g.RowCount() != 2 {
		t.Errorf("MaxRow() = %d, RowCount() = %d", g.MaxRow(), g.RowCount())
	}
}

func TestRemoveEdge(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: "a"})
	_ = g.AddNode(Node{ID: "b"})
	_ = g.AddEdge(Edge{From: "a", To: "b"})
	g.RemoveEdge("a", "b")
	if g.EdgeCount() != 0 || g.OutDegree("a") != 0 || g.InDegree("b") != 0 {
		t.Errorf("edge not removed: edges=%d out=%d in=%d", g.EdgeCount(), g.OutDegree("a"), g.InDegree("b"))
	}
}

func TestValidate(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: "a"})
	_ = g.AddNode(Node{ID: "b"})
	_ = g.AddNode(Node{ID: "c"})
	_ = g.AddEdge(Edge{From: "a", To: "b"})
	_ = g.AddEdge(Edge{From: "a", To: "c"})
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	_ = g.AddEdge(Edge{From: "c", To: "a"})
	if err := g.Validate(); !errors.Is(err, ErrGraphHasCycle) {
		t.Errorf("Validate() = %v, want %v", err, ErrGraphHasCycle)
	}
}

func TestNodeKindString(t *testing.T) {
	tests := map[NodeKind]string{
		NodeKindPackage:  "package",
		NodeKindUnderlay: "underlay",
		NodeKindExternal: "external",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", k, got, want)
		}
	}
}
