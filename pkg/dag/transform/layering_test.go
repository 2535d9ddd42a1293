package transform

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAssignLayers(t *testing.T) {
	// msgs <- driver <- app, msgs <- app, util standalone
	g := build(t, []string{"app", "driver", "msgs", "util"}, [][2]string{
		{"msgs", "driver"}, {"driver", "app"}, {"msgs", "app"},
	})

	AssignLayers(g)

	want := map[string]int{"msgs": 0, "util": 0, "driver": 1, "app": 2}
	for id, row := range want {
		n, _ := g.Node(id)
		if n.Row != row {
			t.Errorf("Row(%s) = %d, want %d", id, n.Row, row)
		}
	}

	got := Levels(g)
	if diff := cmp.Diff([][]string{{"msgs", "util"}, {"driver"}, {"app"}}, got); diff != "" {
		t.Errorf("Levels() mismatch (-want +got):\n%s", diff)
	}
}

func TestAssignLayers_Empty(t *testing.T) {
	g := build(t, nil, nil)
	AssignLayers(g)
	if got := Levels(g); len(got) != 0 {
		t.Errorf("Levels() = %v, want empty", got)
	}
}

func TestTransitiveReduction(t *testing.T) {
	g := build(t, []string{"a", "b", "c", "d"}, [][2]string{
		{"a", "b"}, {"b", "c"}, {"a", "c"}, {"a", "d"},
	})

	TransitiveReduction(g)

	if g.EdgeCount() != 3 {
		t.Errorf("EdgeCount() = %d, want 3", g.EdgeCount())
	}
	for _, e := range g.Edges() {
		if e.From == "a" && e.To == "c" {
			t.Error("redundant edge a->c was kept")
		}
	}
}
