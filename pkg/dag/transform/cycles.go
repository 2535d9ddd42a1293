package transform

import "github.com/matzehuels/wsbuild/pkg/dag"

// BreakCycles removes the back edges found by a depth-first search started
// from every source, then from the remaining nodes in ID order. It returns
// the removed edges, which is empty for an acyclic graph.
func BreakCycles(g *dag.DAG) []dag.Edge {
	const (
		unvisited = iota
		onStack
		finished
	)

	state := make(map[string]int, g.NodeCount())
	var back []dag.Edge

	var visit func(id string)
	visit = func(id string) {
		state[id] = onStack
		for _, dependent := range g.Children(id) {
			switch state[dependent] {
			case unvisited:
				visit(dependent)
			case onStack:
				back = append(back, dag.Edge{From: id, To: dependent})
			}
		}
		state[id] = finished
	}

	for _, n := range append(g.Sources(), g.Nodes()...) {
		if state[n.ID] == unvisited {
			visit(n.ID)
		}
	}

	for _, e := range back {
		g.RemoveEdge(e.From, e.To)
	}
	return back
}
