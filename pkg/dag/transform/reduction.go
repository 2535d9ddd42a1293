package transform

import "github.com/matzehuels/wsbuild/pkg/dag"

// TransitiveReduction removes every edge u→v for which v is also reachable
// from u through another dependency. Metadata of the remaining edges is kept.
//
// Reachability is computed once for all nodes, so memory grows with the
// square of the node count. Workspaces of a few thousand packages are fine.
func TransitiveReduction(g *dag.DAG) {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return
	}

	index := dag.NodePosMap(nodes)
	adj := make([][]int, len(nodes))
	for _, e := range g.Edges() {
		adj[index[e.From]] = append(adj[index[e.From]], index[e.To])
	}

	reach := reachability(adj)

	for _, e := range g.Edges() {
		from, to := index[e.From], index[e.To]
		for _, via := range adj[from] {
			if via != to && reach[via][to] {
				g.RemoveEdge(e.From, e.To)
				break
			}
		}
	}
}

func reachability(adj [][]int) [][]bool {
	reach := make([][]bool, len(adj))
	for i := range reach {
		reach[i] = make([]bool, len(adj))
	}

	var walk func(src, cur int)
	walk = func(src, cur int) {
		if reach[src][cur] {
			return
		}
		reach[src][cur] = true
		for _, next := range adj[cur] {
			walk(src, next)
		}
	}

	for i := range reach {
		walk(i, i)
	}
	return reach
}
