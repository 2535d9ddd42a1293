package transform

import "github.com/matzehuels/wsbuild/pkg/dag"

// AssignLayers sets every node's Row to its build level: zero for packages
// without dependencies in the graph, otherwise one more than the deepest
// dependency. Packages in the same level never depend on each other.
//
// The graph must be acyclic. Nodes on a cycle never become ready and keep
// row 0, so call [BreakCycles] first when the input may be cyclic.
func AssignLayers(g *dag.DAG) {
	nodes := g.Nodes()
	pending := make(map[string]int, len(nodes))
	rows := make(map[string]int, len(nodes))
	ready := make([]string, 0, len(nodes))

	for _, n := range nodes {
		pending[n.ID] = g.InDegree(n.ID)
		if pending[n.ID] == 0 {
			ready = append(ready, n.ID)
		}
	}

	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]

		for _, dependent := range g.Children(id) {
			rows[dependent] = max(rows[dependent], rows[id]+1)
			pending[dependent]--
			if pending[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	g.SetRows(rows)
}

// Levels groups node IDs by Row after [AssignLayers] has run. The result is
// indexed by level and each level is sorted by ID.
func Levels(g *dag.DAG) [][]string {
	levels := make([][]string, 0, g.RowCount())
	for _, row := range g.RowIDs() {
		levels = append(levels, dag.NodeIDs(g.NodesInRow(row)))
	}
	return levels
}
