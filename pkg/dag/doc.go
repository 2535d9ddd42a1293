// Package dag provides the directed graph used to inspect and render a
// workspace's package dependencies.
//
// Nodes are packages and edges point from a dependency to its dependent, so
// [DAG.Sources] are the packages with nothing to wait for. Each node carries
// a Row; after [transform.AssignLayers] the row is the package's build level,
// and every node in one row can be built concurrently once the earlier rows
// are done.
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "core"})
//	g.AddNode(dag.Node{ID: "app"})
//	g.AddEdge(dag.Edge{From: "core", To: "app"})
//
// [transform]: github.com/matzehuels/wsbuild/pkg/dag/transform
package dag
