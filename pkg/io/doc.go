// Package io exports workspace orderings and dependency graphs.
//
// # Orderings
//
// [NewOrder] converts the entries of a topological ordering into an [Order],
// optionally with its parallel levels, which [WriteJSON] and [WriteYAML]
// encode:
//
//	{
//	  "packages": [
//	    {"name": "core", "path": "src/core", "build_type": "cmake"},
//	    {"name": "app", "path": "src/app", "build_type": "ament_cmake", "depends": ["core"]}
//	  ],
//	  "levels": [["core"], ["app"]]
//	}
//
// An ordering that ended in a cycle has no levels; its "cycle" field lists
// the packages that could not be ordered.
//
// # Graphs
//
// [WriteGraphJSON] writes a dag.DAG as nodes and edges, and [ReadGraphJSON]
// reads it back:
//
//	{
//	  "nodes": [{"id": "core"}, {"id": "app", "row": 1}],
//	  "edges": [{"from": "core", "to": "app"}]
//	}
//
// Node kinds other than workspace packages are written as "underlay" or
// "external"; metadata is kept as-is.
package io
