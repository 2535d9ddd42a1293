// Package nodelink renders workspace dependency graphs as node-link diagrams.
//
// # Usage
//
// Convert a DAG to DOT format, then render to SVG:
//
//	g := workspace.Graph(entries, pkgs)
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(dot)
//
// Arrows point from a dependency to the package that needs it, so the graph
// reads top to bottom in build order. Packages in a dependency cycle and
// the edges between them are drawn in red.
//
// # Options
//
//   - Detailed: node labels include the row, path, version and build type
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is required.
package nodelink
