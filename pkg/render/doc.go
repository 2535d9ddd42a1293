// Package render turns workspace dependency graphs into pictures.
//
// The [nodelink] subpackage draws the graph built by workspace.Graph as a
// Graphviz node-link diagram, with packages as boxes and an arrow from each
// dependency to its dependent.
package render
