// Package transform rewrites a workspace [dag.DAG] in place before it is
// rendered or reported.
//
// [AssignLayers] sets each node's Row to its build level. [TransitiveReduction]
// drops dependency edges already implied by a longer path, which keeps the
// rendered graph readable. [BreakCycles] removes back edges so a cyclic
// workspace can still be drawn; the removed edges are returned so callers can
// highlight them.
//
// A typical graph export runs them in this order:
//
//	removed := transform.BreakCycles(g)
//	transform.TransitiveReduction(g)
//	transform.AssignLayers(g)
//
// [dag.DAG]: github.com/matzehuels/wsbuild/pkg/dag.DAG
package transform
