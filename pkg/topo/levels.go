package topo

import (
	"github.com/matzehuels/wsbuild/pkg/dag"
	"github.com/matzehuels/wsbuild/pkg/errors"
	"github.com/matzehuels/wsbuild/pkg/dag/transform"
)

// Levels groups an acyclic ordering into build levels. Every package of a
// level depends only on packages of earlier levels, so a level can be built
// concurrently once its predecessors are done. Within a level entries keep
// their order from entries.
//
// Levels fails with DEPENDENCY_CYCLE when entries end in a cycle entry or
// when hand-built entries depend on each other in a circle.
func Levels(entries []Entry) ([][]Entry, error) {
	if err := CheckCycle(entries); err != nil {
		return nil, err
	}

	g := dag.New(nil)
	for _, e := range entries {
		if err := g.AddNode(dag.Node{ID: e.Name()}); err != nil {
			return nil, err
		}
	}
	for _, e := range entries {
		for _, dep := range e.Depends {
			if _, ok := g.Node(dep); !ok {
				continue
			}
			if err := g.AddEdge(dag.Edge{From: dep, To: e.Name()}); err != nil {
				return nil, err
			}
		}
	}
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCycle, err, "entries depend on each other in a circle")
	}
	transform.AssignLayers(g)

	levels := make([][]Entry, g.RowCount())
	for _, e := range entries {
		n, _ := g.Node(e.Name())
		levels[n.Row] = append(levels[n.Row], e)
	}
	return levels, nil
}
