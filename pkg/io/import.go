package io

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/wsbuild/pkg/dag"
)

var kindFromString = map[string]dag.NodeKind{
	"underlay": dag.NodeKindUnderlay,
	"external": dag.NodeKindExternal,
}

// ReadGraphJSON decodes a graph written by [WriteGraphJSON].
//
// Errors name the node or edge that could not be added; the dag sentinel
// errors can be matched with errors.Is. ReadGraphJSON does not close r.
func ReadGraphJSON(r io.Reader) (*dag.DAG, error) {
	var data graph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	g := dag.New(data.Meta)
	for _, n := range data.Nodes {
		nd := dag.Node{ID: n.ID, Meta: n.Meta}
		if n.Row != nil {
			nd.Row = *n.Row
		}
		if k, ok := kindFromString[n.Kind]; ok {
			nd.Kind = k
		}
		if err := g.AddNode(nd); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	for _, e := range data.Edges {
		if err := g.AddEdge(dag.Edge{From: e.From, To: e.To, Meta: e.Meta}); err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, err)
		}
	}
	return g, nil
}
