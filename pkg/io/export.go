package io

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/wsbuild/pkg/dag"
	"github.com/matzehuels/wsbuild/pkg/topo"
)

// Package is one entry of an exported ordering.
type Package struct {
	Name      string   `json:"name" yaml:"name"`
	Path      string   `json:"path" yaml:"path"`
	Version   string   `json:"version,omitempty" yaml:"version,omitempty"`
	BuildType string   `json:"build_type" yaml:"build_type"`
	Depends   []string `json:"depends,omitempty" yaml:"depends,omitempty"`
}

// Order is an exported ordering.
type Order struct {
	Packages []Package `json:"packages" yaml:"packages"`
	Levels   [][]string `json:"levels,omitempty" yaml:"levels,omitempty"`
	Cycle    []string   `json:"cycle,omitempty" yaml:"cycle,omitempty"`
}

// NewOrder converts entries. With levels set, an acyclic ordering also gets
// its parallel levels.
func NewOrder(entries []topo.Entry, levels bool) (*Order, error) {
	out := &Order{Packages: []Package{}}
	for _, e := range entries {
		if e.IsCycle() {
			out.Cycle = e.Cycle
			continue
		}
		out.Packages = append(out.Packages, Package{
			Name:      e.Package.Name,
			Path:      e.Path,
			Version:   e.Package.Version,
			BuildType: e.Package.BuildTypeOrDefault(),
			Depends:   e.Depends,
		})
	}
	if !levels || out.Cycle != nil {
		return out, nil
	}

	lv, err := topo.Levels(entries)
	if err != nil {
		return nil, err
	}
	for _, level := range lv {
		out.Levels = append(out.Levels, topo.Names(level))
	}
	return out, nil
}

// WriteJSON encodes o as indented JSON.
func WriteJSON(o *Order, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(o); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteYAML encodes o as YAML.
func WriteYAML(o *Order, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(o); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return enc.Close()
}

var kindToString = map[dag.NodeKind]string{
	dag.NodeKindUnderlay: "underlay",
	dag.NodeKindExternal: "external",
}

type graph struct {
	Meta  dag.Metadata `json:"meta,omitempty"`
	Nodes []node       `json:"nodes"`
	Edges []edge       `json:"edges"`
}

type node struct {
	ID   string       `json:"id"`
	Row  *int         `json:"row,omitempty"`
	Kind string       `json:"kind,omitempty"`
	Meta dag.Metadata `json:"meta,omitempty"`
}

type edge struct {
	From string       `json:"from"`
	To   string       `json:"to"`
	Meta dag.Metadata `json:"meta,omitempty"`
}

// WriteGraphJSON encodes a DAG as JSON and writes it to w.
// The output can be read back with [ReadGraphJSON].
func WriteGraphJSON(g *dag.DAG, w io.Writer) error {
	nodes, edges := g.Nodes(), g.Edges()
	out := graph{
		Meta:  g.Meta(),
		Nodes: make([]node, len(nodes)),
		Edges: make([]edge, len(edges)),
	}

	for i, n := range nodes {
		nd := node{ID: n.ID, Meta: n.Meta}
		if n.Row != 0 {
			row := n.Row
			nd.Row = &row
		}
		if s, ok := kindToString[n.Kind]; ok {
			nd.Kind = s
		}
		out.Nodes[i] = nd
	}
	for i, e := range edges {
		out.Edges[i] = edge{From: e.From, To: e.To, Meta: e.Meta}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
