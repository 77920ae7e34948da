package core

import (
	"sort"

	"github.com/hupe1980/graphmesh/cid"
)

// NodeData is the wire form of a node as carried by commands, events and
// import streams. Labels are normalized to sorted order so logically
// identical nodes canonicalize identically.
type NodeData struct {
	ID         string         `json:"id" yaml:"id"`
	Labels     []string       `json:"labels,omitempty" yaml:"labels,omitempty"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
	Payload    map[string]any `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// Copy returns a detached copy of the wire form, deep-copying nested
// property and payload values.
func (d NodeData) Copy() NodeData {
	return NodeData{
		ID:         d.ID,
		Labels:     append([]string(nil), d.Labels...),
		Properties: copyMap(d.Properties),
		Payload:    copyMap(d.Payload),
	}
}

// EdgeData is the wire form of an edge.
type EdgeData struct {
	ID         string         `json:"id" yaml:"id"`
	Source     string         `json:"source" yaml:"source"`
	Target     string         `json:"target" yaml:"target"`
	Predicate  string         `json:"predicate" yaml:"predicate"`
	Weight     float64        `json:"weight,omitempty" yaml:"weight,omitempty"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Copy returns a detached copy of the wire form.
func (d EdgeData) Copy() EdgeData {
	return EdgeData{
		ID:         d.ID,
		Source:     d.Source,
		Target:     d.Target,
		Predicate:  d.Predicate,
		Weight:     d.Weight,
		Properties: copyMap(d.Properties),
	}
}

// Node is an immutable content-bearing graph entity. State changes are
// modeled as removal of the old node followed by addition of a new node
// sharing the same identity, so a Node value never mutates after
// construction and may be shared freely across snapshots.
type Node struct {
	ID         string
	Labels     []string
	Properties map[string]any
	Payload    map[string]any

	cell cid.Cell
}

// NewNode builds an immutable Node from its wire form. Labels are copied and
// sorted; property and payload maps are copied deeply.
func NewNode(d NodeData) *Node {
	labels := append([]string(nil), d.Labels...)
	sort.Strings(labels)
	return &Node{
		ID:         d.ID,
		Labels:     labels,
		Properties: copyMap(d.Properties),
		Payload:    copyMap(d.Payload),
	}
}

// Data returns the wire form of the node.
func (n *Node) Data() NodeData {
	return NodeData{
		ID:         n.ID,
		Labels:     append([]string(nil), n.Labels...),
		Properties: copyMap(n.Properties),
		Payload:    copyMap(n.Payload),
	}
}

// CID returns the node's content identifier, computing and caching it on
// first access. The hash covers identity, labels, properties and payload.
func (n *Node) CID() (string, error) {
	return n.cell.Load(func() (string, error) {
		return cid.HashValue(n.Data())
	})
}

// HasLabel reports whether the node carries the given label.
func (n *Node) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Edge is an immutable relationship between two nodes of the same graph.
// Cross-graph edges exist only as boundary references created by an explicit
// composition.
type Edge struct {
	ID         string
	Source     string
	Target     string
	Predicate  string
	Weight     float64
	Properties map[string]any

	cell cid.Cell
}

// NewEdge builds an immutable Edge from its wire form.
func NewEdge(d EdgeData) *Edge {
	return &Edge{
		ID:         d.ID,
		Source:     d.Source,
		Target:     d.Target,
		Predicate:  d.Predicate,
		Weight:     d.Weight,
		Properties: copyMap(d.Properties),
	}
}

// Data returns the wire form of the edge.
func (e *Edge) Data() EdgeData {
	return EdgeData{
		ID:         e.ID,
		Source:     e.Source,
		Target:     e.Target,
		Predicate:  e.Predicate,
		Weight:     e.Weight,
		Properties: copyMap(e.Properties),
	}
}

// CID returns the edge's content identifier, computed lazily and cached.
func (e *Edge) CID() (string, error) {
	return e.cell.Load(func() (string, error) {
		return cid.HashValue(e.Data())
	})
}

// copyMap copies a property or payload map deeply. Nested map[string]any and
// []any values (the shapes JSON decoding produces) are copied too, so a wire
// copy never aliases stored state.
func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
