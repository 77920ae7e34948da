package testutil

import (
	"context"
	"fmt"

	"github.com/hupe1980/graphmesh/core"
	"github.com/hupe1980/graphmesh/engine"
)

// GraphBuilder provides a fluent helper for seeding graphs in tests.
// Example:
//
//	id := NewGraphBuilder().Node("n1", "Alpha").Node("n2").Edge("e1", "n1", "n2", "related_to").MustBuild(eng)
//
// Chain only the parts you need; sensible defaults are applied.
type GraphBuilder struct {
	id      string
	name    string
	variant core.Variant
	root    string
	nodes   []core.NodeData
	edges   []core.EdgeData
}

// NewGraphBuilder creates a builder for a property graph named "test-graph".
func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{name: "test-graph", variant: core.VariantProperty}
}

// ID overrides the auto-assigned graph identity (chainable).
func (b *GraphBuilder) ID(id string) *GraphBuilder { b.id = id; return b }

// Name sets the graph name (chainable).
func (b *GraphBuilder) Name(name string) *GraphBuilder { b.name = name; return b }

// Variant sets the representation variant (chainable).
func (b *GraphBuilder) Variant(v core.Variant) *GraphBuilder { b.variant = v; return b }

// Root sets the root node id for content-addressed graphs (chainable).
func (b *GraphBuilder) Root(id string) *GraphBuilder { b.root = id; return b }

// Node appends a node with the given identity and labels (chainable).
func (b *GraphBuilder) Node(id string, labels ...string) *GraphBuilder {
	b.nodes = append(b.nodes, core.NodeData{ID: id, Labels: labels})
	return b
}

// PropNode appends a node carrying the given properties (chainable).
func (b *GraphBuilder) PropNode(id string, props map[string]any, labels ...string) *GraphBuilder {
	b.nodes = append(b.nodes, core.NodeData{ID: id, Labels: labels, Properties: props})
	return b
}

// ConceptNode appends a node carrying quality-dimension coordinates
// (chainable). Use with the concept variant.
func (b *GraphBuilder) ConceptNode(id string, coords map[string]float64, labels ...string) *GraphBuilder {
	b.nodes = append(b.nodes, core.NodeData{
		ID:      id,
		Labels:  labels,
		Payload: map[string]any{core.PayloadCoordinates: coords},
	})
	return b
}

// NodeWith appends a fully specified node (chainable).
func (b *GraphBuilder) NodeWith(n core.NodeData) *GraphBuilder {
	b.nodes = append(b.nodes, n)
	return b
}

// Edge appends an edge between existing nodes (chainable).
func (b *GraphBuilder) Edge(id, source, target, predicate string) *GraphBuilder {
	b.edges = append(b.edges, core.EdgeData{ID: id, Source: source, Target: target, Predicate: predicate})
	return b
}

// EdgeWith appends a fully specified edge (chainable).
func (b *GraphBuilder) EdgeWith(e core.EdgeData) *GraphBuilder {
	b.edges = append(b.edges, e)
	return b
}

// Build submits the create and add commands to the engine, returning the
// graph identity.
func (b *GraphBuilder) Build(eng *engine.Engine) (string, error) {
	ctx := context.Background()
	recs, err := eng.Submit(ctx, core.CreateGraph{
		GraphID: b.id,
		Name:    b.name,
		Variant: b.variant,
		Root:    b.root,
	})
	if err != nil {
		return "", fmt.Errorf("create graph: %w", err)
	}
	graphID := recs[0].GraphID
	for _, n := range b.nodes {
		if _, err := eng.Submit(ctx, core.AddNode{GraphID: graphID, Node: n}); err != nil {
			return "", fmt.Errorf("add node %s: %w", n.ID, err)
		}
	}
	for _, e := range b.edges {
		if _, err := eng.Submit(ctx, core.AddEdge{GraphID: graphID, Edge: e}); err != nil {
			return "", fmt.Errorf("add edge %s: %w", e.ID, err)
		}
	}
	return graphID, nil
}

// MustBuild is Build panicking on error, for terse test setup.
func (b *GraphBuilder) MustBuild(eng *engine.Engine) string {
	id, err := b.Build(eng)
	if err != nil {
		panic(err)
	}
	return id
}
