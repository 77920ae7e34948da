package graphmesh

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/graphmesh/core"
	"github.com/hupe1980/graphmesh/eventlog"
	"github.com/hupe1980/graphmesh/importer"
)

func TestGraphMesh_CommandAndQuerySurface(t *testing.T) {
	sink := eventlog.NewInMemorySink()
	mesh := New(func(o *Options) {
		o.Sinks = []core.EventSink{sink}
	})
	ctx := context.Background()

	recs, err := mesh.Submit(ctx, core.CreateGraph{Name: "demo", Variant: core.VariantProperty})
	require.NoError(t, err)
	id := recs[0].GraphID

	changes, cancel := mesh.Watch(id)
	defer cancel()

	_, err = mesh.Submit(ctx, core.AddNode{GraphID: id, Node: core.NodeData{ID: "n1", Labels: []string{"Alpha"}}})
	require.NoError(t, err)
	_, err = mesh.Submit(ctx, core.AddNode{GraphID: id, Node: core.NodeData{ID: "n2"}})
	require.NoError(t, err)
	_, err = mesh.Submit(ctx, core.AddEdge{GraphID: id, Edge: core.EdgeData{ID: "e1", Source: "n1", Target: "n2", Predicate: "related_to"}})
	require.NoError(t, err)

	g, err := mesh.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), g.Version)

	nodes, err := mesh.ListNodes(id, nil)
	require.NoError(t, err)
	assert.Len(t, nodes, 2)

	old, err := mesh.SnapshotAt(id, core.ExpectVersion(2))
	require.NoError(t, err)
	assert.Equal(t, 1, old.NodeCount())

	n, err := mesh.GetNode(id, "n1", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha"}, n.Labels)

	// events reached the sink and notifications the watcher
	assert.Len(t, sink.Records(id), 4)
	change := <-changes
	assert.Equal(t, core.EventNodeAdded, change.Kind)

	a, err := mesh.Analysis(ctx, id, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, a.Metrics.NodeCount)

	assert.Contains(t, mesh.GraphIDs(), id)
}

func TestGraphMesh_RoutesDerivationCommands(t *testing.T) {
	mesh := New()
	ctx := context.Background()

	recs, err := mesh.Submit(ctx, core.CreateGraph{Name: "src", Variant: core.VariantProperty})
	require.NoError(t, err)
	id := recs[0].GraphID
	_, err = mesh.Submit(ctx, core.AddNode{GraphID: id, Node: core.NodeData{ID: "n1", Properties: map[string]any{"x": 1.0}}})
	require.NoError(t, err)

	// Submit routes TransformGraph through the transformation engine
	events, err := mesh.Submit(ctx, core.TransformGraph{
		GraphID: id,
		Spec:    core.TransformationSpec{Target: core.VariantConcept},
	})
	require.NoError(t, err)
	require.NotEmpty(t, events)
	derivedID := events[0].GraphID
	derived, err := mesh.Snapshot(derivedID)
	require.NoError(t, err)
	assert.Equal(t, core.VariantConcept, derived.Variant)

	// and ComposeGraphs through the composition engine
	events, err = mesh.Submit(ctx, core.ComposeGraphs{
		Spec: core.CompositionSpec{Operator: core.OpUnion, Operands: []string{id, derivedID}},
	})
	require.Error(t, err) // mixed variants
	assert.True(t, core.IsValidation(err))
	assert.Empty(t, events)

	res, err := mesh.Compose(ctx, core.ComposeGraphs{
		Spec: core.CompositionSpec{Operator: core.OpFederation, Operands: []string{id, derivedID}},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Federation)
	count, err := res.Federation.NodeCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGraphMesh_ImportAndRestore(t *testing.T) {
	mesh := New()
	ctx := context.Background()

	recs, err := mesh.Submit(ctx, core.CreateGraph{Name: "imported", Variant: core.VariantProperty})
	require.NoError(t, err)
	id := recs[0].GraphID

	n1 := core.NodeData{ID: "n1"}
	n2 := core.NodeData{ID: "n2"}
	e1 := core.EdgeData{ID: "e1", Source: "n1", Target: "n2", Predicate: "p"}

	stream := make(chan importer.Record, 3)
	stream <- importer.Record{Node: &n1}
	stream <- importer.Record{Node: &n2}
	stream <- importer.Record{Edge: &e1}
	close(stream)

	sum, err := mesh.Import(ctx, id, "graphml", stream)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Nodes)
	assert.Equal(t, 1, sum.Edges)

	log, err := mesh.Log(id)
	require.NoError(t, err)

	replica := New()
	restored, err := replica.Restore(log)
	require.NoError(t, err)

	orig, err := mesh.Snapshot(id)
	require.NoError(t, err)
	origCID, err := orig.CID()
	require.NoError(t, err)
	restoredCID, err := restored.CID()
	require.NoError(t, err)
	assert.Equal(t, origCID, restoredCID)
}
