package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventRecord_SealsAndVerifies(t *testing.T) {
	rec, err := NewEventRecord("g1", 2, EventNodeAdded, NodeAddedPayload{Node: NodeData{ID: "n1"}}, "prev")
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, uint64(2), rec.Sequence)
	assert.Equal(t, "prev", rec.PrevHash)
	assert.NotEmpty(t, rec.Hash)

	ok, err := rec.Verify()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEventRecord_TamperDetected(t *testing.T) {
	rec, err := NewEventRecord("g1", 1, EventGraphCreated, GraphCreatedPayload{Variant: VariantProperty}, "")
	require.NoError(t, err)

	rec.GraphID = "g2"
	ok, err := rec.Verify()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEventRecord_CloneDetachesPayload(t *testing.T) {
	rec, err := NewEventRecord("g1", 2, EventNodeAdded, NodeAddedPayload{Node: NodeData{
		ID:         "n1",
		Properties: map[string]any{"meta": map[string]any{"k": "v"}},
	}}, "prev")
	require.NoError(t, err)

	clone := rec.Clone()
	clone.Payload.(NodeAddedPayload).Node.Properties["meta"].(map[string]any)["k"] = "mutated"

	assert.Equal(t, "v", rec.Payload.(NodeAddedPayload).Node.Properties["meta"].(map[string]any)["k"])

	// the clone still verifies against the original seal
	ok, err := rec.Clone().Verify()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEncodeDecodeRecord_RoundTrip(t *testing.T) {
	kinds := []struct {
		kind    EventKind
		payload EventPayload
	}{
		{EventGraphCreated, GraphCreatedPayload{Name: "g", Variant: VariantConcept, Root: "n1"}},
		{EventNodeAdded, NodeAddedPayload{Node: NodeData{ID: "n1", Labels: []string{"Alpha"}}}},
		{EventNodeRemoved, NodeRemovedPayload{NodeID: "n1"}},
		{EventEdgeAdded, EdgeAddedPayload{Edge: EdgeData{ID: "e1", Source: "n1", Target: "n2", Predicate: "p"}}},
		{EventEdgeRemoved, EdgeRemovedPayload{EdgeID: "e1"}},
		{EventTransformationApplied, TransformationAppliedPayload{SourceGraphID: "g0", SourceVersion: 4, TransformKind: "property_to_concept"}},
		{EventCompositionApplied, CompositionAppliedPayload{Operator: "union", Operands: []ProvenanceLink{{GraphID: "a", Version: 3, Kind: "union"}}}},
		{EventGraphArchived, GraphArchivedPayload{}},
	}

	var prev string
	for i, k := range kinds {
		rec, err := NewEventRecord("g1", uint64(i+1), k.kind, k.payload, prev)
		require.NoError(t, err)
		prev = rec.Hash

		data, err := EncodeRecord(rec)
		require.NoError(t, err)
		got, err := DecodeRecord(data)
		require.NoError(t, err, "kind %s", k.kind)

		assert.Equal(t, rec.Kind, got.Kind)
		assert.Equal(t, rec.Sequence, got.Sequence)
		assert.Equal(t, rec.Hash, got.Hash)

		// hash chain survives the round trip
		ok, err := got.Verify()
		require.NoError(t, err)
		assert.True(t, ok, "kind %s must verify after decode", k.kind)
	}
}

func TestDecodeRecord_UnknownKind(t *testing.T) {
	_, err := DecodeRecord([]byte(`{"id":"x","graph_id":"g","sequence":1,"kind":"Bogus","payload":{}}`))
	require.Error(t, err)
}
