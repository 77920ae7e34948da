package variant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/graphmesh/core"
)

// Interface compliance (compile-time assertions)
var (
	_ core.GraphStorage = (*Property)(nil)
	_ core.GraphStorage = (*Concept)(nil)
	_ core.GraphStorage = (*Workflow)(nil)
	_ core.GraphStorage = (*ContentAddressed)(nil)
)

func TestNewStorage_Dispatch(t *testing.T) {
	for _, v := range []core.Variant{
		core.VariantProperty, core.VariantConcept, core.VariantWorkflow, core.VariantContentAddressed,
	} {
		s, err := NewStorage(v)
		require.NoError(t, err, v)
		assert.Equal(t, v, s.Variant())
	}
	_, err := NewStorage(core.Variant("holographic"))
	assert.True(t, core.IsValidation(err))
}

func TestStore_AddGetRemove(t *testing.T) {
	s := NewProperty()
	require.NoError(t, s.AddNode(core.NewNode(core.NodeData{ID: "n1"})))
	require.NoError(t, s.AddNode(core.NewNode(core.NodeData{ID: "n2"})))
	require.NoError(t, s.AddEdge(core.NewEdge(core.EdgeData{ID: "e1", Source: "n1", Target: "n2", Predicate: "related_to"})))

	n, ok := s.GetNode("n1")
	require.True(t, ok)
	assert.Equal(t, "n1", n.ID)
	_, ok = s.GetNode("nope")
	assert.False(t, ok)

	assert.Equal(t, 2, s.NodeCount())
	assert.Equal(t, 1, s.EdgeCount())
	assert.Len(t, s.IncidentEdges("n1"), 1)

	require.NoError(t, s.RemoveEdge("e1"))
	require.NoError(t, s.RemoveNode("n1"))
	assert.Equal(t, 1, s.NodeCount())
}

func TestStore_DuplicateIdentity(t *testing.T) {
	s := NewProperty()
	require.NoError(t, s.AddNode(core.NewNode(core.NodeData{ID: "n1"})))
	err := s.AddNode(core.NewNode(core.NodeData{ID: "n1"}))
	assert.True(t, core.IsValidation(err))
}

func TestStore_DanglingEdgeBlocksRemoval(t *testing.T) {
	s := NewProperty()
	require.NoError(t, s.AddNode(core.NewNode(core.NodeData{ID: "n1"})))
	require.NoError(t, s.AddNode(core.NewNode(core.NodeData{ID: "n2"})))
	require.NoError(t, s.AddEdge(core.NewEdge(core.EdgeData{ID: "e1", Source: "n1", Target: "n2", Predicate: "related_to"})))

	err := s.RemoveNode("n1")
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
	assert.Contains(t, err.Error(), "dangling edge e1")
}

func TestStore_EdgeEndpointsMustExist(t *testing.T) {
	s := NewProperty()
	require.NoError(t, s.AddNode(core.NewNode(core.NodeData{ID: "n1"})))
	err := s.AddEdge(core.NewEdge(core.EdgeData{ID: "e1", Source: "n1", Target: "ghost", Predicate: "p"}))
	assert.True(t, core.IsNotFound(err))
}

func TestStore_RemoveKeepsIndexesConsistent(t *testing.T) {
	s := NewProperty()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.AddNode(core.NewNode(core.NodeData{ID: id})))
	}
	require.NoError(t, s.RemoveNode("a"))

	// remaining nodes still resolve after index compaction
	for _, id := range []string{"b", "c"} {
		n, ok := s.GetNode(id)
		require.True(t, ok, id)
		assert.Equal(t, id, n.ID)
	}
	assert.Equal(t, []string{"b", "c"}, nodeIDs(s))
}

func TestClone_Isolation(t *testing.T) {
	s := NewProperty()
	require.NoError(t, s.AddNode(core.NewNode(core.NodeData{ID: "n1"})))

	cp := s.Clone()
	require.NoError(t, cp.AddNode(core.NewNode(core.NodeData{ID: "n2"})))

	assert.Equal(t, 1, s.NodeCount())
	assert.Equal(t, 2, cp.NodeCount())
}

func TestConcept_RequiresCoordinates(t *testing.T) {
	s := NewConcept()

	err := s.AddNode(core.NewNode(core.NodeData{ID: "n1"}))
	assert.True(t, core.IsValidation(err))

	err = s.AddNode(core.NewNode(core.NodeData{
		ID:      "n1",
		Payload: map[string]any{core.PayloadCoordinates: "not-a-map"},
	}))
	assert.True(t, core.IsValidation(err))

	require.NoError(t, s.AddNode(core.NewNode(core.NodeData{
		ID:      "n1",
		Payload: map[string]any{core.PayloadCoordinates: map[string]float64{"mass": 1.5}},
	})))

	n, _ := s.GetNode("n1")
	coords, ok := Coordinates(n)
	require.True(t, ok)
	assert.Equal(t, 1.5, coords["mass"])
}

func TestConcept_CoordinatesFromDecodedJSON(t *testing.T) {
	// payload decoded from JSON arrives as map[string]any with float64 values
	n := core.NewNode(core.NodeData{
		ID:      "n1",
		Payload: map[string]any{core.PayloadCoordinates: map[string]any{"x": 0.25, "y": 3}},
	})
	coords, ok := Coordinates(n)
	require.True(t, ok)
	assert.Equal(t, 0.25, coords["x"])
	assert.Equal(t, 3.0, coords["y"])
}

func TestWorkflow_ExecutionState(t *testing.T) {
	s := NewWorkflow()
	require.NoError(t, s.AddNode(core.NewNode(core.NodeData{ID: "n1"})))
	require.NoError(t, s.AddNode(core.NewNode(core.NodeData{
		ID:      "n2",
		Payload: map[string]any{core.PayloadExecutionState: "running"},
	})))

	err := s.AddNode(core.NewNode(core.NodeData{
		ID:      "n3",
		Payload: map[string]any{core.PayloadExecutionState: 42},
	}))
	assert.True(t, core.IsValidation(err))

	n1, _ := s.GetNode("n1")
	n2, _ := s.GetNode("n2")
	assert.Equal(t, "pending", ExecutionState(n1))
	assert.Equal(t, "running", ExecutionState(n2))
}

func TestContentAddressed_RejectsCycles(t *testing.T) {
	s := NewContentAddressed()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.AddNode(core.NewNode(core.NodeData{ID: id})))
	}
	require.NoError(t, s.AddEdge(core.NewEdge(core.EdgeData{ID: "e1", Source: "a", Target: "b", Predicate: "p"})))
	require.NoError(t, s.AddEdge(core.NewEdge(core.EdgeData{ID: "e2", Source: "b", Target: "c", Predicate: "p"})))

	// closing the cycle
	err := s.AddEdge(core.NewEdge(core.EdgeData{ID: "e3", Source: "c", Target: "a", Predicate: "p"}))
	assert.True(t, core.IsValidation(err))

	// self loop
	err = s.AddEdge(core.NewEdge(core.EdgeData{ID: "e4", Source: "a", Target: "a", Predicate: "p"}))
	assert.True(t, core.IsValidation(err))

	// a second diamond edge is fine
	require.NoError(t, s.AddEdge(core.NewEdge(core.EdgeData{ID: "e5", Source: "a", Target: "c", Predicate: "p"})))
	assert.Equal(t, 3, s.EdgeCount())
}

func TestIsAcyclic(t *testing.T) {
	s := NewProperty()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.AddNode(core.NewNode(core.NodeData{ID: id})))
	}
	require.NoError(t, s.AddEdge(core.NewEdge(core.EdgeData{ID: "e1", Source: "a", Target: "b", Predicate: "p"})))
	require.NoError(t, s.AddEdge(core.NewEdge(core.EdgeData{ID: "e2", Source: "b", Target: "c", Predicate: "p"})))
	assert.True(t, IsAcyclic(s))

	require.NoError(t, s.AddEdge(core.NewEdge(core.EdgeData{ID: "e3", Source: "c", Target: "a", Predicate: "p"})))
	assert.False(t, IsAcyclic(s))
}

func nodeIDs(s core.GraphStorage) []string {
	var ids []string
	for _, n := range s.ListNodes() {
		ids = append(ids, n.ID)
	}
	return ids
}
