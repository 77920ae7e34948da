package compose

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/graphmesh/core"
	"github.com/hupe1980/graphmesh/engine"
	"github.com/hupe1980/graphmesh/internal/testutil"
)

func compose(t *testing.T, c *Composer, spec core.CompositionSpec) *Result {
	t.Helper()
	res, err := c.Apply(context.Background(), core.ComposeGraphs{Spec: spec})
	require.NoError(t, err)
	return res
}

func TestUnion_DisjointCommutative(t *testing.T) {
	eng := engine.New()
	c := New(eng)

	a := testutil.NewGraphBuilder().Node("n1").Node("n2").Edge("e1", "n1", "n2", "p").MustBuild(eng)
	b := testutil.NewGraphBuilder().Node("n3").Node("n4").Edge("e2", "n3", "n4", "p").MustBuild(eng)

	ab := compose(t, c, core.CompositionSpec{Operator: core.OpUnion, Operands: []string{a, b}})
	ba := compose(t, c, core.CompositionSpec{Operator: core.OpUnion, Operands: []string{b, a}})

	cidAB, err := ab.Graphs[0].CID()
	require.NoError(t, err)
	cidBA, err := ba.Graphs[0].CID()
	require.NoError(t, err)
	assert.Equal(t, cidAB, cidBA)

	assert.Equal(t, 4, ab.Graphs[0].NodeCount())
	assert.Equal(t, 2, ab.Graphs[0].EdgeCount())
}

func TestUnion_CollisionPolicies(t *testing.T) {
	eng := engine.New()
	c := New(eng)
	ctx := context.Background()

	older := testutil.NewGraphBuilder().PropNode("shared", map[string]any{"v": "old"}).MustBuild(eng)
	newer := testutil.NewGraphBuilder().PropNode("shared", map[string]any{"v": "new"}).MustBuild(eng)

	// no policy configured: ambiguous merge is rejected
	_, err := c.Apply(ctx, core.ComposeGraphs{Spec: core.CompositionSpec{
		Operator: core.OpUnion, Operands: []string{older, newer},
	}})
	var cpe *core.CompositionPolicyError
	require.True(t, errors.As(err, &cpe))

	// explicit error policy
	_, err = c.Apply(ctx, core.ComposeGraphs{Spec: core.CompositionSpec{
		Operator: core.OpUnion, Operands: []string{older, newer}, Collision: core.CollisionError,
	}})
	require.True(t, errors.As(err, &cpe))

	// keep_newer takes the later operand's entity
	res := compose(t, c, core.CompositionSpec{
		Operator: core.OpUnion, Operands: []string{older, newer}, Collision: core.CollisionKeepNewer,
	})
	n, _ := res.Graphs[0].Storage.GetNode("shared")
	assert.Equal(t, "new", n.Properties["v"])

	// keep_older takes the earlier operand's entity
	res = compose(t, c, core.CompositionSpec{
		Operator: core.OpUnion, Operands: []string{older, newer}, Collision: core.CollisionKeepOlder,
	})
	n, _ = res.Graphs[0].Storage.GetNode("shared")
	assert.Equal(t, "old", n.Properties["v"])
}

func TestUnion_OperandValidation(t *testing.T) {
	eng := engine.New()
	c := New(eng)
	ctx := context.Background()

	a := testutil.NewGraphBuilder().Node("n1").MustBuild(eng)
	conceptual := testutil.NewGraphBuilder().Variant(core.VariantConcept).
		ConceptNode("n2", map[string]float64{"x": 1}).MustBuild(eng)

	_, err := c.Apply(ctx, core.ComposeGraphs{Spec: core.CompositionSpec{
		Operator: core.OpUnion, Operands: []string{a},
	}})
	assert.True(t, core.IsValidation(err))

	_, err = c.Apply(ctx, core.ComposeGraphs{Spec: core.CompositionSpec{
		Operator: core.OpUnion, Operands: []string{a, conceptual}, Collision: core.CollisionKeepNewer,
	}})
	assert.True(t, core.IsValidation(err))

	_, err = c.Apply(ctx, core.ComposeGraphs{Spec: core.CompositionSpec{
		Operator: core.OpUnion, Operands: []string{a, "ghost"},
	}})
	assert.True(t, core.IsNotFound(err))
}

func TestIntersection_ByIdentity(t *testing.T) {
	eng := engine.New()
	c := New(eng)

	a := testutil.NewGraphBuilder().
		Node("n1").Node("n2").Node("only-a").
		Edge("e1", "n1", "n2", "p").
		MustBuild(eng)
	b := testutil.NewGraphBuilder().
		Node("n1").Node("n2").Node("only-b").
		Edge("e1", "n1", "n2", "p").
		MustBuild(eng)

	res := compose(t, c, core.CompositionSpec{Operator: core.OpIntersection, Operands: []string{a, b}})

	g := res.Graphs[0]
	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount())
	_, ok := g.Storage.GetNode("only-a")
	assert.False(t, ok)
}

func TestIntersection_ByContent(t *testing.T) {
	eng := engine.New()
	c := New(eng)

	// same identity, different content: matches by identity but not content
	a := testutil.NewGraphBuilder().
		PropNode("n1", map[string]any{"v": 1.0}).
		PropNode("n2", map[string]any{"v": 2.0}).
		MustBuild(eng)
	b := testutil.NewGraphBuilder().
		PropNode("n1", map[string]any{"v": 1.0}).
		PropNode("n2", map[string]any{"v": 99.0}).
		MustBuild(eng)

	byIdentity := compose(t, c, core.CompositionSpec{
		Operator: core.OpIntersection, Operands: []string{a, b}, Match: core.MatchIdentity,
	})
	assert.Equal(t, 2, byIdentity.Graphs[0].NodeCount())

	byContent := compose(t, c, core.CompositionSpec{
		Operator: core.OpIntersection, Operands: []string{a, b}, Match: core.MatchContent,
	})
	assert.Equal(t, 1, byContent.Graphs[0].NodeCount())
	_, ok := byContent.Graphs[0].Storage.GetNode("n1")
	assert.True(t, ok)
}

func TestIntersection_EdgesNeedSurvivingEndpoints(t *testing.T) {
	eng := engine.New()
	c := New(eng)

	a := testutil.NewGraphBuilder().
		Node("n1").Node("n2").
		Edge("e1", "n1", "n2", "p").
		MustBuild(eng)
	b := testutil.NewGraphBuilder().
		Node("n1").
		MustBuild(eng)

	res := compose(t, c, core.CompositionSpec{Operator: core.OpIntersection, Operands: []string{a, b}})
	assert.Equal(t, 1, res.Graphs[0].NodeCount())
	assert.Equal(t, 0, res.Graphs[0].EdgeCount())
}

func TestSplit_PartitionsByProperty(t *testing.T) {
	eng := engine.New()
	c := New(eng)

	id := testutil.NewGraphBuilder().
		PropNode("a1", map[string]any{"team": "red"}).
		PropNode("a2", map[string]any{"team": "red"}).
		PropNode("b1", map[string]any{"team": "blue"}).
		PropNode("loose", map[string]any{"other": 1}).
		Edge("e1", "a1", "a2", "p").
		MustBuild(eng)

	res := compose(t, c, core.CompositionSpec{
		Operator: core.OpSplit, Operands: []string{id}, Name: "teams", SplitBy: "team",
	})

	require.Len(t, res.Graphs, 3)
	names := make([]string, len(res.Graphs))
	for i, g := range res.Graphs {
		names[i] = g.Name
	}
	sort.Strings(names)
	assert.Equal(t, []string{"teams:blue", "teams:red", "teams:unassigned"}, names)

	byName := map[string]*core.Graph{}
	for _, g := range res.Graphs {
		byName[g.Name] = g
	}
	assert.Equal(t, 2, byName["teams:red"].NodeCount())
	assert.Equal(t, 1, byName["teams:red"].EdgeCount())
	assert.Equal(t, 1, byName["teams:blue"].NodeCount())
	assert.Equal(t, 1, byName["teams:unassigned"].NodeCount())
}

func TestSplit_BoundaryPolicies(t *testing.T) {
	eng := engine.New()
	c := New(eng)
	ctx := context.Background()

	build := func() string {
		return testutil.NewGraphBuilder().
			PropNode("r1", map[string]any{"team": "red"}).
			PropNode("b1", map[string]any{"team": "blue"}).
			Edge("x1", "r1", "b1", "crosses").
			MustBuild(eng)
	}

	// no boundary policy: ambiguous
	_, err := c.Apply(ctx, core.ComposeGraphs{Spec: core.CompositionSpec{
		Operator: core.OpSplit, Operands: []string{build()}, SplitBy: "team",
	}})
	var cpe *core.CompositionPolicyError
	require.True(t, errors.As(err, &cpe))

	// drop: the crossing edge disappears from both partitions
	res := compose(t, c, core.CompositionSpec{
		Operator: core.OpSplit, Operands: []string{build()}, SplitBy: "team", Boundary: core.BoundaryDrop,
	})
	for _, g := range res.Graphs {
		assert.Equal(t, 0, g.EdgeCount())
		assert.Equal(t, 1, g.NodeCount())
	}

	// duplicate: each partition keeps the edge plus a boundary copy of the
	// foreign endpoint
	res = compose(t, c, core.CompositionSpec{
		Operator: core.OpSplit, Operands: []string{build()}, SplitBy: "team", Boundary: core.BoundaryDuplicate,
	})
	for _, g := range res.Graphs {
		assert.Equal(t, 2, g.NodeCount(), g.Name)
		assert.Equal(t, 1, g.EdgeCount(), g.Name)
	}
	byName := map[string]*core.Graph{}
	for _, g := range res.Graphs {
		byName[g.Name] = g
	}
	foreign, ok := byName["split:red"].Storage.GetNode("b1")
	require.True(t, ok)
	assert.True(t, foreign.HasLabel("boundary"))
}

func TestFederation_VirtualReads(t *testing.T) {
	eng := engine.New()
	c := New(eng)
	ctx := context.Background()

	a := testutil.NewGraphBuilder().
		PropNode("n1", map[string]any{"from": "a"}).
		Node("n2").
		MustBuild(eng)
	b := testutil.NewGraphBuilder().
		PropNode("n1", map[string]any{"from": "b"}).
		Node("n3").
		MustBuild(eng)

	before := len(eng.GraphIDs())
	res := compose(t, c, core.CompositionSpec{
		Operator: core.OpFederation, Operands: []string{a, b}, Name: "fed",
	})

	require.NotNil(t, res.Federation)
	assert.Empty(t, res.Graphs)
	assert.Empty(t, res.Events)
	// no new aggregate was materialized
	assert.Len(t, eng.GraphIDs(), before)

	fed := res.Federation
	nodes, err := fed.ListNodes(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, []string{"n1", "n2", "n3"}, []string{nodes[0].ID, nodes[1].ID, nodes[2].ID})

	// duplicate identity resolves to the first operand
	n1, err := fed.GetNode(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "a", n1.Properties["from"])

	_, err = fed.GetNode(ctx, "ghost")
	assert.True(t, core.IsNotFound(err))

	count, err := fed.NodeCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	links, err := fed.Operands()
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, a, links[0].GraphID)

	// operands stay independently versioned: mutate one and read again
	_, err = eng.Submit(ctx, core.AddNode{GraphID: b, Node: core.NodeData{ID: "n4"}})
	require.NoError(t, err)
	nodes, err = fed.ListNodes(ctx)
	require.NoError(t, err)
	assert.Len(t, nodes, 4)

	updated, err := fed.Operands()
	require.NoError(t, err)
	assert.Equal(t, links[1].Version+1, updated[1].Version)
}

func TestCompose_PerOperandVersionPins(t *testing.T) {
	eng := engine.New()
	c := New(eng)
	ctx := context.Background()

	a := testutil.NewGraphBuilder().Node("n1").MustBuild(eng)
	b := testutil.NewGraphBuilder().Node("n2").MustBuild(eng)

	// advance a past the pinned version
	_, err := eng.Submit(ctx, core.AddNode{GraphID: a, Node: core.NodeData{ID: "extra"}})
	require.NoError(t, err)

	res, err := c.Apply(ctx, core.ComposeGraphs{
		Spec:             core.CompositionSpec{Operator: core.OpUnion, Operands: []string{a, b}},
		ExpectedVersions: map[string]uint64{a: 2},
	})
	require.NoError(t, err)

	// the union saw a@2, before "extra" existed
	g := res.Graphs[0]
	assert.Equal(t, 2, g.NodeCount())
	_, ok := g.Storage.GetNode("extra")
	assert.False(t, ok)

	for _, link := range g.Provenance {
		if link.GraphID == a {
			assert.Equal(t, uint64(2), link.Version)
		}
	}
}

func TestCompose_PinBeyondHeadConflicts(t *testing.T) {
	eng := engine.New()
	c := New(eng)
	ctx := context.Background()

	a := testutil.NewGraphBuilder().Node("n1").MustBuild(eng)
	b := testutil.NewGraphBuilder().Node("n2").MustBuild(eng)

	_, err := c.Apply(ctx, core.ComposeGraphs{
		Spec:             core.CompositionSpec{Operator: core.OpUnion, Operands: []string{a, b}},
		ExpectedVersions: map[string]uint64{a: 99},
	})
	require.Error(t, err)
	var conflict *core.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, a, conflict.GraphID)
	assert.Equal(t, uint64(99), conflict.Expected)
	assert.Equal(t, uint64(2), conflict.Actual)

	// a missing operand still surfaces NotFound
	_, err = c.Apply(ctx, core.ComposeGraphs{
		Spec: core.CompositionSpec{Operator: core.OpUnion, Operands: []string{a, "ghost"}},
	})
	assert.True(t, core.IsNotFound(err))
}

func TestCompose_ReplayableDerivation(t *testing.T) {
	eng := engine.New()
	c := New(eng)

	a := testutil.NewGraphBuilder().Node("n1").MustBuild(eng)
	b := testutil.NewGraphBuilder().Node("n2").MustBuild(eng)

	res := compose(t, c, core.CompositionSpec{Operator: core.OpUnion, Operands: []string{a, b}})
	g := res.Graphs[0]

	log, err := eng.Log(g.ID)
	require.NoError(t, err)
	require.NoError(t, engine.VerifyChain(log))

	replayed, err := engine.Replay(log)
	require.NoError(t, err)
	want, err := g.CID()
	require.NoError(t, err)
	got, err := replayed.CID()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, g.Provenance, replayed.Provenance)
}
