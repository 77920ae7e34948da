package compose

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hupe1980/graphmesh/core"
	"github.com/hupe1980/graphmesh/engine"
	"github.com/hupe1980/graphmesh/logging"
)

// Result is a successful composition. Materializing operators fill Graphs
// (one for union/intersection, one per partition for split) and the events
// that installed them; federation fills Federation instead and produces no
// events.
type Result struct {
	Graphs     []*core.Graph
	Events     []core.EventRecord
	Federation *Federation
}

// Options configures a Composer.
type Options struct {
	// Logger provides structured logging. Defaults to NoOp.
	Logger logging.Logger
}

// Option mutates Options during construction.
type Option func(*Options)

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// Composer combines graphs through the mutation engine.
type Composer struct {
	engine *engine.Engine
	logger logging.Logger
}

// New constructs a Composer.
func New(eng *engine.Engine, opts ...Option) *Composer {
	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = logging.NoOpLogger{}
	}
	return &Composer{engine: eng, logger: o.Logger}
}

// Apply executes a ComposeGraphs command.
func (c *Composer) Apply(ctx context.Context, cmd core.ComposeGraphs) (*Result, error) {
	start := time.Now()
	res, err := c.apply(ctx, cmd)
	if err != nil {
		c.logger.Warn("composition failed", "operator", string(cmd.Spec.Operator), "error", err)
		return nil, err
	}
	c.logger.Info("composition completed",
		"operator", string(cmd.Spec.Operator),
		"operands", len(cmd.Spec.Operands),
		"outputs", len(res.Graphs),
		"duration", time.Since(start),
	)
	return res, nil
}

func (c *Composer) apply(ctx context.Context, cmd core.ComposeGraphs) (*Result, error) {
	spec := cmd.Spec
	if len(spec.Operands) == 0 {
		return nil, core.NewValidationError("composition requires at least one operand")
	}
	operands, links, err := c.loadOperands(spec.Operands, cmd.ExpectedVersions)
	if err != nil {
		return nil, err
	}

	switch spec.Operator {
	case core.OpUnion:
		if len(operands) < 2 {
			return nil, core.NewValidationError("union requires at least two operands")
		}
		return c.union(ctx, spec, operands, links)
	case core.OpIntersection:
		if len(operands) < 2 {
			return nil, core.NewValidationError("intersection requires at least two operands")
		}
		return c.intersection(ctx, spec, operands, links)
	case core.OpSplit:
		if len(operands) != 1 {
			return nil, core.NewValidationError("split takes exactly one operand")
		}
		return c.split(ctx, spec, operands[0], links[0])
	case core.OpFederation:
		return &Result{Federation: NewFederation(c.engine, spec.Name, spec.Operands)}, nil
	default:
		return nil, core.NewValidationError("unknown composition operator %q", spec.Operator)
	}
}

// loadOperands reads every operand snapshot, honoring per-operand version
// pins, and records the provenance link for each.
func (c *Composer) loadOperands(ids []string, pins map[string]uint64) ([]*core.Graph, []core.ProvenanceLink, error) {
	graphs := make([]*core.Graph, 0, len(ids))
	links := make([]core.ProvenanceLink, 0, len(ids))
	for _, id := range ids {
		var version *uint64
		if pin, ok := pins[id]; ok {
			version = &pin
		}
		g, err := c.engine.SnapshotAt(id, version)
		if err != nil {
			if core.IsNotFound(err) && version != nil {
				// Distinguish a stale version pin from a missing graph.
				if head, headErr := c.engine.Snapshot(id); headErr == nil {
					return nil, nil, &core.ConflictError{GraphID: id, Expected: *version, Actual: head.Version}
				}
			}
			return nil, nil, err
		}
		graphs = append(graphs, g)
		links = append(links, core.ProvenanceLink{GraphID: g.ID, Version: g.Version})
	}
	return graphs, links, nil
}

// sameVariant ensures all operands share one representation kind; merging
// across variants is a transformation concern, not a composition one.
func sameVariant(operands []*core.Graph) (core.Variant, error) {
	v := operands[0].Variant
	for _, g := range operands[1:] {
		if g.Variant != v {
			return "", core.NewValidationError("operands mix variants %s and %s; transform before composing", v, g.Variant)
		}
	}
	return v, nil
}

func (c *Composer) union(ctx context.Context, spec core.CompositionSpec, operands []*core.Graph, links []core.ProvenanceLink) (*Result, error) {
	v, err := sameVariant(operands)
	if err != nil {
		return nil, err
	}

	nodes := map[string]core.NodeData{}
	edges := map[string]core.EdgeData{}
	// Operand order is oldest-first: entities from later operands are
	// "newer" for collision resolution.
	for _, g := range operands {
		for _, n := range g.Storage.ListNodes() {
			d := n.Data()
			if _, collides := nodes[d.ID]; collides {
				keep, policyErr := resolveCollision(spec.Collision, "node", d.ID)
				if policyErr != nil {
					return nil, policyErr
				}
				if !keep {
					continue
				}
			}
			nodes[d.ID] = d
		}
		for _, e := range g.Storage.ListEdges() {
			d := e.Data()
			if _, collides := edges[d.ID]; collides {
				keep, policyErr := resolveCollision(spec.Collision, "edge", d.ID)
				if policyErr != nil {
					return nil, policyErr
				}
				if !keep {
					continue
				}
			}
			edges[d.ID] = d
		}
	}

	nodeList, edgeList := sortedEntities(nodes, edges)
	name := spec.Name
	if name == "" {
		name = "union"
	}
	prov := core.CompositionAppliedPayload{Operator: string(core.OpUnion), Operands: links, Policy: string(spec.Collision)}
	g, events, err := c.engine.InstallDerived(ctx, name, v, "", nodeList, edgeList, core.EventCompositionApplied, prov)
	if err != nil {
		return nil, err
	}
	return &Result{Graphs: []*core.Graph{g}, Events: events}, nil
}

// resolveCollision decides whether the later (newer) entity replaces the
// earlier one. There is no implicit default.
func resolveCollision(policy core.CollisionPolicy, kind, id string) (bool, error) {
	switch policy {
	case core.CollisionKeepNewer:
		return true, nil
	case core.CollisionKeepOlder:
		return false, nil
	case core.CollisionError:
		return false, &core.CompositionPolicyError{Reason: fmt.Sprintf("%s identity %s collides", kind, id)}
	case "":
		return false, &core.CompositionPolicyError{Reason: fmt.Sprintf("%s identity %s collides and no collision policy is configured", kind, id)}
	default:
		return false, &core.CompositionPolicyError{Reason: fmt.Sprintf("unknown collision policy %q", policy)}
	}
}

func (c *Composer) intersection(ctx context.Context, spec core.CompositionSpec, operands []*core.Graph, links []core.ProvenanceLink) (*Result, error) {
	v, err := sameVariant(operands)
	if err != nil {
		return nil, err
	}
	match := spec.Match
	if match == "" {
		match = core.MatchIdentity
	}

	nodeKey, edgeKey, err := matchKeys(match)
	if err != nil {
		return nil, err
	}

	// Entities come from the first operand; the remaining operands only
	// vote on membership.
	keepNodes := map[string]core.NodeData{}
	for _, n := range operands[0].Storage.ListNodes() {
		key, keyErr := nodeKey(n)
		if keyErr != nil {
			return nil, keyErr
		}
		inAll := true
		for _, g := range operands[1:] {
			if !containsNodeKey(g, match, key) {
				inAll = false
				break
			}
		}
		if inAll {
			keepNodes[n.ID] = n.Data()
		}
	}
	keepEdges := map[string]core.EdgeData{}
	for _, e := range operands[0].Storage.ListEdges() {
		key, keyErr := edgeKey(e)
		if keyErr != nil {
			return nil, keyErr
		}
		if _, ok := keepNodes[e.Source]; !ok {
			continue
		}
		if _, ok := keepNodes[e.Target]; !ok {
			continue
		}
		inAll := true
		for _, g := range operands[1:] {
			if !containsEdgeKey(g, match, key) {
				inAll = false
				break
			}
		}
		if inAll {
			keepEdges[e.ID] = e.Data()
		}
	}

	nodeList, edgeList := sortedEntities(keepNodes, keepEdges)
	name := spec.Name
	if name == "" {
		name = "intersection"
	}
	prov := core.CompositionAppliedPayload{Operator: string(core.OpIntersection), Operands: links, Policy: string(match)}
	g, events, err := c.engine.InstallDerived(ctx, name, v, "", nodeList, edgeList, core.EventCompositionApplied, prov)
	if err != nil {
		return nil, err
	}
	return &Result{Graphs: []*core.Graph{g}, Events: events}, nil
}

func matchKeys(match core.MatchPolicy) (func(*core.Node) (string, error), func(*core.Edge) (string, error), error) {
	switch match {
	case core.MatchIdentity:
		return func(n *core.Node) (string, error) { return n.ID, nil },
			func(e *core.Edge) (string, error) { return e.ID, nil }, nil
	case core.MatchContent:
		return func(n *core.Node) (string, error) { return n.CID() },
			func(e *core.Edge) (string, error) { return e.CID() }, nil
	default:
		return nil, nil, &core.CompositionPolicyError{Reason: fmt.Sprintf("unknown match policy %q", match)}
	}
}

func containsNodeKey(g *core.Graph, match core.MatchPolicy, key string) bool {
	if match == core.MatchIdentity {
		_, ok := g.Storage.GetNode(key)
		return ok
	}
	for _, n := range g.Storage.ListNodes() {
		if h, err := n.CID(); err == nil && h == key {
			return true
		}
	}
	return false
}

func containsEdgeKey(g *core.Graph, match core.MatchPolicy, key string) bool {
	if match == core.MatchIdentity {
		_, ok := g.Storage.GetEdge(key)
		return ok
	}
	for _, e := range g.Storage.ListEdges() {
		if h, err := e.CID(); err == nil && h == key {
			return true
		}
	}
	return false
}

func (c *Composer) split(ctx context.Context, spec core.CompositionSpec, g *core.Graph, link core.ProvenanceLink) (*Result, error) {
	if spec.SplitBy == "" {
		return nil, core.NewValidationError("split requires split_by to name the partitioning property")
	}

	partitionOf := map[string]string{}
	partitions := map[string][]core.NodeData{}
	for _, n := range g.Storage.ListNodes() {
		key := "unassigned"
		if raw, ok := n.Properties[spec.SplitBy]; ok {
			key = fmt.Sprintf("%v", raw)
		}
		partitionOf[n.ID] = key
		partitions[key] = append(partitions[key], n.Data())
	}

	partEdges := map[string][]core.EdgeData{}
	boundaryNodes := map[string]map[string]core.NodeData{} // partition -> foreign nodes to copy in
	for _, e := range g.Storage.ListEdges() {
		src, dst := partitionOf[e.Source], partitionOf[e.Target]
		if src == dst {
			partEdges[src] = append(partEdges[src], e.Data())
			continue
		}
		switch spec.Boundary {
		case core.BoundaryDrop:
			continue
		case core.BoundaryDuplicate:
			// Each side keeps the edge plus a boundary-labeled copy of
			// the foreign endpoint so the edge still resolves locally.
			partEdges[src] = append(partEdges[src], e.Data())
			partEdges[dst] = append(partEdges[dst], e.Data())
			addBoundaryNode(boundaryNodes, src, g, e.Target)
			addBoundaryNode(boundaryNodes, dst, g, e.Source)
		case "":
			return nil, &core.CompositionPolicyError{Reason: fmt.Sprintf("edge %s crosses partitions and no boundary policy is configured", e.ID)}
		default:
			return nil, &core.CompositionPolicyError{Reason: fmt.Sprintf("unknown boundary policy %q", spec.Boundary)}
		}
	}

	keys := make([]string, 0, len(partitions))
	for key := range partitions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	res := &Result{}
	for _, key := range keys {
		nodes := append([]core.NodeData(nil), partitions[key]...)
		for _, bn := range boundaryNodes[key] {
			nodes = append(nodes, bn)
		}
		nodeMap := map[string]core.NodeData{}
		for _, n := range nodes {
			nodeMap[n.ID] = n
		}
		edgeMap := map[string]core.EdgeData{}
		for _, e := range partEdges[key] {
			edgeMap[e.ID] = e
		}
		nodeList, edgeList := sortedEntities(nodeMap, edgeMap)

		name := spec.Name
		if name == "" {
			name = "split"
		}
		prov := core.CompositionAppliedPayload{
			Operator: string(core.OpSplit),
			Operands: []core.ProvenanceLink{link},
			Policy:   string(spec.Boundary),
		}
		part, events, err := c.engine.InstallDerived(ctx, fmt.Sprintf("%s:%s", name, key), g.Variant, "", nodeList, edgeList, core.EventCompositionApplied, prov)
		if err != nil {
			return nil, err
		}
		res.Graphs = append(res.Graphs, part)
		res.Events = append(res.Events, events...)
	}
	return res, nil
}

func addBoundaryNode(boundary map[string]map[string]core.NodeData, partition string, g *core.Graph, nodeID string) {
	if boundary[partition] == nil {
		boundary[partition] = map[string]core.NodeData{}
	}
	if _, exists := boundary[partition][nodeID]; exists {
		return
	}
	n, ok := g.Storage.GetNode(nodeID)
	if !ok {
		return
	}
	d := n.Data()
	d.Labels = append(d.Labels, "boundary")
	boundary[partition][nodeID] = d
}

func sortedEntities(nodes map[string]core.NodeData, edges map[string]core.EdgeData) ([]core.NodeData, []core.EdgeData) {
	nodeList := make([]core.NodeData, 0, len(nodes))
	for _, n := range nodes {
		nodeList = append(nodeList, n)
	}
	sort.Slice(nodeList, func(i, j int) bool { return nodeList[i].ID < nodeList[j].ID })
	edgeList := make([]core.EdgeData, 0, len(edges))
	for _, e := range edges {
		edgeList = append(edgeList, e)
	}
	sort.Slice(edgeList, func(i, j int) bool { return edgeList[i].ID < edgeList[j].ID })
	return nodeList, edgeList
}
