package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/graphmesh/core"
	"github.com/hupe1980/graphmesh/logging"
	"github.com/hupe1980/graphmesh/metrics"
	"github.com/hupe1980/graphmesh/variant"
)

// Config defines tuning parameters for the engine's operational behavior.
type Config struct {
	// WatchBufferSize sets the channel buffer size for change notification
	// subscribers. Slow subscribers drop notifications rather than blocking
	// writers.
	WatchBufferSize int
}

// DefaultConfig provides production-ready default configuration values.
var DefaultConfig = Config{
	WatchBufferSize: 64,
}

// Options configures an Engine instance using the functional options pattern.
type Options struct {
	// Config contains operational parameters for the engine behavior.
	// Defaults to DefaultConfig if not specified.
	Config Config

	// Logger provides structured logging for debugging and monitoring.
	// Defaults to NoOp logger if nil to ensure no logging dependencies.
	Logger logging.Logger

	// Sinks receive every sealed event record after atomic application.
	Sinks []core.EventSink

	// Collector records instrumentation counters; nil disables metrics.
	Collector *metrics.Collector
}

// Option mutates Options during construction.
type Option func(*Options)

// WithConfig overrides the default engine configuration.
func WithConfig(cfg Config) Option {
	return func(o *Options) { o.Config = cfg }
}

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithSink appends an event sink implementing the event-export contract.
func WithSink(s core.EventSink) Option {
	return func(o *Options) { o.Sinks = append(o.Sinks, s) }
}

// WithCollector sets the Prometheus collector bundle.
func WithCollector(c *metrics.Collector) Option {
	return func(o *Options) { o.Collector = c }
}

// Engine is the event-sourced mutation core. It owns the aggregate registry,
// serializes writers per aggregate, appends hash-linked events and exposes
// snapshot reads at any recorded version.
type Engine struct {
	cfg       Config
	logger    logging.Logger
	sinks     []core.EventSink
	collector *metrics.Collector

	mu         sync.RWMutex
	aggregates map[string]*aggregate

	watchMu     sync.Mutex
	watchers    map[int]*watcher
	nextWatcher int

	hookMu       sync.RWMutex
	versionHooks []func(graphID string, version uint64)
}

// New constructs an Engine with the provided options.
func New(opts ...Option) *Engine {
	o := Options{Config: DefaultConfig}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = logging.NoOpLogger{}
	}
	if o.Config.WatchBufferSize <= 0 {
		o.Config.WatchBufferSize = DefaultConfig.WatchBufferSize
	}
	return &Engine{
		cfg:        o.Config,
		logger:     o.Logger,
		sinks:      o.Sinks,
		collector:  o.Collector,
		aggregates: make(map[string]*aggregate),
		watchers:   make(map[int]*watcher),
	}
}

// OnVersionAdvance registers a hook invoked after every applied command with
// the aggregate id and its new head version. The derived-analysis cache uses
// this to invalidate and to discard superseded in-flight computations.
func (e *Engine) OnVersionAdvance(f func(graphID string, version uint64)) {
	e.hookMu.Lock()
	e.versionHooks = append(e.versionHooks, f)
	e.hookMu.Unlock()
}

// Submit validates and applies a command, returning the ordered event list it
// produced. Structural commands only; TransformGraph and ComposeGraphs are
// routed through the transformation and composition engines.
func (e *Engine) Submit(ctx context.Context, cmd core.Command) ([]core.EventRecord, error) {
	start := time.Now()
	recs, err := e.submit(ctx, cmd)
	outcome := "applied"
	if err != nil {
		outcome = "rejected"
		if core.IsConflict(err) {
			outcome = "conflict"
		}
	}
	e.collector.Command(cmd.CommandKind(), outcome)
	e.logger.Debug("command processed",
		"kind", cmd.CommandKind(),
		"graph_id", cmd.TargetGraph(),
		"events", len(recs),
		"outcome", outcome,
		"duration", time.Since(start),
	)
	return recs, err
}

func (e *Engine) submit(ctx context.Context, cmd core.Command) ([]core.EventRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch c := cmd.(type) {
	case core.CreateGraph:
		return e.createGraph(ctx, c)
	case core.AddNode, core.RemoveNode, core.AddEdge, core.RemoveEdge, core.ArchiveGraph:
		return e.mutate(ctx, cmd)
	case core.TransformGraph, core.ComposeGraphs:
		return nil, core.NewValidationError("%s is routed through its dedicated engine", cmd.CommandKind())
	default:
		return nil, core.NewValidationError("unknown command type %T", c)
	}
}

func (e *Engine) createGraph(ctx context.Context, cmd core.CreateGraph) ([]core.EventRecord, error) {
	if !cmd.Variant.Valid() {
		return nil, core.NewValidationError("unknown graph variant %q", cmd.Variant)
	}
	id := cmd.GraphID
	if id == "" {
		id = core.NewID()
	}
	storage, err := variant.NewStorage(cmd.Variant)
	if err != nil {
		return nil, err
	}
	rec, err := core.NewEventRecord(id, 1, core.EventGraphCreated, core.GraphCreatedPayload{
		Name:    cmd.Name,
		Variant: cmd.Variant,
		Root:    cmd.Root,
	}, "")
	if err != nil {
		return nil, err
	}
	g := &core.Graph{
		ID:      id,
		Name:    cmd.Name,
		Variant: cmd.Variant,
		Version: 1,
		Root:    cmd.Root,
		Storage: storage,
	}

	e.mu.Lock()
	if _, exists := e.aggregates[id]; exists {
		e.mu.Unlock()
		return nil, core.NewValidationError("graph %s already exists", id)
	}
	e.aggregates[id] = &aggregate{graph: g, log: []core.EventRecord{rec}}
	e.mu.Unlock()

	recs := []core.EventRecord{rec}
	return recs, e.afterApply(ctx, g, recs)
}

func (e *Engine) mutate(ctx context.Context, cmd core.Command) ([]core.EventRecord, error) {
	agg, err := e.aggregate(cmd.TargetGraph())
	if err != nil {
		return nil, err
	}
	// Exclusive section per aggregate: validate and append serialize, so an
	// unpinned command always sees the true head and never spuriously
	// conflicts. A pinned command is a strict compare-and-set against the
	// version the caller read.
	agg.writeMu.Lock()
	defer agg.writeMu.Unlock()

	snap, lastHash := agg.snapshot()
	if snap.Archived {
		return nil, core.NewValidationError("graph %s is archived", snap.ID)
	}
	if exp := cmd.ExpectedVersion(); exp != nil && *exp != snap.Version {
		e.collector.Conflict()
		return nil, &core.ConflictError{GraphID: snap.ID, Expected: *exp, Actual: snap.Version}
	}
	next, recs, err := produce(snap, lastHash, cmd)
	if err != nil {
		return nil, err
	}
	agg.commit(next, recs)
	return recs, e.afterApply(ctx, next, recs)
}

// produce validates cmd against the snapshot by actually applying the events
// it would emit to a cloned storage. On any failure the clone is discarded,
// so partial application within one command is never observable.
func produce(snap *core.Graph, lastHash string, cmd core.Command) (*core.Graph, []core.EventRecord, error) {
	type eventSpec struct {
		kind    core.EventKind
		payload core.EventPayload
	}
	var specs []eventSpec

	switch c := cmd.(type) {
	case core.AddNode:
		specs = append(specs, eventSpec{core.EventNodeAdded, core.NodeAddedPayload{Node: c.Node.Copy()}})
	case core.RemoveNode:
		if _, ok := snap.Storage.GetNode(c.NodeID); !ok {
			return nil, nil, &core.NotFoundError{Kind: "node", ID: c.NodeID}
		}
		if c.Cascade {
			for _, edge := range snap.Storage.IncidentEdges(c.NodeID) {
				specs = append(specs, eventSpec{core.EventEdgeRemoved, core.EdgeRemovedPayload{EdgeID: edge.ID}})
			}
		}
		specs = append(specs, eventSpec{core.EventNodeRemoved, core.NodeRemovedPayload{NodeID: c.NodeID}})
	case core.AddEdge:
		specs = append(specs, eventSpec{core.EventEdgeAdded, core.EdgeAddedPayload{Edge: c.Edge.Copy()}})
	case core.RemoveEdge:
		specs = append(specs, eventSpec{core.EventEdgeRemoved, core.EdgeRemovedPayload{EdgeID: c.EdgeID}})
	case core.ArchiveGraph:
		specs = append(specs, eventSpec{core.EventGraphArchived, core.GraphArchivedPayload{}})
	default:
		return nil, nil, core.NewValidationError("unknown command type %T", c)
	}

	next := snap.Clone()
	seq := snap.Version
	prev := lastHash
	recs := make([]core.EventRecord, 0, len(specs))
	for _, s := range specs {
		rec, err := core.NewEventRecord(snap.ID, seq+1, s.kind, s.payload, prev)
		if err != nil {
			return nil, nil, err
		}
		if err := applyToGraph(next, rec); err != nil {
			return nil, nil, err
		}
		recs = append(recs, rec)
		seq++
		prev = rec.Hash
	}
	next.Version = seq
	return next, recs, nil
}

// applyToGraph applies a single event record to a graph under construction.
// It is the one shared application path for incremental mutation and replay.
func applyToGraph(g *core.Graph, rec core.EventRecord) error {
	switch p := rec.Payload.(type) {
	case core.NodeAddedPayload:
		return g.Storage.AddNode(core.NewNode(p.Node))
	case core.NodeRemovedPayload:
		return g.Storage.RemoveNode(p.NodeID)
	case core.EdgeAddedPayload:
		return g.Storage.AddEdge(core.NewEdge(p.Edge))
	case core.EdgeRemovedPayload:
		return g.Storage.RemoveEdge(p.EdgeID)
	case core.GraphArchivedPayload:
		g.Archived = true
		return nil
	case core.TransformationAppliedPayload:
		g.Provenance = append(g.Provenance, core.ProvenanceLink{
			GraphID: p.SourceGraphID,
			Version: p.SourceVersion,
			Kind:    p.TransformKind,
		})
		return nil
	case core.CompositionAppliedPayload:
		for _, op := range p.Operands {
			g.Provenance = append(g.Provenance, core.ProvenanceLink{
				GraphID: op.GraphID,
				Version: op.Version,
				Kind:    p.Operator,
			})
		}
		return nil
	default:
		return fmt.Errorf("cannot apply event kind %q", rec.Kind)
	}
}

// InstallDerived atomically materializes a brand-new aggregate produced by
// the transformation or composition engine: a GraphCreated event, one
// NodeAdded/EdgeAdded event per entity in the given order, and the provenance
// event sealing the derivation. Callers pass entities in sorted identity
// order so derived output is byte-deterministic.
func (e *Engine) InstallDerived(ctx context.Context, name string, v core.Variant, root string, nodes []core.NodeData, edges []core.EdgeData, provKind core.EventKind, prov core.EventPayload) (*core.Graph, []core.EventRecord, error) {
	storage, err := variant.NewStorage(v)
	if err != nil {
		return nil, nil, err
	}
	id := core.NewID()
	g := &core.Graph{ID: id, Name: name, Variant: v, Root: root, Storage: storage}

	type eventSpec struct {
		kind    core.EventKind
		payload core.EventPayload
	}
	specs := []eventSpec{{core.EventGraphCreated, core.GraphCreatedPayload{Name: name, Variant: v, Root: root}}}
	for _, n := range nodes {
		specs = append(specs, eventSpec{core.EventNodeAdded, core.NodeAddedPayload{Node: n.Copy()}})
	}
	for _, ed := range edges {
		specs = append(specs, eventSpec{core.EventEdgeAdded, core.EdgeAddedPayload{Edge: ed.Copy()}})
	}
	specs = append(specs, eventSpec{provKind, prov})

	var (
		seq  uint64
		prev string
		recs []core.EventRecord
	)
	for _, s := range specs {
		rec, recErr := core.NewEventRecord(id, seq+1, s.kind, s.payload, prev)
		if recErr != nil {
			return nil, nil, recErr
		}
		if s.kind != core.EventGraphCreated {
			if applyErr := applyToGraph(g, rec); applyErr != nil {
				return nil, nil, applyErr
			}
		}
		recs = append(recs, rec)
		seq++
		prev = rec.Hash
	}
	g.Version = seq

	e.mu.Lock()
	if _, exists := e.aggregates[id]; exists {
		e.mu.Unlock()
		return nil, nil, core.NewValidationError("graph %s already exists", id)
	}
	e.aggregates[id] = &aggregate{graph: g, log: recs}
	e.mu.Unlock()

	return g, recs, e.afterApply(ctx, g, recs)
}

// afterApply exports records to sinks, notifies watchers and fires version
// hooks. A sink failure never rolls back the applied command; it is surfaced
// to the caller wrapped so it is not silently discarded.
func (e *Engine) afterApply(ctx context.Context, g *core.Graph, recs []core.EventRecord) error {
	e.collector.Events(len(recs))
	var sinkErr error
	for _, rec := range recs {
		for _, sink := range e.sinks {
			if err := sink.Append(ctx, rec); err != nil && sinkErr == nil {
				sinkErr = fmt.Errorf("event export: %w", err)
				e.logger.Error("event export failed", "graph_id", rec.GraphID, "sequence", rec.Sequence, "error", err)
			}
		}
		e.notify(rec)
	}
	e.hookMu.RLock()
	hooks := e.versionHooks
	e.hookMu.RUnlock()
	for _, hook := range hooks {
		hook(g.ID, g.Version)
	}
	return sinkErr
}

func (e *Engine) aggregate(graphID string) (*aggregate, error) {
	e.mu.RLock()
	agg, ok := e.aggregates[graphID]
	e.mu.RUnlock()
	if !ok {
		return nil, &core.NotFoundError{Kind: "graph", ID: graphID}
	}
	return agg, nil
}

// GraphIDs returns the identities of all registered aggregates.
func (e *Engine) GraphIDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.aggregates))
	for id := range e.aggregates {
		ids = append(ids, id)
	}
	return ids
}
