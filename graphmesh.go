// Package graphmesh provides a high-level façade over the event-sourced
// graph core: one capability surface across several graph representation
// variants, an append-only hash-linked event log per aggregate, lazy
// content addressing, structural transformation and composition, and a
// derived-analysis cache. Most applications interact with this package by:
//  1. Creating a GraphMesh via New() (optionally attaching sinks, a logger
//     and a metrics collector)
//  2. Submitting commands (CreateGraph, AddNode, TransformGraph, ...)
//  3. Reading snapshots, derived analyses and change notifications
//
// The façade delegates mutation to engine.Engine and routes derivation
// commands to the transformation and composition engines while keeping
// setup and usage ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a
// durable event sink and a structured logger.
package graphmesh

import (
	"context"

	"github.com/hupe1980/graphmesh/analysis"
	"github.com/hupe1980/graphmesh/compose"
	"github.com/hupe1980/graphmesh/core"
	"github.com/hupe1980/graphmesh/engine"
	"github.com/hupe1980/graphmesh/importer"
	"github.com/hupe1980/graphmesh/logging"
	"github.com/hupe1980/graphmesh/metrics"
	"github.com/hupe1980/graphmesh/transform"
)

// Options configures the GraphMesh instance.
type Options struct {
	// EngineConfig contains operational parameters (watch channel
	// buffering).
	EngineConfig engine.Config

	// Sinks receive every sealed event record for durable persistence or
	// transport. Defaults to none; the in-process log always exists.
	Sinks []core.EventSink

	// Collector records instrumentation counters; nil disables metrics.
	Collector *metrics.Collector

	// BackgroundAnalysis enables eager recomputation of derived analyses
	// whenever an aggregate's version advances.
	BackgroundAnalysis bool

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// GraphMesh is the high-level façade aggregating the mutation engine, the
// transformation and composition engines, the derived-analysis cache and the
// normalized import boundary.
type GraphMesh struct {
	opts        Options
	engine      *engine.Engine
	transformer *transform.Transformer
	composer    *compose.Composer
	analyzer    *analysis.Analyzer
	importer    *importer.Importer
}

// New creates a new GraphMesh instance with optional overrides.
func New(optFns ...func(o *Options)) *GraphMesh {
	opts := Options{
		EngineConfig: engine.DefaultConfig,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	engineOpts := []engine.Option{
		engine.WithConfig(opts.EngineConfig),
		engine.WithLogger(opts.Logger),
		engine.WithCollector(opts.Collector),
	}
	for _, s := range opts.Sinks {
		engineOpts = append(engineOpts, engine.WithSink(s))
	}
	eng := engine.New(engineOpts...)

	analyzerOpts := []analysis.Option{
		analysis.WithLogger(opts.Logger),
		analysis.WithCollector(opts.Collector),
	}
	if opts.BackgroundAnalysis {
		analyzerOpts = append(analyzerOpts, analysis.WithBackground())
	}

	return &GraphMesh{
		opts:        opts,
		engine:      eng,
		transformer: transform.New(eng, transform.WithLogger(opts.Logger)),
		composer:    compose.New(eng, compose.WithLogger(opts.Logger)),
		analyzer:    analysis.New(eng, analyzerOpts...),
		importer:    importer.New(eng, importer.WithLogger(opts.Logger)),
	}
}

// Submit validates and applies a command, returning the event records it
// produced. TransformGraph and ComposeGraphs are routed to their dedicated
// engines; use Transform or Compose directly when the derivation result
// (warnings, federation handle) is needed.
func (m *GraphMesh) Submit(ctx context.Context, cmd core.Command) ([]core.EventRecord, error) {
	switch c := cmd.(type) {
	case core.TransformGraph:
		res, err := m.transformer.Apply(ctx, c)
		if err != nil {
			return nil, err
		}
		return res.Events, nil
	case core.ComposeGraphs:
		res, err := m.composer.Apply(ctx, c)
		if err != nil {
			return nil, err
		}
		return res.Events, nil
	default:
		return m.engine.Submit(ctx, cmd)
	}
}

// Transform derives a new aggregate from a source graph, returning the
// created graph, its events and any partial-data-loss warnings.
func (m *GraphMesh) Transform(ctx context.Context, cmd core.TransformGraph) (*transform.Result, error) {
	return m.transformer.Apply(ctx, cmd)
}

// Compose combines operand graphs, returning the created graphs (or for
// federation, the virtual composite handle) and their events.
func (m *GraphMesh) Compose(ctx context.Context, cmd core.ComposeGraphs) (*compose.Result, error) {
	return m.composer.Apply(ctx, cmd)
}

// Analysis returns the derived analysis for a graph at the given version
// (nil for head), served from cache when current.
func (m *GraphMesh) Analysis(ctx context.Context, graphID string, version *uint64) (*analysis.Analysis, error) {
	return m.analyzer.Get(ctx, graphID, version)
}

// Import applies a normalized node/edge stream to the target graph.
func (m *GraphMesh) Import(ctx context.Context, graphID, format string, stream <-chan importer.Record) (importer.Summary, error) {
	return m.importer.Run(ctx, graphID, format, stream)
}

// Snapshot returns the current immutable state of a graph.
func (m *GraphMesh) Snapshot(graphID string) (*core.Graph, error) {
	return m.engine.Snapshot(graphID)
}

// SnapshotAt returns the state of a graph at a recorded version (nil for
// head), reconstructing historical versions from the event log.
func (m *GraphMesh) SnapshotAt(graphID string, version *uint64) (*core.Graph, error) {
	return m.engine.SnapshotAt(graphID, version)
}

// GetNode returns a node's wire form at the given version (nil for head).
func (m *GraphMesh) GetNode(graphID, nodeID string, version *uint64) (core.NodeData, error) {
	return m.engine.GetNode(graphID, nodeID, version)
}

// GetEdge returns an edge's wire form at the given version (nil for head).
func (m *GraphMesh) GetEdge(graphID, edgeID string, version *uint64) (core.EdgeData, error) {
	return m.engine.GetEdge(graphID, edgeID, version)
}

// ListNodes enumerates a graph's nodes at the given version (nil for head).
func (m *GraphMesh) ListNodes(graphID string, version *uint64) ([]core.NodeData, error) {
	return m.engine.ListNodes(graphID, version)
}

// ListEdges enumerates a graph's edges at the given version (nil for head).
func (m *GraphMesh) ListEdges(graphID string, version *uint64) ([]core.EdgeData, error) {
	return m.engine.ListEdges(graphID, version)
}

// Log returns a graph's full event log in sequence order.
func (m *GraphMesh) Log(graphID string) ([]core.EventRecord, error) {
	return m.engine.Log(graphID)
}

// Restore verifies an exported event log and rebuilds its aggregate,
// registering it with the engine.
func (m *GraphMesh) Restore(records []core.EventRecord) (*core.Graph, error) {
	return m.engine.Restore(records)
}

// Watch subscribes to change notifications for one graph, or for all graphs
// when graphID is empty. The returned cancel func releases the subscription.
func (m *GraphMesh) Watch(graphID string) (<-chan core.Change, func()) {
	return m.engine.Watch(graphID)
}

// GraphIDs lists all registered aggregate identities.
func (m *GraphMesh) GraphIDs() []string {
	return m.engine.GraphIDs()
}

// Engine exposes the underlying mutation engine for advanced integrations.
func (m *GraphMesh) Engine() *engine.Engine {
	return m.engine
}
