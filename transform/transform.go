package transform

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hupe1980/graphmesh/core"
	"github.com/hupe1980/graphmesh/engine"
	"github.com/hupe1980/graphmesh/logging"
)

// PreconditionError reports a transformation whose structural precondition
// does not hold for the source graph (e.g. a cyclic source for a DAG target).
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string { return "transform precondition: " + e.Reason }

// Result is a successful transformation: the new aggregate, the events that
// materialized it and any non-fatal PartialDataLoss warnings.
type Result struct {
	Graph    *core.Graph
	Events   []core.EventRecord
	Warnings []string
}

// converted is the output of a rule's conversion pass.
type converted struct {
	nodes    []core.NodeData
	edges    []core.EdgeData
	warnings []string
}

// rule is one registered transformation pair.
type rule struct {
	precondition func(g *core.Graph) error
	convert      func(spec core.TransformationSpec, g *core.Graph) (converted, error)
}

type pairKey struct {
	source core.Variant
	target core.Variant
}

// Options configures a Transformer.
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

// Transformer converts graphs between variants through the mutation engine.
type Transformer struct {
	engine *engine.Engine
	logger logging.Logger
	rules  map[pairKey]rule
}

// New constructs a Transformer with the built-in rule set registered.
func New(eng *engine.Engine, opts ...Option) *Transformer {
	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = logging.NoOpLogger{}
	}
	t := &Transformer{engine: eng, logger: o.Logger, rules: map[pairKey]rule{}}
	t.registerDefaults()
	return t
}

// register installs a rule for a source/target pair.
func (t *Transformer) register(source, target core.Variant, r rule) {
	t.rules[pairKey{source: source, target: target}] = r
}

// CanTransform checks whether the Spec's variant pair is supported and its structural
// preconditions hold for the graph. A nil error means transform would proceed.
func (t *Transformer) CanTransform(spec core.TransformationSpec, g *core.Graph) error {
	r, ok := t.rules[pairKey{source: g.Variant, target: spec.Target}]
	if !ok {
		return &core.UnsupportedTransformError{Source: g.Variant, Target: spec.Target}
	}
	if spec.Source != "" && spec.Source != g.Variant {
		return core.NewValidationError("spec source variant %s does not match graph variant %s", spec.Source, g.Variant)
	}
	if r.precondition != nil {
		return r.precondition(g)
	}
	return nil
}

// Apply executes a TransformGraph command: it reads the pinned source
// snapshot, runs the registered rule, and materializes the result as a new
// aggregate with provenance. The source graph is never mutated.
func (t *Transformer) Apply(ctx context.Context, cmd core.TransformGraph) (*Result, error) {
	start := time.Now()
	res, err := t.apply(ctx, cmd)
	if err != nil {
		t.logger.Warn("transformation failed", "graph_id", cmd.GraphID, "kind", cmd.Spec.Kind(), "error", err)
		return nil, err
	}
	t.logger.Info("transformation completed",
		"graph_id", cmd.GraphID,
		"derived_id", res.Graph.ID,
		"kind", cmd.Spec.Kind(),
		"nodes", res.Graph.NodeCount(),
		"edges", res.Graph.EdgeCount(),
		"warnings", len(res.Warnings),
		"duration", time.Since(start),
	)
	return res, nil
}

func (t *Transformer) apply(ctx context.Context, cmd core.TransformGraph) (*Result, error) {
	g, err := t.engine.SnapshotAt(cmd.GraphID, cmd.Expected)
	if err != nil {
		if core.IsNotFound(err) && cmd.Expected != nil {
			// Distinguish a missing version pin from a missing graph.
			if head, headErr := t.engine.Snapshot(cmd.GraphID); headErr == nil {
				return nil, &core.ConflictError{GraphID: cmd.GraphID, Expected: *cmd.Expected, Actual: head.Version}
			}
		}
		return nil, err
	}
	if err := t.CanTransform(cmd.Spec, g); err != nil {
		return nil, err
	}

	r := t.rules[pairKey{source: g.Variant, target: cmd.Spec.Target}]
	out, err := r.convert(cmd.Spec, g)
	if err != nil {
		return nil, err
	}
	sort.Slice(out.nodes, func(i, j int) bool { return out.nodes[i].ID < out.nodes[j].ID })
	sort.Slice(out.edges, func(i, j int) bool { return out.edges[i].ID < out.edges[j].ID })
	sort.Strings(out.warnings)

	name := cmd.Spec.Name
	if name == "" {
		name = fmt.Sprintf("%s (%s)", g.Name, cmd.Spec.Kind())
	}
	prov := core.TransformationAppliedPayload{
		SourceGraphID: g.ID,
		SourceVersion: g.Version,
		TransformKind: cmd.Spec.Kind(),
		Warnings:      out.warnings,
	}
	derived, events, err := t.engine.InstallDerived(ctx, name, cmd.Spec.Target, g.Root, out.nodes, out.edges, core.EventTransformationApplied, prov)
	if err != nil {
		return nil, err
	}
	return &Result{Graph: derived, Events: events, Warnings: out.warnings}, nil
}
