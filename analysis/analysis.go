package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/graphmesh/core"
	"github.com/hupe1980/graphmesh/engine"
	"github.com/hupe1980/graphmesh/logging"
	"github.com/hupe1980/graphmesh/metrics"
)

// Cluster is one semantic cluster: a connected group of nodes with the
// dominant label and, for concept graphs, the centroid of the members'
// quality-dimension coordinates.
type Cluster struct {
	ID       int                `json:"id"`
	Label    string             `json:"label,omitempty"`
	NodeIDs  []string           `json:"node_ids"`
	Centroid map[string]float64 `json:"centroid,omitempty"`
}

// StrengthMatrix is the pairwise relationship-strength matrix: accumulated
// edge weight between each connected source/target pair.
type StrengthMatrix map[string]map[string]float64

// Pattern is one detected structural pattern.
type Pattern struct {
	Kind    string   `json:"kind"` // "hub", "isolated_node", "cycle"
	NodeIDs []string `json:"node_ids"`
}

// Metrics is the aggregate metric bundle.
type Metrics struct {
	NodeCount     int     `json:"node_count"`
	EdgeCount     int     `json:"edge_count"`
	Density       float64 `json:"density"`
	AvgDegree     float64 `json:"avg_degree"`
	MaxDegree     int     `json:"max_degree"`
	ClusterCount  int     `json:"cluster_count"`
	IsolatedNodes int     `json:"isolated_nodes"`
}

// Analysis is the derived view computed against one specific graph version.
// Stale marks a retained prior value whose recomputation failed; the tagged
// Version is the version the value was actually computed against.
type Analysis struct {
	GraphID    string         `json:"graph_id"`
	Version    uint64         `json:"version"`
	Stale      bool           `json:"stale"`
	ComputedAt time.Time      `json:"computed_at"`
	Clusters   []Cluster      `json:"clusters"`
	Strengths  StrengthMatrix `json:"strengths"`
	Patterns   []Pattern      `json:"patterns"`
	Metrics    Metrics        `json:"metrics"`
}

// Options configures an Analyzer.
type Options struct {
	// Logger provides structured logging. Defaults to NoOp.
	Logger logging.Logger
	// Collector records cache hit/recompute counters; nil disables metrics.
	Collector *metrics.Collector
	// Background enables eager recomputation on version advance. In-flight
	// background work superseded by a newer version is cancelled.
	Background bool
}

// Option mutates Options during construction.
type Option func(*Options)

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithCollector sets the Prometheus collector bundle.
func WithCollector(c *metrics.Collector) Option {
	return func(o *Options) { o.Collector = c }
}

// WithBackground enables background recomputation on version advance.
func WithBackground() Option {
	return func(o *Options) { o.Background = true }
}

type inflight struct {
	version uint64
	cancel  context.CancelFunc
}

// Analyzer memoizes derived analyses keyed by (aggregate id, version).
type Analyzer struct {
	engine     *engine.Engine
	logger     logging.Logger
	collector  *metrics.Collector
	background bool

	group singleflight.Group

	mu       sync.RWMutex
	cache    map[string]*Analysis // graphID -> latest computed value
	inflight map[string]*inflight // graphID -> background job
}

// New constructs an Analyzer bound to the engine and registers its
// invalidation hook.
func New(eng *engine.Engine, opts ...Option) *Analyzer {
	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = logging.NoOpLogger{}
	}
	a := &Analyzer{
		engine:     eng,
		logger:     o.Logger,
		collector:  o.Collector,
		background: o.Background,
		cache:      make(map[string]*Analysis),
		inflight:   make(map[string]*inflight),
	}
	eng.OnVersionAdvance(a.onVersionAdvance)
	return a
}

// onVersionAdvance cancels any superseded in-flight background computation
// and, when background mode is on, schedules a fresh one for the new head.
func (a *Analyzer) onVersionAdvance(graphID string, version uint64) {
	a.mu.Lock()
	if job := a.inflight[graphID]; job != nil {
		// hooks run outside the aggregate lock and may arrive out of order;
		// a late hook for an older version must not displace a newer job
		if job.version >= version {
			a.mu.Unlock()
			return
		}
		job.cancel()
		delete(a.inflight, graphID)
	}
	var ctx context.Context
	if a.background {
		jobCtx, cancel := context.WithCancel(context.Background())
		a.inflight[graphID] = &inflight{version: version, cancel: cancel}
		ctx = jobCtx
	}
	a.mu.Unlock()

	if ctx != nil {
		go func() {
			if _, err := a.get(ctx, graphID, &version); err != nil && ctx.Err() == nil {
				a.logger.Warn("background analysis failed", "graph_id", graphID, "version", version, "error", err)
			}
			a.mu.Lock()
			if job := a.inflight[graphID]; job != nil && job.version == version {
				delete(a.inflight, graphID)
			}
			a.mu.Unlock()
		}()
	}
}

// Get returns the derived analysis for a graph at an optional version
// (nil = latest). Cache misses trigger exactly one recomputation shared by
// all concurrent callers. On recomputation failure the prior value is
// returned tagged stale together with a CacheComputationError.
func (a *Analyzer) Get(ctx context.Context, graphID string, version *uint64) (*Analysis, error) {
	return a.get(ctx, graphID, version)
}

func (a *Analyzer) get(ctx context.Context, graphID string, version *uint64) (*Analysis, error) {
	g, err := a.engine.SnapshotAt(graphID, version)
	if err != nil {
		return nil, err
	}

	a.mu.RLock()
	cached := a.cache[g.ID]
	a.mu.RUnlock()
	if cached != nil && cached.Version == g.Version && !cached.Stale {
		a.collector.CacheHit()
		return cached, nil
	}

	key := fmt.Sprintf("%s@%d", g.ID, g.Version)
	v, err, shared := a.group.Do(key, func() (any, error) {
		start := time.Now()
		a.collector.Recompute()
		result, computeErr := compute(ctx, g)
		a.logger.Debug("analysis recomputed",
			"graph_id", g.ID, "version", g.Version,
			"duration", time.Since(start), "success", computeErr == nil,
		)
		return result, computeErr
	})
	if err != nil {
		a.mu.Lock()
		prior := a.cache[g.ID]
		var staleCopy *Analysis
		if prior != nil {
			cp := *prior
			cp.Stale = true
			a.cache[g.ID] = &cp
			staleCopy = &cp
		}
		a.mu.Unlock()
		return staleCopy, &core.CacheComputationError{GraphID: g.ID, Version: g.Version, Err: err}
	}
	result := v.(*Analysis)
	if shared {
		a.collector.CacheHit()
	}

	a.mu.Lock()
	// Only advance the cache; a historical query must not clobber a newer
	// cached value.
	if cur := a.cache[g.ID]; cur == nil || cur.Version <= result.Version {
		a.cache[g.ID] = result
	}
	a.mu.Unlock()
	return result, nil
}

// Invalidate drops the cached value for a graph.
func (a *Analyzer) Invalidate(graphID string) {
	a.mu.Lock()
	delete(a.cache, graphID)
	a.mu.Unlock()
}
