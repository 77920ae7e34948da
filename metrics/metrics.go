package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector bundles the GraphMesh instrumentation counters. A nil *Collector
// is valid and records nothing, so instrumentation stays optional.
type Collector struct {
	CommandsTotal      *prometheus.CounterVec
	ConflictsTotal     prometheus.Counter
	EventsAppended     prometheus.Counter
	AnalysisRecomputes prometheus.Counter
	AnalysisCacheHits  prometheus.Counter
	WatchDropped       prometheus.Counter
}

// New constructs and registers the collector bundle on reg.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graphmesh",
			Name:      "commands_total",
			Help:      "Commands processed, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		ConflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "graphmesh",
			Name:      "conflicts_total",
			Help:      "Optimistic-concurrency conflicts surfaced to callers.",
		}),
		EventsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "graphmesh",
			Name:      "events_appended_total",
			Help:      "Event records appended across all aggregates.",
		}),
		AnalysisRecomputes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "graphmesh",
			Name:      "analysis_recomputes_total",
			Help:      "Derived-analysis recomputations performed.",
		}),
		AnalysisCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "graphmesh",
			Name:      "analysis_cache_hits_total",
			Help:      "Derived-analysis requests served from cache.",
		}),
		WatchDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "graphmesh",
			Name:      "watch_notifications_dropped_total",
			Help:      "Change notifications dropped on slow watchers.",
		}),
	}
	reg.MustRegister(
		c.CommandsTotal,
		c.ConflictsTotal,
		c.EventsAppended,
		c.AnalysisRecomputes,
		c.AnalysisCacheHits,
		c.WatchDropped,
	)
	return c
}

// Command records a processed command outcome.
func (c *Collector) Command(kind, outcome string) {
	if c == nil {
		return
	}
	c.CommandsTotal.WithLabelValues(kind, outcome).Inc()
}

// Conflict records a surfaced conflict.
func (c *Collector) Conflict() {
	if c == nil {
		return
	}
	c.ConflictsTotal.Inc()
}

// Events records n appended event records.
func (c *Collector) Events(n int) {
	if c == nil {
		return
	}
	c.EventsAppended.Add(float64(n))
}

// Recompute records a derived-analysis recomputation.
func (c *Collector) Recompute() {
	if c == nil {
		return
	}
	c.AnalysisRecomputes.Inc()
}

// CacheHit records an analysis request served from cache.
func (c *Collector) CacheHit() {
	if c == nil {
		return
	}
	c.AnalysisCacheHits.Inc()
}

// Dropped records a dropped watcher notification.
func (c *Collector) Dropped() {
	if c == nil {
		return
	}
	c.WatchDropped.Inc()
}
