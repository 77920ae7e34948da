package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.Command("AddNode", "ok")
	c.Command("AddNode", "ok")
	c.Command("AddNode", "error")
	c.Conflict()
	c.Events(4)
	c.Recompute()
	c.CacheHit()
	c.Dropped()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.CommandsTotal.WithLabelValues("AddNode", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CommandsTotal.WithLabelValues("AddNode", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ConflictsTotal))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.EventsAppended))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.AnalysisRecomputes))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.AnalysisCacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.WatchDropped))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 6)
}

func TestNilCollectorIsNoOp(t *testing.T) {
	var c *Collector

	// all recording methods tolerate the nil receiver
	c.Command("CreateGraph", "ok")
	c.Conflict()
	c.Events(1)
	c.Recompute()
	c.CacheHit()
	c.Dropped()
}
