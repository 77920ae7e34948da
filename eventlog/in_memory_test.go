package eventlog

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/graphmesh/core"
)

// Interface compliance (compile-time assertion)
var _ core.EventSink = (*InMemorySink)(nil)

func record(t *testing.T, graphID string, seq uint64, prev string) core.EventRecord {
	t.Helper()
	rec, err := core.NewEventRecord(graphID, seq, core.EventNodeAdded, core.NodeAddedPayload{Node: core.NodeData{ID: core.NewID()}}, prev)
	require.NoError(t, err)
	return rec
}

func TestInMemorySink_AppendAndRecords(t *testing.T) {
	s := NewInMemorySink()
	ctx := context.Background()

	r1 := record(t, "g1", 1, "")
	r2 := record(t, "g1", 2, r1.Hash)
	r3 := record(t, "g2", 1, "")

	require.NoError(t, s.Append(ctx, r1))
	require.NoError(t, s.Append(ctx, r2))
	require.NoError(t, s.Append(ctx, r3))

	recs := s.Records("g1")
	require.Len(t, recs, 2)
	assert.Equal(t, r1.ID, recs[0].ID)
	assert.Equal(t, r2.ID, recs[1].ID)
	assert.Len(t, s.Records("g2"), 1)
	assert.Empty(t, s.Records("unknown"))

	assert.ElementsMatch(t, []string{"g1", "g2"}, s.GraphIDs())

	// returned slice is a copy
	recs[0] = core.EventRecord{}
	assert.Equal(t, r1.ID, s.Records("g1")[0].ID)

	s.Reset()
	assert.Empty(t, s.Records("g1"))
}

func TestInMemorySink_ConcurrentAppend(t *testing.T) {
	s := NewInMemorySink()
	ctx := context.Background()

	recs := make([]core.EventRecord, 16)
	for i := range recs {
		recs[i] = record(t, "g1", uint64(i+1), "")
	}

	var wg sync.WaitGroup
	for _, rec := range recs {
		rec := rec
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Append(ctx, rec)
		}()
	}
	wg.Wait()
	assert.Len(t, s.Records("g1"), 16)
}
