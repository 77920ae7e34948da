package eventlog

import (
	"context"
	"sync"

	"github.com/hupe1980/graphmesh/core"
)

// InMemorySink is a volatile EventSink storing records in process local
// per-graph slices. It is safe for concurrent access and best suited for
// tests or ephemeral demo setups. Returned slices are copies to prevent
// external mutation of internal state.
type InMemorySink struct {
	mu   sync.RWMutex
	logs map[string][]core.EventRecord
}

// NewInMemorySink constructs an empty in-memory event sink.
func NewInMemorySink() *InMemorySink {
	return &InMemorySink{logs: make(map[string][]core.EventRecord)}
}

// Append stores a detached copy of the record under its graph's log.
func (s *InMemorySink) Append(_ context.Context, rec core.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[rec.GraphID] = append(s.logs[rec.GraphID], rec.Clone())
	return nil
}

// Records returns the stored log (copy) for a graph in append order.
func (s *InMemorySink) Records(graphID string) []core.EventRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.EventRecord, len(s.logs[graphID]))
	for i, rec := range s.logs[graphID] {
		out[i] = rec.Clone()
	}
	return out
}

// GraphIDs lists all graphs with at least one stored record.
func (s *InMemorySink) GraphIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.logs))
	for id := range s.logs {
		ids = append(ids, id)
	}
	return ids
}

// Reset discards all stored records.
func (s *InMemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = make(map[string][]core.EventRecord)
}
