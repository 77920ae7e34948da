package engine

import (
	"sync"

	"github.com/hupe1980/graphmesh/core"
)

// aggregate pairs an immutable graph snapshot with its append-only event log.
// writeMu is the per-aggregate exclusive section: a writer holds it across
// validate and append, so commands targeting the same graph serialize and the
// version check is race-free. Readers only ever take the read lock briefly to
// copy the snapshot pointer, so they never block on or are blocked by a
// writer applying events.
type aggregate struct {
	writeMu sync.Mutex

	mu    sync.RWMutex
	graph *core.Graph
	log   []core.EventRecord
}

// snapshot returns the current immutable graph and the hash of the last
// appended record ("" for a log that only the caller is about to seed).
func (a *aggregate) snapshot() (*core.Graph, string) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	last := ""
	if n := len(a.log); n > 0 {
		last = a.log[n-1].Hash
	}
	return a.graph, last
}

// commit installs the new snapshot and appends recs. The caller holds
// writeMu, so the head cannot have advanced since its snapshot.
func (a *aggregate) commit(next *core.Graph, recs []core.EventRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.graph = next
	a.log = append(a.log, recs...)
}

// records returns a defensive copy of the log, optionally truncated to the
// first n records (n == 0 means the full log).
func (a *aggregate) records(n uint64) []core.EventRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()
	log := a.log
	if n > 0 && n < uint64(len(log)) {
		log = log[:n]
	}
	out := make([]core.EventRecord, len(log))
	for i, rec := range log {
		out[i] = rec.Clone()
	}
	return out
}
