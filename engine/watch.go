package engine

import (
	"github.com/hupe1980/graphmesh/core"
)

// watcher is one change-notification subscriber. An empty graphID matches
// every aggregate.
type watcher struct {
	graphID string
	ch      chan core.Change
}

// Watch subscribes to structural change notifications for one graph (or all
// graphs when graphID is empty). This is the visualization hook: a
// presentation layer consumes added/removed notifications with identities and
// content. Notifications to a full buffer are dropped rather than blocking
// writers. The returned cancel function must be called to release the
// subscription; it closes the channel.
func (e *Engine) Watch(graphID string) (<-chan core.Change, func()) {
	e.watchMu.Lock()
	id := e.nextWatcher
	e.nextWatcher++
	w := &watcher{graphID: graphID, ch: make(chan core.Change, e.cfg.WatchBufferSize)}
	e.watchers[id] = w
	e.watchMu.Unlock()

	cancel := func() {
		e.watchMu.Lock()
		if cur, ok := e.watchers[id]; ok && cur == w {
			delete(e.watchers, id)
			close(w.ch)
		}
		e.watchMu.Unlock()
	}
	return w.ch, cancel
}

func (e *Engine) notify(rec core.EventRecord) {
	change, ok := changeFromRecord(rec)
	if !ok {
		return
	}
	e.watchMu.Lock()
	defer e.watchMu.Unlock()
	for _, w := range e.watchers {
		if w.graphID != "" && w.graphID != rec.GraphID {
			continue
		}
		select {
		case w.ch <- change:
		default:
			e.collector.Dropped()
		}
	}
}

func changeFromRecord(rec core.EventRecord) (core.Change, bool) {
	change := core.Change{GraphID: rec.GraphID, Version: rec.Sequence, Kind: rec.Kind}
	switch p := rec.Payload.(type) {
	case core.NodeAddedPayload:
		node := p.Node
		change.Node = &node
		change.NodeID = node.ID
	case core.NodeRemovedPayload:
		change.NodeID = p.NodeID
	case core.EdgeAddedPayload:
		edge := p.Edge
		change.Edge = &edge
		change.EdgeID = edge.ID
	case core.EdgeRemovedPayload:
		change.EdgeID = p.EdgeID
	default:
		return core.Change{}, false
	}
	return change, true
}
