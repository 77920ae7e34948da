package core

import "context"

// EventSink receives every sealed event record after atomic application, in
// per-aggregate sequence order. This is the event-export contract: durable
// persistence and distribution are external responsibilities. A sink error
// does not roll back the applied command; the engine surfaces it to the
// caller alongside the produced events.
type EventSink interface {
	Append(ctx context.Context, rec EventRecord) error
}

// EventSinkFunc adapts a function to the EventSink interface.
type EventSinkFunc func(ctx context.Context, rec EventRecord) error

// Append invokes the adapted function.
func (f EventSinkFunc) Append(ctx context.Context, rec EventRecord) error { return f(ctx, rec) }

// Change is a structural change notification for presentation layers: which
// entity was added or removed, with its content. Removal notifications carry
// only the identity.
type Change struct {
	GraphID string    `json:"graph_id"`
	Version uint64    `json:"version"`
	Kind    EventKind `json:"kind"`
	Node    *NodeData `json:"node,omitempty"`
	Edge    *EdgeData `json:"edge,omitempty"`
	NodeID  string    `json:"node_id,omitempty"`
	EdgeID  string    `json:"edge_id,omitempty"`
}
