package core

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/graphmesh/cid"
)

// EventKind enumerates the immutable event kinds the mutation core produces.
// There are deliberately no *Updated or *Changed kinds: an update is modeled
// as removal of the old fact followed by addition of the new fact sharing the
// same identity, preserving full historical auditability.
type EventKind string

const (
	EventGraphCreated          EventKind = "GraphCreated"
	EventNodeAdded             EventKind = "NodeAdded"
	EventNodeRemoved           EventKind = "NodeRemoved"
	EventEdgeAdded             EventKind = "EdgeAdded"
	EventEdgeRemoved           EventKind = "EdgeRemoved"
	EventTransformationApplied EventKind = "TransformationApplied"
	EventCompositionApplied    EventKind = "CompositionApplied"
	EventGraphArchived         EventKind = "GraphArchived"
)

// EventPayload is the canonical payload attached to an EventRecord. The
// concrete type is determined by the record's Kind.
type EventPayload interface{ eventPayload() }

// GraphCreatedPayload seeds a new aggregate.
type GraphCreatedPayload struct {
	Name    string  `json:"name,omitempty"`
	Variant Variant `json:"variant"`
	Root    string  `json:"root,omitempty"`
}

// NodeAddedPayload carries the full content of the added node.
type NodeAddedPayload struct {
	Node NodeData `json:"node"`
}

// NodeRemovedPayload identifies the removed node.
type NodeRemovedPayload struct {
	NodeID string `json:"node_id"`
}

// EdgeAddedPayload carries the full content of the added edge.
type EdgeAddedPayload struct {
	Edge EdgeData `json:"edge"`
}

// EdgeRemovedPayload identifies the removed edge.
type EdgeRemovedPayload struct {
	EdgeID string `json:"edge_id"`
}

// TransformationAppliedPayload records provenance for a derived graph:
// source aggregate, source version, and the transform kind that produced it.
type TransformationAppliedPayload struct {
	SourceGraphID string   `json:"source_graph_id"`
	SourceVersion uint64   `json:"source_version"`
	TransformKind string   `json:"transform_kind"`
	Warnings      []string `json:"warnings,omitempty"`
}

// CompositionAppliedPayload records provenance for a composed graph: the
// operator, every operand with the version it was read at, and the conflict
// policy in effect.
type CompositionAppliedPayload struct {
	Operator string           `json:"operator"`
	Operands []ProvenanceLink `json:"operands"`
	Policy   string           `json:"policy,omitempty"`
}

// GraphArchivedPayload marks the aggregate archived. The graph rejects
// further mutation but its history remains replayable.
type GraphArchivedPayload struct{}

func (GraphCreatedPayload) eventPayload()          {}
func (GraphArchivedPayload) eventPayload()         {}
func (NodeAddedPayload) eventPayload()             {}
func (NodeRemovedPayload) eventPayload()           {}
func (EdgeAddedPayload) eventPayload()             {}
func (EdgeRemovedPayload) eventPayload()           {}
func (TransformationAppliedPayload) eventPayload() {}
func (CompositionAppliedPayload) eventPayload()    {}

// EventRecord is one immutable entry of an aggregate's append-only log.
// Sequence numbers are per-aggregate and strictly increasing; PrevHash links
// each record to its predecessor's content hash, forming a tamper-evident
// chain. After emission a record must be treated as immutable.
type EventRecord struct {
	ID        string       `json:"id"`
	GraphID   string       `json:"graph_id"`
	Sequence  uint64       `json:"sequence"`
	Kind      EventKind    `json:"kind"`
	Payload   EventPayload `json:"payload"`
	PrevHash  string       `json:"prev_hash,omitempty"`
	Hash      string       `json:"hash"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewEventRecord builds a sealed record linked to the previous record's hash.
// The record hash covers every field except the hash itself.
func NewEventRecord(graphID string, seq uint64, kind EventKind, payload EventPayload, prevHash string) (EventRecord, error) {
	rec := EventRecord{
		ID:        NewID(),
		GraphID:   graphID,
		Sequence:  seq,
		Kind:      kind,
		Payload:   payload,
		PrevHash:  prevHash,
		Timestamp: time.Now().UTC(),
	}
	h, err := rec.computeHash()
	if err != nil {
		return EventRecord{}, err
	}
	rec.Hash = h
	return rec, nil
}

// Verify recomputes the record hash and reports whether it matches the
// sealed value. Used by consumers of the event-export contract to detect
// tampering.
func (r EventRecord) Verify() (bool, error) {
	h, err := r.computeHash()
	if err != nil {
		return false, err
	}
	return h == r.Hash, nil
}

// Clone returns a record whose payload shares no maps or slices with the
// receiver, so callers holding an exported log cannot rewrite the source.
// The clone hashes identically to the original.
func (r EventRecord) Clone() EventRecord {
	switch p := r.Payload.(type) {
	case NodeAddedPayload:
		r.Payload = NodeAddedPayload{Node: p.Node.Copy()}
	case EdgeAddedPayload:
		r.Payload = EdgeAddedPayload{Edge: p.Edge.Copy()}
	case TransformationAppliedPayload:
		p.Warnings = append([]string(nil), p.Warnings...)
		r.Payload = p
	case CompositionAppliedPayload:
		p.Operands = append([]ProvenanceLink(nil), p.Operands...)
		r.Payload = p
	}
	return r
}

func (r EventRecord) computeHash() (string, error) {
	unsealed := r
	unsealed.Hash = ""
	return cid.HashValue(unsealed)
}

// NewID generates a new unique identifier for events and aggregates.
func NewID() string { return uuid.NewString() }

// envelope is the wire form used to round-trip records through external logs
// where the payload travels as raw JSON.
type envelope struct {
	ID        string          `json:"id"`
	GraphID   string          `json:"graph_id"`
	Sequence  uint64          `json:"sequence"`
	Kind      EventKind       `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	PrevHash  string          `json:"prev_hash,omitempty"`
	Hash      string          `json:"hash"`
	Timestamp time.Time       `json:"timestamp"`
}

// EncodeRecord serializes a record to JSON for external persistence.
func EncodeRecord(r EventRecord) ([]byte, error) {
	return json.Marshal(r)
}

// DecodeRecord deserializes a record produced by EncodeRecord, restoring the
// concrete payload type from the event kind.
func DecodeRecord(data []byte) (EventRecord, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return EventRecord{}, err
	}
	payload, err := decodePayload(env.Kind, env.Payload)
	if err != nil {
		return EventRecord{}, err
	}
	return EventRecord{
		ID:        env.ID,
		GraphID:   env.GraphID,
		Sequence:  env.Sequence,
		Kind:      env.Kind,
		Payload:   payload,
		PrevHash:  env.PrevHash,
		Hash:      env.Hash,
		Timestamp: env.Timestamp,
	}, nil
}

func decodePayload(kind EventKind, raw json.RawMessage) (EventPayload, error) {
	switch kind {
	case EventGraphCreated:
		var p GraphCreatedPayload
		return p, json.Unmarshal(raw, &p)
	case EventNodeAdded:
		var p NodeAddedPayload
		return p, json.Unmarshal(raw, &p)
	case EventNodeRemoved:
		var p NodeRemovedPayload
		return p, json.Unmarshal(raw, &p)
	case EventEdgeAdded:
		var p EdgeAddedPayload
		return p, json.Unmarshal(raw, &p)
	case EventEdgeRemoved:
		var p EdgeRemovedPayload
		return p, json.Unmarshal(raw, &p)
	case EventTransformationApplied:
		var p TransformationAppliedPayload
		return p, json.Unmarshal(raw, &p)
	case EventCompositionApplied:
		var p CompositionAppliedPayload
		return p, json.Unmarshal(raw, &p)
	case EventGraphArchived:
		return GraphArchivedPayload{}, nil
	default:
		return nil, fmt.Errorf("unknown event kind %q", kind)
	}
}
