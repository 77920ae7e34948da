package core

import (
	"sort"

	"github.com/hupe1980/graphmesh/cid"
)

// GraphStorage is the shared capability contract every variant implements.
// It presents structural operations as a view over the variant's specialized
// storage without copying. Implementations are not required to be safe for
// concurrent mutation; the mutation engine serializes writers per aggregate
// and readers only ever see immutable snapshots.
type GraphStorage interface {
	// Variant identifies the representation kind backing this storage.
	Variant() Variant

	// ListNodes returns all nodes in stable insertion order.
	ListNodes() []*Node
	// ListEdges returns all edges in stable insertion order.
	ListEdges() []*Edge
	// GetNode resolves a node by identity.
	GetNode(id string) (*Node, bool)
	// GetEdge resolves an edge by identity.
	GetEdge(id string) (*Edge, bool)

	// AddNode inserts a node. Duplicate identities fail with a
	// ValidationError. Variant payload requirements are enforced here.
	AddNode(n *Node) error
	// RemoveNode removes a node by identity. Fails with a NotFoundError if
	// absent and with a ValidationError while incident edges remain.
	RemoveNode(id string) error
	// AddEdge inserts an edge; both endpoints must resolve in this storage
	// or the call fails with a NotFoundError.
	AddEdge(e *Edge) error
	// RemoveEdge removes an edge by identity.
	RemoveEdge(id string) error

	// IncidentEdges returns all edges whose source or target is the given
	// node, in stable insertion order.
	IncidentEdges(nodeID string) []*Edge

	// NodeCount and EdgeCount report structural sizes.
	NodeCount() int
	EdgeCount() int

	// Clone returns an independent storage sharing the immutable node and
	// edge values. Mutating the clone never affects the original.
	Clone() GraphStorage
}

// ProvenanceLink records that a graph was derived from another aggregate at a
// specific version, either by transformation or composition.
type ProvenanceLink struct {
	GraphID string `json:"graph_id"`
	Version uint64 `json:"version"`
	Kind    string `json:"kind"`
}

// Graph is the event-sourced aggregate: identity, variant tag, monotonic
// version and exclusively owned nodes/edges behind a GraphStorage. A Graph
// value is an immutable snapshot; the mutation engine produces a new Graph
// per applied command rather than mutating in place, so readers never observe
// partial updates.
type Graph struct {
	ID         string
	Name       string
	Variant    Variant
	Version    uint64
	Root       string // optional semantic anchor node id
	Archived   bool
	Provenance []ProvenanceLink
	Storage    GraphStorage

	cell cid.Cell
}

// graphContent is the canonical content form hashed into the graph CID.
// Identity, name and version are deliberately excluded: the CID is a pure
// function of content, so content-identical graphs compare equal across
// aggregates (union commutativity, replay idempotence).
type graphContent struct {
	Variant Variant    `json:"variant"`
	Root    string     `json:"root,omitempty"`
	Nodes   []NodeData `json:"nodes"`
	Edges   []EdgeData `json:"edges"`
}

// CID returns the graph's content identifier. It is computed lazily on first
// access over the canonical serialization of the graph content with nodes and
// edges in sorted identity order, so the hash is independent of insertion
// order. A fresh snapshot starts with a dirty cell, which is how mutation
// invalidates the aggregate hash.
func (g *Graph) CID() (string, error) {
	return g.cell.Load(func() (string, error) {
		return cid.HashValue(g.content())
	})
}

func (g *Graph) content() graphContent {
	nodes := g.Storage.ListNodes()
	edges := g.Storage.ListEdges()
	nd := make([]NodeData, len(nodes))
	for i, n := range nodes {
		nd[i] = n.Data()
	}
	ed := make([]EdgeData, len(edges))
	for i, e := range edges {
		ed[i] = e.Data()
	}
	sort.Slice(nd, func(i, j int) bool { return nd[i].ID < nd[j].ID })
	sort.Slice(ed, func(i, j int) bool { return ed[i].ID < ed[j].ID })
	return graphContent{Variant: g.Variant, Root: g.Root, Nodes: nd, Edges: ed}
}

// Clone returns a snapshot copy sharing immutable entities but with its own
// storage indexes, provenance slice and a dirty CID cell.
func (g *Graph) Clone() *Graph {
	return &Graph{
		ID:         g.ID,
		Name:       g.Name,
		Variant:    g.Variant,
		Version:    g.Version,
		Root:       g.Root,
		Archived:   g.Archived,
		Provenance: append([]ProvenanceLink(nil), g.Provenance...),
		Storage:    g.Storage.Clone(),
	}
}

// NodeCount reports the number of nodes in the snapshot.
func (g *Graph) NodeCount() int { return g.Storage.NodeCount() }

// EdgeCount reports the number of edges in the snapshot.
func (g *Graph) EdgeCount() int { return g.Storage.EdgeCount() }
