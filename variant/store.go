package variant

import (
	"github.com/hupe1980/graphmesh/core"
)

// store is the arena-plus-stable-index structure shared by every variant:
// entities live in insertion-ordered slice arenas and are resolved through
// identity-to-index maps. Entities themselves are immutable, so Clone copies
// only the arenas and indexes while sharing entity values, making snapshots
// cheap.
type store struct {
	nodes     []*core.Node
	edges     []*core.Edge
	nodeIndex map[string]int
	edgeIndex map[string]int
}

func newStore() store {
	return store{nodeIndex: map[string]int{}, edgeIndex: map[string]int{}}
}

func (s *store) clone() store {
	cp := store{
		nodes:     append([]*core.Node(nil), s.nodes...),
		edges:     append([]*core.Edge(nil), s.edges...),
		nodeIndex: make(map[string]int, len(s.nodeIndex)),
		edgeIndex: make(map[string]int, len(s.edgeIndex)),
	}
	for k, v := range s.nodeIndex {
		cp.nodeIndex[k] = v
	}
	for k, v := range s.edgeIndex {
		cp.edgeIndex[k] = v
	}
	return cp
}

func (s *store) ListNodes() []*core.Node { return append([]*core.Node(nil), s.nodes...) }

func (s *store) ListEdges() []*core.Edge { return append([]*core.Edge(nil), s.edges...) }

func (s *store) GetNode(id string) (*core.Node, bool) {
	i, ok := s.nodeIndex[id]
	if !ok {
		return nil, false
	}
	return s.nodes[i], true
}

func (s *store) GetEdge(id string) (*core.Edge, bool) {
	i, ok := s.edgeIndex[id]
	if !ok {
		return nil, false
	}
	return s.edges[i], true
}

func (s *store) NodeCount() int { return len(s.nodes) }

func (s *store) EdgeCount() int { return len(s.edges) }

func (s *store) IncidentEdges(nodeID string) []*core.Edge {
	var incident []*core.Edge
	for _, e := range s.edges {
		if e.Source == nodeID || e.Target == nodeID {
			incident = append(incident, e)
		}
	}
	return incident
}

func (s *store) addNode(n *core.Node) error {
	if n.ID == "" {
		return core.NewValidationError("node id must not be empty")
	}
	if _, exists := s.nodeIndex[n.ID]; exists {
		return core.NewValidationError("duplicate node id %s", n.ID)
	}
	s.nodeIndex[n.ID] = len(s.nodes)
	s.nodes = append(s.nodes, n)
	return nil
}

func (s *store) RemoveNode(id string) error {
	i, ok := s.nodeIndex[id]
	if !ok {
		return &core.NotFoundError{Kind: "node", ID: id}
	}
	if incident := s.IncidentEdges(id); len(incident) > 0 {
		return core.NewValidationError("dangling edge %s", incident[0].ID)
	}
	s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
	delete(s.nodeIndex, id)
	for j := i; j < len(s.nodes); j++ {
		s.nodeIndex[s.nodes[j].ID] = j
	}
	return nil
}

func (s *store) addEdge(e *core.Edge) error {
	if e.ID == "" {
		return core.NewValidationError("edge id must not be empty")
	}
	if _, exists := s.edgeIndex[e.ID]; exists {
		return core.NewValidationError("duplicate edge id %s", e.ID)
	}
	if _, ok := s.nodeIndex[e.Source]; !ok {
		return &core.NotFoundError{Kind: "node", ID: e.Source}
	}
	if _, ok := s.nodeIndex[e.Target]; !ok {
		return &core.NotFoundError{Kind: "node", ID: e.Target}
	}
	s.edgeIndex[e.ID] = len(s.edges)
	s.edges = append(s.edges, e)
	return nil
}

func (s *store) RemoveEdge(id string) error {
	i, ok := s.edgeIndex[id]
	if !ok {
		return &core.NotFoundError{Kind: "edge", ID: id}
	}
	s.edges = append(s.edges[:i], s.edges[i+1:]...)
	delete(s.edgeIndex, id)
	for j := i; j < len(s.edges); j++ {
		s.edgeIndex[s.edges[j].ID] = j
	}
	return nil
}

// reaches reports whether target is reachable from start following edge
// direction, including the candidate edge set plus one extra edge. Used for
// DAG cycle rejection.
func (s *store) reaches(start, target string) bool {
	if start == target {
		return true
	}
	seen := map[string]bool{start: true}
	stack := []string{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range s.edges {
			if e.Source != cur || seen[e.Target] {
				continue
			}
			if e.Target == target {
				return true
			}
			seen[e.Target] = true
			stack = append(stack, e.Target)
		}
	}
	return false
}
