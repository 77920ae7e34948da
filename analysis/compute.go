package analysis

import (
	"context"
	"sort"
	"time"

	"github.com/hupe1980/graphmesh/core"
	"github.com/hupe1980/graphmesh/variant"
)

// compute derives the full analysis bundle for one immutable snapshot. It is
// a pure function of the snapshot content; the context lets a superseded
// background computation be discarded between phases.
func compute(ctx context.Context, g *core.Graph) (*Analysis, error) {
	nodes := g.Storage.ListNodes()
	edges := g.Storage.ListEdges()

	clusters := clusterNodes(g, nodes, edges)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	strengths := strengthMatrix(edges)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	patterns := detectPatterns(nodes, edges)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Analysis{
		GraphID:    g.ID,
		Version:    g.Version,
		ComputedAt: time.Now().UTC(),
		Clusters:   clusters,
		Strengths:  strengths,
		Patterns:   patterns,
		Metrics:    computeMetrics(nodes, edges, len(clusters)),
	}, nil
}

// clusterNodes groups nodes into connected components over the undirected
// view. Each cluster is labeled with the most frequent node label among its
// members; for concept graphs the centroid of the members' coordinates is
// attached.
func clusterNodes(g *core.Graph, nodes []*core.Node, edges []*core.Edge) []Cluster {
	parent := make(map[string]string, len(nodes))
	var find func(string) string
	find = func(id string) string {
		if parent[id] != id {
			parent[id] = find(parent[id])
		}
		return parent[id]
	}
	for _, n := range nodes {
		parent[n.ID] = n.ID
	}
	for _, e := range edges {
		a, b := find(e.Source), find(e.Target)
		if a != b {
			parent[a] = b
		}
	}

	members := map[string][]string{}
	for _, n := range nodes {
		root := find(n.ID)
		members[root] = append(members[root], n.ID)
	}
	roots := make([]string, 0, len(members))
	for root := range members {
		roots = append(roots, root)
	}
	sort.Strings(roots)

	byID := make(map[string]*core.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	clusters := make([]Cluster, 0, len(roots))
	for i, root := range roots {
		ids := members[root]
		sort.Strings(ids)
		c := Cluster{ID: i, NodeIDs: ids, Label: dominantLabel(byID, ids)}
		if g.Variant == core.VariantConcept {
			c.Centroid = centroid(byID, ids)
		}
		clusters = append(clusters, c)
	}
	return clusters
}

func dominantLabel(byID map[string]*core.Node, ids []string) string {
	counts := map[string]int{}
	for _, id := range ids {
		for _, l := range byID[id].Labels {
			counts[l]++
		}
	}
	best, bestCount := "", 0
	for l, c := range counts {
		if c > bestCount || (c == bestCount && l < best) {
			best, bestCount = l, c
		}
	}
	return best
}

func centroid(byID map[string]*core.Node, ids []string) map[string]float64 {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, id := range ids {
		coords, ok := variant.Coordinates(byID[id])
		if !ok {
			continue
		}
		for dim, v := range coords {
			sums[dim] += v
			counts[dim]++
		}
	}
	if len(sums) == 0 {
		return nil
	}
	out := make(map[string]float64, len(sums))
	for dim, sum := range sums {
		out[dim] = sum / float64(counts[dim])
	}
	return out
}

// strengthMatrix accumulates edge weight per directed source/target pair.
// Edges with zero weight count as 1 so unweighted graphs still produce a
// meaningful matrix.
func strengthMatrix(edges []*core.Edge) StrengthMatrix {
	m := StrengthMatrix{}
	for _, e := range edges {
		w := e.Weight
		if w == 0 {
			w = 1
		}
		row := m[e.Source]
		if row == nil {
			row = map[string]float64{}
			m[e.Source] = row
		}
		row[e.Target] += w
	}
	return m
}

// detectPatterns finds hubs (degree at least 3 and above twice the average),
// isolated nodes, and directed cycles.
func detectPatterns(nodes []*core.Node, edges []*core.Edge) []Pattern {
	degree := map[string]int{}
	adj := map[string][]string{}
	for _, e := range edges {
		degree[e.Source]++
		degree[e.Target]++
		adj[e.Source] = append(adj[e.Source], e.Target)
	}

	var patterns []Pattern

	avg := 0.0
	if len(nodes) > 0 {
		avg = 2 * float64(len(edges)) / float64(len(nodes))
	}
	var isolated []string
	for _, n := range nodes {
		d := degree[n.ID]
		if d == 0 {
			isolated = append(isolated, n.ID)
			continue
		}
		if d >= 3 && float64(d) > 2*avg {
			patterns = append(patterns, Pattern{Kind: "hub", NodeIDs: []string{n.ID}})
		}
	}
	sort.Strings(isolated)
	for _, id := range isolated {
		patterns = append(patterns, Pattern{Kind: "isolated_node", NodeIDs: []string{id}})
	}

	if cycle := findCycle(nodes, adj); len(cycle) > 0 {
		patterns = append(patterns, Pattern{Kind: "cycle", NodeIDs: cycle})
	}
	return patterns
}

// findCycle returns the nodes of one directed cycle, if any exists.
func findCycle(nodes []*core.Node, adj map[string][]string) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	var stack []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		stack = append(stack, id)
		for _, next := range adj[id] {
			if color[next] == gray {
				for i := len(stack) - 1; i >= 0; i-- {
					cycle = append([]string{stack[i]}, cycle...)
					if stack[i] == next {
						break
					}
				}
				return true
			}
			if color[next] == white && visit(next) {
				return true
			}
		}
		color[id] = black
		stack = stack[:len(stack)-1]
		return false
	}

	for _, n := range nodes {
		if color[n.ID] == white && visit(n.ID) {
			return cycle
		}
	}
	return nil
}

func computeMetrics(nodes []*core.Node, edges []*core.Edge, clusterCount int) Metrics {
	m := Metrics{NodeCount: len(nodes), EdgeCount: len(edges), ClusterCount: clusterCount}
	if len(nodes) > 1 {
		m.Density = float64(len(edges)) / float64(len(nodes)*(len(nodes)-1))
	}
	degree := map[string]int{}
	for _, e := range edges {
		degree[e.Source]++
		degree[e.Target]++
	}
	if len(nodes) > 0 {
		m.AvgDegree = 2 * float64(len(edges)) / float64(len(nodes))
	}
	for _, n := range nodes {
		d := degree[n.ID]
		if d > m.MaxDegree {
			m.MaxDegree = d
		}
		if d == 0 {
			m.IsolatedNodes++
		}
	}
	return m
}
