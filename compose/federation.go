package compose

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/graphmesh/core"
	"github.com/hupe1980/graphmesh/engine"
)

// Federation is a virtual composite that never physically merges state.
// Queries fan out to the operand graphs at query time and the results are
// unioned, preserving each operand's independent versioning. A federation
// produces no events and owns no entities; it is purely a read surface.
type Federation struct {
	engine   *engine.Engine
	name     string
	operands []string
}

// NewFederation builds a virtual composite over the given operand graphs.
func NewFederation(eng *engine.Engine, name string, operands []string) *Federation {
	return &Federation{engine: eng, name: name, operands: append([]string(nil), operands...)}
}

// Name returns the federation's configured name.
func (f *Federation) Name() string { return f.name }

// Operands reports each operand with its current independent version.
func (f *Federation) Operands() ([]core.ProvenanceLink, error) {
	links := make([]core.ProvenanceLink, 0, len(f.operands))
	for _, id := range f.operands {
		g, err := f.engine.Snapshot(id)
		if err != nil {
			return nil, err
		}
		links = append(links, core.ProvenanceLink{GraphID: g.ID, Version: g.Version, Kind: string(core.OpFederation)})
	}
	return links, nil
}

// ListNodes fans the enumeration out to all operands concurrently and unions
// the results. On duplicate identities the operand listed first wins. Output
// is in sorted identity order.
func (f *Federation) ListNodes(ctx context.Context) ([]core.NodeData, error) {
	perOperand := make([][]core.NodeData, len(f.operands))
	group, ctx := errgroup.WithContext(ctx)
	for i, id := range f.operands {
		i, id := i, id
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			nodes, err := f.engine.ListNodes(id, nil)
			if err != nil {
				return err
			}
			perOperand[i] = nodes
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var out []core.NodeData
	for _, nodes := range perOperand {
		for _, n := range nodes {
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListEdges fans the enumeration out to all operands concurrently and unions
// the results, first operand winning on duplicate identities.
func (f *Federation) ListEdges(ctx context.Context) ([]core.EdgeData, error) {
	perOperand := make([][]core.EdgeData, len(f.operands))
	group, ctx := errgroup.WithContext(ctx)
	for i, id := range f.operands {
		i, id := i, id
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			edges, err := f.engine.ListEdges(id, nil)
			if err != nil {
				return err
			}
			perOperand[i] = edges
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var out []core.EdgeData
	for _, edges := range perOperand {
		for _, e := range edges {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetNode resolves a node across operands, honoring operand order.
func (f *Federation) GetNode(ctx context.Context, nodeID string) (core.NodeData, error) {
	var (
		mu    sync.Mutex
		found = make([]*core.NodeData, len(f.operands))
	)
	group, ctx := errgroup.WithContext(ctx)
	for i, id := range f.operands {
		i, id := i, id
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := f.engine.GetNode(id, nodeID, nil)
			if err != nil {
				if core.IsNotFound(err) {
					return nil
				}
				return err
			}
			mu.Lock()
			found[i] = &n
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return core.NodeData{}, err
	}
	for _, n := range found {
		if n != nil {
			return *n, nil
		}
	}
	return core.NodeData{}, &core.NotFoundError{Kind: "node", ID: nodeID}
}

// GetEdge resolves an edge across operands, honoring operand order.
func (f *Federation) GetEdge(ctx context.Context, edgeID string) (core.EdgeData, error) {
	var (
		mu    sync.Mutex
		found = make([]*core.EdgeData, len(f.operands))
	)
	group, ctx := errgroup.WithContext(ctx)
	for i, id := range f.operands {
		i, id := i, id
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			e, err := f.engine.GetEdge(id, edgeID, nil)
			if err != nil {
				if core.IsNotFound(err) {
					return nil
				}
				return err
			}
			mu.Lock()
			found[i] = &e
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return core.EdgeData{}, err
	}
	for _, e := range found {
		if e != nil {
			return *e, nil
		}
	}
	return core.EdgeData{}, &core.NotFoundError{Kind: "edge", ID: edgeID}
}

// NodeCount reports the unioned node count across operands.
func (f *Federation) NodeCount(ctx context.Context) (int, error) {
	nodes, err := f.ListNodes(ctx)
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

// EdgeCount reports the unioned edge count across operands.
func (f *Federation) EdgeCount(ctx context.Context) (int, error) {
	edges, err := f.ListEdges(ctx)
	if err != nil {
		return 0, err
	}
	return len(edges), nil
}
