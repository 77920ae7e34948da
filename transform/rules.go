package transform

import (
	"fmt"
	"sort"

	"github.com/hupe1980/graphmesh/core"
	"github.com/hupe1980/graphmesh/variant"
)

// registerDefaults installs the built-in transformation pairs. Every pair
// preserves node and edge counts exactly, so declared inverse pairs round-trip
// with zero tolerance on counts.
func (t *Transformer) registerDefaults() {
	t.register(core.VariantProperty, core.VariantConcept, rule{convert: propertyToConcept})
	t.register(core.VariantConcept, core.VariantProperty, rule{convert: conceptToProperty})
	t.register(core.VariantProperty, core.VariantWorkflow, rule{convert: propertyToWorkflow})
	t.register(core.VariantWorkflow, core.VariantProperty, rule{convert: workflowToProperty})

	dag := rule{precondition: requireAcyclic, convert: carryOver}
	t.register(core.VariantProperty, core.VariantContentAddressed, dag)
	t.register(core.VariantConcept, core.VariantContentAddressed, dag)
	t.register(core.VariantWorkflow, core.VariantContentAddressed, dag)
	t.register(core.VariantContentAddressed, core.VariantProperty, rule{convert: carryOver})
}

// requireAcyclic is the structural precondition for DAG targets.
func requireAcyclic(g *core.Graph) error {
	if !variant.IsAcyclic(g.Storage) {
		return &PreconditionError{Reason: fmt.Sprintf("graph %s contains a cycle; target variant requires a DAG", g.ID)}
	}
	return nil
}

// carryOver copies nodes and edges unchanged.
func carryOver(_ core.TransformationSpec, g *core.Graph) (converted, error) {
	var out converted
	for _, n := range g.Storage.ListNodes() {
		out.nodes = append(out.nodes, n.Data())
	}
	for _, e := range g.Storage.ListEdges() {
		out.edges = append(out.edges, e.Data())
	}
	return out, nil
}

// propertyToConcept derives quality-dimension coordinates from each node's
// numeric properties. Nodes without numeric properties receive empty
// coordinates and a PartialDataLoss warning, since their position in quality
// space cannot be reconstructed.
func propertyToConcept(_ core.TransformationSpec, g *core.Graph) (converted, error) {
	var out converted
	for _, n := range g.Storage.ListNodes() {
		d := n.Data()
		coords := map[string]any{}
		keys := make([]string, 0, len(d.Properties))
		for k := range d.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if f, ok := numeric(d.Properties[k]); ok {
				coords[k] = f
			}
		}
		if len(coords) == 0 {
			out.warnings = append(out.warnings, fmt.Sprintf("node %s: no numeric properties, coordinates empty", d.ID))
		}
		if d.Payload == nil {
			d.Payload = map[string]any{}
		}
		d.Payload[core.PayloadCoordinates] = coords
		out.nodes = append(out.nodes, d)
	}
	for _, e := range g.Storage.ListEdges() {
		out.edges = append(out.edges, e.Data())
	}
	return out, nil
}

// conceptToProperty folds coordinates back into properties under "dim:"
// prefixed keys. A pre-existing property with the same key is overwritten and
// reported as a PartialDataLoss warning.
func conceptToProperty(_ core.TransformationSpec, g *core.Graph) (converted, error) {
	var out converted
	for _, n := range g.Storage.ListNodes() {
		d := n.Data()
		coords, _ := variant.Coordinates(n)
		if len(coords) > 0 && d.Properties == nil {
			d.Properties = map[string]any{}
		}
		dims := make([]string, 0, len(coords))
		for dim := range coords {
			dims = append(dims, dim)
		}
		sort.Strings(dims)
		for _, dim := range dims {
			key := "dim:" + dim
			if _, exists := d.Properties[key]; exists {
				out.warnings = append(out.warnings, fmt.Sprintf("node %s: property %s overwritten by coordinate", d.ID, key))
			}
			d.Properties[key] = coords[dim]
		}
		delete(d.Payload, core.PayloadCoordinates)
		if len(d.Payload) == 0 {
			d.Payload = nil
		}
		out.nodes = append(out.nodes, d)
	}
	for _, e := range g.Storage.ListEdges() {
		out.edges = append(out.edges, e.Data())
	}
	return out, nil
}

// propertyToWorkflow derives each node's execution state from its "status"
// property when it is a string; other nodes start pending.
func propertyToWorkflow(_ core.TransformationSpec, g *core.Graph) (converted, error) {
	var out converted
	for _, n := range g.Storage.ListNodes() {
		d := n.Data()
		if status, ok := d.Properties["status"].(string); ok {
			if d.Payload == nil {
				d.Payload = map[string]any{}
			}
			d.Payload[core.PayloadExecutionState] = status
		}
		out.nodes = append(out.nodes, d)
	}
	for _, e := range g.Storage.ListEdges() {
		out.edges = append(out.edges, e.Data())
	}
	return out, nil
}

// workflowToProperty folds the execution state into a "status" property,
// overwriting (with a warning) any pre-existing status property.
func workflowToProperty(_ core.TransformationSpec, g *core.Graph) (converted, error) {
	var out converted
	for _, n := range g.Storage.ListNodes() {
		d := n.Data()
		state := variant.ExecutionState(n)
		if _, exists := d.Properties["status"]; exists {
			out.warnings = append(out.warnings, fmt.Sprintf("node %s: property status overwritten by execution state", d.ID))
		}
		if d.Properties == nil {
			d.Properties = map[string]any{}
		}
		d.Properties["status"] = state
		delete(d.Payload, core.PayloadExecutionState)
		if len(d.Payload) == 0 {
			d.Payload = nil
		}
		out.nodes = append(out.nodes, d)
	}
	for _, e := range g.Storage.ListEdges() {
		out.edges = append(out.edges, e.Data())
	}
	return out, nil
}

func numeric(v any) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	case int:
		return float64(f), true
	case int64:
		return float64(f), true
	}
	return 0, false
}
