package variant

import (
	"github.com/hupe1980/graphmesh/core"
)

// NewStorage constructs empty storage for the given variant. This is the
// single dispatch point over the variant tags; an unknown variant fails with
// a ValidationError.
func NewStorage(v core.Variant) (core.GraphStorage, error) {
	switch v {
	case core.VariantProperty:
		return NewProperty(), nil
	case core.VariantConcept:
		return NewConcept(), nil
	case core.VariantWorkflow:
		return NewWorkflow(), nil
	case core.VariantContentAddressed:
		return NewContentAddressed(), nil
	default:
		return nil, core.NewValidationError("unknown graph variant %q", v)
	}
}

// Property is a general-purpose labeled property graph. It imposes no
// payload requirements and allows cycles.
type Property struct {
	store
}

// NewProperty returns empty property-graph storage.
func NewProperty() *Property { return &Property{store: newStore()} }

func (p *Property) Variant() core.Variant { return core.VariantProperty }

func (p *Property) AddNode(n *core.Node) error { return p.addNode(n) }

func (p *Property) AddEdge(e *core.Edge) error { return p.addEdge(e) }

func (p *Property) Clone() core.GraphStorage { return &Property{store: p.store.clone()} }

// Concept is a semantic graph: every node must carry quality-dimension
// coordinates in its payload, a map of dimension name to position.
type Concept struct {
	store
}

// NewConcept returns empty concept-graph storage.
func NewConcept() *Concept { return &Concept{store: newStore()} }

func (c *Concept) Variant() core.Variant { return core.VariantConcept }

func (c *Concept) AddNode(n *core.Node) error {
	if err := validateCoordinates(n); err != nil {
		return err
	}
	return c.addNode(n)
}

func (c *Concept) AddEdge(e *core.Edge) error { return c.addEdge(e) }

func (c *Concept) Clone() core.GraphStorage { return &Concept{store: c.store.clone()} }

// Coordinates extracts a concept node's quality-dimension coordinates.
func Coordinates(n *core.Node) (map[string]float64, bool) {
	raw, ok := n.Payload[core.PayloadCoordinates]
	if !ok {
		return nil, false
	}
	switch coords := raw.(type) {
	case map[string]float64:
		return coords, true
	case map[string]any:
		out := make(map[string]float64, len(coords))
		for k, v := range coords {
			f, ok := toFloat(v)
			if !ok {
				return nil, false
			}
			out[k] = f
		}
		return out, true
	}
	return nil, false
}

func validateCoordinates(n *core.Node) error {
	if _, ok := n.Payload[core.PayloadCoordinates]; !ok {
		return core.NewValidationError("concept node %s missing %s payload", n.ID, core.PayloadCoordinates)
	}
	if _, ok := Coordinates(n); !ok {
		return core.NewValidationError("concept node %s has malformed %s payload", n.ID, core.PayloadCoordinates)
	}
	return nil
}

func toFloat(v any) (float64, bool) {
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

// Workflow is a process graph whose nodes carry an execution state string.
// A missing state is read as "pending"; a present state must be a string.
type Workflow struct {
	store
}

// NewWorkflow returns empty workflow-graph storage.
func NewWorkflow() *Workflow { return &Workflow{store: newStore()} }

func (w *Workflow) Variant() core.Variant { return core.VariantWorkflow }

func (w *Workflow) AddNode(n *core.Node) error {
	if raw, ok := n.Payload[core.PayloadExecutionState]; ok {
		if _, isString := raw.(string); !isString {
			return core.NewValidationError("workflow node %s has non-string %s payload", n.ID, core.PayloadExecutionState)
		}
	}
	return w.addNode(n)
}

func (w *Workflow) AddEdge(e *core.Edge) error { return w.addEdge(e) }

func (w *Workflow) Clone() core.GraphStorage { return &Workflow{store: w.store.clone()} }

// ExecutionState extracts a workflow node's execution state, defaulting to
// "pending" when absent.
func ExecutionState(n *core.Node) string {
	if raw, ok := n.Payload[core.PayloadExecutionState]; ok {
		if s, isString := raw.(string); isString {
			return s
		}
	}
	return "pending"
}

// ContentAddressed is an acyclic graph addressed purely by content. AddEdge
// rejects any edge that would close a directed cycle, keeping the structure a
// DAG at all times.
type ContentAddressed struct {
	store
}

// NewContentAddressed returns empty content-addressed DAG storage.
func NewContentAddressed() *ContentAddressed {
	return &ContentAddressed{store: newStore()}
}

func (d *ContentAddressed) Variant() core.Variant { return core.VariantContentAddressed }

func (d *ContentAddressed) AddNode(n *core.Node) error { return d.addNode(n) }

func (d *ContentAddressed) AddEdge(e *core.Edge) error {
	if e.Source == e.Target || d.reaches(e.Target, e.Source) {
		return core.NewValidationError("edge %s would create a cycle", e.ID)
	}
	return d.addEdge(e)
}

func (d *ContentAddressed) Clone() core.GraphStorage {
	return &ContentAddressed{store: d.store.clone()}
}

// IsAcyclic reports whether the graph behind storage contains no directed
// cycle. Used as a transformation precondition when targeting the
// content-addressed variant.
func IsAcyclic(s core.GraphStorage) bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	adj := map[string][]string{}
	for _, e := range s.ListEdges() {
		adj[e.Source] = append(adj[e.Source], e.Target)
	}
	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		for _, next := range adj[id] {
			switch color[next] {
			case gray:
				return false
			case white:
				if !visit(next) {
					return false
				}
			}
		}
		color[id] = black
		return true
	}
	for _, n := range s.ListNodes() {
		if color[n.ID] == white {
			if !visit(n.ID) {
				return false
			}
		}
	}
	return true
}
