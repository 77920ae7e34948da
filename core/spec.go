package core

// TransformationSpec is the declarative descriptor driving the transformation
// engine: source variant, target variant and an optional rule option set
// interpreted by the registered rule for that pair.
type TransformationSpec struct {
	Source  Variant           `json:"source" yaml:"source"`
	Target  Variant           `json:"target" yaml:"target"`
	Name    string            `json:"name,omitempty" yaml:"name,omitempty"`
	Options map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
}

// Kind names the transformation pair, e.g. "property_to_concept". It is
// recorded in TransformationApplied provenance events.
func (s TransformationSpec) Kind() string {
	return string(s.Source) + "_to_" + string(s.Target)
}

// CompositionOperator enumerates the supported composition operators.
type CompositionOperator string

const (
	// OpUnion merges operand node/edge sets into a new aggregate.
	OpUnion CompositionOperator = "union"
	// OpIntersection retains only entities present in all operands.
	OpIntersection CompositionOperator = "intersection"
	// OpFederation builds a virtual composite that fans queries out to the
	// operands at query time without merging state.
	OpFederation CompositionOperator = "federation"
	// OpSplit partitions one graph into subgraphs by a node predicate.
	OpSplit CompositionOperator = "split"
)

// CollisionPolicy resolves colliding identities during a union. There is no
// implicit default: a union with possible collisions and no policy fails with
// a CompositionPolicyError.
type CollisionPolicy string

const (
	// CollisionKeepNewer keeps the entity from the operand listed later
	// (operand order is newest-last).
	CollisionKeepNewer CollisionPolicy = "keep_newer"
	// CollisionKeepOlder keeps the entity from the operand listed earlier.
	CollisionKeepOlder CollisionPolicy = "keep_older"
	// CollisionError rejects the composition on any identity collision.
	CollisionError CollisionPolicy = "error"
)

// MatchPolicy decides how intersection equates entities across operands.
type MatchPolicy string

const (
	// MatchIdentity intersects by entity identity.
	MatchIdentity MatchPolicy = "identity"
	// MatchContent intersects by content equality (CID comparison).
	MatchContent MatchPolicy = "content"
)

// BoundaryPolicy decides the fate of edges crossing split partitions.
type BoundaryPolicy string

const (
	// BoundaryDuplicate duplicates crossing edges into both partitions as
	// boundary references.
	BoundaryDuplicate BoundaryPolicy = "duplicate"
	// BoundaryDrop drops crossing edges.
	BoundaryDrop BoundaryPolicy = "drop"
)

// CompositionSpec is the declarative descriptor driving the composition
// engine. Operands are aggregate identities. SplitBy names the node property
// whose value keys the partition for OpSplit.
type CompositionSpec struct {
	Operator CompositionOperator `json:"operator" yaml:"operator"`
	Operands []string            `json:"operands" yaml:"operands"`
	Name     string              `json:"name,omitempty" yaml:"name,omitempty"`

	Collision CollisionPolicy `json:"collision,omitempty" yaml:"collision,omitempty"`
	Match     MatchPolicy     `json:"match,omitempty" yaml:"match,omitempty"`
	SplitBy   string          `json:"split_by,omitempty" yaml:"split_by,omitempty"`
	Boundary  BoundaryPolicy  `json:"boundary,omitempty" yaml:"boundary,omitempty"`
}
