package core

// Command is a validated mutation intent targeting a single aggregate (or,
// for compositions, a set of operand aggregates). Every command carries an
// optimistic-concurrency expectation: a nil expected version means "head at
// validation time", validated inside the aggregate's exclusive write section;
// a non-nil expectation is a strict compare-and-set that surfaces a
// ConflictError on mismatch.
type Command interface {
	// CommandKind names the command for logging and metrics.
	CommandKind() string
	// TargetGraph is the aggregate the command mutates. Compositions return
	// the reserved empty id; the engine resolves their operand set instead.
	TargetGraph() string
	// ExpectedVersion is the optimistic-concurrency pin, nil for head.
	ExpectedVersion() *uint64
}

// ExpectVersion is a convenience for building a strict version pin.
func ExpectVersion(v uint64) *uint64 { return &v }

// CreateGraph creates a new aggregate at version 0 and applies its
// GraphCreated event. An empty GraphID lets the engine assign one.
type CreateGraph struct {
	GraphID string
	Name    string
	Variant Variant
	Root    string
}

func (c CreateGraph) CommandKind() string      { return "CreateGraph" }
func (c CreateGraph) TargetGraph() string      { return c.GraphID }
func (c CreateGraph) ExpectedVersion() *uint64 { return ExpectVersion(0) }

// AddNode inserts a node into an existing graph.
type AddNode struct {
	GraphID  string
	Expected *uint64
	Node     NodeData
}

func (c AddNode) CommandKind() string      { return "AddNode" }
func (c AddNode) TargetGraph() string      { return c.GraphID }
func (c AddNode) ExpectedVersion() *uint64 { return c.Expected }

// RemoveNode removes a node. Without Cascade the command fails with a
// ValidationError while incident edges remain; with Cascade those edges are
// removed first and reported as additional EdgeRemoved events.
type RemoveNode struct {
	GraphID  string
	Expected *uint64
	NodeID   string
	Cascade  bool
}

func (c RemoveNode) CommandKind() string      { return "RemoveNode" }
func (c RemoveNode) TargetGraph() string      { return c.GraphID }
func (c RemoveNode) ExpectedVersion() *uint64 { return c.Expected }

// AddEdge inserts an edge whose endpoints must already exist in the graph.
type AddEdge struct {
	GraphID  string
	Expected *uint64
	Edge     EdgeData
}

func (c AddEdge) CommandKind() string      { return "AddEdge" }
func (c AddEdge) TargetGraph() string      { return c.GraphID }
func (c AddEdge) ExpectedVersion() *uint64 { return c.Expected }

// RemoveEdge removes an edge by identity.
type RemoveEdge struct {
	GraphID  string
	Expected *uint64
	EdgeID   string
}

func (c RemoveEdge) CommandKind() string      { return "RemoveEdge" }
func (c RemoveEdge) TargetGraph() string      { return c.GraphID }
func (c RemoveEdge) ExpectedVersion() *uint64 { return c.Expected }

// ArchiveGraph marks an aggregate archived. Archived graphs reject further
// mutation but their full history remains replayable; nothing is ever
// physically deleted.
type ArchiveGraph struct {
	GraphID  string
	Expected *uint64
}

func (c ArchiveGraph) CommandKind() string      { return "ArchiveGraph" }
func (c ArchiveGraph) TargetGraph() string      { return c.GraphID }
func (c ArchiveGraph) ExpectedVersion() *uint64 { return c.Expected }

// TransformGraph derives a brand-new aggregate from the source graph using a
// declarative transformation spec. Expected pins the source version read.
type TransformGraph struct {
	GraphID  string
	Expected *uint64
	Spec     TransformationSpec
}

func (c TransformGraph) CommandKind() string      { return "TransformGraph" }
func (c TransformGraph) TargetGraph() string      { return c.GraphID }
func (c TransformGraph) ExpectedVersion() *uint64 { return c.Expected }

// ComposeGraphs combines the operand graphs named by the Spec into a new (or,
// for federation, virtual) aggregate. ExpectedVersions optionally pins
// individual operand versions.
type ComposeGraphs struct {
	Spec             CompositionSpec
	ExpectedVersions map[string]uint64
}

func (c ComposeGraphs) CommandKind() string      { return "ComposeGraphs" }
func (c ComposeGraphs) TargetGraph() string      { return "" }
func (c ComposeGraphs) ExpectedVersion() *uint64 { return nil }
