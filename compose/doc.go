// Package compose implements the composition engine: combining multiple
// graphs into new aggregates (union, intersection, split) or into a virtual
// federated view that fans queries out to its operands at query time without
// ever merging their state.
//
// Materializing operators are strictly read-only on their operand snapshots
// and produce independent new aggregates born at version 0, each carrying a
// CompositionApplied provenance event linking every operand at the version it
// was read. Identity collisions during a union are resolved only by an
// explicitly configured policy; an ambiguous merge without one fails with a
// CompositionPolicyError.
package compose
