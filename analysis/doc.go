// Package analysis implements the derived-analysis cache: pure functions
// computing semantic clusters, a pairwise relationship-strength matrix,
// detected structural patterns and aggregate metrics, memoized by
// (aggregate id, version).
//
// Recomputation is deduplicated through singleflight so concurrent callers of
// the same (id, version) share exactly one computation. When a mutation
// advances a graph's version, any in-flight background computation for an
// older version is cancelled and its result discarded rather than applied to
// stale state. If a recomputation fails, the prior value is retained but
// tagged stale and returned alongside a CacheComputationError; stale results
// are never silently returned.
package analysis
