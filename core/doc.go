// Package core provides the foundational domain types and interfaces for
// GraphMesh. It defines the core abstractions for:
//
//   - Graphs (event-sourced aggregates with a monotonic version)
//   - Nodes and Edges (immutable content-bearing entities with lazy CIDs)
//   - Variants (the concrete graph representation kinds unified behind one
//     capability interface)
//   - EventRecords (append-only, hash-linked mutation history)
//   - Commands (validated mutation intents with optimistic concurrency)
//   - Transformation and composition spec descriptors
//   - Pluggable event sinks and change notifications
//
// The package intentionally keeps implementation concerns (the mutation
// engine, variant storage, persistence backends) out of scope, exposing small
// interfaces to enable custom backends and extensions.
package core
