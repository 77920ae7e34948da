// Package variant provides the concrete GraphStorage implementations behind
// the shared capability interface: property graphs, concept graphs, workflow
// graphs and content-addressed DAGs. All variants share one arena-plus-index
// store (slice arenas holding immutable entities, identity-to-index lookup
// maps, no embedded back-pointers) and differ only in the payload rules and
// structural constraints they enforce.
package variant
