// Package importer is the normalized import boundary. Format-specific
// parsing (JSON, GraphML, Cypher) happens in external collaborators; this
// package accepts the already-parsed stream of node and edge additions,
// tagged with its source format, and applies it as ordinary commands.
package importer
