// Package metrics provides the Prometheus collector bundle for GraphMesh.
// Collectors are constructed against an injected prometheus.Registerer rather
// than the default global registry, so embedding applications control
// registration and namespacing explicitly.
package metrics
