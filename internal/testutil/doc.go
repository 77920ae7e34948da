// Package testutil contains helper builders and utilities used across tests
// to reduce boilerplate when constructing core model objects (graphs, nodes,
// edges, command sequences) and asserting behaviors. These helpers are
// intentionally minimal and are not intended for production usage.
package testutil
