// Package badger provides a durable EventSink backed by BadgerDB, an
// embedded key-value store with a write-ahead log. Records are keyed by
// graph identity and zero-padded sequence number so a prefix scan returns
// each graph's log in append order, ready for replay.
package badger
