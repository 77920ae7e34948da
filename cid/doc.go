// Package cid implements content addressing for graph entities: canonical
// JSON serialization with stable key ordering, BLAKE3 hashing of the
// canonical form, and a lazy Cell that caches a computed hash until it is
// invalidated by mutation. Hashes produced here are pure functions of
// content; two logically identical values always yield the same CID
// regardless of map iteration or insertion order.
package cid
