// Package engine implements the event-sourced mutation core: it validates
// commands against immutable graph snapshots, produces ordered hash-linked
// events, appends them atomically under optimistic concurrency and applies
// them to derive new versioned state.
//
// Concurrency model:
//   - Single writer per aggregate: the compare-and-set append section is the
//     per-aggregate exclusive section, so the optimistic-concurrency check is
//     race-free without a global lock.
//   - Readers always serve an immutable snapshot of a specific version and
//     never block on writers; mutation produces a new snapshot rather than
//     mutating in place.
//   - Commands with a nil expected version are re-validated and retried a
//     bounded number of times when they lose the append race; commands with
//     an explicit version pin surface a ConflictError on the first mismatch.
//
// All events produced by one command are applied atomically, either all or
// none. Replaying an aggregate's full log from the empty state reconstructs a
// graph whose content hash equals that of incremental application.
package engine
