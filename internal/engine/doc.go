// Package engine holds the session's view model and is its only writer.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// Every producer (the pull loop, the push handler, the optimistic mutator,
// controller refreshes) submits an Event carrying a transition into one FIFO
// queue. Engine.Run applies events one at a time in arrival order, so a
// transition always sees the result of every transition enqueued before it.
//
// Snapshots:
// Each applied change produces a new immutable Snapshot, stamped with a
// logical revision and published through an atomic pointer. Readers call
// Engine.Snapshot and never observe a half-applied transition.
//
// Last arrival wins:
// There is no reconciliation between sources. A pulled game replaces the
// mirror, a pushed bracket replaces the mirror, a local award replaces the
// mirror; whichever event reaches the queue last decides the state.
//
// CRITICAL: transitions must not mutate the values they read from a Tx.
// Clone, modify the clone, then Set it.
package engine
