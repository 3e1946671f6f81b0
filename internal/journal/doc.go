// Package journal provides SQLite-backed audit storage for twin
// observations.
//
// The journal is append-only and write-only from the engine's point of
// view: the daemon records lifecycle events and periodic state
// snapshots, but nothing here ever flows back into engine state. A
// restarted daemon starts at tick zero regardless of what the journal
// holds. The read helpers (Count, Tail) exist for tests and operator
// inspection only.
//
// Database configuration follows the usual SQLite service setup:
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// Row ids are UUIDv7, so rows sort by creation time even across
// processes sharing a journal file.
package journal
