// Package journal provides SQLite-backed durable storage for generated
// financial events.
//
// The journal is an append-only log. Each simulation run owns one run record
// and a sequence of entries ordered by a logical clock:
//
//   - Ordering uses seq INTEGER per run, never wall-clock timestamps, so a
//     replayed run produces byte-identical query results.
//   - Entry IDs are derived from (run, seq), and inserts use ON CONFLICT DO
//     NOTHING, so re-appending after a crash is a no-op.
//   - Reads always order by seq ASC, id ASC COLLATE BINARY.
//
// Database configuration:
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package journal
