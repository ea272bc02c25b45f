// Package store persists scenario runs and their traces in SQLite.
//
// The store is an append-only log of two tables:
//   - runs: one row per scenario run, keyed by run ID
//   - events: the run's trace, keyed by (run_id, seq)
//
// # Ordering
//
// Events are ordered by their logical seq, never by wall time, so a trace
// reads back in exactly the order it was recorded. Every query that returns
// events uses ORDER BY seq ASC.
//
// # Payloads
//
// Each event row carries its canonical JSON encoding (see trace.MarshalCanonical)
// alongside indexed kind and object columns used for counting.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: events must reference a run
package store
