// Package store provides SQLite-backed storage for lowered jobs.
//
// The store is an append-only archive with:
//   - Jobs: the wire payload of every lowered pulse or circuit job, keyed by
//     job id and indexed by a content hash that ignores the id
//   - Pulse library: sample vectors shared across pulse jobs, keyed by
//     their content-derived name
//   - Job pulses: which library entries each job references, in order
//
// # Ordering
//
// Jobs are listed by seq, a logical insertion counter, then by id. Wall
// time never participates, so two stores fed the same jobs list them
// identically.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Content hashes are computed by ir.ContentHash over RFC 8785 canonical
// JSON with the ir.DomainJob prefix.
package store
