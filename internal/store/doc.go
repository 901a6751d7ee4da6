// Package store keeps a SQLite history of validation runs.
//
// Each run is one row in runs plus its ordered results in results. Runs are
// append-only: writing a run ID that already exists is a no-op.
//
// # Determinism
//
//   - Results are keyed by (run_id, seq) where seq is the position in the
//     engine's ordered output; reads always ORDER BY seq.
//   - Rows and metadata are stored as canonical JSON, so the results digest
//     recomputed from a read equals the digest recorded at write time.
//   - Run listings order by started_at, then id, with COLLATE BINARY.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: results cascade with their run
//
// Filtered reads are built with queryir and compiled by querysql.
package store
