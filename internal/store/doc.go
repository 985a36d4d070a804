// Package store provides SQLite-backed durable storage for remap runs.
//
// The store is an append-only audit log with:
//   - Runs: one record per invocation of a mapping over an event stream,
//     keyed by run ID and carrying the mapping's source and content hash
//   - Results: one record per input event, holding the input, the output
//     (possibly partially mutated) and the error text, if any
//
// # Critical Patterns
//
// Logical Identity and Time
//   - Runs and results are ordered by seq INTEGER (logical clock), never timestamps
//   - Enables deterministic replay regardless of wall time
//
// Deterministic Query Results
//   - All queries include ORDER BY seq ASC, id/run_id COLLATE BINARY ASC
//
// Payload Encoding
//   - Events are stored as canonical JSON compressed with zstd
//   - Hashes are computed over the uncompressed canonical JSON, so they are
//     comparable across store files and compression settings
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
