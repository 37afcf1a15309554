// Package repositories implements SQLite persistence for snx.
//
// Key Implementations:
//   - [SweepRepository] : Paginated sweep history with soft deletes and per-task queries
//   - [SnapshotRepository] : One search index snapshot per key, replaced atomically
//
// Sequence numbers provide stable, human-readable ordering (e.g., sweep #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
