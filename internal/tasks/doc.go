// Package tasks runs the snx account and library operations against the Suno API with real-time
// progress reporting.
//
// # Core Operations
//
// [Engine] exposes one method per task:
//
//  1. [Engine.Handles] : sweep followers or following into an ordered set
//  2. [Engine.Unfollow] : unfollow everyone you follow who does not follow you back
//     - TestMode reports the candidates without any mutating call
//     - live runs refuse to act on an incomplete followers sweep unless AllowPartial is set
//  3. [Engine.BulkFollow] : follow the followers of another handle up to a hard cap
//  4. [Engine.Block] : block or unblock handles, stopping at the first failure
//  5. [Engine.Scores] : creator stats for many handles, lookups started at staggered offsets
//  6. [Engine.MigrateWorkspace] : empty every workspace other than the target
//
// Smaller single-call helpers cover notifications, comments, lyrics, parent clips, hidden
// creators, trending users and hooks.
//
// # Progress Reporting
//
// Operations that take a progress channel send [ProgressUpdate] values with select and default,
// so a slow or absent reader never blocks a sweep.
//
// # Sweep History
//
// The optional [SweepRecorder] receives every paginated sweep. [RepositoryRecorder] stores them
// through repositories.SweepRepository; recording errors are logged and otherwise ignored.
package tasks
