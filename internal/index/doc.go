// Package index builds and queries a local search index of the liked-songs playlist.
//
// [Index.Build] sweeps every page of the playlist and, only when every page was fetched, replaces
// the stored [models.Snapshot] in one step. A partial sweep leaves the previous snapshot in place.
//
// [Query] and [Suggest] work on a snapshot alone and never touch the network. Each [Match]
// carries the page of the Suno UI the song appears on, derived from its position in the playlist.
//
// Snapshots live in a [Store]: [SQLiteStore] keeps one row per key in the snx database and
// [FileStore] keeps a JSON file that is written to a temporary file and renamed into place.
package index
