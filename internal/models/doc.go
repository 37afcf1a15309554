// Package models defines domain entities and persistence interfaces for snx.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs normalized from Suno API responses
//   - [Profile] : A user profile reached through follower, following or notification listings
//   - [Clip] : A song (clip) with its title
//   - [LyricLine] : One aligned lyric entry used for subtitle export
//   - [Project] : A workspace project and the clips it contains
//   - [HandleScore] : Creator stats collected for a handle
//   - [TrendingUser] : A row of the trending users search
//   - [Snapshot] and [IndexItem] : The serialized liked-playlist search index
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [Sweep] : One paginated collection run with its page accounting
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
