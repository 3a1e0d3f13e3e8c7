// Package store persists tracks, transitions, crates, and import runs in a
// single SQLite file.
//
// Open and OpenPath run EnsureSchema before returning, so the (title, artist)
// uniqueness index exists before any upsert. EnsureSchema applies embedded
// migrations, adds extension columns missing from stores created by older
// tools, and creates indexes. It never rewrites existing data.
//
// UpsertTrack is the deduplicator: a track is created on first encounter and
// afterwards only merged, filling fields that are still empty. Transitions are
// append-only; ascending id is playback order.
//
// Writers open the store with OpenWriter, which holds an advisory lock next to
// the database file so two imports cannot interleave. A run's writes go through
// WithTx and commit together.
package store
