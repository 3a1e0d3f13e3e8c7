// Package ingest imports DJ software CSV exports into the store.
//
// ImportLibrary reads a library export and upserts every valid row, linking
// tracks to their crate when the export names one. ImportHistory reads a
// play history export and feeds the rows, in file order, through an
// Extractor that records a transition each time the accepted track changes.
//
// File order is trusted as playback order. played_at is stored verbatim and
// never used for sorting, because exports disagree on its format and many
// leave it blank.
//
// Each import is one run: a ledger row is written before the work starts and
// updated when it ends, while all track and transition writes share a single
// transaction. A failed run leaves no partial writes behind.
package ingest
