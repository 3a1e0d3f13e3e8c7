// Package main hosts the cratechef CLI.
//
// The Cobra command tree wraps the ingestion packages: import reads library
// and play history CSV exports, scan walks a music folder, db init creates or
// upgrades the store, stats prints counts and the latest transitions, and
// config scaffolds or shows the TOML configuration. Commands that write take
// the store's writer lock, so two imports against one database fail fast
// instead of interleaving.
//
// Summaries go to stdout as tables; logs go to stderr and the log file.
package main
