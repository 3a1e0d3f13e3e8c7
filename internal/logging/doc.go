// Package logging builds the slog loggers used by the cratechef CLI, the
// importers, the scanner, and the read API.
//
// A single handler renders either console text or JSON lines. Both formats
// treat component, run_id, and source specially: the console folds them into
// a "component[run] source:" prefix, and JSON emits them as top-level keys
// right after the message. Context helpers tag every line written during an
// import or scan with that run's id.
package logging
