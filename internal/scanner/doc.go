// Package scanner walks a music folder and upserts tracks from audio tags.
//
// Files are pre-filtered before they count as seen: the extension must be a
// configured audio extension, names starting with a dot (including macOS
// "._" resource forks) are ignored, and files under the minimum size are
// treated as placeholders. Every surviving file is passed to the tag reader;
// a failed read or a tag set without title and artist counts as bad and the
// first few bad paths are kept for the report.
//
// A scan is one run with one transaction. Dry runs read tags and report but
// write nothing, not even the run ledger.
package scanner
