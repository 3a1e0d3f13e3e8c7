// Package csvio reads DJ software CSV exports whose delimiter and encoding are
// not known in advance.
//
// SniffDelimiter inspects a sample and picks among comma, tab, semicolon, and
// pipe, falling back to comma. Open sniffs a file and returns a Reader that
// yields each row as values aligned to the header. Input is decoded permissively: a UTF-8 or UTF-16
// byte order mark selects the encoding, and invalid byte sequences are
// dropped rather than failing the import.
package csvio
