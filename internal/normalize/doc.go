// Package normalize maps loosely named CSV columns and audio tag keys onto a
// canonical track record.
//
// Row handles CSV rows exported by DJ software, given as a header and the
// values aligned to it; Tags handles tag maps read from audio files. Both try
// an ordered alias list per field and take the first non-empty value. A record without title or artist is returned as a
// skip with a reason instead of an error, so callers can tally and continue.
package normalize
