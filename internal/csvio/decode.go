package csvio

import (
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// newDecoder returns a transformer that honours a UTF-8/UTF-16 BOM, treats
// BOM-less input as UTF-8, and removes bytes that do not decode.
func newDecoder() transform.Transformer {
	return transform.Chain(
		unicode.BOMOverride(unicode.UTF8.NewDecoder()),
		runes.Remove(runes.Predicate(func(r rune) bool { return r == utf8.RuneError })),
	)
}

// DecodeBytes decodes b permissively.
func DecodeBytes(b []byte) string {
	out, _, err := transform.Bytes(newDecoder(), b)
	if err != nil {
		return ""
	}
	return string(out)
}

// NewDecodingReader wraps r with the permissive decoder.
func NewDecodingReader(r io.Reader) io.Reader {
	return transform.NewReader(r, newDecoder())
}
