package testsupport

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// WriteID3v23 writes an ID3v2.3 tag holding the given text frames (for
// example "TIT2", "TPE1", "TBPM") followed by zero padding up to size bytes.
func WriteID3v23(t testing.TB, path string, frames map[string]string, size int) {
	t.Helper()

	var body bytes.Buffer
	for _, id := range []string{"TIT2", "TPE1", "TPE2", "TBPM", "TKEY"} {
		text, ok := frames[id]
		if !ok {
			continue
		}
		payload := append([]byte{0x00}, []byte(text)...)
		body.WriteString(id)
		var sz [4]byte
		binary.BigEndian.PutUint32(sz[:], uint32(len(payload)))
		body.Write(sz[:])
		body.Write([]byte{0x00, 0x00})
		body.Write(payload)
	}
	// Padding inside the tag ends the frame list.
	body.Write(make([]byte, 16))

	tagSize := body.Len()
	header := []byte{'I', 'D', '3', 0x03, 0x00, 0x00,
		byte(tagSize>>21&0x7f),
		byte(tagSize>>14&0x7f),
		byte(tagSize>>7&0x7f),
		byte(tagSize&0x7f),
	}

	var out bytes.Buffer
	out.Write(header)
	out.Write(body.Bytes())
	if out.Len() < size {
		out.Write(make([]byte, size-out.Len()))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
