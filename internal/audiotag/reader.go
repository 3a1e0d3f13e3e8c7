package audiotag

import (
	"fmt"
	"os"

	"github.com/dhowden/tag"

	"cratechef/internal/normalize"
)

// Reader reads audio tags from disk.
type Reader struct{}

// New returns a Reader.
func New() Reader {
	return Reader{}
}

// ReadTags reads path and normalizes its tags. Unreadable or unsupported
// files yield normalize.SkipUnreadable; it never panics.
func (Reader) ReadTags(path string) normalize.Result {
	raw, err := ReadRaw(path)
	if err != nil {
		return normalize.Skipped(normalize.SkipUnreadable)
	}
	return normalize.Tags(raw)
}

// ReadRaw returns the raw tag map of path. Convenience accessors of the
// decoder fill title, artist, and albumartist when the raw map lacks them
// under those names.
func ReadRaw(path string) (raw map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			raw = nil
			err = fmt.Errorf("read tags %s: decoder panic: %v", path, r)
		}
	}()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		return nil, fmt.Errorf("read tags %s: %w", path, err)
	}

	raw = make(map[string]any, len(meta.Raw())+3)
	for k, v := range meta.Raw() {
		raw[k] = v
	}
	fill := map[string]string{
		"title":       meta.Title(),
		"artist":      meta.Artist(),
		"albumartist": meta.AlbumArtist(),
	}
	for k, v := range fill {
		if _, ok := raw[k]; !ok && v != "" {
			raw[k] = v
		}
	}
	return raw, nil
}
