package normalize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Tag aliases across ID3v2.2/2.3/2.4 frames, MP4 atoms, and Vorbis comments.
// Lookup is case-insensitive.
var (
	titleTags  = []string{"title", "©nam", "TIT2", "TT2"}
	artistTags = []string{"artist", "©ART", "TPE1", "TP1", "albumartist", "aART", "TPE2", "performer"}
	bpmTags    = []string{"bpm", "TBPM", "TBP", "tmpo"}
	keyTags    = []string{"initialkey", "TKEY", "TKE", "key"}
)

// Tags normalizes a raw audio tag map. Values may be strings, lists (first
// element wins), or numbers. Among keys equal once lower-cased, the first
// non-empty one in byte order wins.
func Tags(raw map[string]any) Result {
	// Keys are visited in sorted order so names that collide once
	// lower-cased resolve the same way on every read.
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make(map[string]string, len(raw))
	for _, k := range keys {
		key := strings.ToLower(strings.TrimSpace(k))
		if fields[key] != "" {
			continue
		}
		fields[key] = tagString(raw[k])
	}

	rec := Record{
		Title:  pickTag(fields, titleTags),
		Artist: pickTag(fields, artistTags),
		BPM:    SalvageBPM(pickTag(fields, bpmTags)),
		Key:    pickTag(fields, keyTags),
	}
	return finish(rec)
}

func pickTag(fields map[string]string, aliases []string) string {
	for _, alias := range aliases {
		if v := fields[strings.ToLower(alias)]; v != "" {
			return v
		}
	}
	return ""
}

func tagString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case []string:
		if len(val) == 0 {
			return ""
		}
		return strings.TrimSpace(val[0])
	case []any:
		if len(val) == 0 {
			return ""
		}
		return tagString(val[0])
	case int:
		return strconv.Itoa(val)
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(val)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		// Pictures and other binary payloads carry nothing we resolve.
		return ""
	}
}
