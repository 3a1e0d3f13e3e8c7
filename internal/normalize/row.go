package normalize

import (
	"math"
	"strconv"
	"strings"
)

// Column aliases for CSV exports, in priority order. Keys are compared after
// lower-casing and trimming the header.
var (
	titleColumns    = []string{"title", "name", "track", "song", "track title"}
	artistColumns   = []string{"artist", "artists", "performer", "track artist"}
	bpmColumns      = []string{"bpm", "tempo"}
	keyColumns      = []string{"key", "serato key", "musical key", "initial key"}
	playedAtColumns = []string{"played", "date", "start time", "time", "played at", "start time/date"}
	crateColumns    = []string{"crate", "crates", "playlist"}
)

// Row normalizes one CSV row given its header and the positional values
// aligned to it. Header names are matched case-insensitively; when two
// columns collapse to the same name, the later column wins even if empty.
func Row(header, values []string) Result {
	fields := make(map[string]string, len(header))
	for i, name := range header {
		val := ""
		if i < len(values) {
			val = strings.TrimSpace(values[i])
		}
		fields[strings.ToLower(strings.TrimSpace(name))] = val
	}

	rec := Record{
		Title:    pick(fields, titleColumns),
		Artist:   pick(fields, artistColumns),
		BPM:      ParseBPM(pick(fields, bpmColumns)),
		Key:      pick(fields, keyColumns),
		PlayedAt: pick(fields, playedAtColumns),
		Crate:    pick(fields, crateColumns),
	}
	return finish(rec)
}

func pick(fields map[string]string, aliases []string) string {
	for _, alias := range aliases {
		if v := fields[alias]; v != "" {
			return v
		}
	}
	return ""
}

// ParseBPM parses a tempo value. Blank, unparseable, non-finite, and
// non-positive values yield nil.
func ParseBPM(value string) *float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return nil
	}
	return &f
}

// SalvageBPM is ParseBPM with a second attempt on the digits and dots of
// value, so tags like "128 BPM" still yield 128. Values that parse as numbers
// but fall out of range, such as "-128", are not salvaged.
func SalvageBPM(value string) *float64 {
	value = strings.TrimSpace(value)
	if _, err := strconv.ParseFloat(value, 64); err == nil || value == "" {
		return ParseBPM(value)
	}
	var b strings.Builder
	for _, r := range value {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return ParseBPM(b.String())
}
