package normalize

// SkipReason names why an input could not produce a record.
type SkipReason string

const (
	SkipMissingTitle  SkipReason = "missing_title"
	SkipMissingArtist SkipReason = "missing_artist"
	SkipUnreadable    SkipReason = "unreadable"
	SkipMalformed     SkipReason = "malformed_row"
)

// Record is a normalized track observation.
type Record struct {
	Title    string
	Artist   string
	BPM      *float64
	Key      string
	PlayedAt string
	Crate    string
}

// Result is either a usable Record or a Skip reason.
type Result struct {
	Record Record
	Skip   SkipReason
}

// OK reports whether the result carries a usable record.
func (r Result) OK() bool {
	return r.Skip == ""
}

// Skipped builds a result rejected for reason.
func Skipped(reason SkipReason) Result {
	return Result{Skip: reason}
}

func finish(rec Record) Result {
	if rec.Title == "" {
		return Result{Record: rec, Skip: SkipMissingTitle}
	}
	if rec.Artist == "" {
		return Result{Record: rec, Skip: SkipMissingArtist}
	}
	return Result{Record: rec}
}
