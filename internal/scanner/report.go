package scanner

import "sort"

// FilterReason names why a file was excluded before tag reading.
type FilterReason string

const (
	FilterExtension FilterReason = "unsupported_extension"
	FilterHidden    FilterReason = "hidden"
	FilterTooSmall  FilterReason = "too_small"
	FilterWalkError FilterReason = "walk_error"
)

// Report summarizes a scan.
type Report struct {
	RunID      string
	Root       string
	DryRun     bool
	Limited    bool
	Seen       int
	Valid      int
	Inserted   int
	Updated    int
	Bad        int
	BadSamples []string
	Filtered   map[FilterReason]int
}

// Upserted returns the number of tracks written (inserted or merged).
func (r *Report) Upserted() int {
	return r.Inserted + r.Updated
}

// FilteredTotal returns the number of files excluded by pre-filters.
func (r *Report) FilteredTotal() int {
	total := 0
	for _, n := range r.Filtered {
		total += n
	}
	return total
}

// FilterReasons returns reasons with a non-zero count, sorted.
func (r *Report) FilterReasons() []FilterReason {
	reasons := make([]FilterReason, 0, len(r.Filtered))
	for reason, n := range r.Filtered {
		if n > 0 {
			reasons = append(reasons, reason)
		}
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
	return reasons
}
