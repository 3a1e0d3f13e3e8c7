package ingest

import (
	"sort"

	"cratechef/internal/normalize"
	"cratechef/internal/store"
)

// Stats tallies one import run.
type Stats struct {
	Rows        int
	Valid       int
	Inserted    int
	Updated     int
	Transitions int
	CrateLinks  int
	Skipped     map[normalize.SkipReason]int
}

func newStats() Stats {
	return Stats{Skipped: make(map[normalize.SkipReason]int)}
}

// SkippedTotal returns the number of rows skipped for any reason.
func (s Stats) SkippedTotal() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}
	return total
}

// SkipReasons returns the reasons with a non-zero count, sorted.
func (s Stats) SkipReasons() []normalize.SkipReason {
	reasons := make([]normalize.SkipReason, 0, len(s.Skipped))
	for reason, n := range s.Skipped {
		if n > 0 {
			reasons = append(reasons, reason)
		}
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
	return reasons
}

// Counters converts the stats to the run ledger's counters.
func (s Stats) Counters() store.RunCounters {
	return store.RunCounters{
		Rows:        s.Rows,
		Valid:       s.Valid,
		Inserted:    s.Inserted,
		Updated:     s.Updated,
		Skipped:     s.SkippedTotal(),
		Transitions: s.Transitions,
	}
}

func (s *Stats) skip(reason normalize.SkipReason) {
	if s.Skipped == nil {
		s.Skipped = make(map[normalize.SkipReason]int)
	}
	s.Skipped[reason]++
}

func (s *Stats) record(res store.UpsertResult) {
	s.Valid++
	if res.Inserted {
		s.Inserted++
	} else {
		s.Updated++
	}
}
