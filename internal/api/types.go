package api

import "cratechef/internal/store"

// HealthResponse reports whether the store can be queried.
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// StatsResponse carries library totals.
type StatsResponse struct {
	Tracks      int64 `json:"tracks"`
	Transitions int64 `json:"transitions"`
}

// TransitionView is one edge of the recent transitions feed.
type TransitionView struct {
	ID         int64  `json:"id"`
	PrevID     int64  `json:"prev_id"`
	PrevTitle  string `json:"prev_title"`
	PrevArtist string `json:"prev_artist"`
	NextID     int64  `json:"next_id"`
	NextTitle  string `json:"next_title"`
	NextArtist string `json:"next_artist"`
	PlayedAt   string `json:"played_at,omitempty"`
}

// RecentTransitionsResponse wraps the recent transitions feed.
type RecentTransitionsResponse struct {
	Limit       int              `json:"limit"`
	Transitions []TransitionView `json:"transitions"`
}

// FromCounts converts store totals.
func FromCounts(c store.Counts) StatsResponse {
	return StatsResponse{Tracks: c.Tracks, Transitions: c.Transitions}
}

// FromRecentTransitions converts store rows, keeping their order. The result
// is never nil so the feed encodes as an empty array.
func FromRecentTransitions(rows []store.RecentTransition) []TransitionView {
	out := make([]TransitionView, 0, len(rows))
	for _, row := range rows {
		out = append(out, TransitionView{
			ID:         row.ID,
			PrevID:     row.PrevID,
			PrevTitle:  row.PrevTitle,
			PrevArtist: row.PrevArtist,
			NextID:     row.NextID,
			NextTitle:  row.NextTitle,
			NextArtist: row.NextArtist,
			PlayedAt:   row.PlayedAt,
		})
	}
	return out
}
