package ingest

import (
	"context"

	"cratechef/internal/normalize"
	"cratechef/internal/store"
)

// TrackWriter is the subset of store writes the extractor needs. Both
// *store.Store and *store.Tx satisfy it.
type TrackWriter interface {
	UpsertTrack(ctx context.Context, in store.TrackInput) (store.UpsertResult, error)
	AddTransition(ctx context.Context, in store.TransitionInput) (int64, error)
}

// Extractor turns a sequence of accepted history rows into transitions.
// Only accepted rows reach Accept, so rejected rows neither advance nor reset
// the cursor.
type Extractor struct {
	w       TrackWriter
	runID   string
	prev    int64
	hasPrev bool
	count   int
}

// NewExtractor returns an Extractor writing through w and tagging each
// transition with runID.
func NewExtractor(w TrackWriter, runID string) *Extractor {
	return &Extractor{w: w, runID: runID}
}

// Accept upserts the track of rec and, when it differs from the previous
// accepted track, records prev -> current with rec's played_at. It reports
// the upsert result and whether a transition was written.
func (e *Extractor) Accept(ctx context.Context, rec normalize.Record) (store.UpsertResult, bool, error) {
	res, err := e.w.UpsertTrack(ctx, store.TrackInput{
		Title:  rec.Title,
		Artist: rec.Artist,
		BPM:    rec.BPM,
		Key:    rec.Key,
		Source: store.SourceHistory,
	})
	if err != nil {
		return store.UpsertResult{}, false, err
	}

	added := false
	if e.hasPrev && e.prev != res.ID {
		if _, err := e.w.AddTransition(ctx, store.TransitionInput{
			PrevTrackID: e.prev,
			NextTrackID: res.ID,
			PlayedAt:    rec.PlayedAt,
			RunID:       e.runID,
		}); err != nil {
			return res, false, err
		}
		e.count++
		added = true
	}
	e.prev = res.ID
	e.hasPrev = true
	return res, added, nil
}

// Transitions returns how many transitions have been written.
func (e *Extractor) Transitions() int {
	return e.count
}
