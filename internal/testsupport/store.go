package testsupport

import (
	"context"
	"testing"

	"cratechef/internal/config"
	"cratechef/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// UpsertTrack inserts or merges a track for tests and returns its id.
func UpsertTrack(t testing.TB, st *store.Store, title, artist string) int64 {
	t.Helper()

	res, err := st.UpsertTrack(context.Background(), store.TrackInput{Title: title, Artist: artist})
	if err != nil {
		t.Fatalf("store.UpsertTrack: %v", err)
	}
	return res.ID
}
