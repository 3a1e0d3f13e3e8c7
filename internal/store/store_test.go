package store_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"cratechef/internal/store"
	"cratechef/internal/testsupport"
)

func floatp(v float64) *float64 { return &v }

func TestOpenCreatesSchemaAndIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	report, err := st.EnsureSchema(ctx)
	if err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	if report.Changed() {
		t.Fatalf("expected second EnsureSchema to be a no-op, got %+v", report)
	}

	counts, err := st.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if counts.Tracks != 0 || counts.Transitions != 0 {
		t.Fatalf("expected empty store, got %+v", counts)
	}
}

func TestEnsureSchemaUpgradesLegacyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")
	legacy, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open legacy db: %v", err)
	}
	stmts := []string{
		`CREATE TABLE tracks (id INTEGER PRIMARY KEY, title TEXT NOT NULL, artist TEXT NOT NULL, bpm REAL, key_text TEXT)`,
		`INSERT INTO tracks (title, artist, bpm, key_text) VALUES ('Strings of Life', 'Rhythim Is Rhythim', 120.5, '8A')`,
	}
	for _, stmt := range stmts {
		if _, err := legacy.Exec(stmt); err != nil {
			t.Fatalf("seed legacy db: %v", err)
		}
	}
	if err := legacy.Close(); err != nil {
		t.Fatalf("close legacy db: %v", err)
	}

	st, err := store.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	track, err := st.FindTrack(ctx, "Strings of Life", "Rhythim Is Rhythim")
	if err != nil {
		t.Fatalf("FindTrack failed: %v", err)
	}
	if track.BPM == nil || *track.BPM != 120.5 || track.Key != "8A" {
		t.Fatalf("legacy data lost: %+v", track)
	}

	res, err := st.UpsertTrack(ctx, store.TrackInput{
		Title:    "Strings of Life",
		Artist:   "Rhythim Is Rhythim",
		FilePath: "/music/strings.mp3",
		BPM:      floatp(121),
		Source:   store.SourceTags,
	})
	if err != nil {
		t.Fatalf("UpsertTrack on upgraded store failed: %v", err)
	}
	if res.Inserted || res.ID != track.ID {
		t.Fatalf("expected merge into legacy row %d, got %+v", track.ID, res)
	}

	merged, err := st.TrackByID(ctx, track.ID)
	if err != nil {
		t.Fatalf("TrackByID failed: %v", err)
	}
	if merged.FilePath != "/music/strings.mp3" {
		t.Fatalf("expected file path to be filled, got %q", merged.FilePath)
	}
	if *merged.BPM != 120.5 {
		t.Fatalf("expected legacy bpm to win, got %v", *merged.BPM)
	}
	if merged.BPMTag == nil || *merged.BPMTag != 121 {
		t.Fatalf("expected tag bpm slot to be filled, got %v", merged.BPMTag)
	}

	report, err := st.EnsureSchema(ctx)
	if err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	if report.Changed() {
		t.Fatalf("expected upgraded store to be current, got %+v", report)
	}
}

func TestUpsertTrackFirstWriteWins(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first, err := st.UpsertTrack(ctx, store.TrackInput{Title: " Xtal ", Artist: "Aphex Twin"})
	if err != nil {
		t.Fatalf("UpsertTrack failed: %v", err)
	}
	if !first.Inserted {
		t.Fatal("expected first upsert to insert")
	}

	steps := []store.TrackInput{
		{Title: "Xtal", Artist: "Aphex Twin", BPM: floatp(98), Key: "5A", Source: store.SourceLibrary},
		{Title: "Xtal", Artist: "Aphex Twin", BPM: floatp(140), Key: "1B", Source: store.SourceLibrary},
		{Title: "Xtal", Artist: "Aphex Twin"},
	}
	for i, in := range steps {
		res, err := st.UpsertTrack(ctx, in)
		if err != nil {
			t.Fatalf("step %d: UpsertTrack failed: %v", i, err)
		}
		if res.Inserted || res.ID != first.ID {
			t.Fatalf("step %d: expected merge into %d, got %+v", i, first.ID, res)
		}
	}

	track, err := st.TrackByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("TrackByID failed: %v", err)
	}
	if track.Title != "Xtal" {
		t.Fatalf("expected trimmed title, got %q", track.Title)
	}
	if track.BPM == nil || *track.BPM != 98 || track.Key != "5A" {
		t.Fatalf("expected first non-empty bpm/key to win, got bpm=%v key=%q", track.BPM, track.Key)
	}
	if track.BPMSerato == nil || *track.BPMSerato != 98 || track.KeySerato != "5A" {
		t.Fatalf("expected library slot to hold first values, got %v %q", track.BPMSerato, track.KeySerato)
	}
	if track.BPMTag != nil || track.KeyTag != "" {
		t.Fatalf("expected tag slot untouched, got %v %q", track.BPMTag, track.KeyTag)
	}

	count, err := st.CountTracks(ctx)
	if err != nil {
		t.Fatalf("CountTracks failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one track, got %d", count)
	}
}

func TestUpsertTrackIsCaseSensitive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	a := testsupport.UpsertTrack(t, st, "Windowlicker", "Aphex Twin")
	b := testsupport.UpsertTrack(t, st, "windowlicker", "Aphex Twin")
	if a == b {
		t.Fatalf("expected case-distinct titles to be distinct tracks, both got %d", a)
	}
}

func TestUpsertTrackRejectsMissingIdentity(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	cases := []store.TrackInput{
		{Title: "", Artist: "Someone"},
		{Title: "Something", Artist: "   "},
	}
	for _, in := range cases {
		if _, err := st.UpsertTrack(ctx, in); !errors.Is(err, store.ErrInvalidTrack) {
			t.Fatalf("expected ErrInvalidTrack for %+v, got %v", in, err)
		}
	}
}

func TestUpsertTrackIgnoresNonPositiveBPM(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	res, err := st.UpsertTrack(ctx, store.TrackInput{Title: "Zero", Artist: "Tempo", BPM: floatp(0)})
	if err != nil {
		t.Fatalf("UpsertTrack failed: %v", err)
	}
	track, err := st.TrackByID(ctx, res.ID)
	if err != nil {
		t.Fatalf("TrackByID failed: %v", err)
	}
	if track.BPM != nil {
		t.Fatalf("expected bpm to stay empty, got %v", *track.BPM)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	boom := errors.New("boom")
	err := st.WithTx(ctx, func(tx *store.Tx) error {
		if _, err := tx.UpsertTrack(ctx, store.TrackInput{Title: "Lost", Artist: "Rollback"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := st.FindTrack(ctx, "Lost", "Rollback"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected rolled back track to be absent, got %v", err)
	}
}

func TestRecentTransitionsOrderAndClamp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 4; i++ {
		ids = append(ids, testsupport.UpsertTrack(t, st, fmt.Sprintf("Track %d", i), "Artist"))
	}
	err := st.WithTx(ctx, func(tx *store.Tx) error {
		for i := 1; i < len(ids); i++ {
			if _, err := tx.AddTransition(ctx, store.TransitionInput{
				PrevTrackID: ids[i-1],
				NextTrackID: ids[i],
				PlayedAt:    fmt.Sprintf("22:0%d", i),
				RunID:       "run-a",
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}

	recent, err := st.RecentTransitions(ctx, 2)
	if err != nil {
		t.Fatalf("RecentTransitions failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(recent))
	}
	if recent[0].PrevTitle != "Track 2" || recent[0].NextTitle != "Track 3" || recent[0].PlayedAt != "22:03" {
		t.Fatalf("unexpected newest transition: %+v", recent[0])
	}
	if recent[1].NextTitle != "Track 2" {
		t.Fatalf("unexpected second transition: %+v", recent[1])
	}

	clampedLow, err := st.RecentTransitions(ctx, 0)
	if err != nil {
		t.Fatalf("RecentTransitions(0) failed: %v", err)
	}
	if len(clampedLow) != 1 {
		t.Fatalf("expected limit 0 to clamp to 1, got %d rows", len(clampedLow))
	}

	for _, tc := range []struct{ in, want int }{{-5, 1}, {0, 1}, {10, 10}, {100, 100}, {1000, 100}} {
		if got := store.ClampRecentLimit(tc.in); got != tc.want {
			t.Fatalf("ClampRecentLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}

	listed, err := st.ListTransitions(ctx, "run-a")
	if err != nil {
		t.Fatalf("ListTransitions failed: %v", err)
	}
	if len(listed) != 3 || listed[0].PrevTrackID != ids[0] || listed[2].NextTrackID != ids[3] {
		t.Fatalf("unexpected run transitions: %+v", listed)
	}
}

func TestLinkCrateRefreshesCrateNames(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	id := testsupport.UpsertTrack(t, st, "Gypsy Woman", "Crystal Waters")
	for _, name := range []string{"Warmup", "House", "Warmup", "  "} {
		if err := st.LinkCrate(ctx, id, name); err != nil {
			t.Fatalf("LinkCrate(%q) failed: %v", name, err)
		}
	}

	names, err := st.CrateNames(ctx, id)
	if err != nil {
		t.Fatalf("CrateNames failed: %v", err)
	}
	if len(names) != 2 || names[0] != "House" || names[1] != "Warmup" {
		t.Fatalf("unexpected crates: %v", names)
	}
	track, err := st.TrackByID(ctx, id)
	if err != nil {
		t.Fatalf("TrackByID failed: %v", err)
	}
	if track.CrateNames != "House,Warmup" {
		t.Fatalf("unexpected crate_names cache: %q", track.CrateNames)
	}
}

func TestRunLedger(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run, err := st.BeginRun(ctx, store.RunKindHistory, "/tmp/history.csv")
	if err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}
	if run.ID == "" || run.Status != store.RunStatusRunning {
		t.Fatalf("unexpected new run: %+v", run)
	}

	loaded, err := st.RunByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("RunByID failed: %v", err)
	}
	if loaded.Status != store.RunStatusRunning || loaded.FinishedAt != nil {
		t.Fatalf("expected running run, got %+v", loaded)
	}

	counters := store.RunCounters{Rows: 6, Valid: 5, Inserted: 3, Updated: 2, Skipped: 1, Transitions: 2}
	if err := st.FinishRun(ctx, run, counters, nil); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}
	loaded, err = st.RunByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("RunByID failed: %v", err)
	}
	if loaded.Status != store.RunStatusCompleted || loaded.FinishedAt == nil || loaded.Counters != counters {
		t.Fatalf("unexpected finished run: %+v", loaded)
	}

	failed, err := st.BeginRun(ctx, store.RunKindScan, "/music")
	if err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}
	if err := st.FinishRun(ctx, failed, store.RunCounters{}, errors.New("disk gone")); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	runs, err := st.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != failed.ID || runs[0].Status != store.RunStatusFailed || runs[0].Error != "disk gone" {
		t.Fatalf("unexpected recent runs: %+v", runs)
	}

	if _, err := st.RunByID(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenWriterIsExclusive(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	first, err := store.OpenWriter(cfg)
	if err != nil {
		t.Fatalf("OpenWriter failed: %v", err)
	}

	if _, err := store.OpenWriter(cfg); !errors.Is(err, store.ErrStoreLocked) {
		t.Fatalf("expected ErrStoreLocked, got %v", err)
	}

	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second, err := store.OpenWriter(cfg)
	if err != nil {
		t.Fatalf("OpenWriter after release failed: %v", err)
	}
	_ = second.Close()
}
