package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cratechef/internal/ingest"
	"cratechef/internal/normalize"
	"cratechef/internal/store"
	"cratechef/internal/testsupport"
)

func newImporter(t *testing.T) (*ingest.Importer, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	return ingest.NewImporter(st, ingest.Options{SniffBytes: cfg.Import.SniffBytes}, nil), st
}

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	testsupport.WriteText(t, path, content)
	return path
}

func TestImportLibraryIsIdempotent(t *testing.T) {
	imp, st := newImporter(t)
	ctx := context.Background()
	path := writeCSV(t, "library.csv", "Title;Artist;BPM;Key\nXtal;Aphex Twin;98;5A\nPulsewidth;Aphex Twin;;\n;No Title;120;\nAgeispolis;Aphex Twin;fast;8A\n")

	first, err := imp.ImportLibrary(ctx, path)
	if err != nil {
		t.Fatalf("first ImportLibrary failed: %v", err)
	}
	if first.Delimiter != ';' {
		t.Fatalf("unexpected delimiter %q", first.Delimiter)
	}
	if first.Stats.Rows != 4 || first.Stats.Valid != 3 || first.Stats.Inserted != 3 || first.Stats.Updated != 0 {
		t.Fatalf("unexpected first stats: %+v", first.Stats)
	}
	if first.Stats.Skipped[normalize.SkipMissingTitle] != 1 {
		t.Fatalf("expected one missing_title skip, got %v", first.Stats.Skipped)
	}

	second, err := imp.ImportLibrary(ctx, path)
	if err != nil {
		t.Fatalf("second ImportLibrary failed: %v", err)
	}
	if second.Stats.Inserted != 0 || second.Stats.Updated != second.Stats.Valid {
		t.Fatalf("expected second run to only update, got %+v", second.Stats)
	}

	count, err := st.CountTracks(ctx)
	if err != nil {
		t.Fatalf("CountTracks failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 tracks, got %d", count)
	}

	track, err := st.FindTrack(ctx, "Xtal", "Aphex Twin")
	if err != nil {
		t.Fatalf("FindTrack failed: %v", err)
	}
	if track.BPMSerato == nil || *track.BPMSerato != 98 || track.KeySerato != "5A" {
		t.Fatalf("expected library slots filled, got %+v", track)
	}
	bad, err := st.FindTrack(ctx, "Ageispolis", "Aphex Twin")
	if err != nil {
		t.Fatalf("FindTrack failed: %v", err)
	}
	if bad.BPM != nil {
		t.Fatalf("expected unparseable bpm to be absent, got %v", *bad.BPM)
	}

	run, err := st.RunByID(ctx, second.RunID)
	if err != nil {
		t.Fatalf("RunByID failed: %v", err)
	}
	if run.Status != store.RunStatusCompleted || run.Counters.Updated != 3 || run.Kind != store.RunKindLibrary {
		t.Fatalf("unexpected run ledger entry: %+v", run)
	}
}

func TestImportLibraryMergesBPMMonotonically(t *testing.T) {
	imp, st := newImporter(t)
	ctx := context.Background()

	withBPM := writeCSV(t, "a.csv", "title,artist,bpm\nXtal,Aphex Twin,98\n")
	withoutBPM := writeCSV(t, "b.csv", "title,artist,bpm\nXtal,Aphex Twin,\n")
	otherBPM := writeCSV(t, "c.csv", "title,artist,bpm\nXtal,Aphex Twin,140\n")

	for _, path := range []string{withBPM, withoutBPM, otherBPM} {
		if _, err := imp.ImportLibrary(ctx, path); err != nil {
			t.Fatalf("ImportLibrary(%s) failed: %v", path, err)
		}
	}

	track, err := st.FindTrack(ctx, "Xtal", "Aphex Twin")
	if err != nil {
		t.Fatalf("FindTrack failed: %v", err)
	}
	if track.BPM == nil || *track.BPM != 98 {
		t.Fatalf("expected bpm to stay at first value 98, got %v", track.BPM)
	}
}

func TestImportLibrarySongPerformerTempo(t *testing.T) {
	imp, st := newImporter(t)
	ctx := context.Background()
	path := writeCSV(t, "export.csv", "Song,Performer,Tempo\nCan You Feel It,Mr. Fingers,120\n")

	report, err := imp.ImportLibrary(ctx, path)
	if err != nil {
		t.Fatalf("ImportLibrary failed: %v", err)
	}
	if report.Stats.Inserted != 1 {
		t.Fatalf("expected one insert, got %+v", report.Stats)
	}
	track, err := st.FindTrack(ctx, "Can You Feel It", "Mr. Fingers")
	if err != nil {
		t.Fatalf("FindTrack failed: %v", err)
	}
	if track.BPM == nil || *track.BPM != 120 {
		t.Fatalf("unexpected bpm: %v", track.BPM)
	}
}

func TestImportLibraryLinksCrates(t *testing.T) {
	imp, st := newImporter(t)
	ctx := context.Background()
	path := writeCSV(t, "crates.csv", "title\tartist\tcrate\nGypsy Woman\tCrystal Waters\tHouse, Warmup\nGypsy Woman\tCrystal Waters\tClassics\n")

	report, err := imp.ImportLibrary(ctx, path)
	if err != nil {
		t.Fatalf("ImportLibrary failed: %v", err)
	}
	if report.Stats.CrateLinks != 3 {
		t.Fatalf("expected 3 crate links, got %d", report.Stats.CrateLinks)
	}
	track, err := st.FindTrack(ctx, "Gypsy Woman", "Crystal Waters")
	if err != nil {
		t.Fatalf("FindTrack failed: %v", err)
	}
	if track.CrateNames != "Classics,House,Warmup" {
		t.Fatalf("unexpected crate names: %q", track.CrateNames)
	}
}

func TestImportHistoryCollapsesRepeats(t *testing.T) {
	imp, st := newImporter(t)
	ctx := context.Background()
	path := writeCSV(t, "history.csv", strings.Join([]string{
		"name,artist,start time",
		"A,Artist,22:00",
		"A,Artist,22:01",
		"B,Artist,22:05",
		"B,Artist,22:06",
		"B,Artist,22:07",
		"C,Artist,22:10",
	}, "\n")+"\n")

	report, err := imp.ImportHistory(ctx, path)
	if err != nil {
		t.Fatalf("ImportHistory failed: %v", err)
	}
	if report.Stats.Transitions != 2 || report.Stats.Valid != 6 || report.Stats.Inserted != 3 {
		t.Fatalf("unexpected stats: %+v", report.Stats)
	}

	got := transitionTitles(t, st, report.RunID)
	want := []string{"A->B@22:05", "B->C@22:10"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("transitions = %v, want %v", got, want)
	}
}

func TestImportHistoryRejectedRowsKeepCursor(t *testing.T) {
	imp, st := newImporter(t)
	ctx := context.Background()
	path := writeCSV(t, "history.csv", strings.Join([]string{
		"title,artist",
		"A,Artist",
		"Ghost,",
		"A,Artist",
		",Nobody",
		"B,Artist",
	}, "\n")+"\n")

	report, err := imp.ImportHistory(ctx, path)
	if err != nil {
		t.Fatalf("ImportHistory failed: %v", err)
	}
	if report.Stats.SkippedTotal() != 2 {
		t.Fatalf("expected 2 skipped rows, got %v", report.Stats.Skipped)
	}
	got := transitionTitles(t, st, report.RunID)
	if len(got) != 1 || got[0] != "A->B" {
		t.Fatalf("expected only A->B, got %v", got)
	}
}

func TestImportHistoryDistinctPairs(t *testing.T) {
	imp, st := newImporter(t)
	ctx := context.Background()

	const k = 7
	lines := []string{"title|artist"}
	for i := 0; i <= k; i++ {
		lines = append(lines, fmt.Sprintf("T%d|Artist", i))
	}
	path := writeCSV(t, "pairs.csv", strings.Join(lines, "\n")+"\n")

	report, err := imp.ImportHistory(ctx, path)
	if err != nil {
		t.Fatalf("ImportHistory failed: %v", err)
	}
	got := transitionTitles(t, st, report.RunID)
	if len(got) != k {
		t.Fatalf("expected %d transitions, got %d", k, len(got))
	}
	for i, edge := range got {
		if want := fmt.Sprintf("T%d->T%d", i, i+1); edge != want {
			t.Fatalf("transition %d = %s, want %s", i, edge, want)
		}
	}
}

func TestImportMissingFile(t *testing.T) {
	imp, st := newImporter(t)
	ctx := context.Background()

	_, err := imp.ImportHistory(ctx, filepath.Join(t.TempDir(), "missing.csv"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	runs, err := st.RecentRuns(ctx, 5)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected no run to be recorded, got %+v", runs)
	}
}

func TestImportCanceledContextWritesNothing(t *testing.T) {
	imp, st := newImporter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := writeCSV(t, "history.csv", "title,artist\nA,Artist\nB,Artist\n")
	if _, err := imp.ImportHistory(ctx, path); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	count, err := st.CountTracks(context.Background())
	if err != nil {
		t.Fatalf("CountTracks failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback to leave no tracks, got %d", count)
	}
}

func transitionTitles(t *testing.T, st *store.Store, runID string) []string {
	t.Helper()
	ctx := context.Background()
	transitions, err := st.ListTransitions(ctx, runID)
	if err != nil {
		t.Fatalf("ListTransitions failed: %v", err)
	}
	var out []string
	for _, tr := range transitions {
		prev, err := st.TrackByID(ctx, tr.PrevTrackID)
		if err != nil {
			t.Fatalf("TrackByID failed: %v", err)
		}
		next, err := st.TrackByID(ctx, tr.NextTrackID)
		if err != nil {
			t.Fatalf("TrackByID failed: %v", err)
		}
		edge := prev.Title + "->" + next.Title
		if tr.PlayedAt != "" {
			edge += "@" + tr.PlayedAt
		}
		out = append(out, edge)
	}
	return out
}
