package audiotag_test

import (
	"path/filepath"
	"testing"

	"cratechef/internal/audiotag"
	"cratechef/internal/normalize"
	"cratechef/internal/testsupport"
)

func TestReadTagsID3v23(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acid.mp3")
	testsupport.WriteID3v23(t, path, map[string]string{
		"TIT2": "Acid Tracks",
		"TPE1": "Phuture",
		"TBPM": "124",
		"TKEY": "Fm",
	}, 2048)

	res := audiotag.New().ReadTags(path)
	if !res.OK() {
		t.Fatalf("expected record, got skip %q", res.Skip)
	}
	if res.Record.Title != "Acid Tracks" || res.Record.Artist != "Phuture" {
		t.Fatalf("unexpected identity: %+v", res.Record)
	}
	if res.Record.BPM == nil || *res.Record.BPM != 124 {
		t.Fatalf("unexpected bpm: %v", res.Record.BPM)
	}
	if res.Record.Key != "Fm" {
		t.Fatalf("unexpected key: %q", res.Record.Key)
	}
}

func TestReadTagsMissingArtist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "untitled.mp3")
	testsupport.WriteID3v23(t, path, map[string]string{"TIT2": "Untitled"}, 2048)

	res := audiotag.New().ReadTags(path)
	if res.Skip != normalize.SkipMissingArtist {
		t.Fatalf("expected missing_artist, got %q", res.Skip)
	}
}

func TestReadTagsUnreadable(t *testing.T) {
	dir := t.TempDir()
	notAudio := filepath.Join(dir, "notes.mp3")
	testsupport.WriteText(t, notAudio, "this is not an audio file at all, just text padding out the header")

	reader := audiotag.New()
	for _, path := range []string{notAudio, filepath.Join(dir, "missing.mp3")} {
		if res := reader.ReadTags(path); res.Skip != normalize.SkipUnreadable {
			t.Fatalf("expected unreadable for %s, got %+v", path, res)
		}
	}
}
