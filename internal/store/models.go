package store

import "time"

// Source names where a track observation came from. It selects the
// source-specific bpm/key slot that UpsertTrack fills alongside the shared
// columns.
type Source string

const (
	// SourceTags marks values read from audio file tags (bpm_tag, key_tag).
	SourceTags Source = "tags"
	// SourceLibrary marks values from a library CSV export (bpm_serato, key_serato).
	SourceLibrary Source = "library"
	// SourceHistory marks values from a history CSV; it has no dedicated slot.
	SourceHistory Source = "history"
)

// Track is a row of the tracks table.
type Track struct {
	ID         int64
	Title      string
	Artist     string
	FilePath   string
	BPM        *float64
	Key        string
	BPMTag     *float64
	KeyTag     string
	BPMSerato  *float64
	KeySerato  string
	CrateNames string
	CreatedAt  time.Time
}

// TrackInput is one observation of a track handed to UpsertTrack.
type TrackInput struct {
	Title    string
	Artist   string
	FilePath string
	BPM      *float64
	Key      string
	Source   Source
}

// UpsertResult reports the stable track id and whether the row was new.
type UpsertResult struct {
	ID       int64
	Inserted bool
}

// TransitionInput describes one observed prev -> next edge.
type TransitionInput struct {
	PrevTrackID int64
	NextTrackID int64
	PlayedAt    string
	RunID       string
}

// Transition is a row of the transitions table.
type Transition struct {
	ID          int64
	PrevTrackID int64
	NextTrackID int64
	PlayedAt    string
	RunID       string
}

// RecentTransition is a transition joined with both endpoint tracks.
type RecentTransition struct {
	ID         int64
	PrevID     int64
	PrevTitle  string
	PrevArtist string
	NextID     int64
	NextTitle  string
	NextArtist string
	PlayedAt   string
}

// Counts summarizes table sizes.
type Counts struct {
	Tracks      int64
	Transitions int64
}

// RunKind classifies an import run.
type RunKind string

const (
	RunKindLibrary RunKind = "library"
	RunKindHistory RunKind = "history"
	RunKindScan    RunKind = "scan"
)

// RunStatus is the lifecycle state of an import run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunCounters are the summary numbers persisted with a run.
type RunCounters struct {
	Rows        int
	Valid       int
	Inserted    int
	Updated     int
	Skipped     int
	Transitions int
}

// Run is a row of the import_runs ledger.
type Run struct {
	ID         string
	Kind       RunKind
	Source     string
	Status     RunStatus
	StartedAt  time.Time
	FinishedAt *time.Time
	Counters   RunCounters
	Error      string
}
