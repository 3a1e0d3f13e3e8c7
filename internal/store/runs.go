package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const runColumns = "id, kind, source, status, started_at, finished_at, rows_read, valid, inserted, updated, skipped, transitions, error_message"

// BeginRun records a new run in the running state. It is written outside the
// run's transaction, so an interrupted run stays visible as running.
func (s *Store) BeginRun(ctx context.Context, kind RunKind, source string) (*Run, error) {
	ctx = ensureContext(ctx)
	run := &Run{
		ID:        uuid.NewString(),
		Kind:      kind,
		Source:    source,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO import_runs (id, kind, source, status, started_at) VALUES (?, ?, ?, ?, ?)",
			run.ID, string(run.Kind), nullableString(run.Source), string(run.Status), nullableTime(&run.StartedAt),
		)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}
	return run, nil
}

// FinishRun stores the final counters and marks the run completed, or failed
// when runErr is non-nil.
func (s *Store) FinishRun(ctx context.Context, run *Run, counters RunCounters, runErr error) error {
	if run == nil {
		return errors.New("finish run: nil run")
	}
	ctx = ensureContext(ctx)

	now := time.Now().UTC()
	run.FinishedAt = &now
	run.Counters = counters
	run.Status = RunStatusCompleted
	run.Error = ""
	if runErr != nil {
		run.Status = RunStatusFailed
		run.Error = runErr.Error()
	}

	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`UPDATE import_runs SET
                 status = ?, finished_at = ?, rows_read = ?, valid = ?, inserted = ?,
                 updated = ?, skipped = ?, transitions = ?, error_message = ?
             WHERE id = ?`,
			string(run.Status), nullableTime(run.FinishedAt),
			counters.Rows, counters.Valid, counters.Inserted,
			counters.Updated, counters.Skipped, counters.Transitions,
			nullableString(run.Error), run.ID,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RunByID loads a run from the ledger.
func (s *Store) RunByID(ctx context.Context, id string) (*Run, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM import_runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	return run, nil
}

// RecentRuns returns up to limit runs, most recently started first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	if limit < 1 {
		limit = 1
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM import_runs ORDER BY started_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		kind        string
		source      sql.NullString
		status      string
		startedRaw  string
		finishedRaw sql.NullString
		errMsg      sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&kind,
		&source,
		&status,
		&startedRaw,
		&finishedRaw,
		&run.Counters.Rows,
		&run.Counters.Valid,
		&run.Counters.Inserted,
		&run.Counters.Updated,
		&run.Counters.Skipped,
		&run.Counters.Transitions,
		&errMsg,
	); err != nil {
		return nil, err
	}
	run.Kind = RunKind(kind)
	run.Source = source.String
	run.Status = RunStatus(status)
	run.Error = errMsg.String
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return &run, nil
}
