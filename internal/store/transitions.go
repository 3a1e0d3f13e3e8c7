package store

import (
	"context"
	"database/sql"
	"fmt"
)

// MaxRecentLimit caps RecentTransitions.
const MaxRecentLimit = 100

// ClampRecentLimit bounds limit to [1, MaxRecentLimit].
func ClampRecentLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}
	return limit
}

// AddTransition appends a prev -> next edge and returns its id.
func (s *Store) AddTransition(ctx context.Context, in TransitionInput) (int64, error) {
	ctx = ensureContext(ctx)
	var id int64
	err := retryOnBusy(ctx, func() error {
		var e error
		id, e = addTransition(ctx, s.db, in)
		return e
	})
	return id, err
}

func addTransition(ctx context.Context, q querier, in TransitionInput) (int64, error) {
	res, err := q.ExecContext(ctx,
		"INSERT INTO transitions (prev_track_id, next_track_id, played_at, run_id) VALUES (?, ?, ?, ?)",
		in.PrevTrackID, in.NextTrackID, nullableString(in.PlayedAt), nullableString(in.RunID),
	)
	if err != nil {
		return 0, fmt.Errorf("insert transition: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// CountTransitions returns the number of stored transitions.
func (s *Store) CountTransitions(ctx context.Context) (int64, error) {
	return s.count(ctx, "transitions")
}

// Counts returns track and transition totals.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	tracks, err := s.CountTracks(ctx)
	if err != nil {
		return Counts{}, err
	}
	transitions, err := s.CountTransitions(ctx)
	if err != nil {
		return Counts{}, err
	}
	return Counts{Tracks: tracks, Transitions: transitions}, nil
}

// RecentTransitions returns up to limit transitions, newest (highest id)
// first. limit is clamped with ClampRecentLimit.
func (s *Store) RecentTransitions(ctx context.Context, limit int) ([]RecentTransition, error) {
	ctx = ensureContext(ctx)
	limit = ClampRecentLimit(limit)

	var out []RecentTransition
	err := retryOnBusy(ctx, func() error {
		out = out[:0]
		rows, err := s.db.QueryContext(ctx,
			`SELECT tr.id, p.id, p.title, p.artist, n.id, n.title, n.artist, tr.played_at
             FROM transitions tr
             JOIN tracks p ON p.id = tr.prev_track_id
             JOIN tracks n ON n.id = tr.next_track_id
             ORDER BY tr.id DESC
             LIMIT ?`,
			limit,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				rt       RecentTransition
				playedAt sql.NullString
			)
			if err := rows.Scan(&rt.ID, &rt.PrevID, &rt.PrevTitle, &rt.PrevArtist, &rt.NextID, &rt.NextTitle, &rt.NextArtist, &playedAt); err != nil {
				return err
			}
			rt.PlayedAt = playedAt.String
			out = append(out, rt)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("recent transitions: %w", err)
	}
	return out, nil
}

// ListTransitions returns transitions in insertion order. A non-empty runID
// restricts the result to that run.
func (s *Store) ListTransitions(ctx context.Context, runID string) ([]Transition, error) {
	ctx = ensureContext(ctx)
	query := "SELECT id, prev_track_id, next_track_id, played_at, run_id FROM transitions"
	var args []any
	if runID != "" {
		query += " WHERE run_id = ?"
		args = append(args, runID)
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var (
			tr       Transition
			playedAt sql.NullString
			run      sql.NullString
		)
		if err := rows.Scan(&tr.ID, &tr.PrevTrackID, &tr.NextTrackID, &playedAt, &run); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		tr.PlayedAt = playedAt.String
		tr.RunID = run.String
		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}
	return out, nil
}
