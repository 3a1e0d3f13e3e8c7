package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const trackColumns = "id, title, artist, file_path, bpm, key_text, bpm_tag, key_tag, bpm_serato, key_serato, crate_names, created_at"

// UpsertTrack inserts the track if (title, artist) is new, otherwise merges
// the observation into the existing row. Each field is written only while the
// stored value is still empty, so the first non-empty value wins and a later
// empty observation never clears it.
func (s *Store) UpsertTrack(ctx context.Context, in TrackInput) (UpsertResult, error) {
	ctx = ensureContext(ctx)
	var result UpsertResult
	err := retryOnBusy(ctx, func() error {
		var e error
		result, e = upsertTrack(ctx, s.db, in)
		return e
	})
	return result, err
}

func upsertTrack(ctx context.Context, q querier, in TrackInput) (UpsertResult, error) {
	title := strings.TrimSpace(in.Title)
	artist := strings.TrimSpace(in.Artist)
	if title == "" || artist == "" {
		return UpsertResult{}, ErrInvalidTrack
	}

	filePath := nullableString(strings.TrimSpace(in.FilePath))
	bpm := nullableBPM(in.BPM)
	key := nullableString(strings.TrimSpace(in.Key))

	var bpmTag, keyTag, bpmSerato, keySerato any
	switch in.Source {
	case SourceTags:
		bpmTag, keyTag = bpm, key
	case SourceLibrary:
		bpmSerato, keySerato = bpm, key
	}

	res, err := q.ExecContext(ctx,
		`INSERT INTO tracks (title, artist, file_path, bpm, key_text, bpm_tag, key_tag, bpm_serato, key_serato)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(title, artist) DO NOTHING`,
		title, artist, filePath, bpm, key, bpmTag, keyTag, bpmSerato, keySerato,
	)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("insert track: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return UpsertResult{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return UpsertResult{}, fmt.Errorf("last insert id: %w", err)
		}
		return UpsertResult{ID: id, Inserted: true}, nil
	}

	var id int64
	err = q.QueryRowContext(ctx,
		`UPDATE tracks SET
             file_path = COALESCE(NULLIF(file_path, ''), ?),
             bpm = COALESCE(bpm, ?),
             key_text = COALESCE(NULLIF(key_text, ''), ?),
             bpm_tag = COALESCE(bpm_tag, ?),
             key_tag = COALESCE(NULLIF(key_tag, ''), ?),
             bpm_serato = COALESCE(bpm_serato, ?),
             key_serato = COALESCE(NULLIF(key_serato, ''), ?)
         WHERE title = ? AND artist = ?
         RETURNING id`,
		filePath, bpm, key, bpmTag, keyTag, bpmSerato, keySerato, title, artist,
	).Scan(&id)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("merge track: %w", err)
	}
	return UpsertResult{ID: id, Inserted: false}, nil
}

// TrackByID loads a track by id. It returns ErrNotFound when no row matches.
func (s *Store) TrackByID(ctx context.Context, id int64) (*Track, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+trackColumns+" FROM tracks WHERE id = ?", id)
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load track %d: %w", id, err)
	}
	return track, nil
}

// FindTrack looks a track up by its trimmed (title, artist) identity.
func (s *Store) FindTrack(ctx context.Context, title, artist string) (*Track, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+trackColumns+" FROM tracks WHERE title = ? AND artist = ?",
		strings.TrimSpace(title), strings.TrimSpace(artist),
	)
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find track: %w", err)
	}
	return track, nil
}

// CountTracks returns the number of stored tracks.
func (s *Store) CountTracks(ctx context.Context) (int64, error) {
	return s.count(ctx, "tracks")
}

// LinkCrate adds the track to the named crate, creating the crate on first
// use, and refreshes the track's crate_names cache. Blank names are ignored.
func (s *Store) LinkCrate(ctx context.Context, trackID int64, name string) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		return linkCrate(ctx, s.db, trackID, name)
	})
}

func linkCrate(ctx context.Context, q querier, trackID int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if _, err := q.ExecContext(ctx, "INSERT INTO crates (name) VALUES (?) ON CONFLICT(name) DO NOTHING", name); err != nil {
		return fmt.Errorf("insert crate: %w", err)
	}
	var crateID int64
	if err := q.QueryRowContext(ctx, "SELECT id FROM crates WHERE name = ?", name).Scan(&crateID); err != nil {
		return fmt.Errorf("load crate id: %w", err)
	}
	if _, err := q.ExecContext(ctx,
		"INSERT INTO track_crates (track_id, crate_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		trackID, crateID,
	); err != nil {
		return fmt.Errorf("link track crate: %w", err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT c.name FROM crates c
         JOIN track_crates tc ON tc.crate_id = c.id
         WHERE tc.track_id = ?
         ORDER BY c.name`,
		trackID,
	)
	if err != nil {
		return fmt.Errorf("list track crates: %w", err)
	}
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			rows.Close()
			return fmt.Errorf("scan crate name: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate track crates: %w", err)
	}
	rows.Close()

	if _, err := q.ExecContext(ctx,
		"UPDATE tracks SET crate_names = ? WHERE id = ?",
		strings.Join(names, ","), trackID,
	); err != nil {
		return fmt.Errorf("refresh crate names: %w", err)
	}
	return nil
}

// CrateNames returns the crates a track belongs to, sorted by name.
func (s *Store) CrateNames(ctx context.Context, trackID int64) ([]string, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.name FROM crates c
         JOIN track_crates tc ON tc.crate_id = c.id
         WHERE tc.track_id = ?
         ORDER BY c.name`,
		trackID,
	)
	if err != nil {
		return nil, fmt.Errorf("list track crates: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan crate name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (s *Store) count(ctx context.Context, table string) (int64, error) {
	ctx = ensureContext(ctx)
	var n int64
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM "+table).Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
