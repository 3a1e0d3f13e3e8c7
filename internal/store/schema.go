package store

import (
	"context"
	"database/sql"
	"fmt"
)

type columnSpec struct {
	name       string
	definition string
}

// Extension columns added to stores created before they existed. ALTER TABLE
// ADD COLUMN cannot carry a non-constant default, so created_at is bare here.
var extensionColumns = map[string][]columnSpec{
	"tracks": {
		{"file_path", "TEXT"},
		{"bpm", "REAL"},
		{"key_text", "TEXT"},
		{"serato_key", "TEXT"},
		{"created_at", "TEXT"},
		{"bpm_serato", "REAL"},
		{"key_serato", "TEXT"},
		{"bpm_tag", "REAL"},
		{"key_tag", "TEXT"},
		{"crate_names", "TEXT"},
	},
	"transitions": {
		{"played_at", "TEXT"},
		{"run_id", "TEXT"},
	},
}

// Table order for extensionColumns; map iteration order is random.
var extensionTables = []string{"tracks", "transitions"}

type indexSpec struct {
	name string
	sql  string
}

var requiredIndexes = []indexSpec{
	{"idx_tracks_ta", "CREATE UNIQUE INDEX IF NOT EXISTS idx_tracks_ta ON tracks(title, artist)"},
	{"idx_tracks_file_path", "CREATE INDEX IF NOT EXISTS idx_tracks_file_path ON tracks(file_path)"},
	{"idx_transitions_prev", "CREATE INDEX IF NOT EXISTS idx_transitions_prev ON transitions(prev_track_id)"},
}

// SchemaReport lists what EnsureSchema changed. All fields are empty when the
// store was already current.
type SchemaReport struct {
	Migrations []string
	Columns    []string
	Indexes    []string
}

// Changed reports whether EnsureSchema modified the store.
func (r SchemaReport) Changed() bool {
	return len(r.Migrations) > 0 || len(r.Columns) > 0 || len(r.Indexes) > 0
}

// EnsureSchema brings the store up to date in a single transaction. It is
// idempotent and only ever adds tables, columns, and indexes.
func (s *Store) EnsureSchema(ctx context.Context) (SchemaReport, error) {
	ctx = ensureContext(ctx)
	var report SchemaReport

	err := retryOnBusy(ctx, func() error {
		report = SchemaReport{}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin schema tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if report.Migrations, err = applyMigrations(ctx, tx); err != nil {
			return err
		}
		if report.Columns, err = ensureColumns(ctx, tx); err != nil {
			return err
		}
		if report.Indexes, err = ensureIndexes(ctx, tx); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit schema: %w", err)
		}
		return nil
	})
	if err != nil {
		return SchemaReport{}, err
	}
	return report, nil
}

func ensureColumns(ctx context.Context, tx *sql.Tx) ([]string, error) {
	var added []string
	for _, table := range extensionTables {
		existing, err := tableColumns(ctx, tx, table)
		if err != nil {
			return nil, err
		}
		for _, col := range extensionColumns[table] {
			if _, ok := existing[col.name]; ok {
				continue
			}
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, col.name, col.definition)
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return nil, fmt.Errorf("add column %s.%s: %w", table, col.name, err)
			}
			added = append(added, table+"."+col.name)
		}
	}
	return added, nil
}

func tableColumns(ctx context.Context, tx *sql.Tx, table string) (map[string]struct{}, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("inspect table %s: %w", table, err)
	}
	defer rows.Close()

	columns := make(map[string]struct{})
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan table info %s: %w", table, err)
		}
		columns[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table info %s: %w", table, err)
	}
	return columns, nil
}

func ensureIndexes(ctx context.Context, tx *sql.Tx) ([]string, error) {
	rows, err := tx.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'index'")
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	have := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan index name: %w", err)
		}
		have[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate indexes: %w", err)
	}
	rows.Close()

	var created []string
	for _, idx := range requiredIndexes {
		if _, ok := have[idx.name]; ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, idx.sql); err != nil {
			// A legacy store holding duplicate (title, artist) rows lands here.
			return nil, fmt.Errorf("create index %s: %w", idx.name, err)
		}
		created = append(created, idx.name)
	}
	return created, nil
}
