package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// querier is satisfied by both *sql.DB and *sql.Tx so every statement is
// written once and shared by Store and Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Tx is a transaction handle exposing the write operations of a run.
type Tx struct {
	tx *sql.Tx
}

// WithTx runs fn inside a transaction. The transaction commits when fn returns
// nil and rolls back on error or panic.
//
// The store uses a single connection, so fn must not call Store methods.
func (s *Store) WithTx(ctx context.Context, fn func(*Tx) error) (err error) {
	if fn == nil {
		return errors.New("with tx: nil func")
	}
	ctx = ensureContext(ctx)

	var sqlTx *sql.Tx
	if beginErr := retryOnBusy(ctx, func() error {
		var e error
		sqlTx, e = s.db.BeginTx(ctx, nil)
		return e
	}); beginErr != nil {
		return fmt.Errorf("begin tx: %w", beginErr)
	}

	committed := false
	defer func() {
		if !committed {
			_ = sqlTx.Rollback()
		}
	}()

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

// UpsertTrack is the transactional form of Store.UpsertTrack.
func (t *Tx) UpsertTrack(ctx context.Context, in TrackInput) (UpsertResult, error) {
	return upsertTrack(ensureContext(ctx), t.tx, in)
}

// LinkCrate is the transactional form of Store.LinkCrate.
func (t *Tx) LinkCrate(ctx context.Context, trackID int64, name string) error {
	return linkCrate(ensureContext(ctx), t.tx, trackID, name)
}

// AddTransition is the transactional form of Store.AddTransition.
func (t *Tx) AddTransition(ctx context.Context, in TransitionInput) (int64, error) {
	return addTransition(ensureContext(ctx), t.tx, in)
}
