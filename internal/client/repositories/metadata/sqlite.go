package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/dbx"
)

const (
	getQuery    = `SELECT value FROM metadata WHERE key = ?`
	upsertQuery = `INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	deleteQuery = `DELETE FROM metadata WHERE key = ?`
	clearQuery  = `DELETE FROM metadata`
)

// SQLiteRepository stores client state in the metadata table of the local
// state database.
type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// Get returns (nil, nil) for an absent key.
func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, getQuery, key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("state read %q: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	if _, err := r.db.ExecContext(ctx, upsertQuery, key, value); err != nil {
		return fmt.Errorf("state write %q: %w", key, err)
	}
	return nil
}

// Delete is a no-op for an absent key.
func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, deleteQuery, key); err != nil {
		return fmt.Errorf("state delete %q: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, clearQuery); err != nil {
		return fmt.Errorf("state clear: %w", err)
	}
	return nil
}

// Flag reports whether key has been set with SetFlag.
func (r *SQLiteRepository) Flag(ctx context.Context, key string) (bool, error) {
	_, ok, err := r.FlaggedAt(ctx, key)
	return ok, err
}

// FlaggedAt returns when key was set with SetFlag. A value that is present
// but not a timestamp still counts as set, with a zero time.
func (r *SQLiteRepository) FlaggedAt(ctx context.Context, key string) (time.Time, bool, error) {
	v, err := r.Get(ctx, key)
	if err != nil || len(v) == 0 {
		return time.Time{}, false, err
	}
	at, err := time.Parse(time.RFC3339, string(v))
	if err != nil {
		return time.Time{}, true, nil
	}
	return at, true, nil
}

// SetFlag marks key as set, recording the current time.
func (r *SQLiteRepository) SetFlag(ctx context.Context, key string) error {
	return r.Set(ctx, key, []byte(r.now().UTC().Format(time.RFC3339)))
}
