package runcounter

import (
	"context"
	"database/sql"
	"errors"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS run_counter (
	scout TEXT PRIMARY KEY,
	value INTEGER NOT NULL
)`

// SQLite keeps run numbers for any number of scouts in one table.
type SQLite struct {
	db    *sql.DB
	scout string
}

// OpenSQLite opens (and if needed creates) the database at path.
func OpenSQLite(ctx context.Context, path, scout string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, PersistenceError{Op: "open", Err: err}
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, PersistenceError{Op: "open", Err: err}
	}
	return &SQLite{db: db, scout: scout}, nil
}

func (s *SQLite) Load(ctx context.Context) (uint64, error) {
	var value int64
	err := s.db.QueryRowContext(ctx, `SELECT value FROM run_counter WHERE scout = ?`, s.scout).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, PersistenceError{Op: "load", Err: err}
	}
	return uint64(value), nil
}

func (s *SQLite) Save(ctx context.Context, value uint64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_counter (scout, value) VALUES (?, ?)
		ON CONFLICT(scout) DO UPDATE SET value = excluded.value`,
		s.scout, int64(value),
	)
	if err != nil {
		return PersistenceError{Op: "save", Err: err}
	}
	return nil
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
