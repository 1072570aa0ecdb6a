package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS conversions (
	key     TEXT PRIMARY KEY,
	svg     TEXT NOT NULL,
	mathml  TEXT NOT NULL,
	created INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
)`

// SQLite persists entries in a single table, so a cache survives restarts
// and can be shared by processes on the same host.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// One connection serializes writers and keeps ":memory:" databases
	// shared.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, key Key) (Entry, bool, error) {
	var e Entry
	err := s.db.QueryRowContext(ctx, `SELECT svg, mathml FROM conversions WHERE key = ?`, key.String()).Scan(&e.SVG, &e.MathML)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache lookup: %w", err)
	}
	return e, true, nil
}

func (s *SQLite) Put(ctx context.Context, key Key, entry Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions (key, svg, mathml) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET svg = excluded.svg, mathml = excluded.mathml`,
		key.String(), entry.SVG, entry.MathML)
	if err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error { return s.db.Close() }
