package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS client_session (
	id    INTEGER PRIMARY KEY CHECK (id = 1),
	token TEXT    NOT NULL,
	user  BLOB    NOT NULL
);
`

// SQLite is a [Store] backed by a single-row table in a SQLite database,
// for embedders (kiosks, daemons) that already carry a local database and
// prefer it over a loose state file.
type SQLite struct {
	db  *sql.DB
	own bool
}

// NewSQLite opens (or creates) the database at path and ensures the schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	s := &SQLite{db: db, own: true}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteDB wraps an existing database handle. The caller keeps ownership
// of the handle; Close becomes a no-op.
func NewSQLiteDB(db *sql.DB) (*SQLite, error) {
	s := &SQLite{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLite) ensureSchema() error {
	if _, err := s.db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("ensure session schema: %w", err)
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context) (Snapshot, bool, error) {
	var snap Snapshot
	row := s.db.QueryRowContext(ctx, `SELECT token, user FROM client_session WHERE id = 1`)
	err := row.Scan(&snap.Token, &snap.User)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("load session state: %w", err)
	}
	if !snap.Complete() {
		return Snapshot{}, false, ErrCorrupt
	}
	return snap, true, nil
}

func (s *SQLite) Save(ctx context.Context, snap Snapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO client_session (id, token, user) VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET token = excluded.token, user = excluded.user`,
		snap.Token, snap.User)
	if err != nil {
		return fmt.Errorf("save session state: %w", err)
	}
	return nil
}

func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM client_session WHERE id = 1`); err != nil {
		return fmt.Errorf("clear session state: %w", err)
	}
	return nil
}

// Close closes the underlying handle when this store opened it.
func (s *SQLite) Close() error {
	if !s.own {
		return nil
	}
	return s.db.Close()
}
