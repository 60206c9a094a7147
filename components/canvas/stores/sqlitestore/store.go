// Package sqlitestore persists canvas layouts in SQLite.
package sqlitestore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	canvas "github.com/goliatone/go-canvas/components/canvas"
)

//go:embed migrations/*.sql
var migrations embed.FS

var errEmptyKey = errors.New("sqlitestore: key is empty")

// Store implements canvas.LayoutStore on a SQLite table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ canvas.LayoutStore = (*Store)(nil)

// Open opens (or creates) the database at path and applies migrations.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: set WAL mode: %w", err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return New(db), nil
}

// New wraps an already migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Migrate runs all pending migrations.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("sqlitestore: set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("sqlitestore: run migrations: %w", err)
	}
	return nil
}

// Get returns the stored document for key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM canvas_layouts WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlitestore: get %s: %w", key, err)
	}
	return value, true, nil
}

// Put upserts the document for key.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return errEmptyKey
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO canvas_layouts (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlitestore: put %s: %w", key, err)
	}
	return nil
}

// Delete removes the document for key. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM canvas_layouts WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlitestore: delete %s: %w", key, err)
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}
