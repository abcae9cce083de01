package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store owns the sqlite database holding daily usage snapshots. Writes
// are serialized through a single connection; WAL mode lets a second
// read-only process (the history viewer) read while this one writes.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open creates parent directories as needed, opens (or creates) the
// database file, configures pragmas and applies pending migrations. A
// failed migration leaves previously applied state intact.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("history: creating DB dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("history: opening DB: %w", err)
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.init(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) init(ctx context.Context) error {
	pragmas := []string{
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA synchronous = NORMAL;`,
		`PRAGMA foreign_keys = ON;`,
		`PRAGMA busy_timeout = 5000;`,
	}
	for _, pragma := range pragmas {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("history: configure connection: %w", err)
		}
	}

	// One connection: sqlite is the serialization point for writes, and
	// the single daily upsert never benefits from a pool.
	s.db.SetMaxOpenConns(1)

	return applyMigrations(ctx, s.db, s.now)
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// SchemaVersion reports the highest applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	return currentVersion(ctx, s.db)
}
