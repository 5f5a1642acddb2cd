package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store is the local activity journal. Attempt state lives on the server;
// this only records what the client did, for the history command.
type Store struct {
	db *sql.DB
}

// Open connects to the SQLite database at dsn, applies pragmas and creates
// the schema.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// EventRepo returns an EventRepo backed by this store.
func (s *Store) EventRepo() EventRepo {
	return &eventRepo{db: s.db}
}

// applyPragmas configures SQLite for single-user use.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS attempt_events (
		sequence      INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp     DATETIME NOT NULL,
		run_id        TEXT NOT NULL,
		kind          TEXT NOT NULL,
		attempt_id    INTEGER NOT NULL,
		question_id   INTEGER NOT NULL DEFAULT 0,
		difficulty    TEXT NOT NULL DEFAULT '',
		correct       INTEGER,
		status        TEXT NOT NULL DEFAULT '',
		response_time INTEGER NOT NULL DEFAULT 0,
		message       TEXT NOT NULL DEFAULT ''
	)`)
	if err != nil {
		return fmt.Errorf("create attempt_events: %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_attempt_events_attempt ON attempt_events (attempt_id, sequence)`)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. QUIZPATH_DB environment variable
// 2. $XDG_DATA_HOME/quizpath/quizpath.db
// 3. ~/.local/share/quizpath/quizpath.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("QUIZPATH_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "quizpath", "quizpath.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
