package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (creating if needed) a SQLite-backed store.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create state directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Every pooled connection to ":memory:" would see its own empty database.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		path TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		output TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		embeds INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_updated_at ON documents(updated_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get retrieves the record stored for path.
func (s *SQLiteStore) Get(ctx context.Context, path string) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rec Record
	var updatedUnix int64
	err := s.db.QueryRowContext(ctx,
		"SELECT path, fingerprint, output, title, embeds, updated_at FROM documents WHERE path = ?",
		path,
	).Scan(&rec.Path, &rec.Fingerprint, &rec.Output, &rec.Title, &rec.Embeds, &updatedUnix)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("query document %s: %w", path, err)
	}
	rec.UpdatedAt = time.Unix(updatedUnix, 0)
	return rec, true, nil
}

// Put inserts or replaces the record for rec.Path.
func (s *SQLiteStore) Put(ctx context.Context, rec Record) error {
	if rec.Path == "" {
		return errors.New("record path is required")
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (path, fingerprint, output, title, embeds, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			output = excluded.output,
			title = excluded.title,
			embeds = excluded.embeds,
			updated_at = excluded.updated_at`,
		rec.Path, rec.Fingerprint, rec.Output, rec.Title, rec.Embeds, rec.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", rec.Path, err)
	}
	return nil
}

// Prune removes records for documents that no longer exist.
func (s *SQLiteStore) Prune(ctx context.Context, keep []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin prune: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "CREATE TEMP TABLE IF NOT EXISTS keep_paths (path TEXT PRIMARY KEY)"); err != nil {
		return fmt.Errorf("create keep table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM keep_paths"); err != nil {
		return fmt.Errorf("reset keep table: %w", err)
	}
	for _, p := range keep {
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO keep_paths (path) VALUES (?)", p); err != nil {
			return fmt.Errorf("insert keep path: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE path NOT IN (SELECT path FROM keep_paths)"); err != nil {
		return fmt.Errorf("delete stale documents: %w", err)
	}

	return tx.Commit()
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
