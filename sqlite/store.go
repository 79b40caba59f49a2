// Package sqlite provides single-file SQLite storage for ingestsync, for hosts
// and operators that run without MySQL.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/velmie/ingestsync"
)

//go:embed schema.sql
var schemaSQL string

// Store implements ingestsync.KVStore and hands out the sync index, markers
// and record source over one SQLite database.
type Store struct {
	db    *sql.DB
	clock ingestsync.Clock
}

var _ ingestsync.KVStore = (*Store)(nil)

// Open creates or opens the database at path and applies pragmas and schema.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//
// Opening is idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("ingestsync sqlite: open failed: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ingestsync sqlite: connect failed: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("ingestsync sqlite: apply schema failed: %w", err)
	}

	return &Store{db: db, clock: ingestsync.SystemClock{}}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("ingestsync sqlite: %q failed: %w", pragma, err)
		}
	}

	return nil
}

// Get implements ingestsync.KVStore.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE name = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ingestsync.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ingestsync sqlite: get %s failed: %w", key, err)
	}

	return value, nil
}

// Set implements ingestsync.KVStore.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.ExecContext(
		ctx,
		"INSERT INTO kv (name, value, updated_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
		key, value, s.clock.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("ingestsync sqlite: set %s failed: %w", key, err)
	}

	return nil
}

// Delete implements ingestsync.KVStore.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE name = ?", key); err != nil {
		return fmt.Errorf("ingestsync sqlite: delete %s failed: %w", key, err)
	}

	return nil
}
