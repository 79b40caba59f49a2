package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/velmie/ingestsync"
)

// Executor allows writing within an existing transaction.
type Executor interface {
	// ExecContext executes a statement with the provided context.
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store implements ingestsync.KVStore on a MySQL table and hands out the
// sync index, markers, record source and locker sharing the same pool.
type Store struct {
	db      *sql.DB
	cfg     Config
	queries queries
	tables  tables
}

var _ ingestsync.KVStore = (*Store)(nil)

// NewStore constructs a MySQL store with validated configuration.
func NewStore(db *sql.DB, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrDBRequired
	}

	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.withDefaults()

	t, err := sanitizeTables(cfg)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:      db,
		cfg:     cfg,
		queries: newQueries(t),
		tables:  t,
	}, nil
}

// MustNewStore constructs a MySQL store or panics on error.
func MustNewStore(db *sql.DB, opts ...Option) *Store {
	store, err := NewStore(db, opts...)
	if err != nil {
		panic(err)
	}

	return store
}

// EnsureSchema creates the owned tables when they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements, err := Schema(
		WithKVTable(s.tables.kv),
		WithSyncTable(s.tables.sync),
		WithMarkerTable(s.tables.marker),
	)
	if err != nil {
		return err
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ingestsync mysql: create table failed: %w", err)
		}
	}

	return nil
}

// Get implements ingestsync.KVStore.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, s.queries.kvGet, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ingestsync.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ingestsync mysql: get %s failed: %w", key, err)
	}

	return value, nil
}

// Set implements ingestsync.KVStore.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetTx(ctx, s.db, key, value)
}

// SetTx stores value under key using the provided executor, so hosts can
// persist queue documents in the same transaction as their own write.
func (s *Store) SetTx(ctx context.Context, exec Executor, key string, value []byte) error {
	if exec == nil {
		return ErrExecutorRequired
	}
	if len(key) > maxKeyLen {
		return fmt.Errorf("%w: %d bytes", ErrKeyTooLong, len(key))
	}
	if value == nil {
		value = []byte{}
	}
	if _, err := exec.ExecContext(ctx, s.queries.kvSet, key, value); err != nil {
		return fmt.Errorf("ingestsync mysql: set %s failed: %w", key, err)
	}

	return nil
}

// Delete implements ingestsync.KVStore.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.queries.kvDelete, key); err != nil {
		return fmt.Errorf("ingestsync mysql: delete %s failed: %w", key, err)
	}

	return nil
}
