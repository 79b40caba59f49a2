package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/velmie/ingestsync"
)

// Locker makes worker ticks single-flight across processes with a MySQL
// advisory lock (GET_LOCK). The lock is bound to the session, so the
// connection is held until release.
type Locker struct {
	db     *sql.DB
	name   string
	logger ingestsync.Logger
}

var _ ingestsync.Locker = (*Locker)(nil)

// Locker returns an advisory locker using the configured lock name.
func (s *Store) Locker() *Locker {
	return &Locker{db: s.db, name: s.cfg.LockName, logger: s.cfg.Logger}
}

// NewLocker constructs a Locker for an explicit lock name.
func NewLocker(db *sql.DB, name string, logger ingestsync.Logger) (*Locker, error) {
	if db == nil {
		return nil, ErrDBRequired
	}
	if name == "" {
		return nil, ErrLockNameRequired
	}
	if logger == nil {
		logger = ingestsync.NopLogger{}
	}

	return &Locker{db: db, name: name, logger: logger}, nil
}

// TryLock implements ingestsync.Locker without waiting for the lock.
func (l *Locker) TryLock(ctx context.Context) (func(), bool, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("ingestsync mysql: lock conn failed: %w", err)
	}

	var got sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, 0)", l.name).Scan(&got); err != nil {
		_ = conn.Close()

		return nil, false, fmt.Errorf("ingestsync mysql: acquire lock failed: %w", err)
	}
	if !got.Valid || got.Int64 == 0 {
		_ = conn.Close()
		l.logger.Debug("ingestsync lock held by another session", "lock", l.name)

		return nil, false, nil
	}

	release := func() {
		defer conn.Close()

		var released sql.NullInt64
		if err := conn.QueryRowContext(context.WithoutCancel(ctx), "SELECT RELEASE_LOCK(?)", l.name).Scan(&released); err != nil {
			l.logger.Warn("ingestsync release lock failed", "lock", l.name, "err", err)
		}
	}

	return release, true, nil
}
