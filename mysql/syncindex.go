package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/velmie/ingestsync"
)

// SyncIndex keeps the sync queue in an indexed table, one row per item.
type SyncIndex struct {
	store *Store
}

var _ ingestsync.SyncIndex = (*SyncIndex)(nil)

// SyncIndex returns the table-backed sync queue.
func (s *Store) SyncIndex() *SyncIndex {
	return &SyncIndex{store: s}
}

// Put implements ingestsync.SyncIndex.
func (x *SyncIndex) Put(ctx context.Context, itemID int64, at time.Time) error {
	return x.PutTx(ctx, x.store.db, itemID, at)
}

// PutTx queues item using the provided executor (transaction preferred).
func (x *SyncIndex) PutTx(ctx context.Context, exec Executor, itemID int64, at time.Time) error {
	if exec == nil {
		return ErrExecutorRequired
	}
	if _, err := exec.ExecContext(ctx, x.store.queries.syncPut, itemID, at.UnixNano()); err != nil {
		return fmt.Errorf("ingestsync mysql: queue item failed: %w", err)
	}

	return nil
}

// Remove implements ingestsync.SyncIndex.
func (x *SyncIndex) Remove(ctx context.Context, itemID int64) error {
	if _, err := x.store.db.ExecContext(ctx, x.store.queries.syncRemove, itemID); err != nil {
		return fmt.Errorf("ingestsync mysql: dequeue item failed: %w", err)
	}

	return nil
}

// Oldest implements ingestsync.SyncIndex.
func (x *SyncIndex) Oldest(ctx context.Context, limit int) ([]int64, error) {
	if limit <= 0 {
		return nil, ingestsync.ErrInvalidBatchSize
	}

	rows, err := x.store.db.QueryContext(ctx, x.store.queries.syncOldest, limit)
	if err != nil {
		return nil, fmt.Errorf("ingestsync mysql: select queue failed: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0, limit)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ingestsync mysql: scan failed: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ingestsync mysql: rows failed: %w", err)
	}

	return ids, nil
}

// Count implements ingestsync.SyncIndex.
func (x *SyncIndex) Count(ctx context.Context) (int, error) {
	var count int
	if err := x.store.db.QueryRowContext(ctx, x.store.queries.syncCount).Scan(&count); err != nil {
		return 0, fmt.Errorf("ingestsync mysql: queue count failed: %w", err)
	}

	return count, nil
}
