package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/velmie/ingestsync"
)

// SyncIndex keeps the sync queue in the sync_queue table.
type SyncIndex struct {
	db *Store
}

var _ ingestsync.SyncIndex = (*SyncIndex)(nil)

// SyncIndex returns the table-backed sync queue.
func (s *Store) SyncIndex() *SyncIndex {
	return &SyncIndex{db: s}
}

// Put implements ingestsync.SyncIndex.
func (x *SyncIndex) Put(ctx context.Context, itemID int64, at time.Time) error {
	_, err := x.db.db.ExecContext(
		ctx,
		"INSERT INTO sync_queue (item_id, queued_at) VALUES (?, ?) "+
			"ON CONFLICT(item_id) DO UPDATE SET queued_at = excluded.queued_at",
		itemID, at.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("ingestsync sqlite: queue item failed: %w", err)
	}

	return nil
}

// Remove implements ingestsync.SyncIndex.
func (x *SyncIndex) Remove(ctx context.Context, itemID int64) error {
	if _, err := x.db.db.ExecContext(ctx, "DELETE FROM sync_queue WHERE item_id = ?", itemID); err != nil {
		return fmt.Errorf("ingestsync sqlite: dequeue item failed: %w", err)
	}

	return nil
}

// Oldest implements ingestsync.SyncIndex.
func (x *SyncIndex) Oldest(ctx context.Context, limit int) ([]int64, error) {
	if limit <= 0 {
		return nil, ingestsync.ErrInvalidBatchSize
	}

	rows, err := x.db.db.QueryContext(ctx,
		"SELECT item_id FROM sync_queue ORDER BY queued_at ASC, item_id ASC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("ingestsync sqlite: select queue failed: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0, limit)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ingestsync sqlite: scan failed: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ingestsync sqlite: rows failed: %w", err)
	}

	return ids, nil
}

// Count implements ingestsync.SyncIndex.
func (x *SyncIndex) Count(ctx context.Context) (int, error) {
	var count int
	if err := x.db.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sync_queue").Scan(&count); err != nil {
		return 0, fmt.Errorf("ingestsync sqlite: queue count failed: %w", err)
	}

	return count, nil
}
