package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/velmie/ingestsync"
)

// Markers stores ingestion attempt markers.
type Markers struct {
	db *Store
}

var _ ingestsync.MarkerStore = (*Markers)(nil)

// Markers returns the table-backed marker store.
func (s *Store) Markers() *Markers {
	return &Markers{db: s}
}

// Mark implements ingestsync.MarkerStore.
func (m *Markers) Mark(ctx context.Context, itemID int64, at time.Time) error {
	_, err := m.db.db.ExecContext(
		ctx,
		"INSERT INTO markers (item_id, attempted_at) VALUES (?, ?) "+
			"ON CONFLICT(item_id) DO UPDATE SET attempted_at = excluded.attempted_at",
		itemID, at.Unix(),
	)
	if err != nil {
		return fmt.Errorf("ingestsync sqlite: mark item failed: %w", err)
	}

	return nil
}

// Marked implements ingestsync.MarkerStore.
func (m *Markers) Marked(ctx context.Context, itemID int64) (bool, error) {
	var one int
	err := m.db.db.QueryRowContext(ctx, "SELECT 1 FROM markers WHERE item_id = ?", itemID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ingestsync sqlite: read marker failed: %w", err)
	}

	return true, nil
}

// Clear implements ingestsync.MarkerStore.
func (m *Markers) Clear(ctx context.Context, itemID int64) error {
	if _, err := m.db.db.ExecContext(ctx, "DELETE FROM markers WHERE item_id = ?", itemID); err != nil {
		return fmt.Errorf("ingestsync sqlite: clear marker failed: %w", err)
	}

	return nil
}
