package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/velmie/ingestsync"
)

// Markers stores ingestion attempt markers in a table keyed by item id.
type Markers struct {
	store *Store
}

var _ ingestsync.MarkerStore = (*Markers)(nil)

// Markers returns the table-backed marker store.
func (s *Store) Markers() *Markers {
	return &Markers{store: s}
}

// Mark implements ingestsync.MarkerStore.
func (m *Markers) Mark(ctx context.Context, itemID int64, at time.Time) error {
	if _, err := m.store.db.ExecContext(ctx, m.store.queries.markerSet, itemID, at.Unix()); err != nil {
		return fmt.Errorf("ingestsync mysql: mark item failed: %w", err)
	}

	return nil
}

// Marked implements ingestsync.MarkerStore.
func (m *Markers) Marked(ctx context.Context, itemID int64) (bool, error) {
	var one int
	err := m.store.db.QueryRowContext(ctx, m.store.queries.markerGet, itemID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ingestsync mysql: read marker failed: %w", err)
	}

	return true, nil
}

// Clear implements ingestsync.MarkerStore.
func (m *Markers) Clear(ctx context.Context, itemID int64) error {
	if _, err := m.store.db.ExecContext(ctx, m.store.queries.markerDelete, itemID); err != nil {
		return fmt.Errorf("ingestsync mysql: clear marker failed: %w", err)
	}

	return nil
}
