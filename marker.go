package ingestsync

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const markerKeyPrefix = "ingestsync_attempted_"

// MarkerStore tracks which items had an ingestion attempt. The marker is what
// allows a later delete even when the remote state is unknown.
type MarkerStore interface {
	// Mark records an ingestion attempt for item at the given time.
	Mark(ctx context.Context, itemID int64, at time.Time) error
	// Marked reports whether item has an attempt marker.
	Marked(ctx context.Context, itemID int64) (bool, error)
	// Clear removes the marker for item.
	Clear(ctx context.Context, itemID int64) error
}

// KVMarkers stores one key per marked item in a KVStore.
type KVMarkers struct {
	kv KVStore
}

var _ MarkerStore = KVMarkers{}

// NewKVMarkers creates a KV-backed MarkerStore.
func NewKVMarkers(kv KVStore) KVMarkers {
	return KVMarkers{kv: kv}
}

// Mark implements MarkerStore.
func (m KVMarkers) Mark(ctx context.Context, itemID int64, at time.Time) error {
	return m.kv.Set(ctx, markerKey(itemID), []byte(strconv.FormatInt(at.Unix(), 10)))
}

// Marked implements MarkerStore.
func (m KVMarkers) Marked(ctx context.Context, itemID int64) (bool, error) {
	raw, err := m.kv.Get(ctx, markerKey(itemID))
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ingestsync: read marker failed: %w", err)
	}

	return len(raw) > 0, nil
}

// Clear implements MarkerStore.
func (m KVMarkers) Clear(ctx context.Context, itemID int64) error {
	return m.kv.Delete(ctx, markerKey(itemID))
}

func markerKey(itemID int64) string {
	return markerKeyPrefix + strconv.FormatInt(itemID, 10)
}
