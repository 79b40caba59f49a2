package ingestsync

import (
	"context"
	"sort"
	"time"
)

const syncQueueKey = "ingestsync_sync_queue"

// SyncIndex holds pending incremental syncs as a set keyed by item id.
type SyncIndex interface {
	// Put records item as queued at the given time, replacing an earlier entry.
	Put(ctx context.Context, itemID int64, at time.Time) error
	// Remove deletes item from the index. Removing a missing item is not an error.
	Remove(ctx context.Context, itemID int64) error
	// Oldest returns up to limit item ids ordered by enqueue time ascending.
	Oldest(ctx context.Context, limit int) ([]int64, error)
	// Count returns the number of queued items.
	Count(ctx context.Context) (int, error)
}

// KVSyncIndex keeps the whole sync set as one JSON document in a KVStore.
type KVSyncIndex struct {
	kv KVStore
}

var _ SyncIndex = KVSyncIndex{}

// NewKVSyncIndex creates a KV-backed SyncIndex.
func NewKVSyncIndex(kv KVStore) KVSyncIndex {
	return KVSyncIndex{kv: kv}
}

// Put implements SyncIndex.
func (x KVSyncIndex) Put(ctx context.Context, itemID int64, at time.Time) error {
	set, err := x.load(ctx)
	if err != nil {
		return err
	}
	set[itemID] = at.UnixNano()

	return saveJSON(ctx, x.kv, syncQueueKey, set)
}

// Remove implements SyncIndex.
func (x KVSyncIndex) Remove(ctx context.Context, itemID int64) error {
	set, err := x.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := set[itemID]; !ok {
		return nil
	}
	delete(set, itemID)
	if len(set) == 0 {
		return x.kv.Delete(ctx, syncQueueKey)
	}

	return saveJSON(ctx, x.kv, syncQueueKey, set)
}

// Oldest implements SyncIndex.
func (x KVSyncIndex) Oldest(ctx context.Context, limit int) ([]int64, error) {
	if limit <= 0 {
		return nil, ErrInvalidBatchSize
	}
	set, err := x.load(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if set[ids[i]] != set[ids[j]] {
			return set[ids[i]] < set[ids[j]]
		}

		return ids[i] < ids[j]
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}

	return ids, nil
}

// Count implements SyncIndex.
func (x KVSyncIndex) Count(ctx context.Context) (int, error) {
	set, err := x.load(ctx)
	if err != nil {
		return 0, err
	}

	return len(set), nil
}

func (x KVSyncIndex) load(ctx context.Context) (map[int64]int64, error) {
	set := make(map[int64]int64)
	if _, err := loadJSON(ctx, x.kv, syncQueueKey, &set); err != nil {
		return nil, err
	}
	if set == nil {
		set = make(map[int64]int64)
	}

	return set, nil
}
