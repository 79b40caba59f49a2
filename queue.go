package ingestsync

import (
	"context"
	"fmt"
	"sort"
	"time"
)

const deleteQueueKey = "ingestsync_delete_queue"

// DeleteEntry is a pending remote deletion. The composite id is stored because
// the host object may be gone by the time the entry is processed.
type DeleteEntry struct {
	ItemID   int64     `json:"item_id"`
	RecordID RecordID  `json:"record_id"`
	QueuedAt time.Time `json:"queued_at"`
}

// QueueCounts reports pending work by kind.
type QueueCounts struct {
	Sync   int `json:"sync"`
	Delete int `json:"delete"`
}

// Total returns the number of pending items.
func (c QueueCounts) Total() int {
	return c.Sync + c.Delete
}

// Queue holds pending syncs (a set keyed by item id) and pending deletes (a
// bounded document keyed by record id).
type Queue struct {
	kv        KVStore
	index     SyncIndex
	engine    *Engine
	scheduler *Scheduler
	cfg       Config
}

// NewQueue constructs a Queue. The engine serves the inline delete used when
// the delete queue is full. A nil scheduler disables arming ticks on enqueue.
func NewQueue(kv KVStore, engine *Engine, scheduler *Scheduler, opts ...Option) *Queue {
	if kv == nil {
		panic("ingestsync: nil KVStore")
	}
	if engine == nil {
		panic("ingestsync: nil Engine")
	}

	cfg := buildConfig(opts)
	index := cfg.SyncIndex
	if index == nil {
		index = NewKVSyncIndex(kv)
	}

	return &Queue{kv: kv, index: index, engine: engine, scheduler: scheduler, cfg: cfg}
}

// Capacity returns the delete queue bound.
func (q *Queue) Capacity() int {
	return q.cfg.DeleteQueueCapacity
}

// EnqueueSync queues item for an incremental sync. A pending delete of the
// same item is dropped: the save supersedes it.
func (q *Queue) EnqueueSync(ctx context.Context, itemID int64) error {
	if err := q.DequeueDelete(ctx, itemID); err != nil {
		return err
	}
	if err := q.index.Put(ctx, itemID, q.cfg.Clock.Now()); err != nil {
		return fmt.Errorf("ingestsync: enqueue sync failed: %w", err)
	}
	q.arm(ctx)
	q.cfg.Logger.Info("ingestsync item queued for sync", "item_id", itemID)

	return nil
}

// Requeue resubmits item for another sync attempt. Failed items are never
// retried automatically; this is the explicit retry path.
func (q *Queue) Requeue(ctx context.Context, itemID int64) error {
	return q.EnqueueSync(ctx, itemID)
}

// EnqueueDelete queues item for remote deletion and drops any pending sync.
// When the delete queue is at capacity the delete is performed inline instead;
// a failed inline delete is returned as *CapacityFallbackError.
func (q *Queue) EnqueueDelete(ctx context.Context, itemID int64) error {
	if err := q.DequeueSync(ctx, itemID); err != nil {
		return err
	}

	id := q.engine.RecordIDFor(itemID)
	entries, err := q.loadDeletes(ctx)
	if err != nil {
		return err
	}

	key := id.String()
	if _, queued := entries[key]; !queued && len(entries) >= q.cfg.DeleteQueueCapacity {
		return q.deleteInline(ctx, itemID, id, len(entries))
	}

	entries[key] = DeleteEntry{ItemID: itemID, RecordID: id, QueuedAt: q.cfg.Clock.Now()}
	if err := saveJSON(ctx, q.kv, deleteQueueKey, entries); err != nil {
		return err
	}
	q.arm(ctx)
	q.cfg.Logger.Info("ingestsync item queued for deletion", "item_id", itemID, "record_id", key)

	return nil
}

// DequeueSync removes item from the sync queue.
func (q *Queue) DequeueSync(ctx context.Context, itemID int64) error {
	if err := q.index.Remove(ctx, itemID); err != nil {
		return fmt.Errorf("ingestsync: dequeue sync failed: %w", err)
	}

	return nil
}

// DequeueDelete removes every pending delete of item.
func (q *Queue) DequeueDelete(ctx context.Context, itemID int64) error {
	entries, err := q.loadDeletes(ctx)
	if err != nil {
		return err
	}

	removed := false
	for key, entry := range entries {
		if entry.ItemID == itemID {
			delete(entries, key)
			removed = true
		}
	}
	if !removed {
		return nil
	}
	if len(entries) == 0 {
		return q.kv.Delete(ctx, deleteQueueKey)
	}

	return saveJSON(ctx, q.kv, deleteQueueKey, entries)
}

// ListQueuedSync returns up to limit item ids ordered by enqueue time ascending.
func (q *Queue) ListQueuedSync(ctx context.Context, limit int) ([]int64, error) {
	if limit <= 0 {
		return nil, ErrInvalidBatchSize
	}

	return q.index.Oldest(ctx, limit)
}

// ListQueuedDelete returns up to limit delete entries ordered by queued_at ascending.
func (q *Queue) ListQueuedDelete(ctx context.Context, limit int) ([]DeleteEntry, error) {
	if limit <= 0 {
		return nil, ErrInvalidBatchSize
	}
	entries, err := q.loadDeletes(ctx)
	if err != nil {
		return nil, err
	}

	list := make([]DeleteEntry, 0, len(entries))
	for _, entry := range entries {
		list = append(list, entry)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].QueuedAt.Equal(list[j].QueuedAt) {
			return list[i].QueuedAt.Before(list[j].QueuedAt)
		}

		return list[i].ItemID < list[j].ItemID
	})
	if len(list) > limit {
		list = list[:limit]
	}

	return list, nil
}

// HasPending reports whether any sync or delete is queued.
func (q *Queue) HasPending(ctx context.Context) (bool, error) {
	counts, err := q.Counts(ctx)
	if err != nil {
		return false, err
	}

	return counts.Total() > 0, nil
}

// Counts returns the number of queued syncs and deletes.
func (q *Queue) Counts(ctx context.Context) (QueueCounts, error) {
	syncCount, err := q.index.Count(ctx)
	if err != nil {
		return QueueCounts{}, fmt.Errorf("ingestsync: count sync queue failed: %w", err)
	}
	entries, err := q.loadDeletes(ctx)
	if err != nil {
		return QueueCounts{}, err
	}

	return QueueCounts{Sync: syncCount, Delete: len(entries)}, nil
}

func (q *Queue) deleteInline(ctx context.Context, itemID int64, id RecordID, size int) error {
	q.cfg.Logger.Info(
		"ingestsync delete queue at capacity, deleting inline",
		"item_id", itemID,
		"record_id", id.String(),
		"queue_size", size,
		"max_size", q.cfg.DeleteQueueCapacity,
	)

	result := q.engine.DeleteItem(ctx, itemID, id)
	if result.Success {
		return nil
	}

	q.cfg.Logger.Error(
		"ingestsync inline delete failed with delete queue at capacity",
		"item_id", itemID,
		"record_id", id.String(),
		"queue_size", size,
		"max_size", q.cfg.DeleteQueueCapacity,
		"err", result.Err,
	)

	return &CapacityFallbackError{RecordID: id, Capacity: q.cfg.DeleteQueueCapacity, Err: result.Err}
}

func (q *Queue) loadDeletes(ctx context.Context) (map[string]DeleteEntry, error) {
	entries := make(map[string]DeleteEntry)
	if _, err := loadJSON(ctx, q.kv, deleteQueueKey, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = make(map[string]DeleteEntry)
	}

	return entries, nil
}

func (q *Queue) arm(ctx context.Context) {
	if q.scheduler == nil {
		return
	}
	if err := q.scheduler.Schedule(ctx); err != nil {
		q.cfg.Logger.Warn("ingestsync schedule failed", "err", err)
	}
}
