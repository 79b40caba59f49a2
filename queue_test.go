package ingestsync

import (
	"context"
	"errors"
	"testing"
	"time"
)

type queueFixture struct {
	kv        *MemoryStore
	api       *fakeAPI
	clock     *manualClock
	engine    *Engine
	scheduler *Scheduler
	queue     *Queue
}

func newQueueFixture(opts ...Option) *queueFixture {
	f := &queueFixture{kv: NewMemoryStore(), api: newFakeAPI(), clock: newManualClock()}
	opts = append([]Option{WithClock(f.clock), WithPredicates(ingestAll())}, opts...)
	f.engine = NewEngine(f.api, NewKVMarkers(f.kv), opts...)
	f.scheduler = NewScheduler(f.kv, opts...)
	f.queue = NewQueue(f.kv, f.engine, f.scheduler, opts...)

	return f
}

func TestQueue_SyncAndDeleteAreExclusive(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	if err := f.queue.EnqueueSync(ctx, 1); err != nil {
		t.Fatalf("enqueue sync: %v", err)
	}
	if err := f.queue.EnqueueDelete(ctx, 1); err != nil {
		t.Fatalf("enqueue delete: %v", err)
	}
	counts, err := f.queue.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.Sync != 0 || counts.Delete != 1 {
		t.Fatalf("expected only delete queued, got %+v", counts)
	}

	if err := f.queue.EnqueueSync(ctx, 1); err != nil {
		t.Fatalf("enqueue sync: %v", err)
	}
	counts, err = f.queue.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.Sync != 1 || counts.Delete != 0 {
		t.Fatalf("expected only sync queued, got %+v", counts)
	}
}

func TestQueue_SyncIsSet(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := f.queue.EnqueueSync(ctx, 9); err != nil {
			t.Fatalf("enqueue sync: %v", err)
		}
	}
	ids, err := f.queue.ListQueuedSync(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 1 || ids[0] != 9 {
		t.Fatalf("expected single entry, got %v", ids)
	}
}

func TestQueue_ListOrderedByEnqueueTime(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	for _, id := range []int64{30, 10, 20} {
		if err := f.queue.EnqueueSync(ctx, id); err != nil {
			t.Fatalf("enqueue sync: %v", err)
		}
		if err := f.queue.EnqueueDelete(ctx, id+100); err != nil {
			t.Fatalf("enqueue delete: %v", err)
		}
		f.clock.Advance(time.Second)
	}

	ids, err := f.queue.ListQueuedSync(ctx, 2)
	if err != nil {
		t.Fatalf("list sync: %v", err)
	}
	if len(ids) != 2 || ids[0] != 30 || ids[1] != 10 {
		t.Fatalf("unexpected sync order %v", ids)
	}

	entries, err := f.queue.ListQueuedDelete(ctx, 10)
	if err != nil {
		t.Fatalf("list delete: %v", err)
	}
	if len(entries) != 3 || entries[0].ItemID != 130 || entries[2].ItemID != 120 {
		t.Fatalf("unexpected delete order %+v", entries)
	}
	if entries[0].RecordID.String() != "0_0_130" {
		t.Fatalf("expected stored composite id, got %s", entries[0].RecordID)
	}
}

func TestQueue_InvalidLimit(t *testing.T) {
	f := newQueueFixture()
	if _, err := f.queue.ListQueuedSync(context.Background(), 0); !errors.Is(err, ErrInvalidBatchSize) {
		t.Fatalf("expected ErrInvalidBatchSize, got %v", err)
	}
	if _, err := f.queue.ListQueuedDelete(context.Background(), -1); !errors.Is(err, ErrInvalidBatchSize) {
		t.Fatalf("expected ErrInvalidBatchSize, got %v", err)
	}
}

func TestQueue_DeleteCapacityFallsBackInline(t *testing.T) {
	f := newQueueFixture(WithDeleteQueueCapacity(2))
	ctx := context.Background()

	for _, id := range []int64{1, 2} {
		if err := f.queue.EnqueueDelete(ctx, id); err != nil {
			t.Fatalf("enqueue delete: %v", err)
		}
	}
	if f.api.calls() != 0 {
		t.Fatalf("expected no inline calls below capacity")
	}

	if err := f.queue.EnqueueDelete(ctx, 3); err != nil {
		t.Fatalf("inline delete: %v", err)
	}
	if len(f.api.deletes) != 1 || f.api.deletes[0].ItemID != 3 {
		t.Fatalf("expected inline delete of 3, got %v", f.api.deletes)
	}
	counts, err := f.queue.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.Delete != 2 {
		t.Fatalf("expected queue to stay at capacity, got %d", counts.Delete)
	}
}

func TestQueue_DeleteCapacityFallbackFailure(t *testing.T) {
	f := newQueueFixture(WithDeleteQueueCapacity(1))
	f.api.failDelete[2] = true
	ctx := context.Background()

	if err := f.queue.EnqueueDelete(ctx, 1); err != nil {
		t.Fatalf("enqueue delete: %v", err)
	}
	err := f.queue.EnqueueDelete(ctx, 2)
	var fallbackErr *CapacityFallbackError
	if !errors.As(err, &fallbackErr) {
		t.Fatalf("expected *CapacityFallbackError, got %v", err)
	}
	if fallbackErr.Capacity != 1 || fallbackErr.RecordID.ItemID != 2 {
		t.Fatalf("unexpected fallback error %+v", fallbackErr)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected wrapped *APIError")
	}
}

func TestQueue_RequeuedDeleteDoesNotCountAgainstCapacity(t *testing.T) {
	f := newQueueFixture(WithDeleteQueueCapacity(1))
	ctx := context.Background()

	if err := f.queue.EnqueueDelete(ctx, 1); err != nil {
		t.Fatalf("enqueue delete: %v", err)
	}
	if err := f.queue.EnqueueDelete(ctx, 1); err != nil {
		t.Fatalf("re-enqueue delete: %v", err)
	}
	if f.api.calls() != 0 {
		t.Fatalf("expected no inline delete")
	}
}

func TestQueue_EnqueueArmsScheduler(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	scheduled, err := f.scheduler.IsScheduled(ctx)
	if err != nil || scheduled {
		t.Fatalf("expected unscheduled, got %v/%v", scheduled, err)
	}
	if err := f.queue.EnqueueSync(ctx, 1); err != nil {
		t.Fatalf("enqueue sync: %v", err)
	}
	scheduled, err = f.scheduler.IsScheduled(ctx)
	if err != nil || !scheduled {
		t.Fatalf("expected scheduled, got %v/%v", scheduled, err)
	}
}

func TestQueue_HasPending(t *testing.T) {
	f := newQueueFixture()
	ctx := context.Background()

	pending, err := f.queue.HasPending(ctx)
	if err != nil || pending {
		t.Fatalf("expected no pending work, got %v/%v", pending, err)
	}
	if err := f.queue.EnqueueDelete(ctx, 4); err != nil {
		t.Fatalf("enqueue delete: %v", err)
	}
	pending, err = f.queue.HasPending(ctx)
	if err != nil || !pending {
		t.Fatalf("expected pending work, got %v/%v", pending, err)
	}
	if err := f.queue.DequeueDelete(ctx, 4); err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if f.kv.Len() != 1 {
		t.Fatalf("expected only the schedule key left, got %d keys", f.kv.Len())
	}
}

func TestQueue_StorageErrorSurfaces(t *testing.T) {
	kv := failingKV{MemoryStore: NewMemoryStore(), failKey: deleteQueueKey}
	engine := NewEngine(newFakeAPI(), NewKVMarkers(kv))
	queue := NewQueue(kv, engine, nil)

	if err := queue.EnqueueSync(context.Background(), 1); !errors.Is(err, errStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}
