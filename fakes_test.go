package ingestsync

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeAPI struct {
	mu         sync.Mutex
	upserts    []RecordID
	payloads   []Payload
	deletes    []RecordID
	failUpsert map[int64]bool
	failDelete map[int64]bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{failUpsert: map[int64]bool{}, failDelete: map[int64]bool{}}
}

func (a *fakeAPI) Upsert(_ context.Context, id RecordID, payload Payload) APIResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.upserts = append(a.upserts, id)
	a.payloads = append(a.payloads, payload)
	if a.failUpsert[id.ItemID] {
		return APIResult{RecordID: id, StatusCode: http.StatusInternalServerError, Err: &APIError{Method: http.MethodPost, StatusCode: http.StatusInternalServerError}}
	}

	return APIResult{Success: true, RecordID: id, StatusCode: http.StatusAccepted}
}

func (a *fakeAPI) Delete(_ context.Context, id RecordID) APIResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.deletes = append(a.deletes, id)
	if a.failDelete[id.ItemID] {
		return APIResult{RecordID: id, StatusCode: http.StatusBadGateway, Err: &APIError{Method: http.MethodDelete, StatusCode: http.StatusBadGateway}}
	}

	return APIResult{Success: true, RecordID: id, StatusCode: http.StatusAccepted}
}

func (a *fakeAPI) calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.upserts) + len(a.deletes)
}

type failingKV struct {
	*MemoryStore
	failKey string
}

var errStorage = errors.New("storage unavailable")

func (s failingKV) Get(ctx context.Context, key string) ([]byte, error) {
	if key == s.failKey {
		return nil, errStorage
	}

	return s.MemoryStore.Get(ctx, key)
}

// brokenSource fails to load the records listed in bad and, when listErr is
// set, every bulk page.
type brokenSource struct {
	*MemorySource
	bad     map[int64]bool
	listErr error
}

func (s brokenSource) Get(ctx context.Context, itemID int64) (Record, bool, error) {
	if s.bad[itemID] {
		return Record{}, false, errStorage
	}

	return s.MemorySource.Get(ctx, itemID)
}

func (s brokenSource) ListAfter(ctx context.Context, after int64, limit int, scope []string) ([]Record, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}

	return s.MemorySource.ListAfter(ctx, after, limit, scope)
}

type captureMetrics struct {
	ticks   int
	synced  int
	deleted int
	failed  int
	skipped int
	depth   [2]int
}

func (m *captureMetrics) ObserveTickDuration(time.Duration) { m.ticks++ }
func (m *captureMetrics) AddSynced(n int)                   { m.synced += n }
func (m *captureMetrics) AddDeleted(n int)                  { m.deleted += n }
func (m *captureMetrics) AddFailed(n int)                   { m.failed += n }
func (m *captureMetrics) AddSkipped(n int)                  { m.skipped += n }
func (m *captureMetrics) SetQueueDepth(syncs, deletes int)  { m.depth = [2]int{syncs, deletes} }

func published(itemID int64, typ string) Record {
	return Record{ItemID: itemID, Status: StatusPublished, Type: typ}
}

func ingestAll() *PredicateChain {
	return NewPredicateChain(func(Decision, Record) Decision { return Ingest })
}
