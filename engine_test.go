package ingestsync

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func newTestEngine(api API, kv KVStore, opts ...Option) *Engine {
	return NewEngine(api, NewKVMarkers(kv), opts...)
}

func TestEngine_NoPredicateIsFailClosed(t *testing.T) {
	api := newFakeAPI()
	kv := NewMemoryStore()
	engine := newTestEngine(api, kv)

	result := engine.Sync(context.Background(), published(1, "post"))
	if result.Status != SyncSkipped {
		t.Fatalf("expected skipped, got %s", result.Status)
	}
	if api.calls() != 0 {
		t.Fatalf("expected no api calls, got %d", api.calls())
	}
}

func TestEngine_NoPredicateNeverDeletesMarked(t *testing.T) {
	api := newFakeAPI()
	kv := NewMemoryStore()
	engine := newTestEngine(api, kv)
	ctx := context.Background()
	if err := NewKVMarkers(kv).Mark(ctx, 1, newManualClock().Now()); err != nil {
		t.Fatalf("mark: %v", err)
	}

	result := engine.Sync(ctx, published(1, "post"))
	if result.Status != SyncSkipped || api.calls() != 0 {
		t.Fatalf("expected skipped without api calls, got %s/%d", result.Status, api.calls())
	}
}

func TestEngine_IngestMarksAndUpserts(t *testing.T) {
	api := newFakeAPI()
	kv := NewMemoryStore()
	engine := newTestEngine(api, kv, WithSite("3", "9"), WithPredicates(ingestAll()))
	ctx := context.Background()

	record := published(42, "post")
	record.Fields = map[string]any{"title": "Hello"}
	result := engine.Sync(ctx, record)
	if result.Status != SyncIngested {
		t.Fatalf("expected ingested, got %s (%v)", result.Status, result.Err)
	}
	if len(api.upserts) != 1 || api.upserts[0].String() != "3_9_42" {
		t.Fatalf("unexpected upserts %v", api.upserts)
	}
	if api.payloads[0][DefaultRecordIDField] != "3_9_42" {
		t.Fatalf("expected record id in payload, got %v", api.payloads[0])
	}
	if api.payloads[0]["title"] != "Hello" {
		t.Fatalf("expected host fields in payload, got %v", api.payloads[0])
	}
	if !engine.WasIngested(ctx, record) {
		t.Fatalf("expected marker to be set")
	}
}

func TestEngine_RepeatedSyncIsIdempotent(t *testing.T) {
	api := newFakeAPI()
	kv := NewMemoryStore()
	engine := newTestEngine(api, kv, WithSite("3", "9"), WithClock(newManualClock()), WithPredicates(ingestAll()))
	ctx := context.Background()

	record := published(42, "post")
	record.Fields = map[string]any{"title": "Hello"}
	for i := 0; i < 2; i++ {
		if result := engine.Sync(ctx, record); result.Status != SyncIngested {
			t.Fatalf("sync %d: expected ingested, got %s (%v)", i, result.Status, result.Err)
		}
	}

	if len(api.upserts) != 2 || api.upserts[0] != api.upserts[1] {
		t.Fatalf("expected two upserts under one record id, got %v", api.upserts)
	}
	if !reflect.DeepEqual(api.payloads[0], api.payloads[1]) {
		t.Fatalf("expected identical payloads, got %v and %v", api.payloads[0], api.payloads[1])
	}
	if len(api.deletes) != 0 {
		t.Fatalf("expected no deletes, got %v", api.deletes)
	}
	if !engine.WasIngested(ctx, record) {
		t.Fatalf("expected marker to remain set")
	}
}

func TestEngine_MarkerSetEvenWhenUpsertFails(t *testing.T) {
	api := newFakeAPI()
	api.failUpsert[5] = true
	kv := NewMemoryStore()
	var failures []IngestionFailure
	engine := newTestEngine(api, kv, WithPredicates(ingestAll()), WithFailureHooks(FailureHooks{
		IngestionFailed: func(_ context.Context, failure IngestionFailure) {
			failures = append(failures, failure)
		},
	}))
	ctx := context.Background()

	result := engine.Sync(ctx, published(5, "post"))
	if result.Status != SyncFailedAPI {
		t.Fatalf("expected failed_api, got %s", result.Status)
	}
	var apiErr *APIError
	if !errors.As(result.Err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", result.Err)
	}
	if !engine.WasIngested(ctx, published(5, "post")) {
		t.Fatalf("expected marker despite failure")
	}
	if len(failures) != 1 || failures[0].Code != FailureAPI {
		t.Fatalf("expected one api failure, got %+v", failures)
	}
}

func TestEngine_TransformFailure(t *testing.T) {
	cases := []Transformer{
		TransformerFunc(func(context.Context, Record) (Payload, error) { return nil, errors.New("boom") }),
		TransformerFunc(func(context.Context, Record) (Payload, error) { return nil, nil }),
	}
	for i, transformer := range cases {
		api := newFakeAPI()
		var failures []IngestionFailure
		engine := newTestEngine(api, NewMemoryStore(), WithPredicates(ingestAll()), WithTransformer(transformer), WithFailureHooks(FailureHooks{
			IngestionFailed: func(_ context.Context, failure IngestionFailure) {
				failures = append(failures, failure)
			},
		}))

		result := engine.Sync(context.Background(), published(8, "post"))
		if result.Status != SyncFailedTransform {
			t.Fatalf("case %d: expected failed_transform, got %s", i, result.Status)
		}
		var transformErr *TransformError
		if !errors.As(result.Err, &transformErr) || transformErr.ItemID != 8 {
			t.Fatalf("case %d: expected *TransformError, got %v", i, result.Err)
		}
		if api.calls() != 0 {
			t.Fatalf("case %d: expected no api calls", i)
		}
		if len(failures) != 1 || failures[0].Code != FailureTransform {
			t.Fatalf("case %d: expected transform failure hook, got %+v", i, failures)
		}
	}
}

func TestEngine_NoLongerQualifyingDeletes(t *testing.T) {
	api := newFakeAPI()
	kv := NewMemoryStore()
	engine := newTestEngine(api, kv, WithPredicates(NewPredicateChain(IngestTypes("post"))))
	ctx := context.Background()

	if result := engine.Sync(ctx, published(10, "post")); result.Status != SyncIngested {
		t.Fatalf("expected ingested, got %s", result.Status)
	}

	draft := Record{ItemID: 10, Status: "draft", Type: "post"}
	result := engine.Sync(ctx, draft)
	if result.Status != SyncDeleted {
		t.Fatalf("expected deleted, got %s", result.Status)
	}
	if len(api.deletes) != 1 || api.deletes[0].ItemID != 10 {
		t.Fatalf("unexpected deletes %v", api.deletes)
	}
	if engine.WasIngested(ctx, draft) {
		t.Fatalf("expected marker cleared")
	}
}

func TestEngine_DeleteFailureKeepsMarker(t *testing.T) {
	api := newFakeAPI()
	api.failDelete[11] = true
	kv := NewMemoryStore()
	var failures []DeletionFailure
	engine := newTestEngine(api, kv, WithPredicates(NewPredicateChain(IngestTypes("post"))), WithFailureHooks(FailureHooks{
		DeletionFailed: func(_ context.Context, failure DeletionFailure) {
			failures = append(failures, failure)
		},
	}))
	ctx := context.Background()
	if err := NewKVMarkers(kv).Mark(ctx, 11, newManualClock().Now()); err != nil {
		t.Fatalf("mark: %v", err)
	}

	result := engine.Sync(ctx, published(11, "page"))
	if result.Status != SyncFailedAPI {
		t.Fatalf("expected failed_api, got %s", result.Status)
	}
	if !engine.WasIngested(ctx, published(11, "page")) {
		t.Fatalf("expected marker kept after failed delete")
	}
	if len(failures) != 1 || failures[0].Code != FailureDeleteAPI || failures[0].RecordID.ItemID != 11 {
		t.Fatalf("unexpected deletion failures %+v", failures)
	}
}

func TestEngine_NeverIngestedIsSkipped(t *testing.T) {
	api := newFakeAPI()
	engine := newTestEngine(api, NewMemoryStore(), WithPredicates(NewPredicateChain(IngestTypes("post"))))

	result := engine.Sync(context.Background(), published(12, "page"))
	if result.Status != SyncSkipped || api.calls() != 0 {
		t.Fatalf("expected skipped without api calls, got %s/%d", result.Status, api.calls())
	}
}

func TestEngine_ShouldIngestRules(t *testing.T) {
	engine := newTestEngine(newFakeAPI(), NewMemoryStore(), WithPredicates(ingestAll()))

	if !engine.ShouldIngest(published(1, "post")) {
		t.Fatalf("expected published record to qualify")
	}
	if engine.ShouldIngest(Record{ItemID: 1, Status: "draft"}) {
		t.Fatalf("expected draft to be rejected")
	}
	revision := published(1, "post")
	revision.Revision = true
	if engine.ShouldIngest(revision) {
		t.Fatalf("expected revision to be rejected")
	}

	custom := newTestEngine(newFakeAPI(), NewMemoryStore(), WithPredicates(ingestAll()), WithAllowedStatuses("publish", "private"))
	if !custom.ShouldIngest(Record{ItemID: 1, Status: "private"}) {
		t.Fatalf("expected private to qualify with custom statuses")
	}
}

func TestEngine_HookPanicIsRecovered(t *testing.T) {
	api := newFakeAPI()
	api.failUpsert[1] = true
	engine := newTestEngine(api, NewMemoryStore(), WithPredicates(ingestAll()), WithFailureHooks(FailureHooks{
		IngestionFailed: func(context.Context, IngestionFailure) { panic("hook") },
	}))

	result := engine.Sync(context.Background(), published(1, "post"))
	if result.Status != SyncFailedAPI {
		t.Fatalf("expected failed_api, got %s", result.Status)
	}
}

func TestEngine_DeleteRecordIDHasNoBookkeeping(t *testing.T) {
	api := newFakeAPI()
	kv := NewMemoryStore()
	engine := newTestEngine(api, kv, WithPredicates(ingestAll()))
	ctx := context.Background()
	if err := NewKVMarkers(kv).Mark(ctx, 4, newManualClock().Now()); err != nil {
		t.Fatalf("mark: %v", err)
	}

	if result := engine.DeleteRecordID(ctx, engine.RecordIDFor(4)); !result.Success {
		t.Fatalf("expected success, got %v", result.Err)
	}
	if !engine.WasIngested(ctx, published(4, "post")) {
		t.Fatalf("expected marker untouched")
	}
}
