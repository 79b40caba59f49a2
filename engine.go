package ingestsync

import "context"

// Engine decides ingest, delete or skip for a single record and performs it.
type Engine struct {
	api     API
	markers MarkerStore
	cfg     Config
	allowed map[string]struct{}
}

// NewEngine constructs an Engine. With no predicate registered, ingestion is disabled.
func NewEngine(api API, markers MarkerStore, opts ...Option) *Engine {
	if api == nil {
		panic("ingestsync: nil API")
	}
	if markers == nil {
		panic("ingestsync: nil MarkerStore")
	}

	cfg := buildConfig(opts)
	allowed := make(map[string]struct{}, len(cfg.AllowedStatuses))
	for _, status := range cfg.AllowedStatuses {
		allowed[status] = struct{}{}
	}

	return &Engine{api: api, markers: markers, cfg: cfg, allowed: allowed}
}

// RecordIDFor builds the composite id of an item for this engine's site and tenant.
func (e *Engine) RecordIDFor(itemID int64) RecordID {
	return NewRecordID(e.cfg.SiteID, e.cfg.TenantID, itemID)
}

// PredicatesRegistered reports whether a should-ingest predicate is registered.
func (e *Engine) PredicatesRegistered() bool {
	return e.cfg.Predicates.Registered()
}

// ShouldIngest evaluates the predicate chain. It is false when no predicate is
// registered, for revisions, and for statuses that are not allowed.
func (e *Engine) ShouldIngest(record Record) bool {
	if !e.cfg.Predicates.Registered() {
		return false
	}
	if record.Revision {
		return false
	}
	if _, ok := e.allowed[record.Status]; !ok {
		return false
	}
	verdict, _ := e.cfg.Predicates.Evaluate(record)

	return verdict == Ingest
}

// WasIngested reports whether an ingestion attempt was recorded for record.
// Revisions are never considered ingested.
func (e *Engine) WasIngested(ctx context.Context, record Record) bool {
	if record.Revision {
		return false
	}
	marked, err := e.markers.Marked(ctx, record.ItemID)
	if err != nil {
		e.cfg.Logger.Warn("ingestsync marker read failed", "item_id", record.ItemID, "err", err)

		return false
	}

	return marked
}

// Sync ingests, deletes or skips a single record. Errors are captured in the result.
func (e *Engine) Sync(ctx context.Context, record Record) SyncResult {
	if !e.ShouldIngest(record) {
		if !e.WasIngested(ctx, record) {
			return SyncResult{Status: SyncSkipped, Record: record}
		}
		// Deleting needs a live policy to evaluate against.
		if !e.cfg.Predicates.Registered() {
			return SyncResult{Status: SyncSkipped, Record: record}
		}
		result := e.DeleteRecord(ctx, record)
		if !result.Success {
			return SyncResult{Status: SyncFailedAPI, Record: record, Err: result.Err}
		}

		return SyncResult{Status: SyncDeleted, Record: record}
	}

	// Marked before the call so a write the API accepted but never acknowledged
	// still leaves a trace for a later delete.
	if err := e.markers.Mark(ctx, record.ItemID, e.cfg.Clock.Now()); err != nil {
		e.cfg.Logger.Warn("ingestsync marker write failed", "item_id", record.ItemID, "err", err)
	}

	id := e.RecordIDFor(record.ItemID)
	payload, err := e.transform(ctx, record)
	if err != nil {
		e.cfg.Hooks.ingestionFailed(ctx, e.cfg.Logger, IngestionFailure{Code: FailureTransform, Record: record, Err: err})

		return SyncResult{Status: SyncFailedTransform, Record: record, Err: err}
	}
	payload[e.cfg.RecordIDField] = id.String()

	result := e.api.Upsert(ctx, id, payload)
	if !result.Success {
		e.cfg.Hooks.ingestionFailed(ctx, e.cfg.Logger, IngestionFailure{Code: FailureAPI, Record: record, Err: result.Err})

		return SyncResult{Status: SyncFailedAPI, Record: record, Err: result.Err}
	}

	return SyncResult{Status: SyncIngested, Record: record}
}

// DeleteRecord removes record from the remote system and clears its marker on success.
func (e *Engine) DeleteRecord(ctx context.Context, record Record) APIResult {
	return e.deleteRemote(ctx, record, e.RecordIDFor(record.ItemID))
}

// DeleteItem removes a queued item by its stored composite id. The host object
// may no longer exist, so only the item id is known locally.
func (e *Engine) DeleteItem(ctx context.Context, itemID int64, id RecordID) APIResult {
	return e.deleteRemote(ctx, Record{ItemID: itemID}, id)
}

// DeleteRecordID deletes by composite id without any local existence check or bookkeeping.
func (e *Engine) DeleteRecordID(ctx context.Context, id RecordID) APIResult {
	return e.api.Delete(ctx, id)
}

func (e *Engine) deleteRemote(ctx context.Context, record Record, id RecordID) APIResult {
	result := e.api.Delete(ctx, id)
	if !result.Success {
		e.cfg.Hooks.deletionFailed(ctx, e.cfg.Logger, DeletionFailure{
			Code:     FailureDeleteAPI,
			Record:   record,
			RecordID: id,
			Err:      result.Err,
		})

		return result
	}

	if err := e.markers.Clear(ctx, record.ItemID); err != nil {
		e.cfg.Logger.Warn("ingestsync marker clear failed", "item_id", record.ItemID, "err", err)
	}

	return result
}

func (e *Engine) transform(ctx context.Context, record Record) (Payload, error) {
	payload, err := e.cfg.Transformer.Transform(ctx, record)
	if err == nil && payload == nil {
		err = ErrNilPayload
	}
	if err != nil {
		return nil, &TransformError{ItemID: record.ItemID, Err: err}
	}

	return payload, nil
}
