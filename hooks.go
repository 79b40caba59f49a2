package ingestsync

import "context"

// Hooks adapts host content events to queue or inline sync operations.
type Hooks struct {
	engine *Engine
	queue  *Queue
	cfg    Config
}

// NewHooks constructs Hooks. In async mode events are queued for the worker;
// otherwise they are synced inline and queue may be nil.
func NewHooks(engine *Engine, queue *Queue, opts ...Option) *Hooks {
	if engine == nil {
		panic("ingestsync: nil Engine")
	}

	cfg := buildConfig(opts)
	if cfg.Async && queue == nil {
		panic("ingestsync: nil Queue in async mode")
	}

	return &Hooks{engine: engine, queue: queue, cfg: cfg}
}

// OnRecordSaved handles a host save. Revisions and records that neither
// qualify nor were ever ingested are ignored.
func (h *Hooks) OnRecordSaved(ctx context.Context, record Record) error {
	if record.Revision {
		return nil
	}
	if !h.engine.ShouldIngest(record) && !h.engine.WasIngested(ctx, record) {
		return nil
	}

	if h.cfg.Async {
		return h.queue.EnqueueSync(ctx, record.ItemID)
	}

	result := h.engine.Sync(ctx, record)
	if result.Status.Failed() {
		h.cfg.Logger.Warn("ingestsync inline sync failed", "item_id", record.ItemID, "status", string(result.Status), "err", result.Err)
	}

	return nil
}

// OnRecordPermanentlyRemoved handles a host delete of a previously ingested
// record. A failed inline delete at queue capacity is returned as
// *CapacityFallbackError.
func (h *Hooks) OnRecordPermanentlyRemoved(ctx context.Context, record Record) error {
	if !h.engine.WasIngested(ctx, record) {
		return nil
	}

	if h.cfg.Async {
		return h.queue.EnqueueDelete(ctx, record.ItemID)
	}

	if record.Status != StatusPublished {
		return nil
	}
	result := h.engine.DeleteRecord(ctx, record)
	if !result.Success {
		h.cfg.Logger.Warn("ingestsync inline delete failed", "item_id", record.ItemID, "err", result.Err)
	}

	return nil
}
