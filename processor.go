package ingestsync

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Processor runs one tick: queued deletes, then queued syncs, then a bulk page,
// all within a single item budget.
type Processor struct {
	engine    *Engine
	queue     *Queue
	progress  *ProgressTracker
	source    RecordSource
	scheduler *Scheduler
	cfg       Config
}

// NewProcessor constructs a Processor. A nil scheduler disables unscheduling
// when the queues drain.
func NewProcessor(
	engine *Engine,
	queue *Queue,
	progress *ProgressTracker,
	source RecordSource,
	scheduler *Scheduler,
	opts ...Option,
) *Processor {
	if engine == nil {
		panic("ingestsync: nil Engine")
	}
	if queue == nil {
		panic("ingestsync: nil Queue")
	}
	if progress == nil {
		panic("ingestsync: nil ProgressTracker")
	}
	if source == nil {
		panic("ingestsync: nil RecordSource")
	}

	return &Processor{
		engine:    engine,
		queue:     queue,
		progress:  progress,
		source:    source,
		scheduler: scheduler,
		cfg:       buildConfig(opts),
	}
}

// Process runs one tick of at most batchSize item operations. A non-positive
// batchSize uses the configured default. Per-item failures, including records
// the source cannot load, are counted and dequeued. The returned error is
// reserved for queue and progress storage failures.
func (p *Processor) Process(ctx context.Context, batchSize int) (Counts, error) {
	if batchSize <= 0 {
		batchSize = p.cfg.BatchSize
	}

	start := p.cfg.Clock.Now()
	tick := uuid.NewString()
	var counts Counts
	defer func() {
		p.cfg.Metrics.ObserveTickDuration(p.cfg.Clock.Now().Sub(start))
		p.cfg.Metrics.AddSynced(counts.Synced)
		p.cfg.Metrics.AddDeleted(counts.Deleted)
		p.cfg.Metrics.AddFailed(counts.Failed)
		p.cfg.Metrics.AddSkipped(counts.Skipped)
	}()

	if err := p.processDeletes(ctx, tick, batchSize, &counts); err != nil {
		return counts, err
	}

	if remaining := batchSize - counts.Deleted - counts.Failed; remaining > 0 {
		if err := p.processSyncs(ctx, tick, remaining, &counts); err != nil {
			return counts, err
		}
	}

	if remaining := batchSize - counts.Total(); remaining > 0 {
		if err := p.processBulk(ctx, tick, remaining, &counts); err != nil {
			return counts, err
		}
	}

	p.cfg.Logger.Debug(
		"ingestsync tick processed",
		"tick", tick,
		"synced", counts.Synced,
		"deleted", counts.Deleted,
		"failed", counts.Failed,
		"skipped", counts.Skipped,
	)

	if err := p.unscheduleIfIdle(ctx); err != nil {
		return counts, err
	}

	return counts, nil
}

// HasWork reports whether any queue holds items or a bulk pass is running.
func (p *Processor) HasWork(ctx context.Context) (bool, error) {
	counts, err := p.queue.Counts(ctx)
	if err != nil {
		return false, err
	}
	p.cfg.Metrics.SetQueueDepth(counts.Sync, counts.Delete)
	if counts.Total() > 0 {
		return true, nil
	}

	return p.progress.IsRunning(ctx)
}

func (p *Processor) processDeletes(ctx context.Context, tick string, limit int, counts *Counts) error {
	entries, err := p.queue.ListQueuedDelete(ctx, limit)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		result := p.engine.DeleteItem(ctx, entry.ItemID, entry.RecordID)
		if result.Success {
			counts.Deleted++
		} else {
			counts.Failed++
			p.cfg.Logger.Warn(
				"ingestsync queued delete failed",
				"tick", tick,
				"item_id", entry.ItemID,
				"record_id", entry.RecordID.String(),
				"err", result.Err,
			)
		}
		if err := p.queue.DequeueDelete(ctx, entry.ItemID); err != nil {
			return err
		}
	}

	return nil
}

func (p *Processor) processSyncs(ctx context.Context, tick string, limit int, counts *Counts) error {
	items, err := p.queue.ListQueuedSync(ctx, limit)
	if err != nil {
		return err
	}

	for _, itemID := range items {
		record, found, err := p.source.Get(ctx, itemID)
		switch {
		case err != nil:
			counts.Failed++
			err = fmt.Errorf("ingestsync: load item %d failed: %w", itemID, err)
			p.cfg.Logger.Warn("ingestsync queued sync failed", "tick", tick, "item_id", itemID, "err", err)
			p.cfg.Hooks.ingestionFailed(ctx, p.cfg.Logger, IngestionFailure{
				Code:   FailureSource,
				Record: Record{ItemID: itemID},
				Err:    err,
			})
		case !found:
			counts.Skipped++
		default:
			result := p.engine.Sync(ctx, record)
			counts.Record(result.Status)
			if result.Status.Failed() {
				p.cfg.Logger.Warn(
					"ingestsync queued sync failed",
					"tick", tick,
					"item_id", itemID,
					"status", string(result.Status),
					"err", result.Err,
				)
			}
		}

		if err := p.queue.DequeueSync(ctx, itemID); err != nil {
			return err
		}
	}

	return nil
}

func (p *Processor) processBulk(ctx context.Context, tick string, limit int, counts *Counts) error {
	progress, err := p.progress.Get(ctx)
	if err != nil || progress == nil || progress.Status != BulkRunning {
		return err
	}

	page, err := p.source.ListAfter(ctx, progress.LastItemID, limit, progress.Scope)
	if err != nil {
		p.cfg.Logger.Error(
			"ingestsync bulk sync failed",
			"tick", tick,
			"last_item_id", progress.LastItemID,
			"err", err,
		)

		return p.progress.Fail(ctx, err.Error())
	}
	if len(page) == 0 {
		p.cfg.Logger.Info("ingestsync bulk sync completed", "tick", tick, "processed", progress.Processed)

		return p.progress.Complete(ctx)
	}

	var pageCounts Counts
	lastItemID := progress.LastItemID
	for _, record := range page {
		result := p.engine.Sync(ctx, record)
		pageCounts.Record(result.Status)
		if record.ItemID > lastItemID {
			lastItemID = record.ItemID
		}
	}
	counts.Add(pageCounts)

	if err := p.progress.Update(ctx, pageCounts, lastItemID); err != nil {
		return err
	}
	p.cfg.Logger.Debug("ingestsync bulk page processed", "tick", tick, "items", len(page), "last_item_id", lastItemID)

	if len(page) < limit {
		p.cfg.Logger.Info("ingestsync bulk sync completed", "tick", tick, "processed", progress.Processed+pageCounts.Total())

		return p.progress.Complete(ctx)
	}

	return nil
}

func (p *Processor) unscheduleIfIdle(ctx context.Context) error {
	if p.scheduler == nil {
		return nil
	}
	busy, err := p.HasWork(ctx)
	if err != nil || busy {
		return err
	}

	return p.scheduler.Unschedule(ctx)
}
