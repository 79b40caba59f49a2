package ingestsync

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Locker provides a cross-process lock held for the duration of a tick.
type Locker interface {
	// TryLock acquires the lock without waiting. When ok is true, release must
	// be called once the tick has finished.
	TryLock(ctx context.Context) (release func(), ok bool, err error)
}

// Worker drives the Processor on the persisted schedule.
type Worker struct {
	processor *Processor
	scheduler *Scheduler
	cfg       Config
}

// NewWorker constructs a Worker.
func NewWorker(processor *Processor, scheduler *Scheduler, opts ...Option) *Worker {
	if processor == nil {
		panic("ingestsync: nil Processor")
	}
	if scheduler == nil {
		panic("ingestsync: nil Scheduler")
	}

	return &Worker{processor: processor, scheduler: scheduler, cfg: buildConfig(opts)}
}

// Run polls the schedule until ctx is canceled and runs every due tick.
func (w *Worker) Run(ctx context.Context) error {
	if _, err := w.scheduler.RescheduleIfStale(ctx); err != nil {
		return err
	}
	if err := w.MaybeSchedule(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}

			return ctx.Err()
		case <-ticker.C:
		}

		due, err := w.scheduler.Due(ctx)
		if err != nil {
			w.cfg.Logger.Error("ingestsync schedule read failed", "err", err)

			continue
		}
		if !due {
			continue
		}
		if _, _, err := w.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.cfg.Logger.Error("ingestsync tick failed", "err", err)
		}
	}
}

// RunOnce runs a single tick immediately, regardless of the schedule.
func (w *Worker) RunOnce(ctx context.Context, batchSize int) (Counts, error) {
	counts, _, err := w.tick(ctx, batchSize)

	return counts, err
}

// Tick runs one scheduled tick with the configured batch size. ran is false
// when another process holds the lock.
func (w *Worker) Tick(ctx context.Context) (counts Counts, ran bool, err error) {
	return w.tick(ctx, w.cfg.BatchSize)
}

// MaybeSchedule arms the schedule when queued or bulk work exists.
func (w *Worker) MaybeSchedule(ctx context.Context) error {
	busy, err := w.processor.HasWork(ctx)
	if err != nil || !busy {
		return err
	}

	return w.scheduler.Schedule(ctx)
}

func (w *Worker) tick(ctx context.Context, batchSize int) (Counts, bool, error) {
	if w.cfg.Locker != nil {
		release, ok, err := w.cfg.Locker.TryLock(ctx)
		if err != nil {
			return Counts{}, false, fmt.Errorf("ingestsync: acquire tick lock failed: %w", err)
		}
		if !ok {
			w.cfg.Logger.Debug("ingestsync tick skipped, lock held elsewhere")

			return Counts{}, false, nil
		}
		defer release()
	}

	if _, err := w.scheduler.RescheduleIfStale(ctx); err != nil {
		return Counts{}, true, err
	}

	// The schedule advances even after a failed tick so a persistent storage
	// error is retried once per interval, not on every poll.
	counts, err := w.processor.Process(ctx, batchSize)
	if advanceErr := w.scheduler.Advance(ctx); advanceErr != nil {
		return counts, true, errors.Join(err, advanceErr)
	}

	return counts, true, err
}
