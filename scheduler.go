package ingestsync

import (
	"context"
	"time"
)

const (
	scheduleKey = "ingestsync_schedule"
	staleFactor = 2
)

type scheduleState struct {
	NextRun  int64 `json:"next_run"`
	Interval int64 `json:"interval"`
}

// Scheduler persists whether a processing tick is armed and when it is due.
// An unarmed scheduler means no ticks run until new work appears.
type Scheduler struct {
	kv  KVStore
	cfg Config
}

// NewScheduler constructs a KV-backed Scheduler.
func NewScheduler(kv KVStore, opts ...Option) *Scheduler {
	if kv == nil {
		panic("ingestsync: nil KVStore")
	}

	return &Scheduler{kv: kv, cfg: buildConfig(opts)}
}

// Interval returns the configured tick interval.
func (s *Scheduler) Interval() time.Duration {
	return s.cfg.Interval
}

// NextRun returns the due time of the next tick and whether one is armed.
func (s *Scheduler) NextRun(ctx context.Context) (time.Time, bool, error) {
	var state scheduleState
	found, err := loadJSON(ctx, s.kv, scheduleKey, &state)
	if err != nil || !found || state.NextRun == 0 {
		return time.Time{}, false, err
	}

	return unixTime(state.NextRun), true, nil
}

// IsScheduled reports whether a tick is armed.
func (s *Scheduler) IsScheduled(ctx context.Context) (bool, error) {
	_, ok, err := s.NextRun(ctx)

	return ok, err
}

// Schedule arms a tick due now. It is a no-op when a tick is already armed.
func (s *Scheduler) Schedule(ctx context.Context) error {
	scheduled, err := s.IsScheduled(ctx)
	if err != nil || scheduled {
		return err
	}

	if err := s.store(ctx, s.cfg.Clock.Now()); err != nil {
		return err
	}
	s.cfg.Logger.Info("ingestsync scheduled queue processing", "interval", s.cfg.Interval)

	return nil
}

// Unschedule disarms the next tick.
func (s *Scheduler) Unschedule(ctx context.Context) error {
	scheduled, err := s.IsScheduled(ctx)
	if err != nil || !scheduled {
		return err
	}
	if err := s.kv.Delete(ctx, scheduleKey); err != nil {
		return err
	}
	s.cfg.Logger.Info("ingestsync unscheduled queue processing")

	return nil
}

// Advance moves an armed tick one interval past now.
func (s *Scheduler) Advance(ctx context.Context) error {
	scheduled, err := s.IsScheduled(ctx)
	if err != nil || !scheduled {
		return err
	}

	return s.store(ctx, s.cfg.Clock.Now().Add(s.cfg.Interval))
}

// Due reports whether an armed tick is due.
func (s *Scheduler) Due(ctx context.Context) (bool, error) {
	next, ok, err := s.NextRun(ctx)
	if err != nil || !ok {
		return false, err
	}

	return !next.After(s.cfg.Clock.Now()), nil
}

// RescheduleIfStale re-arms the tick when the next run is more than twice the
// interval away in either direction, e.g. after the interval was shortened.
func (s *Scheduler) RescheduleIfStale(ctx context.Context) (bool, error) {
	next, ok, err := s.NextRun(ctx)
	if err != nil || !ok {
		return false, err
	}

	until := next.Sub(s.cfg.Clock.Now())
	limit := staleFactor * s.cfg.Interval
	if until <= limit && until >= -limit {
		return false, nil
	}

	s.cfg.Logger.Info("ingestsync rescheduling stale tick", "time_until_next", until, "expected_interval", s.cfg.Interval)
	if err := s.Unschedule(ctx); err != nil {
		return false, err
	}
	if err := s.Schedule(ctx); err != nil {
		return false, err
	}

	return true, nil
}

func (s *Scheduler) store(ctx context.Context, next time.Time) error {
	return saveJSON(ctx, s.kv, scheduleKey, scheduleState{
		NextRun:  next.Unix(),
		Interval: int64(s.cfg.Interval / time.Second),
	})
}
