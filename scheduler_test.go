package ingestsync

import (
	"context"
	"testing"
	"time"
)

func TestScheduler_ScheduleIsIdempotent(t *testing.T) {
	clock := newManualClock()
	scheduler := NewScheduler(NewMemoryStore(), WithClock(clock))
	ctx := context.Background()

	if err := scheduler.Schedule(ctx); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	first, ok, err := scheduler.NextRun(ctx)
	if err != nil || !ok {
		t.Fatalf("expected armed schedule, got %v/%v", ok, err)
	}

	clock.Advance(10 * time.Second)
	if err := scheduler.Schedule(ctx); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	second, _, _ := scheduler.NextRun(ctx)
	if !second.Equal(first) {
		t.Fatalf("expected schedule unchanged, got %s then %s", first, second)
	}
}

func TestScheduler_AdvanceAndDue(t *testing.T) {
	clock := newManualClock()
	scheduler := NewScheduler(NewMemoryStore(), WithClock(clock), WithInterval(2*time.Minute))
	ctx := context.Background()

	if err := scheduler.Advance(ctx); err != nil {
		t.Fatalf("advance unarmed: %v", err)
	}
	if scheduled, _ := scheduler.IsScheduled(ctx); scheduled {
		t.Fatalf("expected advance to leave an unarmed schedule alone")
	}

	if err := scheduler.Schedule(ctx); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if due, _ := scheduler.Due(ctx); !due {
		t.Fatalf("expected new schedule to be due")
	}
	if err := scheduler.Advance(ctx); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if due, _ := scheduler.Due(ctx); due {
		t.Fatalf("expected advanced schedule not due")
	}
	clock.Advance(2 * time.Minute)
	if due, _ := scheduler.Due(ctx); !due {
		t.Fatalf("expected schedule due after one interval")
	}
}

func TestScheduler_IntervalFloor(t *testing.T) {
	scheduler := NewScheduler(NewMemoryStore(), WithInterval(5*time.Second))
	if scheduler.Interval() != MinInterval {
		t.Fatalf("expected interval raised to %s, got %s", MinInterval, scheduler.Interval())
	}
}

func TestScheduler_RescheduleIfStale(t *testing.T) {
	kv := NewMemoryStore()
	clock := newManualClock()
	ctx := context.Background()

	long := NewScheduler(kv, WithClock(clock), WithInterval(time.Hour))
	if err := long.Schedule(ctx); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := long.Advance(ctx); err != nil {
		t.Fatalf("advance: %v", err)
	}

	short := NewScheduler(kv, WithClock(clock), WithInterval(time.Minute))
	rescheduled, err := short.RescheduleIfStale(ctx)
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if !rescheduled {
		t.Fatalf("expected stale schedule to be replaced")
	}
	next, ok, _ := short.NextRun(ctx)
	if !ok || !next.Equal(clock.Now().Truncate(time.Second)) {
		t.Fatalf("expected next run now, got %s", next)
	}

	rescheduled, err = short.RescheduleIfStale(ctx)
	if err != nil || rescheduled {
		t.Fatalf("expected fresh schedule kept, got %v/%v", rescheduled, err)
	}
}

func TestScheduler_OverdueIsStale(t *testing.T) {
	clock := newManualClock()
	scheduler := NewScheduler(NewMemoryStore(), WithClock(clock))
	ctx := context.Background()

	if err := scheduler.Schedule(ctx); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	clock.Advance(2 * time.Minute)
	if rescheduled, _ := scheduler.RescheduleIfStale(ctx); rescheduled {
		t.Fatalf("expected exactly two intervals overdue to be tolerated")
	}
	clock.Advance(time.Second)
	if rescheduled, _ := scheduler.RescheduleIfStale(ctx); !rescheduled {
		t.Fatalf("expected overdue schedule to be replaced")
	}
}

func TestScheduler_Unschedule(t *testing.T) {
	kv := NewMemoryStore()
	scheduler := NewScheduler(kv)
	ctx := context.Background()

	if err := scheduler.Unschedule(ctx); err != nil {
		t.Fatalf("unschedule unarmed: %v", err)
	}
	if err := scheduler.Schedule(ctx); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := scheduler.Unschedule(ctx); err != nil {
		t.Fatalf("unschedule: %v", err)
	}
	if kv.Len() != 0 {
		t.Fatalf("expected schedule key removed")
	}
}
