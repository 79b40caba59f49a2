package ingestsync

import "time"

// Metrics captures processor-level telemetry.
type Metrics interface {
	// ObserveTickDuration records the time to process one tick.
	ObserveTickDuration(duration time.Duration)
	// AddSynced increments the count of ingested records.
	AddSynced(count int)
	// AddDeleted increments the count of records deleted remotely.
	AddDeleted(count int)
	// AddFailed increments the count of failed items.
	AddFailed(count int)
	// AddSkipped increments the count of skipped items.
	AddSkipped(count int)
	// SetQueueDepth updates the current queue sizes.
	SetQueueDepth(sync, delete int)
}

// NopMetrics is a no-op metrics recorder.
type NopMetrics struct{}

// ObserveTickDuration implements Metrics.
func (NopMetrics) ObserveTickDuration(time.Duration) {}

// AddSynced implements Metrics.
func (NopMetrics) AddSynced(int) {}

// AddDeleted implements Metrics.
func (NopMetrics) AddDeleted(int) {}

// AddFailed implements Metrics.
func (NopMetrics) AddFailed(int) {}

// AddSkipped implements Metrics.
func (NopMetrics) AddSkipped(int) {}

// SetQueueDepth implements Metrics.
func (NopMetrics) SetQueueDepth(int, int) {}
