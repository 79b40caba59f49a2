package ingestsync

import (
	"context"
	"fmt"
	"math"
	"time"
)

const progressKey = "ingestsync_sync_progress"

// BulkStatus is the lifecycle state of a bulk sync pass.
type BulkStatus string

const (
	// BulkIdle means no pass has been started.
	BulkIdle BulkStatus = "idle"
	// BulkRunning means a pass is being advanced by worker ticks.
	BulkRunning BulkStatus = "running"
	// BulkCompleted means the cursor reached the end of the record set.
	BulkCompleted BulkStatus = "completed"
	// BulkFailed means the pass was aborted.
	BulkFailed BulkStatus = "failed"
)

// BulkProgress is the persisted state of a bulk pass. LastItemID is the only
// resumption cursor and never decreases while the pass runs.
type BulkProgress struct {
	Status      BulkStatus `json:"status" yaml:"status"`
	Total       int        `json:"total" yaml:"total"`
	Processed   int        `json:"processed" yaml:"processed"`
	Synced      int        `json:"synced" yaml:"synced"`
	Skipped     int        `json:"skipped" yaml:"skipped"`
	Failed      int        `json:"failed" yaml:"failed"`
	Deleted     int        `json:"deleted" yaml:"deleted"`
	LastItemID  int64      `json:"last_item_id" yaml:"last_item_id"`
	Scope       []string   `json:"scope" yaml:"scope"`
	StartedAt   time.Time  `json:"started_at" yaml:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at" yaml:"updated_at"`
	CompletedAt *time.Time `json:"completed_at" yaml:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// Percent returns processed/total as a percentage rounded to one decimal.
func (p BulkProgress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}

	return math.Round(float64(p.Processed)/float64(p.Total)*1000) / 10
}

// Duration returns the elapsed time of a finished pass, or zero.
func (p BulkProgress) Duration() time.Duration {
	if p.CompletedAt == nil {
		return 0
	}

	return p.CompletedAt.Sub(p.StartedAt)
}

// ProgressTracker persists the bulk pass singleton in a KVStore.
type ProgressTracker struct {
	kv  KVStore
	cfg Config
}

// NewProgressTracker constructs a KV-backed ProgressTracker.
func NewProgressTracker(kv KVStore, opts ...Option) *ProgressTracker {
	if kv == nil {
		panic("ingestsync: nil KVStore")
	}

	return &ProgressTracker{kv: kv, cfg: buildConfig(opts)}
}

// Start begins a new pass over total records of the given item types. An empty
// scope means every type. It returns ErrBulkSyncRunning while a pass is running
// and leaves that pass untouched.
func (t *ProgressTracker) Start(ctx context.Context, total int, scope []string) error {
	running, err := t.IsRunning(ctx)
	if err != nil {
		return err
	}
	if running {
		return ErrBulkSyncRunning
	}

	now := t.cfg.Clock.Now()

	return t.save(ctx, &BulkProgress{
		Status:    BulkRunning,
		Total:     total,
		Scope:     append([]string(nil), scope...),
		StartedAt: now,
		UpdatedAt: now,
	})
}

// Update adds the counts of a processed page and moves the cursor.
// The cursor is never moved backwards.
func (t *ProgressTracker) Update(ctx context.Context, counts Counts, lastItemID int64) error {
	progress, err := t.running(ctx)
	if err != nil || progress == nil {
		return err
	}

	progress.Processed += counts.Total()
	progress.Synced += counts.Synced
	progress.Skipped += counts.Skipped
	progress.Failed += counts.Failed
	progress.Deleted += counts.Deleted
	if lastItemID > progress.LastItemID {
		progress.LastItemID = lastItemID
	}
	progress.UpdatedAt = t.cfg.Clock.Now()

	return t.save(ctx, progress)
}

// Complete marks a running pass as completed.
func (t *ProgressTracker) Complete(ctx context.Context) error {
	return t.finish(ctx, BulkCompleted, "")
}

// Fail marks a running pass as failed with a reason.
func (t *ProgressTracker) Fail(ctx context.Context, reason string) error {
	return t.finish(ctx, BulkFailed, reason)
}

// Get returns the current progress, or nil when no pass was ever started.
func (t *ProgressTracker) Get(ctx context.Context) (*BulkProgress, error) {
	var progress BulkProgress
	found, err := loadJSON(ctx, t.kv, progressKey, &progress)
	if err != nil || !found {
		return nil, err
	}

	return &progress, nil
}

// IsRunning reports whether a pass is running.
func (t *ProgressTracker) IsRunning(ctx context.Context) (bool, error) {
	progress, err := t.Get(ctx)
	if err != nil {
		return false, err
	}

	return progress != nil && progress.Status == BulkRunning, nil
}

// Reset clears the progress so a new pass can start. A page already being
// processed completes, but no further pages run.
func (t *ProgressTracker) Reset(ctx context.Context) error {
	return t.kv.Delete(ctx, progressKey)
}

// Summary returns a human-readable description of the current progress.
func (t *ProgressTracker) Summary(ctx context.Context) (string, error) {
	progress, err := t.Get(ctx)
	if err != nil {
		return "", err
	}

	return Summarize(progress), nil
}

// Summarize renders a progress snapshot for operators.
func Summarize(progress *BulkProgress) string {
	if progress == nil {
		return "No sync has been initiated."
	}

	switch progress.Status {
	case BulkRunning:
		return fmt.Sprintf(
			"Sync in progress: %d/%d records processed (%.1f%%), %d synced, %d skipped, %d failed, %d deleted.",
			progress.Processed, progress.Total, progress.Percent(),
			progress.Synced, progress.Skipped, progress.Failed, progress.Deleted,
		)
	case BulkCompleted:
		return fmt.Sprintf(
			"Sync completed in %s, %d synced, %d skipped, %d failed, %d deleted out of %d total.",
			progress.Duration().Round(time.Second),
			progress.Synced, progress.Skipped, progress.Failed, progress.Deleted, progress.Total,
		)
	case BulkFailed:
		reason := progress.Error
		if reason == "" {
			reason = "Unknown"
		}

		return fmt.Sprintf("Sync failed after processing %d/%d records. Reason: %s", progress.Processed, progress.Total, reason)
	default:
		return "No sync in progress."
	}
}

func (t *ProgressTracker) finish(ctx context.Context, status BulkStatus, reason string) error {
	progress, err := t.running(ctx)
	if err != nil || progress == nil {
		return err
	}

	now := t.cfg.Clock.Now()
	progress.Status = status
	progress.Error = reason
	progress.CompletedAt = &now
	progress.UpdatedAt = now

	return t.save(ctx, progress)
}

func (t *ProgressTracker) running(ctx context.Context) (*BulkProgress, error) {
	progress, err := t.Get(ctx)
	if err != nil {
		return nil, err
	}
	if progress == nil || progress.Status != BulkRunning {
		return nil, nil
	}

	return progress, nil
}

func (t *ProgressTracker) save(ctx context.Context, progress *BulkProgress) error {
	return saveJSON(ctx, t.kv, progressKey, progress)
}
