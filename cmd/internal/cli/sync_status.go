package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/velmie/ingestsync"
)

// NewSyncStatusCommand creates the sync-status command.
func NewSyncStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-status",
		Short: "Show bulk sync progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSyncStatus(cmd, rootOpts)
		},
	}
}

// statusSnapshot is the structured sync-status payload.
type statusSnapshot struct {
	ingestsync.BulkProgress `yaml:",inline"`
	Percentage              float64 `json:"percentage" yaml:"percentage"`
}

type idleSnapshot struct {
	Status  ingestsync.BulkStatus `json:"status" yaml:"status"`
	Message string                `json:"message" yaml:"message"`
}

func runSyncStatus(cmd *cobra.Command, opts *RootOptions) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()
	p := newPrinter(cmd, opts)

	progress, err := a.svc.Progress.Get(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "read sync progress", err)
	}

	if p.structured() {
		if progress == nil {
			return p.Data(idleSnapshot{Status: ingestsync.BulkIdle, Message: ingestsync.Summarize(nil)})
		}
		return p.Data(statusSnapshot{BulkProgress: *progress, Percentage: progress.Percent()})
	}

	if progress == nil {
		p.Log("%s", ingestsync.Summarize(nil))
		return nil
	}

	p.Log("=== Bulk Sync Status ===")
	p.Log("Status: %s", strings.ToUpper(string(progress.Status)))
	p.Log("Progress: %d / %d records", progress.Processed, progress.Total)
	if progress.Total > 0 {
		p.Log("Percentage: %.1f%%", progress.Percent())
	}
	p.Log("")
	p.Log("Synced:  %d", progress.Synced)
	p.Log("Skipped: %d", progress.Skipped)
	p.Log("Failed:  %d", progress.Failed)
	p.Log("Deleted: %d", progress.Deleted)
	p.Log("")
	p.Log("Cursor (last_item_id): %d", progress.LastItemID)
	if len(progress.Scope) > 0 {
		p.Log("Types: %s", strings.Join(progress.Scope, ", "))
	}
	if !progress.StartedAt.IsZero() {
		p.Log("Started: %s ago", time.Since(progress.StartedAt).Round(time.Second))
	}
	if progress.CompletedAt != nil {
		p.Log("Duration: %s", progress.Duration().Round(time.Second))
	}
	if progress.Error != "" {
		p.Warning("Error: %s", progress.Error)
	}

	return nil
}
