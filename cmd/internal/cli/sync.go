package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/velmie/ingestsync"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	Status bool
	Reset  bool
	Scope  []string
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Start a bulk sync of published records",
		Long: `Queue a bulk sync of every published record. The worker processes it in
batches. Use --status to check progress and --reset to clear a stuck sync.`,
		Example: `  ingestsync sync
  ingestsync sync --scope post,page
  ingestsync sync --status --format json
  ingestsync sync --reset`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Status, "status", false, "show the current bulk sync status")
	cmd.Flags().BoolVar(&opts.Reset, "reset", false, "reset bulk sync progress")
	cmd.Flags().StringSliceVar(&opts.Scope, "scope", nil, "record types to sync (default: all)")

	return cmd
}

type syncResponse struct {
	Success bool                  `json:"success" yaml:"success"`
	Message string                `json:"message" yaml:"message"`
	Status  ingestsync.BulkStatus `json:"status" yaml:"status"`
	Total   int                   `json:"total,omitempty" yaml:"total,omitempty"`
	Scope   []string              `json:"scope,omitempty" yaml:"scope,omitempty"`
}

func runSync(cmd *cobra.Command, opts *SyncOptions) error {
	if opts.Status {
		return runSyncStatus(cmd, opts.RootOptions)
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()
	p := newPrinter(cmd, opts.RootOptions)

	if opts.Reset {
		return resetSync(cmd, a, p)
	}

	scope := splitList(opts.Scope)
	if len(scope) == 0 {
		scope = a.settings.IngestTypes
	}

	total, err := a.svc.StartBulk(ctx, scope)
	switch {
	case errors.Is(err, ingestsync.ErrNoPredicate):
		msg := "No ingest predicate registered (set ingest.types). Cannot determine which records to sync."
		return syncRejected(p, msg, ingestsync.BulkIdle)
	case errors.Is(err, ingestsync.ErrBulkSyncRunning):
		msg := "A sync is already in progress. Use --status to check progress or --reset to clear a stuck sync."
		return syncRejected(p, msg, ingestsync.BulkRunning)
	case errors.Is(err, ingestsync.ErrNoRecords):
		msg := "No published records found to sync."
		if p.structured() {
			return p.Data(syncResponse{Message: msg, Status: ingestsync.BulkIdle})
		}
		p.Warning("%s", msg)
		return nil
	case err != nil:
		return WrapExitError(ExitFailure, "start sync", err)
	}

	msg := fmt.Sprintf("Bulk sync queued: %d records will be processed by the worker. Use `ingestsync sync --status` to monitor progress.", total)
	a.logger.Info("bulk sync started via command", "total", total, "scope", strings.Join(scope, ","))
	if p.structured() {
		return p.Data(syncResponse{Success: true, Message: msg, Status: ingestsync.BulkRunning, Total: total, Scope: scope})
	}
	p.Success("%s", msg)

	return nil
}

func syncRejected(p printer, msg string, status ingestsync.BulkStatus) error {
	if p.structured() {
		if err := p.Data(syncResponse{Message: msg, Status: status}); err != nil {
			return err
		}
	}

	return NewExitError(ExitFailure, msg)
}

func resetSync(cmd *cobra.Command, a *app, p printer) error {
	ctx := cmd.Context()
	progress, err := a.svc.Progress.Get(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "read sync progress", err)
	}
	if progress == nil {
		p.Log("No sync progress to reset.")
		return nil
	}
	if progress.Status == ingestsync.BulkRunning {
		p.Warning("Resetting a running sync (%d/%d records processed). The in-flight batch will complete but no further batches will run.",
			progress.Processed, progress.Total)
	}

	if err := a.svc.Progress.Reset(ctx); err != nil {
		return WrapExitError(ExitFailure, "reset sync progress", err)
	}
	p.Success("Sync progress has been reset.")

	return nil
}
