package cli

import (
	"time"

	"github.com/spf13/cobra"
)

// NewQueueStatusCommand creates the queue-status command.
func NewQueueStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "queue-status",
		Short: "Show queue counts, the worker schedule and bulk sync summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueStatus(cmd, rootOpts)
		},
	}
}

func runQueueStatus(cmd *cobra.Command, opts *RootOptions) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()
	p := newPrinter(cmd, opts)

	status, err := a.svc.Status(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "read status", err)
	}
	if p.structured() {
		return p.Data(status)
	}

	p.Log("=== Ingestion Queue Status ===")
	p.Log("Records queued for sync: %d", status.Queue.Sync)
	p.Log("Records queued for deletion: %d", status.Queue.Delete)
	p.Log("Total queued: %d", status.Queue.Total())
	p.Log("")
	p.Log("Worker scheduled: %s", yesNo(status.Scheduled))
	if status.NextRun != nil {
		p.Log("Next scheduled run: %s", describeNextRun(time.Unix(*status.NextRun, 0), time.Now()))
	}
	if status.Bulk != nil {
		p.Log("")
		p.Log("%s", status.Summary)
	}

	return nil
}

func describeNextRun(next, now time.Time) string {
	if delta := next.Sub(now); delta > 0 {
		return "in " + delta.Round(time.Second).String()
	}

	return "overdue by " + now.Sub(next).Round(time.Second).String() + " (will run on the next worker poll)"
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
