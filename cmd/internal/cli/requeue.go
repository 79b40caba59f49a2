package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewRequeueCommand creates the requeue command.
func NewRequeueCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "requeue <item_id>...",
		Short:   "Resubmit records to the sync queue",
		Long:    "Queue records for another sync attempt. Failed syncs are not retried automatically.",
		Example: "  ingestsync requeue 123 456",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequeue(cmd, rootOpts, args)
		},
	}
}

func runRequeue(cmd *cobra.Command, opts *RootOptions, args []string) error {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid item id %q", arg))
		}
		ids = append(ids, id)
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()
	p := newPrinter(cmd, opts)

	for _, id := range ids {
		if err := a.svc.Queue.Requeue(ctx, id); err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("requeue %d", id), err)
		}
	}

	if p.structured() {
		return p.Data(map[string]any{"requeued": ids})
	}
	p.Success("Queued %d record(s) for sync.", len(ids))

	return nil
}
