package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewWorkerCommand creates the worker command.
func NewWorkerCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the periodic queue worker until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			a.logger.Info("ingestsync worker started", "interval", a.settings.Interval.String())
			if err := a.svc.Worker.Run(ctx); err != nil {
				return WrapExitError(ExitFailure, "worker stopped", err)
			}
			a.logger.Info("ingestsync worker stopped")

			return nil
		},
	}
}
