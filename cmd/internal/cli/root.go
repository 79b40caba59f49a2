// Package cli implements the ingestsync operator commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	Format     string
	Verbose    bool
	Driver     string
	DSN        string

	// Settings is resolved before any subcommand runs.
	Settings Settings
}

// NewRootCommand creates the root command for the ingestsync CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "ingestsync",
		Short:         "Sync published content to the ingestion API",
		Long:          "Operate the ingestion outbox: bulk syncs, queue processing, forced deletes and the periodic worker.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}

			v := newViper()
			flags := cmd.Root().PersistentFlags()
			if err := v.BindPFlag("db.driver", flags.Lookup("driver")); err != nil {
				return err
			}
			if err := v.BindPFlag("db.dsn", flags.Lookup("dsn")); err != nil {
				return err
			}

			settings, err := loadSettings(v, opts.ConfigFile)
			if err != nil {
				return WrapExitError(ExitCommandError, "configuration error", err)
			}
			opts.Settings = settings

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (yaml, json or toml)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatTable, "output format (table|json|yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", DriverSQLite, "storage driver (sqlite|mysql)")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "database DSN or sqlite file path")

	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewSyncStatusCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewProcessQueueCommand(opts))
	cmd.AddCommand(NewQueueStatusCommand(opts))
	cmd.AddCommand(NewRequeueCommand(opts))
	cmd.AddCommand(NewWorkerCommand(opts))

	return cmd
}

func newPrinter(cmd *cobra.Command, opts *RootOptions) printer {
	return printer{format: opts.Format, out: cmd.OutOrStdout(), err: cmd.ErrOrStderr()}
}
