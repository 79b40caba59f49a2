package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/velmie/ingestsync"
)

// DeleteOptions holds flags for the delete command.
type DeleteOptions struct {
	*RootOptions
	TenantID string
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete <item_id>...",
		Short: "Force delete records from the ingestion API",
		Long: `Delete records by composite id without any local checks. The record does not
have to exist locally or carry an ingestion marker. Use --tenant-id to target
records of another tenant, including one that no longer exists.`,
		Example: `  ingestsync delete 123
  ingestsync delete 123 456 789 --tenant-id 2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.TenantID, "tenant-id", "", "tenant id of the records (default: configured tenant_id)")

	return cmd
}

type deleteOutcome struct {
	ItemID   string `json:"item_id" yaml:"item_id"`
	RecordID string `json:"record_id,omitempty" yaml:"record_id,omitempty"`
	Success  bool   `json:"success" yaml:"success"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

type deleteReport struct {
	Succeeded int             `json:"succeeded" yaml:"succeeded"`
	Failed    int             `json:"failed" yaml:"failed"`
	Results   []deleteOutcome `json:"results" yaml:"results"`
}

func runDelete(cmd *cobra.Command, opts *DeleteOptions, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()
	p := newPrinter(cmd, opts.RootOptions)

	tenant := opts.TenantID
	if tenant == "" {
		tenant = a.settings.TenantID
	}

	var report deleteReport
	for _, arg := range args {
		outcome := deleteOutcome{ItemID: arg}
		itemID, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || itemID <= 0 {
			outcome.Error = fmt.Sprintf("invalid item id %q", arg)
			report.add(outcome)
			if !p.structured() {
				p.Warning("Skipping %s: not a positive integer.", arg)
			}
			continue
		}

		id := ingestsync.NewRecordID(a.settings.SiteID, tenant, itemID)
		outcome.RecordID = id.String()
		a.logger.Info("force deleting record", "item_id", itemID, "record_id", id.String())

		result := a.svc.Engine.DeleteRecordID(ctx, id)
		outcome.Success = result.Success
		if !result.Success {
			outcome.Error = result.Message()
			if outcome.Error == "" {
				outcome.Error = "Unknown error"
			}
		}
		report.add(outcome)

		if p.structured() {
			continue
		}
		if result.Success {
			p.Success("Deleted record %s.", id)
		} else {
			p.Warning("Failed to delete record %s: %s", id, outcome.Error)
		}
	}

	if p.structured() {
		if err := p.Data(report); err != nil {
			return err
		}
	} else if report.Failed > 0 {
		p.Error("Completed with %d success(es) and %d failure(s).", report.Succeeded, report.Failed)
	} else {
		p.Success("All %d record(s) deleted successfully.", report.Succeeded)
	}

	if report.Succeeded == 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("all %d delete(s) failed", report.Failed))
	}

	return nil
}

func (r *deleteReport) add(outcome deleteOutcome) {
	if outcome.Success {
		r.Succeeded++
	} else {
		r.Failed++
	}
	r.Results = append(r.Results, outcome)
}
