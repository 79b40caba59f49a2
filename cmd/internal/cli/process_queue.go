package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/velmie/ingestsync"
)

// ProcessQueueOptions holds flags for the process-queue command.
type ProcessQueueOptions struct {
	*RootOptions
	BatchSize int
	All       bool
}

// NewProcessQueueCommand creates the process-queue command.
func NewProcessQueueCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProcessQueueOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "process-queue",
		Short: "Process queued syncs, deletions and bulk batches now",
		Example: `  ingestsync process-queue
  ingestsync process-queue --batch-size 50 --all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcessQueue(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", 0, "items per batch (default: worker.batch_size)")
	cmd.Flags().BoolVar(&opts.All, "all", false, "keep processing until the queue and bulk sync are drained")

	return cmd
}

type processReport struct {
	Batches   int                    `json:"batches" yaml:"batches"`
	Totals    ingestsync.Counts      `json:"totals" yaml:"totals"`
	Remaining ingestsync.QueueCounts `json:"remaining" yaml:"remaining"`
}

func runProcessQueue(cmd *cobra.Command, opts *ProcessQueueOptions) error {
	ctx := cmd.Context()

	var extra []ingestsync.Option
	if opts.BatchSize > 0 {
		extra = append(extra, ingestsync.WithBatchSize(opts.BatchSize))
	}
	a, err := openApp(ctx, opts.RootOptions, cmd.ErrOrStderr(), extra...)
	if err != nil {
		return err
	}
	defer a.Close()
	p := newPrinter(cmd, opts.RootOptions)

	counts, err := a.svc.Queue.Counts(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "read queue", err)
	}
	busy, err := a.svc.Processor.HasWork(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "read queue", err)
	}
	if !p.structured() {
		p.Log("Queue status: %d syncs, %d deletions pending.", counts.Sync, counts.Delete)
	}
	if !busy {
		if p.structured() {
			return p.Data(processReport{Remaining: counts})
		}
		p.Success("Queue is empty, nothing to process.")
		return nil
	}

	var report processReport
	for {
		report.Batches++
		if !p.structured() {
			p.Log("Processing batch %d...", report.Batches)
		}

		batch, ran, err := a.svc.Worker.Tick(ctx)
		if err != nil {
			return WrapExitError(ExitFailure, "process batch", err)
		}
		if !ran {
			return NewExitError(ExitFailure, "another process holds the tick lock, try again later")
		}
		report.Totals.Add(batch)
		if !p.structured() {
			p.Log("Batch %d: synced=%d, deleted=%d, failed=%d, skipped=%d",
				report.Batches, batch.Synced, batch.Deleted, batch.Failed, batch.Skipped)
		}

		more, err := a.svc.Processor.HasWork(ctx)
		if err != nil {
			return WrapExitError(ExitFailure, "read queue", err)
		}
		if !opts.All || !more {
			break
		}
	}

	remaining, err := a.svc.Queue.Counts(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "read queue", err)
	}
	report.Remaining = remaining

	if p.structured() {
		if err := p.Data(report); err != nil {
			return err
		}
		return report.exitError()
	}

	p.Log("")
	p.Log("=== Queue Processing Summary ===")
	p.Log("Total batches: %d", report.Batches)
	p.Log("Synced: %d", report.Totals.Synced)
	p.Log("Deleted: %d", report.Totals.Deleted)
	p.Log("Failed: %d", report.Totals.Failed)
	p.Log("Skipped: %d", report.Totals.Skipped)
	if remaining.Total() > 0 {
		p.Log("")
		p.Log("Remaining in queue: %d syncs, %d deletions", remaining.Sync, remaining.Delete)
	}
	switch {
	case report.allFailed():
		p.Error("Processing failed for all %d item(s).", report.Totals.Failed)
	case report.Totals.Failed > 0:
		p.Warning("Processing completed with %d failure(s).", report.Totals.Failed)
	default:
		p.Success("Queue processing completed successfully.")
	}

	return report.exitError()
}

// allFailed reports whether every processed item failed.
func (r processReport) allFailed() bool {
	return r.Totals.Failed > 0 && r.Totals.Total() == r.Totals.Failed
}

func (r processReport) exitError() error {
	if !r.allFailed() {
		return nil
	}

	return NewExitError(ExitFailure, fmt.Sprintf("all %d item(s) failed", r.Totals.Failed))
}
