package ingestsync

import (
	"context"
	"fmt"
)

// Service wires the engine, queue, progress tracker, scheduler, processor,
// worker and host hooks over a single KVStore.
type Service struct {
	Engine    *Engine
	Queue     *Queue
	Progress  *ProgressTracker
	Scheduler *Scheduler
	Processor *Processor
	Worker    *Worker
	Hooks     *Hooks

	source RecordSource
	cfg    Config
}

// New assembles a Service. Markers default to KV keys and the sync index to a
// KV document unless WithMarkerStore or WithSyncIndex override them.
func New(kv KVStore, api API, source RecordSource, opts ...Option) *Service {
	if kv == nil {
		panic("ingestsync: nil KVStore")
	}
	if api == nil {
		panic("ingestsync: nil API")
	}
	if source == nil {
		panic("ingestsync: nil RecordSource")
	}

	cfg := buildConfig(opts)
	markers := cfg.Markers
	if markers == nil {
		markers = NewKVMarkers(kv)
	}

	engine := NewEngine(api, markers, opts...)
	scheduler := NewScheduler(kv, opts...)
	queue := NewQueue(kv, engine, scheduler, opts...)
	progress := NewProgressTracker(kv, opts...)
	processor := NewProcessor(engine, queue, progress, source, scheduler, opts...)

	return &Service{
		Engine:    engine,
		Queue:     queue,
		Progress:  progress,
		Scheduler: scheduler,
		Processor: processor,
		Worker:    NewWorker(processor, scheduler, opts...),
		Hooks:     NewHooks(engine, queue, opts...),
		source:    source,
		cfg:       cfg,
	}
}

// StartBulk begins a bulk pass over the published records in scope and arms
// the schedule. It returns the number of records to process.
func (s *Service) StartBulk(ctx context.Context, scope []string) (int, error) {
	if !s.Engine.PredicatesRegistered() {
		return 0, ErrNoPredicate
	}
	running, err := s.Progress.IsRunning(ctx)
	if err != nil {
		return 0, err
	}
	if running {
		return 0, ErrBulkSyncRunning
	}

	total, err := s.source.Count(ctx, scope)
	if err != nil {
		return 0, fmt.Errorf("ingestsync: count records failed: %w", err)
	}
	if total == 0 {
		return 0, ErrNoRecords
	}

	if err := s.Progress.Start(ctx, total, scope); err != nil {
		return 0, err
	}
	if err := s.Scheduler.Schedule(ctx); err != nil {
		return total, err
	}
	s.cfg.Logger.Info("ingestsync bulk sync started", "total", total, "scope", scope)

	return total, nil
}

// Status is an operator snapshot of queues, schedule and bulk progress.
type Status struct {
	Queue     QueueCounts   `json:"queue" yaml:"queue"`
	Scheduled bool          `json:"scheduled" yaml:"scheduled"`
	NextRun   *int64        `json:"next_run,omitempty" yaml:"next_run,omitempty"`
	Bulk      *BulkProgress `json:"bulk,omitempty" yaml:"bulk,omitempty"`
	Summary   string        `json:"summary" yaml:"summary"`
}

// Status reports queue counts, the schedule and the bulk pass.
func (s *Service) Status(ctx context.Context) (Status, error) {
	counts, err := s.Queue.Counts(ctx)
	if err != nil {
		return Status{}, err
	}
	next, scheduled, err := s.Scheduler.NextRun(ctx)
	if err != nil {
		return Status{}, err
	}
	bulk, err := s.Progress.Get(ctx)
	if err != nil {
		return Status{}, err
	}

	status := Status{Queue: counts, Scheduled: scheduled, Bulk: bulk, Summary: Summarize(bulk)}
	if scheduled {
		unix := next.Unix()
		status.NextRun = &unix
	}

	return status, nil
}
