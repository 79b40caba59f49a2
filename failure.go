package ingestsync

import "context"

// FailureCode classifies ingestion and deletion failures.
type FailureCode string

const (
	// FailureTransform marks a payload construction failure.
	FailureTransform FailureCode = "transform_failed"
	// FailureSource marks a queued record the host source could not load.
	FailureSource FailureCode = "source_error"
	// FailureAPI marks a failed upsert call.
	FailureAPI FailureCode = "api_error"
	// FailureDeleteAPI marks a failed delete call.
	FailureDeleteAPI FailureCode = "delete_api_error"
)

// IngestionFailure describes a failed ingest attempt.
type IngestionFailure struct {
	Code   FailureCode
	Record Record
	Err    error
}

// DeletionFailure describes a failed remote delete. Record is zero when the
// host object no longer exists.
type DeletionFailure struct {
	Code     FailureCode
	Record   Record
	RecordID RecordID
	Err      error
}

// FailureHooks are fire-and-forget notifications for host-side observability.
type FailureHooks struct {
	IngestionFailed func(ctx context.Context, failure IngestionFailure)
	DeletionFailed  func(ctx context.Context, failure DeletionFailure)
}

func (h FailureHooks) ingestionFailed(ctx context.Context, logger Logger, failure IngestionFailure) {
	if h.IngestionFailed == nil {
		return
	}
	defer recoverHook(logger, "ingestion")
	h.IngestionFailed(ctx, failure)
}

func (h FailureHooks) deletionFailed(ctx context.Context, logger Logger, failure DeletionFailure) {
	if h.DeletionFailed == nil {
		return
	}
	defer recoverHook(logger, "deletion")
	h.DeletionFailed(ctx, failure)
}

func recoverHook(logger Logger, kind string) {
	if rec := recover(); rec != nil {
		logger.Error("ingestsync failure hook panic", "hook", kind, "panic", rec)
	}
}
