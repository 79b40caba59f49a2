package ingestsync

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrKeyNotFound is returned by KVStore.Get when the key does not exist.
	ErrKeyNotFound = errors.New("ingestsync key not found")
	// ErrInvalidRecordID is returned when parsing or scanning a RecordID fails.
	ErrInvalidRecordID = errors.New("ingestsync record id is invalid")
	// ErrInvalidBatchSize indicates that a requested page or batch size is not positive.
	ErrInvalidBatchSize = errors.New("ingestsync batch size must be positive")
	// ErrBulkSyncRunning is returned when a bulk pass is started while another is running.
	ErrBulkSyncRunning = errors.New("ingestsync bulk sync already running")
	// ErrNoPredicate signals that no should-ingest predicate is registered.
	ErrNoPredicate = errors.New("ingestsync no ingest predicate registered")
	// ErrNoRecords signals that a bulk pass has nothing to process.
	ErrNoRecords = errors.New("ingestsync no records to sync")
	// ErrNilPayload is returned by transformers that produced no payload.
	ErrNilPayload = errors.New("ingestsync transformer returned no payload")
	// ErrCorruptState is returned when a persisted document cannot be decoded.
	ErrCorruptState = errors.New("ingestsync persisted state is corrupt")
)

// ConfigurationError reports missing API configuration. It is never retried.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return "missing required API configuration: " + strings.Join(e.Missing, ", ")
}

// TransformError reports that a record could not be turned into a payload.
type TransformError struct {
	ItemID int64
	Err    error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform of item %d failed: %v", e.ItemID, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// APIError reports a transport failure or a non-accepted response from the ingestion API.
type APIError struct {
	Method     string
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ingestion api %s request failed: %v", e.Method, e.Err)
	}
	if e.Body == "" {
		return fmt.Sprintf("unexpected response code: %d", e.StatusCode)
	}

	return fmt.Sprintf("unexpected response code: %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// CapacityFallbackError reports that the delete queue was full and the inline delete failed.
type CapacityFallbackError struct {
	RecordID RecordID
	Capacity int
	Err      error
}

func (e *CapacityFallbackError) Error() string {
	return fmt.Sprintf("delete queue at capacity (%d), inline delete of %s failed: %v", e.Capacity, e.RecordID, e.Err)
}

func (e *CapacityFallbackError) Unwrap() error {
	return e.Err
}
