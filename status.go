package ingestsync

// SyncStatus is the outcome of syncing a single record.
type SyncStatus string

const (
	// SyncIngested indicates the record was upserted remotely.
	SyncIngested SyncStatus = "ingested"
	// SyncDeleted indicates the record no longer qualifies and was deleted remotely.
	SyncDeleted SyncStatus = "deleted"
	// SyncSkipped indicates nothing had to be done.
	SyncSkipped SyncStatus = "skipped"
	// SyncFailedTransform indicates the payload could not be built.
	SyncFailedTransform SyncStatus = "failed_transform"
	// SyncFailedAPI indicates the remote call failed.
	SyncFailedAPI SyncStatus = "failed_api"
)

// Failed reports whether the status is one of the failure outcomes.
func (s SyncStatus) Failed() bool {
	return s == SyncFailedTransform || s == SyncFailedAPI
}

// SyncResult captures the outcome of Engine.Sync.
type SyncResult struct {
	Status SyncStatus
	Record Record
	Err    error
}

// Message returns the error message, or an empty string.
func (r SyncResult) Message() string {
	if r.Err == nil {
		return ""
	}

	return r.Err.Error()
}

// APIResult captures the outcome of a single ingestion API call.
type APIResult struct {
	Success    bool
	RecordID   RecordID
	StatusCode int
	Body       string
	Err        error
}

// Message returns the error message, or an empty string.
func (r APIResult) Message() string {
	if r.Err == nil {
		return ""
	}

	return r.Err.Error()
}

// Counts aggregates per-item outcomes of a tick or a bulk page.
type Counts struct {
	Synced  int `json:"synced"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Total returns the number of items attempted.
func (c Counts) Total() int {
	return c.Synced + c.Deleted + c.Failed + c.Skipped
}

// Add merges other into c.
func (c *Counts) Add(other Counts) {
	c.Synced += other.Synced
	c.Deleted += other.Deleted
	c.Failed += other.Failed
	c.Skipped += other.Skipped
}

// Record counts a single sync result.
func (c *Counts) Record(status SyncStatus) {
	switch status {
	case SyncIngested:
		c.Synced++
	case SyncDeleted:
		c.Deleted++
	case SyncSkipped:
		c.Skipped++
	case SyncFailedTransform, SyncFailedAPI:
		c.Failed++
	}
}
