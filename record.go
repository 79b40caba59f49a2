package ingestsync

import "time"

// StatusPublished is the only host status eligible for ingestion by default.
const StatusPublished = "publish"

// Record is a host-owned content record. The engine only reads it.
type Record struct {
	ItemID       int64
	Status       string
	Type         string
	LastModified time.Time
	// Revision marks revisions and autosaves, which are never synced.
	Revision bool
	// Fields carries host data for transformers.
	Fields map[string]any
}

// IsZero reports whether the record is unset.
func (r Record) IsZero() bool {
	return r.ItemID == 0
}
