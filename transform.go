package ingestsync

import (
	"context"
	"time"
)

// DefaultRecordIDField is the payload field carrying the composite record id.
const DefaultRecordIDField = "record_id"

// Payload is the wire representation of a record sent to the ingestion API.
type Payload map[string]any

// Transformer builds the payload for a record. Returning a nil payload or an
// error is reported as a transform failure.
type Transformer interface {
	// Transform converts record into a payload.
	Transform(ctx context.Context, record Record) (Payload, error)
}

// TransformerFunc adapts a function to Transformer.
type TransformerFunc func(ctx context.Context, record Record) (Payload, error)

// Transform implements Transformer.
func (fn TransformerFunc) Transform(ctx context.Context, record Record) (Payload, error) {
	return fn(ctx, record)
}

// DefaultTransformer copies the record's host fields and adds its identity and
// modification time.
func DefaultTransformer() Transformer {
	return TransformerFunc(func(_ context.Context, record Record) (Payload, error) {
		payload := make(Payload, len(record.Fields)+4)
		for key, value := range record.Fields {
			payload[key] = value
		}
		payload["item_id"] = record.ItemID
		payload["status"] = record.Status
		if record.Type != "" {
			payload["type"] = record.Type
		}
		if !record.LastModified.IsZero() {
			payload["last_modified"] = record.LastModified.UTC().Format(time.RFC3339)
		}

		return payload, nil
	})
}
