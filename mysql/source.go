package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/velmie/ingestsync"
)

// RecordSource reads host records from the content table.
type RecordSource struct {
	store *Store
}

var _ ingestsync.RecordSource = (*RecordSource)(nil)

// Records returns the content table reader.
func (s *Store) Records() *RecordSource {
	return &RecordSource{store: s}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Get implements ingestsync.RecordSource.
func (r *RecordSource) Get(ctx context.Context, itemID int64) (ingestsync.Record, bool, error) {
	record, err := scanRecord(r.store.db.QueryRowContext(ctx, r.store.queries.contentGet, itemID))
	if errors.Is(err, sql.ErrNoRows) {
		return ingestsync.Record{}, false, nil
	}
	if err != nil {
		return ingestsync.Record{}, false, err
	}

	return record, true, nil
}

// ListAfter implements ingestsync.RecordSource.
func (r *RecordSource) ListAfter(ctx context.Context, after int64, limit int, scope []string) ([]ingestsync.Record, error) {
	if limit <= 0 {
		return nil, ingestsync.ErrInvalidBatchSize
	}

	args := make([]any, 0, len(scope)+3)
	args = append(args, after, ingestsync.StatusPublished)
	args = appendScope(args, scope)
	args = append(args, limit)

	rows, err := r.store.db.QueryContext(ctx, scoped(r.store.queries.contentAfter, scope), args...)
	if err != nil {
		return nil, fmt.Errorf("ingestsync mysql: select content failed: %w", err)
	}
	defer rows.Close()

	records := make([]ingestsync.Record, 0, limit)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ingestsync mysql: rows failed: %w", err)
	}

	return records, nil
}

// Count implements ingestsync.RecordSource.
func (r *RecordSource) Count(ctx context.Context, scope []string) (int, error) {
	args := make([]any, 0, len(scope)+1)
	args = append(args, ingestsync.StatusPublished)
	args = appendScope(args, scope)

	var count int
	if err := r.store.db.QueryRowContext(ctx, scoped(r.store.queries.contentCount, scope), args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ingestsync mysql: content count failed: %w", err)
	}

	return count, nil
}

func appendScope(args []any, scope []string) []any {
	for _, t := range scope {
		args = append(args, t)
	}

	return args
}

func scanRecord(row rowScanner) (ingestsync.Record, error) {
	var (
		record   ingestsync.Record
		modified sql.NullTime
		fields   []byte
	)
	err := row.Scan(&record.ItemID, &record.Status, &record.Type, &record.Revision, &modified, &fields)
	if errors.Is(err, sql.ErrNoRows) {
		return ingestsync.Record{}, err
	}
	if err != nil {
		return ingestsync.Record{}, fmt.Errorf("ingestsync mysql: scan content failed: %w", err)
	}
	if modified.Valid {
		record.LastModified = modified.Time.UTC()
	}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &record.Fields); err != nil {
			return ingestsync.Record{}, fmt.Errorf("ingestsync mysql: decode fields of item %d failed: %w", record.ItemID, err)
		}
	}

	return record, nil
}
