package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/velmie/ingestsync"
)

const contentColumns = "id, status, type, is_revision, modified_at, fields"

// RecordSource reads records from the local content table.
type RecordSource struct {
	db *Store
}

var _ ingestsync.RecordSource = (*RecordSource)(nil)

// Records returns the content table reader.
func (s *Store) Records() *RecordSource {
	return &RecordSource{db: s}
}

// Put inserts or replaces record in the content table.
func (r *RecordSource) Put(ctx context.Context, record ingestsync.Record) error {
	var fields []byte
	if record.Fields != nil {
		encoded, err := json.Marshal(record.Fields)
		if err != nil {
			return fmt.Errorf("ingestsync sqlite: encode fields of item %d failed: %w", record.ItemID, err)
		}
		fields = encoded
	}
	var modified sql.NullInt64
	if !record.LastModified.IsZero() {
		modified = sql.NullInt64{Int64: record.LastModified.Unix(), Valid: true}
	}

	_, err := r.db.db.ExecContext(
		ctx,
		"INSERT INTO content ("+contentColumns+") VALUES (?, ?, ?, ?, ?, ?) "+
			"ON CONFLICT(id) DO UPDATE SET status = excluded.status, type = excluded.type, "+
			"is_revision = excluded.is_revision, modified_at = excluded.modified_at, fields = excluded.fields",
		record.ItemID, record.Status, record.Type, record.Revision, modified, fields,
	)
	if err != nil {
		return fmt.Errorf("ingestsync sqlite: put content failed: %w", err)
	}

	return nil
}

// Remove deletes item from the content table.
func (r *RecordSource) Remove(ctx context.Context, itemID int64) error {
	if _, err := r.db.db.ExecContext(ctx, "DELETE FROM content WHERE id = ?", itemID); err != nil {
		return fmt.Errorf("ingestsync sqlite: remove content failed: %w", err)
	}

	return nil
}

// Get implements ingestsync.RecordSource.
func (r *RecordSource) Get(ctx context.Context, itemID int64) (ingestsync.Record, bool, error) {
	row := r.db.db.QueryRowContext(ctx, "SELECT "+contentColumns+" FROM content WHERE id = ?", itemID)
	record, err := scanRecord(row)
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

	args := []any{after, ingestsync.StatusPublished}
	args = appendScope(args, scope)
	args = append(args, limit)

	query := "SELECT " + contentColumns + " FROM content WHERE id > ? AND status = ?" +
		scopeClause(scope) + " ORDER BY id ASC LIMIT ?"
	rows, err := r.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ingestsync sqlite: select content failed: %w", err)
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
		return nil, fmt.Errorf("ingestsync sqlite: rows failed: %w", err)
	}

	return records, nil
}

// Count implements ingestsync.RecordSource.
func (r *RecordSource) Count(ctx context.Context, scope []string) (int, error) {
	args := appendScope([]any{ingestsync.StatusPublished}, scope)
	query := "SELECT COUNT(*) FROM content WHERE status = ?" + scopeClause(scope)

	var count int
	if err := r.db.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ingestsync sqlite: content count failed: %w", err)
	}

	return count, nil
}

func scopeClause(scope []string) string {
	if len(scope) == 0 {
		return ""
	}

	return " AND type IN (" + strings.TrimSuffix(strings.Repeat("?,", len(scope)), ",") + ")"
}

func appendScope(args []any, scope []string) []any {
	for _, t := range scope {
		args = append(args, t)
	}

	return args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (ingestsync.Record, error) {
	var (
		record   ingestsync.Record
		modified sql.NullInt64
		fields   sql.NullString
	)
	err := row.Scan(&record.ItemID, &record.Status, &record.Type, &record.Revision, &modified, &fields)
	if errors.Is(err, sql.ErrNoRows) {
		return ingestsync.Record{}, err
	}
	if err != nil {
		return ingestsync.Record{}, fmt.Errorf("ingestsync sqlite: scan content failed: %w", err)
	}
	if modified.Valid {
		record.LastModified = time.Unix(modified.Int64, 0).UTC()
	}
	if fields.Valid && fields.String != "" {
		if err := json.Unmarshal([]byte(fields.String), &record.Fields); err != nil {
			return ingestsync.Record{}, fmt.Errorf("ingestsync sqlite: decode fields of item %d failed: %w", record.ItemID, err)
		}
	}

	return record, nil
}
