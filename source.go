package ingestsync

import (
	"context"
	"sort"
	"sync"
)

// RecordSource reads host records. ListAfter pages published records with
// ItemID > after in ascending id order; an empty scope matches every type.
type RecordSource interface {
	Get(ctx context.Context, itemID int64) (Record, bool, error)
	ListAfter(ctx context.Context, after int64, limit int, scope []string) ([]Record, error)
	Count(ctx context.Context, scope []string) (int, error)
}

// MemorySource is an in-memory RecordSource.
type MemorySource struct {
	mu      sync.RWMutex
	records map[int64]Record
}

// NewMemorySource constructs a MemorySource holding records.
func NewMemorySource(records ...Record) *MemorySource {
	s := &MemorySource{records: make(map[int64]Record, len(records))}
	for _, record := range records {
		s.records[record.ItemID] = record
	}

	return s
}

// Put inserts or replaces a record.
func (s *MemorySource) Put(record Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.ItemID] = record
}

// Remove deletes a record.
func (s *MemorySource) Remove(itemID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, itemID)
}

// Get returns the record for itemID.
func (s *MemorySource) Get(_ context.Context, itemID int64) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[itemID]

	return record, ok, nil
}

// ListAfter implements RecordSource.
func (s *MemorySource) ListAfter(_ context.Context, after int64, limit int, scope []string) ([]Record, error) {
	if limit <= 0 {
		return nil, ErrInvalidBatchSize
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	match := scopeMatcher(scope)
	page := make([]Record, 0, limit)
	for _, record := range s.records {
		if record.ItemID > after && record.Status == StatusPublished && match(record.Type) {
			page = append(page, record)
		}
	}
	sort.Slice(page, func(i, j int) bool { return page[i].ItemID < page[j].ItemID })
	if len(page) > limit {
		page = page[:limit]
	}

	return page, nil
}

// Count returns the number of published records in scope.
func (s *MemorySource) Count(_ context.Context, scope []string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	match := scopeMatcher(scope)
	n := 0
	for _, record := range s.records {
		if record.Status == StatusPublished && match(record.Type) {
			n++
		}
	}

	return n, nil
}

func scopeMatcher(scope []string) func(string) bool {
	if len(scope) == 0 {
		return func(string) bool { return true }
	}
	set := make(map[string]struct{}, len(scope))
	for _, t := range scope {
		set[t] = struct{}{}
	}

	return func(t string) bool {
		_, ok := set[t]

		return ok
	}
}
