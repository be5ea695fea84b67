package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"keygate/internal/license"
)

// MemoryStore is an in-memory implementation of Store
type MemoryStore struct {
	mu      sync.RWMutex
	records map[int64]license.KeyRecord
	nextID  int64
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[int64]license.KeyRecord),
	}
}

func (s *MemoryStore) Create(ctx context.Context, rec *license.KeyRecord) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	rec.ID = s.nextID
	s.records[rec.ID] = cloneRecord(*rec)
	return rec.ID, nil
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]license.KeyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]license.KeyRecord, 0, len(s.records))
	for _, rec := range s.records {
		result = append(result, cloneRecord(rec))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *MemoryStore) GetByKey(ctx context.Context, key string) (*license.KeyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *license.KeyRecord
	for _, rec := range s.records {
		if rec.Key != key {
			continue
		}
		if found == nil || rec.ID < found.ID {
			c := cloneRecord(rec)
			found = &c
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (s *MemoryStore) UpdateHwid(ctx context.Context, id int64, hwid *string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil
	}
	rec.Hwid = copyString(hwid)
	s.records[id] = rec
	return nil
}

func (s *MemoryStore) DeleteByID(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, id)
	return nil
}

func (s *MemoryStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, rec := range s.records {
		if license.IsStale(&rec, cutoff) {
			delete(s.records, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close() error {
	return nil
}

// cloneRecord returns a copy that shares no pointers with rec
func cloneRecord(rec license.KeyRecord) license.KeyRecord {
	rec.Hwid = copyString(rec.Hwid)
	return rec
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
