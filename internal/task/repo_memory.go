package task

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps records in memory. It is the simulated/offline
// persistence path: IDs are client-side random UUIDs standing in for
// store-assigned identifiers. Dev and test use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: map[string]Record{},
		now:     time.Now,
	}
}

// SetClock replaces the timestamp source. Test use.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *MemoryStore) Create(_ context.Context, rec Record) (CreateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	rec.ID = uuid.NewString()
	rec.CreatedAt = At(now)
	rec.UpdatedAt = At(now)
	s.records[rec.ID] = rec

	return CreateResult{ID: rec.ID, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, rec Record) (UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.records[id]
	if !ok {
		return UpdateResult{}, storeErr("update", ErrNotFound)
	}

	now := s.now().UTC()
	rec.ID = prev.ID
	rec.OwnerID = prev.OwnerID
	rec.CreatedAt = prev.CreatedAt
	rec.UpdatedAt = At(now)
	s.records[id] = rec

	return UpdateResult{UpdatedAt: now}, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return Record{}, storeErr("get", ErrNotFound)
	}
	return rec, nil
}

func (s *MemoryStore) ListByOwner(_ context.Context, ownerID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0)
	for _, rec := range s.records {
		if rec.OwnerID == ownerID {
			out = append(out, rec)
		}
	}
	sortByDateDesc(out)
	return out, nil
}

func (s *MemoryStore) ListAll(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sortByDateDesc(out)
	return out, nil
}

func sortByDateDesc(recs []Record) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Date != recs[j].Date {
			return recs[i].Date > recs[j].Date
		}
		return recs[i].CreatedAt.Value.After(recs[j].CreatedAt.Value)
	})
}
