package progress

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]Record)}
}

func (s *MemoryStore) Record(ctx context.Context, r Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	list := append(s.records[r.GoalID], r)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].RecordedAt.Before(list[j].RecordedAt)
	})
	s.records[r.GoalID] = list
	return nil
}

func (s *MemoryStore) Latest(ctx context.Context, goalID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.records[goalID]
	if len(list) == 0 {
		return nil, nil
	}
	r := list[len(list)-1]
	return &r, nil
}

func (s *MemoryStore) History(ctx context.Context, goalID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.records[goalID]
	out := make([]Record, len(list))
	copy(out, list)
	return out, nil
}

func (s *MemoryStore) Forget(ctx context.Context, goalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, goalID)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
