package action

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// MemoryStore is a thread-safe, process-lifetime implementation of Store.
// Nothing survives a restart.
type MemoryStore struct {
	mu      sync.Mutex
	actions map[string]PendingAction
	order   []string // ids in proposal order
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		actions: make(map[string]PendingAction),
	}
}

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, a PendingAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := a.ActionID()
	if _, exists := s.actions[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	s.actions[id] = a
	s.order = append(s.order, id)
	return nil
}

// Peek implements Store.
func (s *MemoryStore) Peek(_ context.Context, id string) (PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.actions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return a, nil
}

// Take implements Store. Lookup and removal happen under one lock.
func (s *MemoryStore) Take(_ context.Context, id string) (PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.actions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.actions, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return a, nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context) ([]PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PendingAction, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.actions[id])
	}
	return out, nil
}

// Len implements Store.
func (s *MemoryStore) Len(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.actions), nil
}
