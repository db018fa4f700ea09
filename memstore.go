package main

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps entities in process memory. It is used by tests and by
// STORE_DRIVER=memory for throwaway environments.
type MemoryStore[E Entity[E, K], K comparable] struct {
	def *ResourceDef[E, K]

	mu    sync.RWMutex
	seq   int64
	order []K
	items map[K]E
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore[E Entity[E, K], K comparable](def *ResourceDef[E, K]) *MemoryStore[E, K] {
	return &MemoryStore[E, K]{def: def, items: make(map[K]E)}
}

// FindAll returns entities in insertion order.
func (s *MemoryStore[E, K]) FindAll(_ context.Context) ([]E, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]E, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.items[key])
	}
	return out, nil
}

func (s *MemoryStore[E, K]) FindByID(_ context.Context, key K) (E, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entity, ok := s.items[key]
	return entity, ok, nil
}

func (s *MemoryStore[E, K]) Save(_ context.Context, entity E) (E, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero K
	if s.def.generated() && entity.Key() == zero {
		s.seq++
		entity = entity.WithKey(s.def.NextKey(s.seq))
	}
	if _, exists := s.items[entity.Key()]; !exists {
		s.order = append(s.order, entity.Key())
	}
	s.items[entity.Key()] = entity
	return entity, nil
}

func (s *MemoryStore[E, K]) Delete(_ context.Context, entity E) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entity.Key()
	if _, ok := s.items[key]; !ok {
		return nil
	}
	delete(s.items, key)
	s.order = slices.DeleteFunc(s.order, func(k K) bool { return k == key })
	return nil
}
