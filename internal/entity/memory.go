package entity

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"sync"
	"time"
)

// MemoryStorage keeps entities in memory.
type MemoryStorage struct {
	mu       sync.RWMutex
	entities map[string]map[string]*Entity
	order    map[string][]string
	next     map[string]int
	now      func() time.Time
}

var _ Storage = (*MemoryStorage)(nil)

// NewMemoryStorage returns an empty storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		entities: make(map[string]map[string]*Entity),
		order:    make(map[string][]string),
		next:     make(map[string]int),
		now:      time.Now,
	}
}

func (s *MemoryStorage) Load(_ context.Context, entityType, id string) (*Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[entityType][id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(e), nil
}

func (s *MemoryStorage) Query(_ context.Context, q Query) ([]*Entity, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matches []*Entity
	for _, id := range s.order[q.Type] {
		e := s.entities[q.Type][id]
		if q.Bundle != "" && e.Bundle != q.Bundle {
			continue
		}
		matches = append(matches, e)
	}
	slices.SortStableFunc(matches, func(a, b *Entity) int { return compareIDs(a.ID, b.ID) })
	if q.Descending {
		slices.Reverse(matches)
	}
	total := len(matches)
	page := paginate(matches, q.Offset, q.Limit)
	out := make([]*Entity, len(page))
	for i, e := range page {
		out[i] = clone(e)
	}
	return out, total, nil
}

func (s *MemoryStorage) Save(_ context.Context, e *Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prepare(e, s.now)
	byID, ok := s.entities[e.Type]
	if !ok {
		byID = make(map[string]*Entity)
		s.entities[e.Type] = byID
	}
	if e.ID == "" {
		s.next[e.Type]++
		e.ID = strconv.Itoa(s.next[e.Type])
	} else if n, err := strconv.Atoi(e.ID); err == nil && n > s.next[e.Type] {
		s.next[e.Type] = n
	}
	if _, exists := byID[e.ID]; !exists {
		s.order[e.Type] = append(s.order[e.Type], e.ID)
	}
	byID[e.ID] = clone(e)
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, entityType, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entities[entityType][id]; !ok {
		return ErrNotFound
	}
	delete(s.entities[entityType], id)
	s.order[entityType] = slices.DeleteFunc(s.order[entityType], func(v string) bool { return v == id })
	return nil
}

func (s *MemoryStorage) Close() error { return nil }

// compareIDs orders numeric ids by value and others after them.
func compareIDs(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return cmp.Compare(na, nb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return cmp.Compare(a, b)
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
