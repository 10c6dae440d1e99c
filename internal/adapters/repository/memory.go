package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/gradecurve/internal/domain/report"
)

const backendMemory = "memory"

// MemoryStore keeps runs in process memory, in insertion order.
type MemoryStore struct {
	mu       sync.RWMutex
	runs     map[string]*report.Report
	order    []string
	capacity int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{runs: make(map[string]*report.Report)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Save(_ context.Context, r *report.Report) (err error) {
	defer func(start time.Time) { observe(backendMemory, "save", start, err) }(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[r.RunID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRun, r.RunID)
	}
	s.runs[r.RunID] = r
	s.order = append(s.order, r.RunID)
	if s.capacity > 0 && len(s.order) > s.capacity {
		evict := s.order[0]
		s.order = s.order[1:]
		delete(s.runs, evict)
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (r *report.Report, err error) {
	defer func(start time.Time) { observe(backendMemory, "get", start, err) }(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, nil
}

func (s *MemoryStore) List(_ context.Context, limit int) (out []report.Meta, err error) {
	defer func(start time.Time) { observe(backendMemory, "list", start, err) }(time.Now())

	if err := checkLimit(limit); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out = make([]report.Meta, 0, min(limit, len(s.order)))
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.runs[s.order[i]].Meta())
	}
	return out, nil
}

// Count returns the number of runs held.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *MemoryStore) Close() error { return nil }
