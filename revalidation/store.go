package revalidation

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryRunStore is the default run store; hosts with durable needs swap in
// their own RunStore implementation.
type MemoryRunStore struct {
	mu   sync.RWMutex
	runs map[string]Run
}

func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{runs: map[string]Run{}}
}

func (s *MemoryRunStore) Create(_ context.Context, run Run) (Run, error) {
	if s == nil {
		return Run{}, fmt.Errorf("revalidation: run store is nil")
	}
	if strings.TrimSpace(run.ID) == "" {
		return Run{}, fmt.Errorf("revalidation: run id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[run.ID]; exists {
		return Run{}, fmt.Errorf("revalidation: run %s already exists", run.ID)
	}
	s.runs[run.ID] = run
	return run, nil
}

func (s *MemoryRunStore) Get(_ context.Context, id string) (Run, error) {
	if s == nil {
		return Run{}, fmt.Errorf("revalidation: run store is nil")
	}
	id = strings.TrimSpace(id)
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return Run{}, fmt.Errorf("revalidation: run %s not found", id)
	}
	return run, nil
}

func (s *MemoryRunStore) Update(_ context.Context, run Run) (Run, error) {
	if s == nil {
		return Run{}, fmt.Errorf("revalidation: run store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[run.ID]; !exists {
		return Run{}, fmt.Errorf("revalidation: run %s not found", run.ID)
	}
	s.runs[run.ID] = run
	return run, nil
}

var _ RunStore = (*MemoryRunStore)(nil)
