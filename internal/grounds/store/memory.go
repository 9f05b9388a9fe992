package store

import (
	"context"
	"sync"
	"time"

	"bidrag/internal/domain"
	id "bidrag/pkg/domain"
	"bidrag/pkg/platform/sentinel"
)

// MemoryStore keeps generations in process memory. Tests and the dev wiring
// use it; production uses PostgresStore.
type MemoryStore struct {
	mu          sync.RWMutex
	generations map[id.CaseID][]Generation
}

func NewMemory() *MemoryStore {
	return &MemoryStore{generations: make(map[id.CaseID][]Generation)}
}

func (s *MemoryStore) Active(_ context.Context, caseID id.CaseID) (*Generation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	gens := s.generations[caseID]
	if len(gens) == 0 {
		return nil, sentinel.ErrNotFound
	}
	latest := copyGeneration(gens[len(gens)-1])
	return &latest, nil
}

func (s *MemoryStore) Generations(_ context.Context, caseID id.CaseID) ([]Generation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	gens := s.generations[caseID]
	out := make([]Generation, len(gens))
	for i, g := range gens {
		out[i] = copyGeneration(g)
	}
	return out, nil
}

func (s *MemoryStore) Activate(_ context.Context, caseID id.CaseID, grounds domain.GroundsSet, actor string, at time.Time) (*Generation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gen := Generation{
		CaseID:      caseID,
		Number:      int64(len(s.generations[caseID])) + 1,
		ActivatedAt: at,
		ActivatedBy: actor,
		Grounds:     grounds,
	}
	stored := copyGeneration(gen)
	s.generations[caseID] = append(s.generations[caseID], stored)

	out := copyGeneration(stored)
	return &out, nil
}

// copyGeneration detaches the grounds slice so callers cannot reach the
// stored generation through aliasing.
func copyGeneration(g Generation) Generation {
	grounds := make(domain.GroundsSet, len(g.Grounds))
	copy(grounds, g.Grounds)
	g.Grounds = grounds
	return g
}
