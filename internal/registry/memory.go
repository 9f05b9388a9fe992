package registry

import (
	"context"
	"sync"

	"bidrag/internal/domain"
	id "bidrag/pkg/domain"
	"bidrag/pkg/platform/sentinel"
)

// Memory implements every collaborator port from fixed in-memory data. Tests
// and the dev wiring use it; production wiring substitutes real clients per
// port.
type Memory struct {
	mu sync.RWMutex

	supersessions map[id.Ident]id.Ident
	cases         map[id.CaseID]domain.Case
	facts         map[id.CaseID]*FactSet
	thresholds    []ThresholdRow
	thresholdErr  error
}

func NewMemory() *Memory {
	return &Memory{
		supersessions: make(map[id.Ident]id.Ident),
		cases:         make(map[id.CaseID]domain.Case),
		facts:         make(map[id.CaseID]*FactSet),
	}
}

// SetSupersession records that old has been replaced by new in the
// population register.
func (m *Memory) SetSupersession(old, current id.Ident) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.supersessions[old] = current
}

// SetCase registers case master data.
func (m *Memory) SetCase(c domain.Case) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cases[c.ID] = c
}

// SetFacts fixes the fact set returned for a case.
func (m *Memory) SetFacts(caseID id.CaseID, facts *FactSet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.facts[caseID] = facts
}

// SetThresholds fixes the visitation threshold table.
func (m *Memory) SetThresholds(rows []ThresholdRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thresholds = rows
	m.thresholdErr = nil
}

// FailThresholds makes threshold lookups return err, for exercising the
// unresolvable-table path.
func (m *Memory) FailThresholds(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thresholdErr = err
}

func (m *Memory) Newest(_ context.Context, ident id.Ident) (id.Ident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if current, ok := m.supersessions[ident]; ok {
		return current, nil
	}
	return "", sentinel.ErrNotFound
}

func (m *Memory) Case(_ context.Context, caseID id.CaseID) (domain.Case, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.cases[caseID]; ok {
		return c, nil
	}
	return domain.Case{}, sentinel.ErrNotFound
}

func (m *Memory) Facts(_ context.Context, c domain.Case) (*FactSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if facts, ok := m.facts[c.ID]; ok {
		return facts, nil
	}
	return nil, sentinel.ErrNotFound
}

func (m *Memory) VisitationClasses(_ context.Context) ([]ThresholdRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.thresholdErr != nil {
		return nil, m.thresholdErr
	}
	rows := make([]ThresholdRow, len(m.thresholds))
	copy(rows, m.thresholds)
	return rows, nil
}
