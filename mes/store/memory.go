// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/production-engine/mes"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	plans    map[mes.PlanID]mes.ProductionPlan
	sessions map[mes.PlanID][]mes.ProductionSession
	results  map[mes.PlanID]mes.ProductionResult
}

func NewMemory() *Memory {
	return &Memory{
		plans:    make(map[mes.PlanID]mes.ProductionPlan),
		sessions: make(map[mes.PlanID][]mes.ProductionSession),
		results:  make(map[mes.PlanID]mes.ProductionResult),
	}
}

// -----------------------------------------------------------------------------
// SessionStore
// -----------------------------------------------------------------------------

// AppendSession adds a single session. Append-only.
func (m *Memory) AppendSession(_ context.Context, s mes.ProductionSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(s)
}

func (m *Memory) appendLocked(s mes.ProductionSession) error {
	for _, existing := range m.sessions[s.PlanID] {
		if existing.SessionNumber == s.SessionNumber {
			return &mes.SessionConflictError{PlanID: s.PlanID, SessionNumber: s.SessionNumber}
		}
	}
	m.sessions[s.PlanID] = append(m.sessions[s.PlanID], s)
	return nil
}

func (m *Memory) LoadSessions(_ context.Context, planID mes.PlanID) ([]mes.ProductionSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]mes.ProductionSession, len(m.sessions[planID]))
	copy(result, m.sessions[planID])
	sort.Slice(result, func(i, j int) bool {
		return result[i].SessionNumber < result[j].SessionNumber
	})
	return result, nil
}

func (m *Memory) MaxSessionNumber(_ context.Context, planID mes.PlanID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.maxLocked(planID), nil
}

func (m *Memory) maxLocked(planID mes.PlanID) int {
	max := 0
	for _, s := range m.sessions[planID] {
		if s.SessionNumber > max {
			max = s.SessionNumber
		}
	}
	return max
}

// -----------------------------------------------------------------------------
// PlanStore
// -----------------------------------------------------------------------------

func (m *Memory) GetPlan(_ context.Context, planID mes.PlanID) (*mes.ProductionPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plans[planID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) SavePlan(_ context.Context, p mes.ProductionPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[p.ID] = p
	return nil
}

func (m *Memory) SetPlanStatus(_ context.Context, planID mes.PlanID, status mes.PlanStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.plans[planID]
	if !ok {
		return mes.ErrPlanNotFound
	}
	p.Status = status
	m.plans[planID] = p
	return nil
}

func (m *Memory) SetConfirmedOutput(_ context.Context, planID mes.PlanID, totalPieces int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.plans[planID]
	if !ok {
		return mes.ErrPlanNotFound
	}
	p.ConfirmedOutput = totalPieces
	m.plans[planID] = p
	return nil
}

func (m *Memory) ListPlansByStatus(_ context.Context, statuses ...mes.PlanStatus) ([]mes.ProductionPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var plans []mes.ProductionPlan
	for _, p := range m.plans {
		for _, st := range statuses {
			if p.Status == st {
				plans = append(plans, p)
				break
			}
		}
	}
	return plans, nil
}

// -----------------------------------------------------------------------------
// ResultStore
// -----------------------------------------------------------------------------

func (m *Memory) UpsertResult(_ context.Context, r mes.ProductionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[r.PlanID] = r
	return nil
}

func (m *Memory) GetResult(_ context.Context, planID mes.PlanID) (*mes.ProductionResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.results[planID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction. For the memory store this is
// simulated with a snapshot + rollback on error; holding the write lock for
// the whole callback gives the serializable isolation the ledger's
// read-max-then-insert sequence requires.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(mes.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()

	if err := fn(&txMemoryView{parent: tm}); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	plans    map[mes.PlanID]mes.ProductionPlan
	sessions map[mes.PlanID][]mes.ProductionSession
	results  map[mes.PlanID]mes.ProductionResult
}

func (tm *TxMemory) snapshot() memorySnapshot {
	plans := make(map[mes.PlanID]mes.ProductionPlan, len(tm.plans))
	for k, v := range tm.plans {
		plans[k] = v
	}
	sessions := make(map[mes.PlanID][]mes.ProductionSession, len(tm.sessions))
	for k, v := range tm.sessions {
		sessions[k] = append([]mes.ProductionSession{}, v...)
	}
	results := make(map[mes.PlanID]mes.ProductionResult, len(tm.results))
	for k, v := range tm.results {
		results[k] = v
	}
	return memorySnapshot{plans: plans, sessions: sessions, results: results}
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.plans = s.plans
	tm.sessions = s.sessions
	tm.results = s.results
}

// txMemoryView operates on the parent's maps without re-taking the lock the
// surrounding WithTx already holds.
type txMemoryView struct {
	parent *TxMemory
}

func (tv *txMemoryView) AppendSession(_ context.Context, s mes.ProductionSession) error {
	return tv.parent.appendLocked(s)
}

func (tv *txMemoryView) LoadSessions(_ context.Context, planID mes.PlanID) ([]mes.ProductionSession, error) {
	result := append([]mes.ProductionSession{}, tv.parent.sessions[planID]...)
	sort.Slice(result, func(i, j int) bool {
		return result[i].SessionNumber < result[j].SessionNumber
	})
	return result, nil
}

func (tv *txMemoryView) MaxSessionNumber(_ context.Context, planID mes.PlanID) (int, error) {
	return tv.parent.maxLocked(planID), nil
}

func (tv *txMemoryView) GetPlan(_ context.Context, planID mes.PlanID) (*mes.ProductionPlan, error) {
	p, ok := tv.parent.plans[planID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (tv *txMemoryView) SavePlan(_ context.Context, p mes.ProductionPlan) error {
	tv.parent.plans[p.ID] = p
	return nil
}

func (tv *txMemoryView) SetPlanStatus(_ context.Context, planID mes.PlanID, status mes.PlanStatus) error {
	p, ok := tv.parent.plans[planID]
	if !ok {
		return mes.ErrPlanNotFound
	}
	p.Status = status
	tv.parent.plans[planID] = p
	return nil
}

func (tv *txMemoryView) SetConfirmedOutput(_ context.Context, planID mes.PlanID, totalPieces int64) error {
	p, ok := tv.parent.plans[planID]
	if !ok {
		return mes.ErrPlanNotFound
	}
	p.ConfirmedOutput = totalPieces
	tv.parent.plans[planID] = p
	return nil
}

func (tv *txMemoryView) ListPlansByStatus(_ context.Context, statuses ...mes.PlanStatus) ([]mes.ProductionPlan, error) {
	var plans []mes.ProductionPlan
	for _, p := range tv.parent.plans {
		for _, st := range statuses {
			if p.Status == st {
				plans = append(plans, p)
				break
			}
		}
	}
	return plans, nil
}

func (tv *txMemoryView) UpsertResult(_ context.Context, r mes.ProductionResult) error {
	tv.parent.results[r.PlanID] = r
	return nil
}

func (tv *txMemoryView) GetResult(_ context.Context, planID mes.PlanID) (*mes.ProductionResult, error) {
	r, ok := tv.parent.results[planID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}
