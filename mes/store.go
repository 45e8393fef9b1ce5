/*
store.go - Persistence interfaces for plans, sessions and results

PURPOSE:
  Defines the interface between the domain logic and the database. The
  session store maintains append-only semantics; the plan and result stores
  carry the narrow read/write contracts the core needs from its
  collaborators.

KEY INTERFACES:
  SessionStore: Append-only session persistence plus numbering support
  PlanStore:    Plan reads, status transitions, confirmed-output write
  ResultStore:  Upsert-once result persistence
  Store:        The three combined
  TxStore:      Store plus transactional scope (WithTx)

APPEND-ONLY CONTRACT:
  SessionStore exposes no update or delete. A session, once committed, is
  counted by every subsequent aggregation. Corrections happen upstream
  (a compensating session), never by editing history.

TRANSACTIONAL SCOPE:
  Two operations require serialized access per plan and run inside WithTx:
  - "read max session number, insert max+1" (ledger.go)
  - "re-aggregate, write result, flip status"  (finalize.go)
  Everything else is read-only and takes no locks.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - mes/store/memory.go:    In-memory for testing

SEE ALSO:
  - ledger.go: Session numbering on top of SessionStore
  - finalize.go: The sole ResultStore writer
*/
package mes

import "context"

// =============================================================================
// SESSION STORE - Append-only
// =============================================================================

// SessionStore persists production sessions. No Update, no Delete.
type SessionStore interface {
	// AppendSession persists one session row. Returns
	// ErrSessionNumberConflict if (plan, session number) already exists;
	// the uniqueness constraint is the enforcement backstop for the
	// numbering transaction.
	AppendSession(ctx context.Context, s ProductionSession) error

	// LoadSessions returns all sessions for a plan ordered by session number.
	LoadSessions(ctx context.Context, planID PlanID) ([]ProductionSession, error)

	// MaxSessionNumber returns the highest assigned number for a plan,
	// 0 when the plan has no sessions yet.
	MaxSessionNumber(ctx context.Context, planID PlanID) (int, error)
}

// =============================================================================
// PLAN STORE - External collaborator contract
// =============================================================================

// PlanStore is the core-facing contract with the plan collaborator.
// GetPlan returns (nil, nil) for an unknown plan; the ledger maps that to
// ErrPlanNotFound.
type PlanStore interface {
	GetPlan(ctx context.Context, planID PlanID) (*ProductionPlan, error)
	SavePlan(ctx context.Context, p ProductionPlan) error
	SetPlanStatus(ctx context.Context, planID PlanID, status PlanStatus) error
	SetConfirmedOutput(ctx context.Context, planID PlanID, totalPieces int64) error

	// ListPlansByStatus returns plans currently in any of the given
	// statuses. Used by the finalization sweeper.
	ListPlansByStatus(ctx context.Context, statuses ...PlanStatus) ([]ProductionPlan, error)
}

// =============================================================================
// RESULT STORE
// =============================================================================

// ResultStore persists the per-plan finalization rollup.
type ResultStore interface {
	// UpsertResult inserts the result row, or updates it in place when one
	// already exists for the plan. Never duplicates.
	UpsertResult(ctx context.Context, r ProductionResult) error

	// GetResult returns (nil, nil) when the plan has not been finalized.
	GetResult(ctx context.Context, planID PlanID) (*ProductionResult, error)
}

// =============================================================================
// COMBINED INTERFACES
// =============================================================================

// Store combines the three persistence contracts.
type Store interface {
	SessionStore
	PlanStore
	ResultStore
}

// TxStore wraps Store with transactional scope.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise committed. The store passed to
	// fn operates inside the transaction.
	WithTx(ctx context.Context, fn func(Store) error) error
}
