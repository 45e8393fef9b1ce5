/*
ledger.go - Append-only session ledger with transactional numbering

PURPOSE:
  The Ledger is the immutable record of all production confirmations.
  Every partial confirmation against a plan is appended here; cumulative
  progress is always computed by replaying sessions - there's no separate
  counter that can get out of sync.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete. EVER.
  2. NUMBERING: Session numbers per plan are unique, strictly increasing,
     and gapless. "Read max, insert max+1" runs inside a single store
     transaction; the (plan_id, session_number) uniqueness constraint is
     the backstop when two writers race.
  3. CLOSED PLANS: Once a plan is cancelled or completed, appends fail
     with ErrPlanClosed and the ledger is left unmodified.

CONCURRENCY:
  Multiple request handlers may append to the SAME plan concurrently (two
  floor terminals confirming overlapping shifts). There is no in-process
  shared state; all coordination is via the transactional store. A losing
  writer gets ErrSessionNumberConflict and resubmits - idempotent at the
  caller level, since the resubmission is the same logical entry under a
  fresh number.

EDGE CASES:
  Inverted or zero-length time ranges are accepted with WorkingMinutes = 0
  rather than rejected: floor data entry contains operator error, and a
  recorded-but-degraded session beats a lost one. Only structurally broken
  input (negative quantities, reject > quantity) fails validation.

SEE ALSO:
  - store.go: SessionStore contract
  - progress.go: Aggregation over the appended sessions
*/
package mes

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// LEDGER - Append-only session log
// =============================================================================

// Ledger owns session-number assignment and per-session derived fields.
type Ledger interface {
	// Append validates the input, assigns the next session number for the
	// plan inside a single transaction, and persists the session.
	Append(ctx context.Context, planID PlanID, in SessionInput) (ProductionSession, error)

	// Sessions returns all sessions for a plan, ordered by session number.
	Sessions(ctx context.Context, planID PlanID) ([]ProductionSession, error)
}

// =============================================================================
// DEFAULT LEDGER - Implementation using TxStore
// =============================================================================

type DefaultLedger struct {
	Store TxStore

	// now is swappable for tests.
	now func() time.Time
}

func NewLedger(store TxStore) *DefaultLedger {
	return &DefaultLedger{Store: store, now: time.Now}
}

func (l *DefaultLedger) Append(ctx context.Context, planID PlanID, in SessionInput) (ProductionSession, error) {
	if err := validateInput(planID, in); err != nil {
		return ProductionSession{}, err
	}

	var session ProductionSession
	err := l.Store.WithTx(ctx, func(s Store) error {
		plan, err := s.GetPlan(ctx, planID)
		if err != nil {
			return err
		}
		if plan == nil {
			return ErrPlanNotFound
		}
		if plan.Status.IsClosed() {
			return &PlanClosedError{PlanID: planID, Status: plan.Status}
		}

		max, err := s.MaxSessionNumber(ctx, planID)
		if err != nil {
			return err
		}

		session = buildSession(*plan, in, max+1, l.now().UTC())
		return s.AppendSession(ctx, session)
	})
	if err != nil {
		return ProductionSession{}, err
	}
	return session, nil
}

func (l *DefaultLedger) Sessions(ctx context.Context, planID PlanID) ([]ProductionSession, error) {
	return l.Store.LoadSessions(ctx, planID)
}

// buildSession fills the system-assigned and derived fields of a session.
// Break and downtime inputs left nil fall back to the plan defaults.
func buildSession(plan ProductionPlan, in SessionInput, number int, createdAt time.Time) ProductionSession {
	breaks := plan.DefaultBreaks
	if breaks == (BreakMinutes{}) {
		breaks = DefaultBreaks()
	}
	if in.Breaks != nil {
		breaks = *in.Breaks
	}

	downtime := plan.DefaultDowntime
	if in.DowntimeMinutes != nil {
		downtime = *in.DowntimeMinutes
	}

	return ProductionSession{
		ID:              SessionID(uuid.NewString()),
		PlanID:          plan.ID,
		SessionNumber:   number,
		ActualStart:     in.ActualStart,
		ActualEnd:       in.ActualEnd,
		Quantity:        in.Quantity,
		RejectQuantity:  in.RejectQuantity,
		ReworkQuantity:  in.ReworkQuantity,
		Breaks:          breaks,
		DowntimeMinutes: downtime,
		DowntimeReason:  in.DowntimeReason,
		WorkingMinutes:  ComputeWorkingMinutes(in.ActualStart, in.ActualEnd, breaks, downtime),
		Remark:          in.Remark,
		CreatedBy:       in.CreatedBy,
		CreatedAt:       createdAt,
	}
}

// validateInput rejects structurally broken submissions. Time-range
// anomalies pass through with degraded-but-accepted semantics.
func validateInput(planID PlanID, in SessionInput) error {
	if planID == "" {
		return &ValidationError{Field: "plan_id", Message: "must not be empty"}
	}
	if in.ActualStart.IsZero() || in.ActualEnd.IsZero() {
		return &ValidationError{Field: "actual_start/actual_end", Message: "must be set"}
	}
	if in.Quantity < 0 {
		return &ValidationError{Field: "quantity", Message: "must be non-negative"}
	}
	if in.RejectQuantity < 0 {
		return &ValidationError{Field: "reject_quantity", Message: "must be non-negative"}
	}
	if in.RejectQuantity > in.Quantity {
		return &ValidationError{Field: "reject_quantity", Message: "must not exceed quantity"}
	}
	if in.ReworkQuantity < 0 {
		return &ValidationError{Field: "rework_quantity", Message: "must be non-negative"}
	}
	if in.Breaks != nil && !in.Breaks.IsValid() {
		return &ValidationError{Field: "breaks", Message: "minutes must be non-negative"}
	}
	if in.DowntimeMinutes != nil && *in.DowntimeMinutes < 0 {
		return &ValidationError{Field: "downtime_minutes", Message: "must be non-negative"}
	}
	return nil
}
