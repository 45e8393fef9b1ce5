/*
finalize.go - One-time rollup of all sessions into a ProductionResult

PURPOSE:
  When a plan's cumulative output meets its target, the coordinator
  synthesizes one summary record from all sessions, writes the confirmed
  output back to the plan, and flips the plan status to completed - in that
  order, inside one transaction.

IDEMPOTENCE:
  Invoking Finalize on an already-completed plan is a no-op, not an error.
  Clients that resubmit a final session after a timeout will trigger a
  second finalization attempt; the first committed transition wins and the
  retry observes completed and returns the existing result.

TRUST:
  The coordinator re-aggregates the full session set inside its own
  transaction. It never trusts the caller's locally cached totals, which
  may be stale under concurrent appends.

SEE ALSO:
  - progress.go: The aggregation it re-runs
  - oee.go: The metric computation
  - status.go: The completed transition it alone may perform
*/
package mes

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FINALIZATION COORDINATOR
// =============================================================================

// Coordinator is the sole writer of ProductionResult rows and the only
// actor permitted to transition a plan to completed.
type Coordinator struct {
	Store TxStore

	now func() time.Time
}

func NewCoordinator(store TxStore) *Coordinator {
	return &Coordinator{Store: store, now: time.Now}
}

// Finalize rolls a fully-produced plan up into its result record.
// The boolean reports whether this call performed the rollup: false means
// the plan was already completed and the existing result is returned
// unchanged (NoOp).
func (c *Coordinator) Finalize(ctx context.Context, planID PlanID) (*ProductionResult, bool, error) {
	var (
		result    *ProductionResult
		performed bool
	)

	err := c.Store.WithTx(ctx, func(s Store) error {
		plan, err := s.GetPlan(ctx, planID)
		if err != nil {
			return err
		}
		if plan == nil {
			return ErrPlanNotFound
		}

		if plan.Status == StatusCompleted {
			// Retried completion trigger; return what was written before.
			result, err = s.GetResult(ctx, planID)
			return err
		}
		if plan.Status == StatusCancelled {
			return &PlanClosedError{PlanID: planID, Status: plan.Status}
		}

		sessions, err := s.LoadSessions(ctx, planID)
		if err != nil {
			return err
		}

		snap := snapshotFrom(*plan, sessions)
		if !snap.IsCompleted {
			return ErrPlanNotComplete
		}

		agg := aggregatesFrom(sessions)
		oee := ComputeOEE(agg, plan.StandardRunRate)

		r := ProductionResult{
			ID:                  ResultID(uuid.NewString()),
			PlanID:              planID,
			SessionCount:        agg.SessionCount,
			TotalProduced:       agg.TotalPieces,
			TotalRejects:        agg.RejectPieces,
			TotalRework:         agg.ReworkPieces,
			TotalWorkingMinutes: agg.WorkingMinutes,
			TotalDowntime:       agg.DowntimeMinutes,
			OEE:                 oee,
			FinalizedAt:         c.now().UTC(),
		}

		// Insert-or-update keyed by plan: a crashed earlier attempt may
		// have left a row without the status flip.
		if existing, err := s.GetResult(ctx, planID); err != nil {
			return err
		} else if existing != nil {
			r.ID = existing.ID
		}

		if err := s.UpsertResult(ctx, r); err != nil {
			return err
		}
		if err := s.SetConfirmedOutput(ctx, planID, agg.TotalPieces); err != nil {
			return err
		}
		if err := s.SetPlanStatus(ctx, planID, StatusCompleted); err != nil {
			return err
		}

		result = &r
		performed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, performed, nil
}
