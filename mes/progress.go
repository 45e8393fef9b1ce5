/*
progress.go - Cumulative progress aggregation

PURPOSE:
  Derives cumulative totals for a plan by summing its full session set on
  every call. There are no incremental counters maintained outside the
  ledger: recomputation makes the aggregator idempotent and tolerant of
  replays, and it never mutates state.

COMPLETION:
  IsCompleted is a pure predicate of the snapshot (remaining <= 0), NOT a
  stored flag. The stored plan status only advances to completed through
  the finalization coordinator after it re-observes completion inside a
  transaction, so a second writer can never reach a different conclusion
  from a stale read.

  Completion counts raw session quantity, not quantity net of rejects.
  See DESIGN.md for the recorded decision.

CONCURRENCY:
  Read-only; takes no locks and runs at any isolation level. The snapshot
  reflects whatever sessions are committed at read time.
*/
package mes

import "context"

// =============================================================================
// PROGRESS AGGREGATOR
// =============================================================================

type Aggregator struct {
	Store Store
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{Store: store}
}

// Progress recomputes the snapshot for a plan from its full session set.
func (a *Aggregator) Progress(ctx context.Context, planID PlanID) (ProgressSnapshot, error) {
	plan, err := a.Store.GetPlan(ctx, planID)
	if err != nil {
		return ProgressSnapshot{}, err
	}
	if plan == nil {
		return ProgressSnapshot{}, ErrPlanNotFound
	}

	sessions, err := a.Store.LoadSessions(ctx, planID)
	if err != nil {
		return ProgressSnapshot{}, err
	}

	return snapshotFrom(*plan, sessions), nil
}

func snapshotFrom(plan ProductionPlan, sessions []ProductionSession) ProgressSnapshot {
	snap := ProgressSnapshot{
		PlanID:       plan.ID,
		TargetOutput: plan.TargetOutput,
	}

	for _, s := range sessions {
		snap.TotalProduced += s.Quantity
		snap.TotalRejects += s.RejectQuantity
		snap.TotalRework += s.ReworkQuantity
		snap.TotalWorkingMinutes += int64(s.WorkingMinutes)
		if s.SessionNumber > snap.LastSessionNumber {
			snap.LastSessionNumber = s.SessionNumber
		}
	}

	// Remaining floors at zero: overshoot never reports negative remaining.
	remaining := plan.TargetOutput - snap.TotalProduced
	if remaining < 0 {
		remaining = 0
	}
	snap.RemainingQuantity = remaining
	snap.IsCompleted = snap.TotalProduced >= plan.TargetOutput

	return snap
}

// aggregatesFrom sums the session set into the totals the OEE calculator
// consumes. Planned minutes are working plus downtime; breaks are excluded
// from the planned window.
func aggregatesFrom(sessions []ProductionSession) Aggregates {
	var agg Aggregates
	for _, s := range sessions {
		agg.TotalPieces += s.Quantity
		agg.RejectPieces += s.RejectQuantity
		agg.ReworkPieces += s.ReworkQuantity
		agg.WorkingMinutes += int64(s.WorkingMinutes)
		agg.DowntimeMinutes += int64(s.DowntimeMinutes)
		agg.PlannedWorkMinutes += int64(s.WorkingMinutes) + int64(s.DowntimeMinutes)
		agg.SessionCount++
	}
	return agg
}
