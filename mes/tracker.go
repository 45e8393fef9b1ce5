/*
tracker.go - Submission orchestration

PURPOSE:
  Tracker ties the pieces together for the public SubmitSession operation:

    time calculator -> ledger append -> progress aggregation
                    -> completion predicate -> finalization

  The response returns updated progress to the caller. Finalization runs
  synchronously at the end of every append that observes completion.
*/
package mes

import "context"

// Tracker is the composition root of the session engine.
type Tracker struct {
	Ledger      Ledger
	Aggregator  *Aggregator
	Coordinator *Coordinator

	store TxStore
}

// NewTracker wires the default components over one transactional store.
func NewTracker(store TxStore) *Tracker {
	return &Tracker{
		Ledger:      NewLedger(store),
		Aggregator:  NewAggregator(store),
		Coordinator: NewCoordinator(store),
		store:       store,
	}
}

// SubmitSession appends one confirmation and returns the resulting
// progress snapshot. When the append completes the plan, finalization runs
// before the snapshot is returned; an already-completed plan during the
// finalize step is treated as success (another submitter won the race).
func (t *Tracker) SubmitSession(ctx context.Context, planID PlanID, in SessionInput) (ProgressSnapshot, error) {
	if _, err := t.Ledger.Append(ctx, planID, in); err != nil {
		return ProgressSnapshot{}, err
	}

	snap, err := t.Aggregator.Progress(ctx, planID)
	if err != nil {
		return ProgressSnapshot{}, err
	}

	if snap.IsCompleted {
		if _, _, err := t.Coordinator.Finalize(ctx, planID); err != nil {
			return ProgressSnapshot{}, err
		}
	}

	return snap, nil
}

// Progress returns the current snapshot without writing anything.
func (t *Tracker) Progress(ctx context.Context, planID PlanID) (ProgressSnapshot, error) {
	return t.Aggregator.Progress(ctx, planID)
}

// Sessions lists the committed sessions for a plan.
func (t *Tracker) Sessions(ctx context.Context, planID PlanID) ([]ProductionSession, error) {
	return t.Ledger.Sessions(ctx, planID)
}

// Finalize rolls the plan up into its result. Safe to call repeatedly:
// an already-completed plan returns its stored result with performed=false.
func (t *Tracker) Finalize(ctx context.Context, planID PlanID) (*ProductionResult, bool, error) {
	return t.Coordinator.Finalize(ctx, planID)
}

// ChangeStatus applies an externally triggered transition. The read,
// the transition check, and the write share one transaction so a racing
// finalization cannot slip between a stale check and the write; a plan
// that completes first rejects the cancel with a TransitionError.
func (t *Tracker) ChangeStatus(ctx context.Context, planID PlanID, to PlanStatus) (*ProductionPlan, error) {
	var updated *ProductionPlan
	err := t.store.WithTx(ctx, func(s Store) error {
		plan, err := s.GetPlan(ctx, planID)
		if err != nil {
			return err
		}
		if plan == nil {
			return ErrPlanNotFound
		}
		if !CanTransition(plan.Status, to) {
			return &TransitionError{PlanID: planID, From: plan.Status, To: to}
		}
		if err := s.SetPlanStatus(ctx, planID, to); err != nil {
			return err
		}
		plan.Status = to
		updated = plan
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
