/*
status.go - Plan status state machine

PURPOSE:
  Represents the plan lifecycle as a closed enum with an explicit transition
  table, validated centrally. The stored status is only ever advanced to
  completed by the finalization coordinator; completion detection itself is
  a pure predicate of the progress snapshot, never a stored flag.

STATES:
  planning -> in-progress -> pending-confirmation -> completed
  cancelled is reachable from any non-completed state.

  planning:             Scheduled, work has not started.
  in-progress:          Sessions are being confirmed.
  pending-confirmation: Floor work done, awaiting the final confirmation.
  completed:            Target met, result written. Terminal.
  cancelled:            Abandoned. Terminal.

Once a plan is cancelled or completed, the session ledger rejects new
appends with ErrPlanClosed.

SEE ALSO:
  - ledger.go: Rejects appends on closed plans
  - finalize.go: The only writer of the completed transition
*/
package mes

// PlanStatus is the closed set of plan lifecycle states.
type PlanStatus string

const (
	StatusPlanning            PlanStatus = "planning"
	StatusInProgress          PlanStatus = "in-progress"
	StatusPendingConfirmation PlanStatus = "pending-confirmation"
	StatusCompleted           PlanStatus = "completed"
	StatusCancelled           PlanStatus = "cancelled"
)

// ParseStatus validates an externally supplied status string before any
// write occurs.
func ParseStatus(s string) (PlanStatus, error) {
	switch PlanStatus(s) {
	case StatusPlanning, StatusInProgress, StatusPendingConfirmation,
		StatusCompleted, StatusCancelled:
		return PlanStatus(s), nil
	}
	return "", ErrInvalidStatus
}

// transitions is the single source of truth for legal status changes.
var transitions = map[PlanStatus][]PlanStatus{
	StatusPlanning:            {StatusInProgress, StatusCancelled},
	StatusInProgress:          {StatusPendingConfirmation, StatusCompleted, StatusCancelled},
	StatusPendingConfirmation: {StatusCompleted, StatusCancelled},
	StatusCompleted:           {},
	StatusCancelled:           {},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to PlanStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsClosed reports whether a plan in this status accepts no more sessions.
func (s PlanStatus) IsClosed() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsTerminal reports whether no further transition is possible.
func (s PlanStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}
