/*
errors.go - Centralized error types for the session engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The ledger and aggregator never swallow errors; they return typed
  failures and the caller decides retry policy.

ERROR CATEGORIES:
  1. Not-found errors   - Unknown plan or missing result
  2. Conflict errors    - Session-number race, duplicate finalization. Both
                          are recoverable: the caller resubmits and the
                          ledger hands out a fresh number.
  3. Terminal errors    - Appends against a cancelled/completed plan.
  4. Validation errors  - Truly malformed input. Note that inverted time
                          ranges are NOT rejected (see worktime.go); only
                          structurally broken submissions fail validation.
  5. Storage errors     - Transaction/timeout failures from the backing
                          store, retryable with backoff.

USAGE:
  if errors.Is(err, mes.ErrSessionNumberConflict) {
      // retry the whole submission; a fresh number will be assigned
  }

SEE ALSO:
  - ledger.go: Returns conflict/closed/not-found errors
  - finalize.go: Treats "already completed" as a no-op, not an error
*/
package mes

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrPlanNotFound is returned when a referenced plan doesn't exist.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrResultNotFound is returned when no finalized result exists yet.
	ErrResultNotFound = errors.New("result not found")

	// ErrSessionNumberConflict is returned when two concurrent appends were
	// assigned the same session number. The losing writer retries the whole
	// submission; the uniqueness index is the enforcement backstop.
	ErrSessionNumberConflict = errors.New("session number conflict")

	// ErrPlanClosed is returned when appending to a cancelled or completed
	// plan. Terminal, not retryable.
	ErrPlanClosed = errors.New("plan closed")

	// ErrPlanNotComplete is returned when finalization is invoked before the
	// target output has been reached.
	ErrPlanNotComplete = errors.New("plan not complete")

	// ErrInvalidStatus is returned when an externally supplied status string
	// doesn't name a known plan status. Rejected before any write occurs.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidTransition is returned when a requested status change is not
	// in the transition table.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrValidation is the base for malformed-input failures.
	ErrValidation = errors.New("validation failed")

	// ErrStorage wraps transaction and timeout failures from the backing
	// store. Retryable with backoff.
	ErrStorage = errors.New("storage failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending field of a malformed submission.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// PlanClosedError reports an append against a closed plan.
type PlanClosedError struct {
	PlanID PlanID
	Status PlanStatus
}

func (e *PlanClosedError) Error() string {
	return fmt.Sprintf("plan %s is %s: no further sessions accepted", e.PlanID, e.Status)
}

func (e *PlanClosedError) Unwrap() error { return ErrPlanClosed }

// SessionConflictError reports the contested session number.
type SessionConflictError struct {
	PlanID        PlanID
	SessionNumber int
}

func (e *SessionConflictError) Error() string {
	return fmt.Sprintf("session number %d already taken for plan %s", e.SessionNumber, e.PlanID)
}

func (e *SessionConflictError) Unwrap() error { return ErrSessionNumberConflict }

// TransitionError reports an illegal status change.
type TransitionError struct {
	PlanID PlanID
	From   PlanStatus
	To     PlanStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("plan %s: cannot transition %s -> %s", e.PlanID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSessionNumberConflict) ||
		errors.Is(err, ErrStorage)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidTransition)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrResultNotFound)
}

// IsTerminal returns true if retrying can never succeed.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrPlanClosed)
}
