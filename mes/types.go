/*
Package mes provides the production session ledger and OEE aggregation engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking
  incremental production output against a plan. A plan's target quantity is
  confirmed through one or more immutable "sessions"; cumulative progress is
  always recomputed from the full session set, and a one-time finalization
  rolls all sessions up into a single result carrying the OEE metrics.

KEY CONCEPTS IN THIS FILE (types.go):
  - ProductionPlan: A scheduled unit of work with a target output quantity
  - ProductionSession: One immutable confirmation of partial output
  - ProgressSnapshot: Derived cumulative totals (never persisted)
  - ProductionResult: The one-time rollup written at completion
  - Plan/Session IDs: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Immutability: Sessions are appended, never edited or deleted
  2. Recomputation: Totals are derived from sessions on every read; there is
     no stored counter that can drift out of sync
  3. Precision: Uses decimal.Decimal for run rates and OEE percentages
  4. Single writer: Only the finalization coordinator writes results and
     transitions a plan to completed

USAGE:
  session, err := ledger.Append(ctx, planID, mes.SessionInput{
      ActualStart: shiftStart,
      ActualEnd:   shiftEnd,
      Quantity:    60,
  })

SEE ALSO:
  - status.go: Plan status state machine
  - ledger.go: Session append with transactional numbering
  - progress.go: Cumulative progress aggregation
  - finalize.go: One-time rollup into ProductionResult
*/
package mes

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PlanID string
type SessionID string
type ResultID string

// =============================================================================
// PRODUCTION PLAN - Owned by the plan store, read by the core
// =============================================================================

// ProductionPlan is the scheduled unit of work the core tracks sessions
// against. The core reads TargetOutput, Status and StandardRunRate, and
// writes only Status transitions and ConfirmedOutput.
type ProductionPlan struct {
	ID              PlanID
	Name            string
	MachineID       string // reference into external master data, informational only
	TargetOutput    int64  // non-negative, immutable once sessions exist
	StandardRunRate decimal.Decimal // pieces per minute, must be > 0
	Status          PlanStatus

	// ConfirmedOutput is written exactly once, by the finalization
	// coordinator, when the plan completes.
	ConfirmedOutput int64

	// Plan-level defaults applied when a session omits break/downtime input.
	DefaultBreaks   BreakMinutes
	DefaultDowntime int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// =============================================================================
// BREAK MINUTES - Declared non-working time within a session
// =============================================================================

// BreakMinutes holds the three declared break slots of a production shift.
type BreakMinutes struct {
	Morning int
	Lunch   int
	Evening int
}

// DefaultLunchMinutes is applied when a submission leaves the lunch break
// unspecified. Floor terminals routinely omit it; 60 is the plant standard.
const DefaultLunchMinutes = 60

func DefaultBreaks() BreakMinutes {
	return BreakMinutes{Lunch: DefaultLunchMinutes}
}

func (b BreakMinutes) Total() int {
	return b.Morning + b.Lunch + b.Evening
}

func (b BreakMinutes) IsValid() bool {
	return b.Morning >= 0 && b.Lunch >= 0 && b.Evening >= 0
}

// =============================================================================
// PRODUCTION SESSION - One immutable confirmation of partial output
// =============================================================================

// ProductionSession is a single confirmation appended to a plan's ledger.
// Sessions are never mutated or deleted by the core.
type ProductionSession struct {
	ID     SessionID
	PlanID PlanID

	// SessionNumber is assigned by the ledger: unique per plan, strictly
	// increasing, no gaps. See ledger.go for the concurrency contract.
	SessionNumber int

	ActualStart time.Time
	ActualEnd   time.Time

	Quantity       int64 // pieces confirmed in this session
	RejectQuantity int64 // 0 <= reject <= quantity
	ReworkQuantity int64

	Breaks          BreakMinutes
	DowntimeMinutes int
	DowntimeReason  string

	// WorkingMinutes is derived at append time: elapsed minus breaks and
	// downtime, floored at zero. See worktime.go.
	WorkingMinutes int

	Remark    string
	CreatedBy string
	CreatedAt time.Time
}

// GoodQuantity returns pieces net of rejects, reported alongside the raw
// quantity on session reads. Progress and completion use raw Quantity.
func (s ProductionSession) GoodQuantity() int64 {
	return s.Quantity - s.RejectQuantity
}

// SessionInput is the caller-supplied portion of a session submission.
// Break and downtime fields left nil fall back to the plan defaults
// (lunch defaults to DefaultLunchMinutes when the plan carries none).
type SessionInput struct {
	ActualStart time.Time
	ActualEnd   time.Time

	Quantity       int64
	RejectQuantity int64
	ReworkQuantity int64

	Breaks          *BreakMinutes
	DowntimeMinutes *int
	DowntimeReason  string

	Remark    string
	CreatedBy string
}

// =============================================================================
// PROGRESS SNAPSHOT - Derived cumulative state (never persisted)
// =============================================================================

// ProgressSnapshot is recomputed from the full session set on every read.
type ProgressSnapshot struct {
	PlanID              PlanID
	TargetOutput        int64
	TotalProduced       int64
	TotalRejects        int64
	TotalRework         int64
	TotalWorkingMinutes int64
	RemainingQuantity   int64 // floored at zero, never negative
	LastSessionNumber   int
	IsCompleted         bool
}

// =============================================================================
// PRODUCTION RESULT - One-time rollup, written by the coordinator only
// =============================================================================

// ProductionResult is the summary record synthesized from all sessions when
// the plan's target is met. At most one row exists per plan.
type ProductionResult struct {
	ID     ResultID
	PlanID PlanID

	SessionCount        int
	TotalProduced       int64
	TotalRejects        int64
	TotalRework         int64
	TotalWorkingMinutes int64
	TotalDowntime       int64

	OEE OEE

	FinalizedAt time.Time
}
