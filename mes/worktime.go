package mes

import (
	"math"
	"time"
)

// =============================================================================
// TIME CALCULATOR - Net working minutes from a session's time range
// =============================================================================

// ComputeWorkingMinutes returns the net working minutes of a session:
// elapsed time between start and end, minus declared breaks and downtime,
// floored at zero.
//
// A non-positive elapsed range yields 0, not an error. Floor data entry
// contains operator mistakes (swapped start/end, same-minute ranges) and the
// session is still accepted; a validation layer outside this core may warn
// separately.
func ComputeWorkingMinutes(start, end time.Time, breaks BreakMinutes, downtimeMinutes int) int {
	net := ElapsedMinutes(start, end) - breaks.Total() - downtimeMinutes
	if net < 0 {
		return 0
	}
	return net
}

// ElapsedMinutes returns the rounded span of a session's time range,
// floored at zero.
func ElapsedMinutes(start, end time.Time) int {
	elapsed := end.Sub(start).Minutes()
	if elapsed <= 0 {
		return 0
	}
	return int(math.Round(elapsed))
}
