package mes_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/warp/production-engine/mes"
)

func shift(startHour, endHour int) (time.Time, time.Time) {
	day := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	return day.Add(time.Duration(startHour) * time.Hour), day.Add(time.Duration(endHour) * time.Hour)
}

func TestComputeWorkingMinutes_StandardShift(t *testing.T) {
	// GIVEN: A 9-hour shift with a 60-minute lunch and 45 minutes downtime
	// WHEN: Working minutes are computed
	// THEN: 540 - 60 - 45 = 435

	start, end := shift(6, 15)
	got := mes.ComputeWorkingMinutes(start, end, mes.BreakMinutes{Lunch: 60}, 45)
	assert.Equal(t, 435, got)
}

func TestComputeWorkingMinutes_AllBreakSlots(t *testing.T) {
	start, end := shift(6, 15)
	breaks := mes.BreakMinutes{Morning: 15, Lunch: 60, Evening: 15}
	got := mes.ComputeWorkingMinutes(start, end, breaks, 0)
	assert.Equal(t, 540-90, got)
}

func TestComputeWorkingMinutes_InvertedRange_YieldsZero(t *testing.T) {
	// GIVEN: Start after end (operator swapped the fields)
	// WHEN: Working minutes are computed
	// THEN: 0, not an error and not a negative number

	end, start := shift(6, 15)
	got := mes.ComputeWorkingMinutes(start, end, mes.BreakMinutes{}, 0)
	assert.Equal(t, 0, got)
}

func TestComputeWorkingMinutes_ZeroLengthRange_YieldsZero(t *testing.T) {
	start, _ := shift(6, 15)
	got := mes.ComputeWorkingMinutes(start, start, mes.BreakMinutes{}, 0)
	assert.Equal(t, 0, got)
}

func TestComputeWorkingMinutes_DeductionsExceedElapsed_FloorsAtZero(t *testing.T) {
	// GIVEN: A 1-hour window with 90 minutes of declared breaks
	// WHEN: Working minutes are computed
	// THEN: Floored at 0, never negative

	start, end := shift(6, 7)
	got := mes.ComputeWorkingMinutes(start, end, mes.BreakMinutes{Lunch: 90}, 0)
	assert.Equal(t, 0, got)
}

func TestComputeWorkingMinutes_SubMinuteRounding(t *testing.T) {
	// 90s elapsed rounds to 2 minutes
	start, _ := shift(6, 7)
	got := mes.ComputeWorkingMinutes(start, start.Add(90*time.Second), mes.BreakMinutes{}, 0)
	assert.Equal(t, 2, got)
}

func TestElapsedMinutes(t *testing.T) {
	start, end := shift(6, 15)
	assert.Equal(t, 540, mes.ElapsedMinutes(start, end))
	assert.Equal(t, 0, mes.ElapsedMinutes(end, start))
	assert.Equal(t, 0, mes.ElapsedMinutes(start, start))
}

func TestComputeWorkingMinutes_NoDeductions_EqualsElapsed(t *testing.T) {
	// Working minutes with nothing declared is exactly the elapsed span.
	start, end := shift(6, 15)
	got := mes.ComputeWorkingMinutes(start, end, mes.BreakMinutes{}, 0)
	assert.Equal(t, mes.ElapsedMinutes(start, end), got)
}
