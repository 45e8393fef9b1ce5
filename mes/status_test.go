package mes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/production-engine/mes"
)

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{
		"planning", "in-progress", "pending-confirmation", "completed", "cancelled",
	} {
		got, err := mes.ParseStatus(valid)
		assert.NoError(t, err, valid)
		assert.Equal(t, mes.PlanStatus(valid), got)
	}

	_, err := mes.ParseStatus("paused")
	assert.ErrorIs(t, err, mes.ErrInvalidStatus)

	_, err = mes.ParseStatus("")
	assert.ErrorIs(t, err, mes.ErrInvalidStatus)
}

func TestCanTransition_ForwardPath(t *testing.T) {
	assert.True(t, mes.CanTransition(mes.StatusPlanning, mes.StatusInProgress))
	assert.True(t, mes.CanTransition(mes.StatusInProgress, mes.StatusPendingConfirmation))
	assert.True(t, mes.CanTransition(mes.StatusInProgress, mes.StatusCompleted))
	assert.True(t, mes.CanTransition(mes.StatusPendingConfirmation, mes.StatusCompleted))
}

func TestCanTransition_NoBackwardMoves(t *testing.T) {
	assert.False(t, mes.CanTransition(mes.StatusInProgress, mes.StatusPlanning))
	assert.False(t, mes.CanTransition(mes.StatusPendingConfirmation, mes.StatusInProgress))
	assert.False(t, mes.CanTransition(mes.StatusPlanning, mes.StatusCompleted), "planning cannot skip to completed")
}

func TestCanTransition_CancelledFromAnyNonCompleted(t *testing.T) {
	assert.True(t, mes.CanTransition(mes.StatusPlanning, mes.StatusCancelled))
	assert.True(t, mes.CanTransition(mes.StatusInProgress, mes.StatusCancelled))
	assert.True(t, mes.CanTransition(mes.StatusPendingConfirmation, mes.StatusCancelled))
	assert.False(t, mes.CanTransition(mes.StatusCompleted, mes.StatusCancelled))
}

func TestTerminalStates_NoExits(t *testing.T) {
	for _, from := range []mes.PlanStatus{mes.StatusCompleted, mes.StatusCancelled} {
		for _, to := range []mes.PlanStatus{
			mes.StatusPlanning, mes.StatusInProgress, mes.StatusPendingConfirmation,
			mes.StatusCompleted, mes.StatusCancelled,
		} {
			assert.False(t, mes.CanTransition(from, to), "%s -> %s", from, to)
		}
		assert.True(t, from.IsTerminal())
		assert.True(t, from.IsClosed())
	}
}

func TestIsClosed_OpenStates(t *testing.T) {
	assert.False(t, mes.StatusPlanning.IsClosed())
	assert.False(t, mes.StatusInProgress.IsClosed())
	assert.False(t, mes.StatusPendingConfirmation.IsClosed())
}
