package mes_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/production-engine/mes"
)

// =============================================================================
// END-TO-END SUBMISSION FLOW
// =============================================================================

func TestTracker_SubmitSession_ReturnsUpdatedProgress(t *testing.T) {
	store := newTestStore(t)
	seedPlan(t, store, "plan-t", 100, mes.StatusInProgress)
	tracker := mes.NewTracker(store)
	ctx := context.Background()

	snap, err := tracker.SubmitSession(ctx, "plan-t", sessionInput(40, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(40), snap.TotalProduced)
	assert.Equal(t, int64(60), snap.RemainingQuantity)
	assert.False(t, snap.IsCompleted)

	sessions, err := tracker.Sessions(ctx, "plan-t")
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestTracker_FinalSession_TriggersFinalization(t *testing.T) {
	// GIVEN: A plan one session away from its target
	// WHEN: The closing confirmation is submitted
	// THEN: The response reports completion and the result exists without
	//       any separate finalize call

	store := newTestStore(t)
	seedPlan(t, store, "plan-t2", 100, mes.StatusInProgress)
	tracker := mes.NewTracker(store)
	ctx := context.Background()

	_, err := tracker.SubmitSession(ctx, "plan-t2", sessionInput(70, 0))
	require.NoError(t, err)

	snap, err := tracker.SubmitSession(ctx, "plan-t2", sessionInput(30, 2))
	require.NoError(t, err)
	assert.True(t, snap.IsCompleted)

	result, err := store.GetResult(ctx, "plan-t2")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(100), result.TotalProduced)
	assert.Equal(t, 2, result.SessionCount)

	plan, err := store.GetPlan(ctx, "plan-t2")
	require.NoError(t, err)
	assert.Equal(t, mes.StatusCompleted, plan.Status)
	assert.Equal(t, int64(100), plan.ConfirmedOutput)
}

func TestTracker_SubmitAfterCompletion_Rejected(t *testing.T) {
	store := newTestStore(t)
	seedPlan(t, store, "plan-t3", 50, mes.StatusInProgress)
	tracker := mes.NewTracker(store)
	ctx := context.Background()

	_, err := tracker.SubmitSession(ctx, "plan-t3", sessionInput(50, 0))
	require.NoError(t, err)

	_, err = tracker.SubmitSession(ctx, "plan-t3", sessionInput(10, 0))
	assert.ErrorIs(t, err, mes.ErrPlanClosed)
}

func TestTracker_ChangeStatus_AppliesExternalTrigger(t *testing.T) {
	store := newTestStore(t)
	seedPlan(t, store, "plan-t5", 100, mes.StatusPlanning)
	tracker := mes.NewTracker(store)
	ctx := context.Background()

	plan, err := tracker.ChangeStatus(ctx, "plan-t5", mes.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, mes.StatusInProgress, plan.Status)

	stored, err := store.GetPlan(ctx, "plan-t5")
	require.NoError(t, err)
	assert.Equal(t, mes.StatusInProgress, stored.Status)
}

func TestTracker_ChangeStatus_CannotDemoteCompletedPlan(t *testing.T) {
	// GIVEN: A plan that finalization already moved to completed
	// WHEN: A cancel arrives afterwards
	// THEN: The transition is rejected inside the transaction and the
	//       stored status stays completed

	store := newTestStore(t)
	seedPlan(t, store, "plan-t6", 50, mes.StatusInProgress)
	tracker := mes.NewTracker(store)
	ctx := context.Background()

	_, err := tracker.SubmitSession(ctx, "plan-t6", sessionInput(50, 0))
	require.NoError(t, err)

	_, err = tracker.ChangeStatus(ctx, "plan-t6", mes.StatusCancelled)
	assert.ErrorIs(t, err, mes.ErrInvalidTransition)

	plan, err := store.GetPlan(ctx, "plan-t6")
	require.NoError(t, err)
	assert.Equal(t, mes.StatusCompleted, plan.Status)
}

func TestTracker_ChangeStatus_RacingFinalization_NeverDemotesCompleted(t *testing.T) {
	// A cancel racing the closing submission must land either before the
	// plan completes (submission then fails on the closed plan) or be
	// rejected; a finalized plan never ends up cancelled.
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		store := newTestStore(t)
		planID := mes.PlanID(fmt.Sprintf("plan-race-%d", i))
		seedPlan(t, store, planID, 100, mes.StatusInProgress)
		tracker := mes.NewTracker(store)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = tracker.SubmitSession(ctx, planID, sessionInput(100, 0))
		}()
		go func() {
			defer wg.Done()
			_, _ = tracker.ChangeStatus(ctx, planID, mes.StatusCancelled)
		}()
		wg.Wait()

		plan, err := store.GetPlan(ctx, planID)
		require.NoError(t, err)

		result, err := store.GetResult(ctx, planID)
		require.NoError(t, err)
		if result != nil {
			assert.Equal(t, mes.StatusCompleted, plan.Status,
				"a finalized plan must stay completed")
		} else {
			assert.Equal(t, mes.StatusCancelled, plan.Status)
		}
	}
}

func TestTracker_ManualFinalize_Idempotent(t *testing.T) {
	store := newTestStore(t)
	seedPlan(t, store, "plan-t4", 50, mes.StatusInProgress)
	tracker := mes.NewTracker(store)
	ctx := context.Background()

	_, err := tracker.SubmitSession(ctx, "plan-t4", sessionInput(50, 0))
	require.NoError(t, err)

	result, performed, err := tracker.Finalize(ctx, "plan-t4")
	require.NoError(t, err)
	assert.False(t, performed, "inline finalization already ran")
	require.NotNil(t, result)
}
