package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/production-engine/api"
	"github.com/warp/production-engine/mes"
	"github.com/warp/production-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) (http.Handler, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	handler := api.NewHandler(store)
	return api.NewRouter(handler), store
}

func seedPlan(t *testing.T, store *sqlite.Store, id mes.PlanID, target int64, status mes.PlanStatus) {
	t.Helper()
	now := time.Now().UTC()
	err := store.SavePlan(context.Background(), mes.ProductionPlan{
		ID:              id,
		Name:            "Test Batch",
		MachineID:       "CNC-01",
		TargetOutput:    target,
		StandardRunRate: decimal.NewFromInt(1),
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	require.NoError(t, err)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func sessionBody(qty, rejects int64) map[string]any {
	start := time.Date(2026, time.March, 10, 6, 0, 0, 0, time.UTC)
	return map[string]any{
		"actual_start":    start.Format(time.RFC3339),
		"actual_end":      start.Add(9 * time.Hour).Format(time.RFC3339),
		"quantity":        qty,
		"reject_quantity": rejects,
		"created_by":      "operator-1",
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// =============================================================================
// SESSION SUBMISSION
// =============================================================================

func TestSubmitSession_ReturnsProgress(t *testing.T) {
	router, store := newTestServer(t)
	seedPlan(t, store, "plan-1", 100, mes.StatusInProgress)

	rec := doJSON(t, router, "POST", "/api/plans/plan-1/sessions", sessionBody(40, 2))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var progress api.ProgressDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &progress))
	assert.Equal(t, int64(40), progress.TotalProduced)
	assert.Equal(t, int64(60), progress.RemainingQuantity)
	assert.Equal(t, 1, progress.LastSessionNumber)
	assert.False(t, progress.IsCompleted)
}

func TestSubmitSession_UnknownPlan_404(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doJSON(t, router, "POST", "/api/plans/ghost/sessions", sessionBody(10, 0))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Code)
}

func TestSubmitSession_CancelledPlan_409(t *testing.T) {
	router, store := newTestServer(t)
	seedPlan(t, store, "plan-c", 100, mes.StatusCancelled)

	rec := doJSON(t, router, "POST", "/api/plans/plan-c/sessions", sessionBody(10, 0))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "plan_closed", decodeError(t, rec).Code)
}

func TestSubmitSession_InvalidInput_400(t *testing.T) {
	router, store := newTestServer(t)
	seedPlan(t, store, "plan-v", 100, mes.StatusInProgress)

	// Rejects exceed quantity
	body := sessionBody(5, 6)
	rec := doJSON(t, router, "POST", "/api/plans/plan-v/sessions", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decodeError(t, rec).Code)

	// Malformed timestamp
	body = sessionBody(10, 0)
	body["actual_start"] = "yesterday-ish"
	rec = doJSON(t, router, "POST", "/api/plans/plan-v/sessions", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitSession_FinalSession_CompletesPlan(t *testing.T) {
	// GIVEN: A plan at 70 of 100
	// WHEN: A 30-piece session is submitted over HTTP
	// THEN: The response reports completion, the plan is completed, and
	//       the result endpoint serves the rollup

	router, store := newTestServer(t)
	seedPlan(t, store, "plan-f", 100, mes.StatusInProgress)

	rec := doJSON(t, router, "POST", "/api/plans/plan-f/sessions", sessionBody(70, 0))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, "POST", "/api/plans/plan-f/sessions", sessionBody(30, 1))
	require.Equal(t, http.StatusCreated, rec.Code)

	var progress api.ProgressDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &progress))
	assert.True(t, progress.IsCompleted)

	rec = doJSON(t, router, "GET", "/api/plans/plan-f/result", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result api.ResultDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, int64(100), result.TotalProduced)
	assert.Equal(t, 2, result.SessionCount)
	assert.GreaterOrEqual(t, result.OEE.Overall, 0.0)
	assert.LessOrEqual(t, result.OEE.Overall, 100.0)

	// Further submissions bounce off the closed plan.
	rec = doJSON(t, router, "POST", "/api/plans/plan-f/sessions", sessionBody(10, 0))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// =============================================================================
// READ ENDPOINTS
// =============================================================================

func TestGetProgress(t *testing.T) {
	router, store := newTestServer(t)
	seedPlan(t, store, "plan-p", 200, mes.StatusInProgress)

	doJSON(t, router, "POST", "/api/plans/plan-p/sessions", sessionBody(50, 0))

	rec := doJSON(t, router, "GET", "/api/plans/plan-p/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var progress api.ProgressDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &progress))
	assert.Equal(t, int64(50), progress.TotalProduced)
	assert.Equal(t, int64(150), progress.RemainingQuantity)

	rec = doJSON(t, router, "GET", "/api/plans/ghost/progress", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListSessions(t *testing.T) {
	router, store := newTestServer(t)
	seedPlan(t, store, "plan-s", 500, mes.StatusInProgress)

	for i := 0; i < 3; i++ {
		rec := doJSON(t, router, "POST", "/api/plans/plan-s/sessions", sessionBody(50, 4))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, router, "GET", "/api/plans/plan-s/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var sessions []api.SessionDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	require.Len(t, sessions, 3)
	for i, s := range sessions {
		assert.Equal(t, i+1, s.SessionNumber)
		assert.Equal(t, 480, s.WorkingMinutes, "540 elapsed minus the default lunch")
		assert.Equal(t, int64(46), s.GoodQuantity, "quantity net of rejects")
	}
}

func TestGetResult_BeforeCompletion_404(t *testing.T) {
	router, store := newTestServer(t)
	seedPlan(t, store, "plan-r", 100, mes.StatusInProgress)

	rec := doJSON(t, router, "GET", "/api/plans/plan-r/result", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPlan(t *testing.T) {
	router, store := newTestServer(t)
	seedPlan(t, store, "plan-g", 100, mes.StatusPlanning)

	rec := doJSON(t, router, "GET", "/api/plans/plan-g", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var plan api.PlanDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.Equal(t, "plan-g", plan.ID)
	assert.Equal(t, "planning", plan.Status)

	rec = doJSON(t, router, "GET", "/api/plans/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPlans(t *testing.T) {
	router, store := newTestServer(t)
	for i := 0; i < 3; i++ {
		seedPlan(t, store, mes.PlanID(fmt.Sprintf("plan-%d", i)), 100, mes.StatusPlanning)
	}

	rec := doJSON(t, router, "GET", "/api/plans", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var plans []api.PlanDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plans))
	assert.Len(t, plans, 3)
}

// =============================================================================
// STATUS TRANSITIONS
// =============================================================================

func TestUpdatePlanStatus_LegalTransition(t *testing.T) {
	router, store := newTestServer(t)
	seedPlan(t, store, "plan-st", 100, mes.StatusPlanning)

	rec := doJSON(t, router, "POST", "/api/plans/plan-st/status",
		api.UpdateStatusRequest{Status: "in-progress"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var plan api.PlanDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.Equal(t, "in-progress", plan.Status)
}

func TestUpdatePlanStatus_IllegalTransition_409(t *testing.T) {
	router, store := newTestServer(t)
	seedPlan(t, store, "plan-st", 100, mes.StatusPendingConfirmation)

	rec := doJSON(t, router, "POST", "/api/plans/plan-st/status",
		api.UpdateStatusRequest{Status: "in-progress"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_transition", decodeError(t, rec).Code)
}

func TestUpdatePlanStatus_CompletedReservedForFinalization(t *testing.T) {
	router, store := newTestServer(t)
	seedPlan(t, store, "plan-st", 100, mes.StatusInProgress)

	rec := doJSON(t, router, "POST", "/api/plans/plan-st/status",
		api.UpdateStatusRequest{Status: "completed"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Status unchanged
	plan, err := store.GetPlan(context.Background(), "plan-st")
	require.NoError(t, err)
	assert.Equal(t, mes.StatusInProgress, plan.Status)
}

func TestUpdatePlanStatus_UnknownStatus_400(t *testing.T) {
	router, store := newTestServer(t)
	seedPlan(t, store, "plan-st", 100, mes.StatusPlanning)

	rec := doJSON(t, router, "POST", "/api/plans/plan-st/status",
		api.UpdateStatusRequest{Status: "paused"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePlanStatus_CancelPreservesLedger(t *testing.T) {
	router, store := newTestServer(t)
	seedPlan(t, store, "plan-cx", 100, mes.StatusInProgress)

	doJSON(t, router, "POST", "/api/plans/plan-cx/sessions", sessionBody(30, 0))

	rec := doJSON(t, router, "POST", "/api/plans/plan-cx/status",
		api.UpdateStatusRequest{Status: "cancelled"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, "GET", "/api/plans/plan-cx/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sessions []api.SessionDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	assert.Len(t, sessions, 1, "history survives cancellation")
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doJSON(t, router, "GET", "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
