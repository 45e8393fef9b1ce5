/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	floor data for testing and demos. Each scenario creates plans and
	session confirmations that demonstrate specific behaviors.

AVAILABLE SCENARIOS:

	fresh-floor:     Plans scheduled, no output confirmed yet
	mid-run:         Plan partway through its target, several sessions
	completed-run:   Target met through sessions, result finalized with OEE
	quality-trouble: Heavy rejects and downtime dragging OEE down
	cancelled-plan:  Plan cancelled mid-run, ledger preserved

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Save plans directly through the store
 3. Submit sessions through the tracker, so numbering, working-minutes
    derivation and finalization run exactly as they would in production

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "completed-run"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Request handlers and response helpers
  - server.go: Route wiring
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/production-engine/mes"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "fresh-floor",
		Name:        "Fresh Floor",
		Description: "Plans scheduled and released, no sessions confirmed yet",
		Category:    "machining",
	},
	{
		ID:          "mid-run",
		Name:        "Mid-Run",
		Description: "Plan partway through its target with several confirmations",
		Category:    "machining",
	},
	{
		ID:          "completed-run",
		Name:        "Completed Run",
		Description: "Target met through sessions, result finalized with OEE",
		Category:    "machining",
	},
	{
		ID:          "quality-trouble",
		Name:        "Quality Trouble",
		Description: "Heavy rejects and downtime dragging all OEE factors down",
		Category:    "assembly",
	},
	{
		ID:          "cancelled-plan",
		Name:        "Cancelled Plan",
		Description: "Plan cancelled mid-run, session history preserved",
		Category:    "assembly",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	// Find the scenario details
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	// Scenario ID exists but not in list (shouldn't happen)
	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "fresh-floor":
		err = h.loadFreshFloorScenario(ctx)
	case "mid-run":
		err = h.loadMidRunScenario(ctx)
	case "completed-run":
		err = h.loadCompletedRunScenario(ctx)
	case "quality-trouble":
		err = h.loadQualityTroubleScenario(ctx)
	case "cancelled-plan":
		err = h.loadCancelledPlanScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	// Track the loaded scenario
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// seedPlan saves a plan with sensible shop-floor defaults. Run rate is
// pieces per minute.
func (h *Handler) seedPlan(ctx context.Context, id mes.PlanID, name, machine string, target int64, rate string, status mes.PlanStatus) error {
	now := time.Now().UTC()
	return h.Store.SavePlan(ctx, mes.ProductionPlan{
		ID:              id,
		Name:            name,
		MachineID:       machine,
		TargetOutput:    target,
		StandardRunRate: decimal.RequireFromString(rate),
		Status:          status,
		DefaultBreaks:   mes.DefaultBreaks(),
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

// shiftWindow returns a start/end pair for a day shift n days ago.
func shiftWindow(daysAgo int, startHour, hours int) (time.Time, time.Time) {
	day := time.Now().UTC().AddDate(0, 0, -daysAgo)
	start := time.Date(day.Year(), day.Month(), day.Day(), startHour, 0, 0, 0, time.UTC)
	return start, start.Add(time.Duration(hours) * time.Hour)
}

func (h *Handler) loadFreshFloorScenario(ctx context.Context) error {
	if err := h.seedPlan(ctx, "plan-shaft-1001", "Drive Shaft Batch 1001", "CNC-07", 500, "1.25", mes.StatusPlanning); err != nil {
		return err
	}
	if err := h.seedPlan(ctx, "plan-gear-2001", "Gear Housing Batch 2001", "CNC-12", 240, "0.8", mes.StatusInProgress); err != nil {
		return err
	}
	return h.seedPlan(ctx, "plan-flange-3001", "Flange Plate Batch 3001", "PRESS-03", 1200, "4", mes.StatusPlanning)
}

func (h *Handler) loadMidRunScenario(ctx context.Context) error {
	if err := h.seedPlan(ctx, "plan-shaft-1002", "Drive Shaft Batch 1002", "CNC-07", 500, "1.25", mes.StatusInProgress); err != nil {
		return err
	}

	// Three day-shift confirmations, roughly 60% of target
	downtime45 := 45
	start1, end1 := shiftWindow(3, 6, 9)
	if _, err := h.Tracker.SubmitSession(ctx, "plan-shaft-1002", mes.SessionInput{
		ActualStart: start1, ActualEnd: end1,
		Quantity: 120, RejectQuantity: 4,
		CreatedBy: "operator-17",
	}); err != nil {
		return err
	}

	start2, end2 := shiftWindow(2, 6, 9)
	if _, err := h.Tracker.SubmitSession(ctx, "plan-shaft-1002", mes.SessionInput{
		ActualStart: start2, ActualEnd: end2,
		Quantity: 95, RejectQuantity: 2, ReworkQuantity: 3,
		DowntimeMinutes: &downtime45, DowntimeReason: "tool change",
		CreatedBy: "operator-17",
	}); err != nil {
		return err
	}

	start3, end3 := shiftWindow(1, 6, 8)
	_, err := h.Tracker.SubmitSession(ctx, "plan-shaft-1002", mes.SessionInput{
		ActualStart: start3, ActualEnd: end3,
		Quantity: 88, RejectQuantity: 1,
		CreatedBy: "operator-23",
	})
	return err
}

func (h *Handler) loadCompletedRunScenario(ctx context.Context) error {
	if err := h.seedPlan(ctx, "plan-gear-2002", "Gear Housing Batch 2002", "CNC-12", 300, "0.8", mes.StatusInProgress); err != nil {
		return err
	}

	// Three sessions that together meet the target. The final submission
	// trips finalization, so the result and OEE come out of the real path.
	quantities := []struct {
		daysAgo  int
		qty      int64
		rejects  int64
		downtime int
	}{
		{4, 110, 3, 0},
		{3, 105, 2, 30},
		{2, 90, 1, 0},
	}
	for _, q := range quantities {
		start, end := shiftWindow(q.daysAgo, 6, 9)
		in := mes.SessionInput{
			ActualStart: start, ActualEnd: end,
			Quantity: q.qty, RejectQuantity: q.rejects,
			CreatedBy: "operator-09",
		}
		if q.downtime > 0 {
			dt := q.downtime
			in.DowntimeMinutes = &dt
			in.DowntimeReason = "coolant refill"
		}
		if _, err := h.Tracker.SubmitSession(ctx, "plan-gear-2002", in); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadQualityTroubleScenario(ctx context.Context) error {
	if err := h.seedPlan(ctx, "plan-bracket-4001", "Mount Bracket Batch 4001", "WELD-02", 400, "2", mes.StatusInProgress); err != nil {
		return err
	}

	// Reject-heavy shifts with long downtime. Availability, performance and
	// quality all land well below plant norms.
	downtime120 := 120
	start1, end1 := shiftWindow(2, 6, 9)
	if _, err := h.Tracker.SubmitSession(ctx, "plan-bracket-4001", mes.SessionInput{
		ActualStart: start1, ActualEnd: end1,
		Quantity: 140, RejectQuantity: 38, ReworkQuantity: 12,
		DowntimeMinutes: &downtime120, DowntimeReason: "weld head misalignment",
		Remark:    "first article failed twice",
		CreatedBy: "operator-31",
	}); err != nil {
		return err
	}

	downtime90 := 90
	start2, end2 := shiftWindow(1, 6, 9)
	_, err := h.Tracker.SubmitSession(ctx, "plan-bracket-4001", mes.SessionInput{
		ActualStart: start2, ActualEnd: end2,
		Quantity: 115, RejectQuantity: 21, ReworkQuantity: 8,
		DowntimeMinutes: &downtime90, DowntimeReason: "fixture rework",
		CreatedBy: "operator-31",
	})
	return err
}

func (h *Handler) loadCancelledPlanScenario(ctx context.Context) error {
	if err := h.seedPlan(ctx, "plan-flange-3002", "Flange Plate Batch 3002", "PRESS-03", 1000, "4", mes.StatusInProgress); err != nil {
		return err
	}

	start, end := shiftWindow(2, 6, 9)
	if _, err := h.Tracker.SubmitSession(ctx, "plan-flange-3002", mes.SessionInput{
		ActualStart: start, ActualEnd: end,
		Quantity: 310, RejectQuantity: 6,
		CreatedBy: "operator-05",
	}); err != nil {
		return err
	}

	// Customer pulled the order. Ledger rows stay, plan closes.
	return h.Store.SetPlanStatus(ctx, "plan-flange-3002", mes.StatusCancelled)
}
