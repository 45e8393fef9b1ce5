/*
handlers.go - HTTP API handlers for the production session engine

PURPOSE:
  Exposes the session ledger and aggregation engine via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Plans:
    GET    /api/plans                    List all plans
    GET    /api/plans/{id}               Plan header
    POST   /api/plans/{id}/status        External status triggers (start, cancel)

  Sessions:
    POST   /api/plans/{id}/sessions      Submit a production confirmation
    GET    /api/plans/{id}/sessions      Session history
    GET    /api/plans/{id}/progress      Cumulative progress snapshot
    GET    /api/plans/{id}/result        Finalized result (404 until completion)

  Scenarios:
    GET    /api/scenarios                List demo scenarios
    POST   /api/scenarios/load           Load a demo scenario
    POST   /api/scenarios/reset          Clear the database

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate and map to the domain input struct
  3. Call domain logic (tracker, aggregator, coordinator)
  4. Serialize response
  5. Map typed errors to status codes

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid status strings
  - 404: Unknown plan, result not finalized yet
  - 409: Session-number conflict (retryable), closed plan (terminal),
         illegal status transition
  - 500: Storage failures

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/warp/production-engine/mes"
	"github.com/warp/production-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Tracker *mes.Tracker

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:   store,
		Tracker: mes.NewTracker(store),
	}
}

// =============================================================================
// PLAN HANDLERS
// =============================================================================

// ListPlans returns all plans.
// GET /api/plans
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.Store.ListPlans(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]PlanDTO, len(plans))
	for i, p := range plans {
		dtos[i] = toPlanDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPlan returns a single plan header.
// GET /api/plans/{id}
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	planID := mes.PlanID(chi.URLParam(r, "id"))

	plan, err := h.Store.GetPlan(r.Context(), planID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if plan == nil {
		writeDomainError(w, mes.ErrPlanNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(*plan))
}

// UpdatePlanStatus applies an externally triggered status transition
// (work starts, plan cancelled). The completed transition is reserved for
// the finalization coordinator and rejected here.
// POST /api/plans/{id}/status
func (h *Handler) UpdatePlanStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	planID := mes.PlanID(chi.URLParam(r, "id"))

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	status, err := mes.ParseStatus(req.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if status == mes.StatusCompleted {
		writeError(w, http.StatusConflict, "completed is set by finalization, not externally", nil)
		return
	}

	plan, err := h.Tracker.ChangeStatus(ctx, planID, status)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPlanDTO(*plan))
}

// =============================================================================
// SESSION HANDLERS
// =============================================================================

// SubmitSession appends one production confirmation and returns the
// updated progress snapshot. Completion triggers finalization before the
// response is written.
// POST /api/plans/{id}/sessions
func (h *Handler) SubmitSession(w http.ResponseWriter, r *http.Request) {
	planID := mes.PlanID(chi.URLParam(r, "id"))

	var req SubmitSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in, err := req.toSessionInput()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	snap, err := h.Tracker.SubmitSession(r.Context(), planID, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProgressDTO(snap))
}

// ListSessions returns the session history of a plan.
// GET /api/plans/{id}/sessions
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	planID := mes.PlanID(chi.URLParam(r, "id"))

	plan, err := h.Store.GetPlan(r.Context(), planID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if plan == nil {
		writeDomainError(w, mes.ErrPlanNotFound)
		return
	}

	sessions, err := h.Tracker.Sessions(r.Context(), planID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionDTOs(sessions))
}

// GetProgress returns the cumulative progress snapshot.
// GET /api/plans/{id}/progress
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	planID := mes.PlanID(chi.URLParam(r, "id"))

	snap, err := h.Tracker.Progress(r.Context(), planID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProgressDTO(snap))
}

// GetResult returns the finalization rollup, 404 until the plan completes.
// GET /api/plans/{id}/result
func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	planID := mes.PlanID(chi.URLParam(r, "id"))

	plan, err := h.Store.GetPlan(r.Context(), planID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if plan == nil {
		writeDomainError(w, mes.ErrPlanNotFound)
		return
	}

	result, err := h.Store.GetResult(r.Context(), planID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if result == nil {
		writeDomainError(w, mes.ErrResultNotFound)
		return
	}

	writeJSON(w, http.StatusOK, toResultDTO(*result))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps typed domain errors onto HTTP status and a stable
// machine-readable code.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		status = http.StatusInternalServerError
		code   = "storage_error"
	)

	switch {
	case mes.IsNotFound(err):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, mes.ErrSessionNumberConflict):
		status, code = http.StatusConflict, "session_number_conflict"
	case mes.IsTerminal(err):
		status, code = http.StatusConflict, "plan_closed"
	case errors.Is(err, mes.ErrInvalidTransition):
		status, code = http.StatusConflict, "invalid_transition"
	case mes.IsClientError(err):
		status, code = http.StatusBadRequest, "validation_error"
	}

	writeJSON(w, status, ErrorResponse{
		Error:   err.Error(),
		Code:    code,
		Details: map[string]bool{"retryable": mes.IsRetryable(err)},
	})
}
