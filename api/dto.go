/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific defaults (unset lunch break falls back to 60 minutes)
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

NUMERIC REPRESENTATION:
  Counts are 64-bit integers; run rates and OEE percentages are IEEE-754
  doubles at the JSON boundary only. Internally both use decimal.Decimal.

DEFAULTS:
  Break and downtime fields are pointers so "absent" is distinguishable
  from zero: absent fields inherit the plan defaults, and an absent lunch
  break on a plan without defaults falls back to the plant-standard 60
  minutes. This replaces the inline fallback chains the old handlers
  carried.

SEE ALSO:
  - handlers.go: Uses these types
  - mes/types.go: The domain model these map to
*/
package api

import (
	"time"

	"github.com/warp/production-engine/mes"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// SubmitSessionRequest is the body of POST /api/plans/{id}/sessions.
type SubmitSessionRequest struct {
	ActualStart string `json:"actual_start"` // RFC3339
	ActualEnd   string `json:"actual_end"`   // RFC3339

	Quantity       int64 `json:"quantity"`
	RejectQuantity int64 `json:"reject_quantity"`
	ReworkQuantity int64 `json:"rework_quantity"`

	BreakMorningMinutes *int `json:"break_morning_minutes,omitempty"`
	BreakLunchMinutes   *int `json:"break_lunch_minutes,omitempty"`
	BreakEveningMinutes *int `json:"break_evening_minutes,omitempty"`

	DowntimeMinutes *int   `json:"downtime_minutes,omitempty"`
	DowntimeReason  string `json:"downtime_reason,omitempty"`

	Remark    string `json:"remark,omitempty"`
	CreatedBy string `json:"created_by,omitempty"`
}

// UpdateStatusRequest is the body of POST /api/plans/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// LoadScenarioRequest selects a demo scenario to seed.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// PlanDTO represents a plan header in API responses.
type PlanDTO struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	MachineID       string  `json:"machine_id,omitempty"`
	TargetOutput    int64   `json:"target_output"`
	StandardRunRate float64 `json:"standard_run_rate"`
	Status          string  `json:"status"`
	ConfirmedOutput int64   `json:"confirmed_output"`
	CreatedAt       string  `json:"created_at,omitempty"`
	UpdatedAt       string  `json:"updated_at,omitempty"`
}

// SessionDTO represents one production session.
type SessionDTO struct {
	ID              string `json:"id"`
	PlanID          string `json:"plan_id"`
	SessionNumber   int    `json:"session_number"`
	ActualStart     string `json:"actual_start"`
	ActualEnd       string `json:"actual_end"`
	Quantity        int64  `json:"quantity"`
	RejectQuantity  int64  `json:"reject_quantity"`
	ReworkQuantity  int64  `json:"rework_quantity"`
	GoodQuantity    int64  `json:"good_quantity"`
	BreakMorning    int    `json:"break_morning_minutes"`
	BreakLunch      int    `json:"break_lunch_minutes"`
	BreakEvening    int    `json:"break_evening_minutes"`
	DowntimeMinutes int    `json:"downtime_minutes"`
	DowntimeReason  string `json:"downtime_reason,omitempty"`
	WorkingMinutes  int    `json:"working_minutes"`
	Remark          string `json:"remark,omitempty"`
	CreatedBy       string `json:"created_by,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
}

// ProgressDTO is the snapshot returned after submissions and progress reads.
type ProgressDTO struct {
	PlanID              string `json:"plan_id"`
	TargetOutput        int64  `json:"target_output"`
	TotalProduced       int64  `json:"total_produced"`
	TotalRejects        int64  `json:"total_rejects"`
	TotalRework         int64  `json:"total_rework"`
	TotalWorkingMinutes int64  `json:"total_working_minutes"`
	RemainingQuantity   int64  `json:"remaining_quantity"`
	LastSessionNumber   int    `json:"last_session_number"`
	IsCompleted         bool   `json:"is_completed"`
}

// OEEDTO carries the four effectiveness percentages.
type OEEDTO struct {
	Availability   float64  `json:"availability"`
	Performance    float64  `json:"performance"`
	Quality        float64  `json:"quality"`
	Overall        float64  `json:"overall"`
	ClampedMetrics []string `json:"clamped_metrics,omitempty"`
}

// ResultDTO represents the finalization rollup.
type ResultDTO struct {
	ID                  string `json:"id"`
	PlanID              string `json:"plan_id"`
	SessionCount        int    `json:"session_count"`
	TotalProduced       int64  `json:"total_produced"`
	TotalRejects        int64  `json:"total_rejects"`
	TotalRework         int64  `json:"total_rework"`
	TotalWorkingMinutes int64  `json:"total_working_minutes"`
	TotalDowntime       int64  `json:"total_downtime_minutes"`
	OEE                 OEEDTO `json:"oee"`
	FinalizedAt         string `json:"finalized_at"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
}

// ErrorResponse is the standard error payload: kind plus human-readable
// detail. No partial state is ever exposed as success.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toPlanDTO(p mes.ProductionPlan) PlanDTO {
	rate, _ := p.StandardRunRate.Float64()
	return PlanDTO{
		ID:              string(p.ID),
		Name:            p.Name,
		MachineID:       p.MachineID,
		TargetOutput:    p.TargetOutput,
		StandardRunRate: rate,
		Status:          string(p.Status),
		ConfirmedOutput: p.ConfirmedOutput,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       p.UpdatedAt.Format(time.RFC3339),
	}
}

func toSessionDTO(s mes.ProductionSession) SessionDTO {
	return SessionDTO{
		ID:              string(s.ID),
		PlanID:          string(s.PlanID),
		SessionNumber:   s.SessionNumber,
		ActualStart:     s.ActualStart.Format(time.RFC3339),
		ActualEnd:       s.ActualEnd.Format(time.RFC3339),
		Quantity:        s.Quantity,
		RejectQuantity:  s.RejectQuantity,
		ReworkQuantity:  s.ReworkQuantity,
		GoodQuantity:    s.GoodQuantity(),
		BreakMorning:    s.Breaks.Morning,
		BreakLunch:      s.Breaks.Lunch,
		BreakEvening:    s.Breaks.Evening,
		DowntimeMinutes: s.DowntimeMinutes,
		DowntimeReason:  s.DowntimeReason,
		WorkingMinutes:  s.WorkingMinutes,
		Remark:          s.Remark,
		CreatedBy:       s.CreatedBy,
		CreatedAt:       s.CreatedAt.Format(time.RFC3339),
	}
}

func toSessionDTOs(sessions []mes.ProductionSession) []SessionDTO {
	dtos := make([]SessionDTO, len(sessions))
	for i, s := range sessions {
		dtos[i] = toSessionDTO(s)
	}
	return dtos
}

func toProgressDTO(snap mes.ProgressSnapshot) ProgressDTO {
	return ProgressDTO{
		PlanID:              string(snap.PlanID),
		TargetOutput:        snap.TargetOutput,
		TotalProduced:       snap.TotalProduced,
		TotalRejects:        snap.TotalRejects,
		TotalRework:         snap.TotalRework,
		TotalWorkingMinutes: snap.TotalWorkingMinutes,
		RemainingQuantity:   snap.RemainingQuantity,
		LastSessionNumber:   snap.LastSessionNumber,
		IsCompleted:         snap.IsCompleted,
	}
}

func toResultDTO(r mes.ProductionResult) ResultDTO {
	availability, _ := r.OEE.Availability.Float64()
	performance, _ := r.OEE.Performance.Float64()
	quality, _ := r.OEE.Quality.Float64()
	overall, _ := r.OEE.Overall.Float64()

	return ResultDTO{
		ID:                  string(r.ID),
		PlanID:              string(r.PlanID),
		SessionCount:        r.SessionCount,
		TotalProduced:       r.TotalProduced,
		TotalRejects:        r.TotalRejects,
		TotalRework:         r.TotalRework,
		TotalWorkingMinutes: r.TotalWorkingMinutes,
		TotalDowntime:       r.TotalDowntime,
		OEE: OEEDTO{
			Availability:   availability,
			Performance:    performance,
			Quality:        quality,
			Overall:        overall,
			ClampedMetrics: r.OEE.ClampedMetrics,
		},
		FinalizedAt: r.FinalizedAt.Format(time.RFC3339),
	}
}

// toSessionInput maps the request body onto the domain input, bundling the
// three optional break fields into one BreakMinutes override when any of
// them is present.
func (req SubmitSessionRequest) toSessionInput() (mes.SessionInput, error) {
	start, err := time.Parse(time.RFC3339, req.ActualStart)
	if err != nil {
		return mes.SessionInput{}, &mes.ValidationError{Field: "actual_start", Message: "must be RFC3339"}
	}
	end, err := time.Parse(time.RFC3339, req.ActualEnd)
	if err != nil {
		return mes.SessionInput{}, &mes.ValidationError{Field: "actual_end", Message: "must be RFC3339"}
	}

	in := mes.SessionInput{
		ActualStart:    start,
		ActualEnd:      end,
		Quantity:       req.Quantity,
		RejectQuantity: req.RejectQuantity,
		ReworkQuantity: req.ReworkQuantity,
		DowntimeReason: req.DowntimeReason,
		Remark:         req.Remark,
		CreatedBy:      req.CreatedBy,
	}

	if req.BreakMorningMinutes != nil || req.BreakLunchMinutes != nil || req.BreakEveningMinutes != nil {
		breaks := mes.BreakMinutes{Lunch: mes.DefaultLunchMinutes}
		if req.BreakMorningMinutes != nil {
			breaks.Morning = *req.BreakMorningMinutes
		}
		if req.BreakLunchMinutes != nil {
			breaks.Lunch = *req.BreakLunchMinutes
		}
		if req.BreakEveningMinutes != nil {
			breaks.Evening = *req.BreakEveningMinutes
		}
		in.Breaks = &breaks
	}

	in.DowntimeMinutes = req.DowntimeMinutes
	return in, nil
}
