/*
oee.go - Overall Equipment Effectiveness calculator

PURPOSE:
  Pure computation of the four OEE percentages from aggregated session
  totals and the plan-level standard run rate.

FORMULAS:
  Availability = 100 * (planned - downtime) / planned
  Performance  = 100 * actualRunRate / standardRunRate
  Quality      = 100 * (pieces - rejects) / pieces
  Overall      = Availability * Performance * Quality / 10000
                 (from the clamped factors, keeping the published numbers
                 mutually consistent)

Each factor is clamped into [0,100] after computation. The clamp absorbs
upstream data-entry anomalies (e.g. a mis-timed session pushing the actual
run rate above standard); clamped metrics are reported in OEE.ClampedMetrics
so data-quality reporting can surface them rather than silently losing them.

Zero denominators are guarded: zero planned minutes yields Availability 0,
zero pieces yields Quality 0, zero working minutes yields Performance 0.
StandardRunRate <= 0 is rejected upstream by plan validation.
*/
package mes

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Aggregates are the cumulative totals the OEE computation consumes.
// They are derived fresh from the session set; see progress.go.
type Aggregates struct {
	TotalPieces         int64
	RejectPieces        int64
	ReworkPieces        int64
	WorkingMinutes      int64
	DowntimeMinutes     int64
	PlannedWorkMinutes  int64 // working + downtime; breaks are excluded
	SessionCount        int
}

// OEE carries the four effectiveness percentages, each in [0,100].
type OEE struct {
	Availability decimal.Decimal
	Performance  decimal.Decimal
	Quality      decimal.Decimal
	Overall      decimal.Decimal

	// ClampedMetrics lists metrics whose raw value fell outside [0,100]
	// and was clamped. Surfaced to data-quality reporting, never silently
	// dropped.
	ClampedMetrics []string
}

// ComputeOEE derives the OEE percentages from aggregated totals and the
// plan's standard run rate (pieces per minute). Pure; no side effects.
func ComputeOEE(agg Aggregates, standardRunRate decimal.Decimal) OEE {
	var out OEE

	// Availability: share of planned minutes actually worked.
	if agg.PlannedWorkMinutes > 0 {
		planned := decimal.NewFromInt(agg.PlannedWorkMinutes)
		worked := decimal.NewFromInt(agg.PlannedWorkMinutes - agg.DowntimeMinutes)
		out.Availability = hundred.Mul(worked).Div(planned)
	} else {
		out.Availability = decimal.Zero
	}

	// Performance: actual run rate against the standard.
	if agg.WorkingMinutes > 0 && standardRunRate.IsPositive() {
		actualRate := decimal.NewFromInt(agg.TotalPieces).Div(decimal.NewFromInt(agg.WorkingMinutes))
		out.Performance = hundred.Mul(actualRate).Div(standardRunRate)
	} else {
		out.Performance = decimal.Zero
	}

	// Quality: good pieces over total pieces.
	if agg.TotalPieces > 0 {
		good := decimal.NewFromInt(agg.TotalPieces - agg.RejectPieces)
		out.Quality = hundred.Mul(good).Div(decimal.NewFromInt(agg.TotalPieces))
	} else {
		out.Quality = decimal.Zero
	}

	out.Availability = out.clamp("availability", out.Availability)
	out.Performance = out.clamp("performance", out.Performance)
	out.Quality = out.clamp("quality", out.Quality)

	// Overall is the product of the published factors, after clamping, so
	// the four numbers stay mutually consistent. Being a product of values
	// in [0,100] it never needs clamping of its own.
	out.Overall = out.Availability.Mul(out.Performance).Mul(out.Quality).
		Div(decimal.NewFromInt(10000))

	return out
}

// clamp bounds v into [0,100] and records the metric name when it had to.
func (o *OEE) clamp(metric string, v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		o.ClampedMetrics = append(o.ClampedMetrics, metric)
		return decimal.Zero
	}
	if v.GreaterThan(hundred) {
		o.ClampedMetrics = append(o.ClampedMetrics, metric)
		return hundred
	}
	return v
}
