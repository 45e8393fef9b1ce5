package mes_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/warp/production-engine/mes"
)

func oeeFloats(o mes.OEE) (a, p, q, overall float64) {
	a, _ = o.Availability.Float64()
	p, _ = o.Performance.Float64()
	q, _ = o.Quality.Float64()
	overall, _ = o.Overall.Float64()
	return
}

func TestComputeOEE_KnownNumbers(t *testing.T) {
	// GIVEN: 300 pieces (6 rejects), 480 working minutes, 30 downtime,
	//        standard rate 0.8 pieces/minute
	// WHEN: OEE is computed
	// THEN: Availability = 480/510, Performance = (300/480)/0.8,
	//       Quality = 294/300, Overall = product of the three

	agg := mes.Aggregates{
		TotalPieces:        300,
		RejectPieces:       6,
		WorkingMinutes:     480,
		DowntimeMinutes:    30,
		PlannedWorkMinutes: 510,
		SessionCount:       3,
	}
	oee := mes.ComputeOEE(agg, decimal.RequireFromString("0.8"))

	a, p, q, overall := oeeFloats(oee)
	assert.InDelta(t, 94.1176, a, 0.001)
	assert.InDelta(t, 78.125, p, 0.001)
	assert.InDelta(t, 98.0, q, 0.001)
	assert.InDelta(t, 94.1176*78.125*98.0/10000, overall, 0.01)
	assert.Empty(t, oee.ClampedMetrics)
}

func TestComputeOEE_PerfectRun(t *testing.T) {
	// Exactly on-rate, no downtime, no rejects: everything is 100.
	agg := mes.Aggregates{
		TotalPieces:        480,
		WorkingMinutes:     480,
		PlannedWorkMinutes: 480,
		SessionCount:       1,
	}
	oee := mes.ComputeOEE(agg, decimal.NewFromInt(1))

	a, p, q, overall := oeeFloats(oee)
	assert.InDelta(t, 100, a, 0.0001)
	assert.InDelta(t, 100, p, 0.0001)
	assert.InDelta(t, 100, q, 0.0001)
	assert.InDelta(t, 100, overall, 0.0001)
	assert.Empty(t, oee.ClampedMetrics)
}

func TestComputeOEE_OverRate_ClampsAndReports(t *testing.T) {
	// GIVEN: A mis-timed session putting the actual rate at 10x standard
	// WHEN: OEE is computed
	// THEN: Performance is clamped to 100 and reported; Overall follows
	//       from the clamped factors

	agg := mes.Aggregates{
		TotalPieces:        100,
		WorkingMinutes:     10,
		PlannedWorkMinutes: 10,
		SessionCount:       1,
	}
	oee := mes.ComputeOEE(agg, decimal.NewFromInt(1))

	assert.True(t, oee.Performance.Equal(decimal.NewFromInt(100)), "performance clamped to 100")
	assert.True(t, oee.Overall.Equal(decimal.NewFromInt(100)))
	assert.Contains(t, oee.ClampedMetrics, "performance")
	assert.NotContains(t, oee.ClampedMetrics, "availability")
	assert.NotContains(t, oee.ClampedMetrics, "quality")
	assert.NotContains(t, oee.ClampedMetrics, "overall")
}

func TestComputeOEE_OverallConsistentWithClampedFactors(t *testing.T) {
	// GIVEN: Availability 50 and a raw performance of 300
	// WHEN: OEE is computed
	// THEN: Overall is the product of the published factors (50), not of
	//       the raw ones (which would report 100 next to a 50/100/100 row)

	agg := mes.Aggregates{
		TotalPieces:        30,
		WorkingMinutes:     10,
		DowntimeMinutes:    10,
		PlannedWorkMinutes: 20,
		SessionCount:       1,
	}
	oee := mes.ComputeOEE(agg, decimal.NewFromInt(1))

	assert.True(t, oee.Availability.Equal(decimal.NewFromInt(50)))
	assert.True(t, oee.Performance.Equal(decimal.NewFromInt(100)))
	assert.True(t, oee.Quality.Equal(decimal.NewFromInt(100)))
	assert.True(t, oee.Overall.Equal(decimal.NewFromInt(50)),
		"overall follows the clamped factors")
	assert.Equal(t, []string{"performance"}, oee.ClampedMetrics)
}

func TestComputeOEE_ZeroDenominators_AllZero(t *testing.T) {
	// No sessions at all. Every factor guards its denominator and
	// reports 0 instead of dividing by zero.
	oee := mes.ComputeOEE(mes.Aggregates{}, decimal.NewFromInt(1))

	assert.True(t, oee.Availability.IsZero())
	assert.True(t, oee.Performance.IsZero())
	assert.True(t, oee.Quality.IsZero())
	assert.True(t, oee.Overall.IsZero())
	assert.Empty(t, oee.ClampedMetrics)
}

func TestComputeOEE_AllRejects_ZeroQuality(t *testing.T) {
	agg := mes.Aggregates{
		TotalPieces:        50,
		RejectPieces:       50,
		WorkingMinutes:     60,
		PlannedWorkMinutes: 60,
		SessionCount:       1,
	}
	oee := mes.ComputeOEE(agg, decimal.NewFromInt(1))

	assert.True(t, oee.Quality.IsZero())
	assert.True(t, oee.Overall.IsZero())
}

func TestComputeOEE_FullDowntime_ZeroAvailability(t *testing.T) {
	// Entire planned window lost to downtime.
	agg := mes.Aggregates{
		TotalPieces:        10,
		DowntimeMinutes:    120,
		PlannedWorkMinutes: 120,
		SessionCount:       1,
	}
	oee := mes.ComputeOEE(agg, decimal.NewFromInt(1))

	assert.True(t, oee.Availability.IsZero())
	assert.True(t, oee.Performance.IsZero(), "zero working minutes guard")
}
