package allocation

import (
	"testing"

	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/rgehrsitz/corpusplan/internal/instruments"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRebalancer_Edit_NoBindingCaps(t *testing.T) {
	current := domain.NewAllocation(map[string]float64{"SWP": 40, "FD": 30, "SCSS": 20, "POMIS": 10})
	want := map[string]float64{"SWP": 60, "FD": 20, "SCSS": 13.333333, "POMIS": 6.666667}

	for _, corpus := range []int64{0, 1_000_000} {
		r := NewRebalancer(india(t), decimal.NewFromInt(corpus))
		res := r.Edit(current, "SWP", decimal.NewFromInt(60), 70)

		assertAllocation(t, want, res.Allocation)
		assertPct(t, 100, res.Allocation.Sum())
		assert.False(t, res.Capped)
		assert.True(t, res.FirstPassSurplus.IsZero())
		assert.True(t, res.FinalPassSurplus.IsZero())
	}
	assertPct(t, 40, current["SWP"], "input must not be mutated")
}

func TestRebalancer_Edit_ClipsEditedInstrument(t *testing.T) {
	r := NewRebalancer(india(t), decimal.NewFromInt(10_000_000))
	current := domain.NewAllocation(map[string]float64{"SWP": 40, "FD": 30, "SCSS": 20, "POMIS": 10})

	res := r.Edit(current, "SCSS", decimal.NewFromInt(50), 70)

	assert.True(t, res.Capped)
	assertPct(t, 50, res.Requested)
	assertPct(t, 30, res.Applied)
	assertPct(t, 25.5, res.FirstPassSurplus)
	assertAllocation(t, map[string]float64{"SWP": 45.85, "FD": 21, "SCSS": 30, "POMIS": 3.15}, res.Allocation)
}

func TestRebalancer_Edit_IneligibleEditIsZeroed(t *testing.T) {
	r := NewRebalancer(india(t), decimal.NewFromInt(1_000_000))
	current := domain.NewAllocation(map[string]float64{"SWP": 70, "FD": 20, "SCSS": 0, "POMIS": 10})

	res := r.Edit(current, "SCSS", decimal.NewFromInt(25), 45)

	assertPct(t, 0, res.Allocation["SCSS"])
	assert.True(t, res.Capped)
	assertPct(t, 100, res.Allocation.Sum())
}

func TestRebalancer_Edit_FinalPassHasPrecedence(t *testing.T) {
	r := NewRebalancer(india(t), decimal.NewFromInt(10_000_000))
	current := domain.NewAllocation(map[string]float64{"SWP": 60, "FD": 10, "SCSS": 25, "POMIS": 5})

	res := r.Edit(current, "SWP", decimal.Zero, 70)

	assert.True(t, res.FinalPassSurplus.IsPositive(), "redistribution pushes capped instruments over their ceiling")
	assertPct(t, 30, res.Allocation["SCSS"])
	assert.True(t, res.Allocation["POMIS"].LessThanOrEqual(decimal.RequireFromString("4.5")))
	assertPct(t, 100, res.Allocation.Sum())
	assert.True(t, res.Applied.GreaterThan(res.Requested), "absorber receives the final-pass surplus")
}

func TestRebalancer_Edit_ClampsRequest(t *testing.T) {
	r := NewRebalancer(india(t), decimal.Zero)
	current := domain.NewAllocation(map[string]float64{"SWP": 50, "FD": 50})

	high := r.Edit(current, "FD", decimal.NewFromInt(150), 40)
	assertPct(t, 100, high.Allocation["FD"])
	assertPct(t, 0, high.Allocation["SWP"])

	low := r.Edit(current, "FD", decimal.NewFromInt(-5), 40)
	assertPct(t, 0, low.Allocation["FD"])
	assertPct(t, 100, low.Allocation["SWP"])
}

func TestRebalancer_Edit_JointPOMIS(t *testing.T) {
	corpus := decimal.NewFromInt(10_000_000)
	current := domain.NewAllocation(map[string]float64{"SWP": 80, "POMIS": 20})

	single := NewRebalancer(india(t), corpus).Edit(current, "POMIS", decimal.NewFromInt(20), 40)
	joint := NewRebalancer(india(t), corpus, instruments.WithJointPOMIS()).Edit(current, "POMIS", decimal.NewFromInt(20), 40)

	assertPct(t, 4.5, single.Applied)
	assertPct(t, 9, joint.Applied)
}

func TestRebalancer_Edit_SumInvariant(t *testing.T) {
	r := NewRebalancer(india(t), decimal.NewFromInt(5_000_000))
	current := domain.NewAllocation(map[string]float64{"SWP": 35, "FD": 25, "SCSS": 25, "POMIS": 15})

	for _, inst := range current.Keys() {
		for v := int64(0); v <= 100; v += 10 {
			for _, age := range []int{0, 40, 60, 75} {
				res := r.Edit(current, inst, decimal.NewFromInt(v), age)
				assertPct(t, 100, res.Allocation.Sum(), "%s=%d at %d", inst, v, age)
				assert.True(t, res.Allocation["POMIS"].LessThanOrEqual(decimal.NewFromInt(9)), "POMIS ceiling at 5M")
				if age < 60 {
					assert.True(t, res.Allocation["SCSS"].IsZero(), "SCSS at age %d", age)
				}
			}
		}
	}
}
