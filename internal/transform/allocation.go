package transform

import (
	"fmt"

	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/shopspring/decimal"
)

// ShiftGrowthAllocation moves Delta percentage points into (or out of) the
// growth instrument. The growth value is clamped to [0,100] and the other
// instruments are rescaled proportionally to fill the rest, all rounded to
// 2 decimals. When the other instruments sum to zero they stay at zero. An
// allocation without the growth instrument is returned unchanged.
type ShiftGrowthAllocation struct {
	Instrument string
	Delta      decimal.Decimal
}

func (sg *ShiftGrowthAllocation) Name() string {
	return "shift_growth"
}

func (sg *ShiftGrowthAllocation) Description() string {
	if sg.Delta.IsNegative() {
		return fmt.Sprintf("Move %s points out of %s", sg.Delta.Neg(), sg.Instrument)
	}
	return fmt.Sprintf("Move %s points into %s", sg.Delta, sg.Instrument)
}

func (sg *ShiftGrowthAllocation) Validate(base *domain.Scenario) error {
	if base == nil {
		return NewTransformError(sg.Name(), "validate", "base scenario cannot be nil", nil)
	}
	if sg.Instrument == "" {
		return NewTransformError(sg.Name(), "validate", "growth instrument cannot be empty", nil)
	}
	return nil
}

func (sg *ShiftGrowthAllocation) Apply(base *domain.Scenario) (*domain.Scenario, error) {
	modified := base.DeepCopy()
	cur, ok := base.Allocations[sg.Instrument]
	if !ok {
		return modified, nil
	}
	target := cur.Add(sg.Delta)
	modified.Allocations = pin(modified.Allocations, sg.Instrument, target)
	return modified, nil
}

// SetAllocation pins one instrument at Percent and rescales the others to fill
// the remainder, the same way ShiftGrowthAllocation does.
type SetAllocation struct {
	Instrument string
	Percent    decimal.Decimal
}

func (s *SetAllocation) Name() string {
	return "set_allocation"
}

func (s *SetAllocation) Description() string {
	return fmt.Sprintf("Set %s to %s%% of the corpus", s.Instrument, s.Percent)
}

func (s *SetAllocation) Validate(base *domain.Scenario) error {
	if base == nil {
		return NewTransformError(s.Name(), "validate", "base scenario cannot be nil", nil)
	}
	if s.Instrument == "" {
		return NewTransformError(s.Name(), "validate", "instrument cannot be empty", nil)
	}
	if s.Percent.IsNegative() || s.Percent.GreaterThan(domain.Hundred) {
		return NewTransformError(s.Name(), "validate", fmt.Sprintf("percent must be within 0-100, got %s", s.Percent), nil)
	}
	return nil
}

func (s *SetAllocation) Apply(base *domain.Scenario) (*domain.Scenario, error) {
	modified := base.DeepCopy()
	modified.Allocations = pin(modified.Allocations, s.Instrument, s.Percent)
	return modified, nil
}

func pin(a domain.Allocation, instrument string, value decimal.Decimal) domain.Allocation {
	value = domain.ClampPercent(value)
	remaining := domain.Hundred.Sub(value)

	others := decimal.Zero
	for k, v := range a {
		if k != instrument {
			others = others.Add(v)
		}
	}

	out := make(domain.Allocation, len(a)+1)
	for k, v := range a {
		if k == instrument {
			continue
		}
		if !others.IsPositive() {
			out[k] = decimal.Zero
			continue
		}
		out[k] = remaining.Mul(v).Div(others).Round(2)
	}
	out[instrument] = value.Round(2)
	return out
}
