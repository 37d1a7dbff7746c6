package transform

import (
	"fmt"

	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/shopspring/decimal"
)

// ScaleRates multiplies every expected rate by Factor, rounded to 2 decimals.
type ScaleRates struct {
	Factor decimal.Decimal
}

func (sr *ScaleRates) Name() string {
	return "scale_rates"
}

func (sr *ScaleRates) Description() string {
	return fmt.Sprintf("Scale all expected rates by %s", sr.Factor)
}

func (sr *ScaleRates) Validate(base *domain.Scenario) error {
	if base == nil {
		return NewTransformError(sr.Name(), "validate", "base scenario cannot be nil", nil)
	}
	if sr.Factor.IsNegative() {
		return NewTransformError(sr.Name(), "validate", fmt.Sprintf("factor must not be negative, got %s", sr.Factor), nil)
	}
	return nil
}

func (sr *ScaleRates) Apply(base *domain.Scenario) (*domain.Scenario, error) {
	modified := base.DeepCopy()
	for k, v := range modified.Rates {
		modified.Rates[k] = v.Mul(sr.Factor).Round(2)
	}
	return modified, nil
}

// SetRate overrides the expected rate of one instrument.
type SetRate struct {
	Instrument string
	Rate       decimal.Decimal
}

func (s *SetRate) Name() string {
	return "set_rate"
}

func (s *SetRate) Description() string {
	return fmt.Sprintf("Set the expected rate of %s to %s%%", s.Instrument, s.Rate)
}

func (s *SetRate) Validate(base *domain.Scenario) error {
	if base == nil {
		return NewTransformError(s.Name(), "validate", "base scenario cannot be nil", nil)
	}
	if s.Instrument == "" {
		return NewTransformError(s.Name(), "validate", "instrument cannot be empty", nil)
	}
	return nil
}

func (s *SetRate) Apply(base *domain.Scenario) (*domain.Scenario, error) {
	modified := base.DeepCopy()
	if modified.Rates == nil {
		modified.Rates = make(domain.RateTable)
	}
	modified.Rates[s.Instrument] = s.Rate
	return modified, nil
}

// ScaleWithdrawal multiplies the monthly withdrawal by Factor, rounded to
// whole currency units.
type ScaleWithdrawal struct {
	Factor decimal.Decimal
}

func (sw *ScaleWithdrawal) Name() string {
	return "scale_withdrawal"
}

func (sw *ScaleWithdrawal) Description() string {
	return fmt.Sprintf("Scale the monthly withdrawal by %s", sw.Factor)
}

func (sw *ScaleWithdrawal) Validate(base *domain.Scenario) error {
	if base == nil {
		return NewTransformError(sw.Name(), "validate", "base scenario cannot be nil", nil)
	}
	if sw.Factor.IsNegative() {
		return NewTransformError(sw.Name(), "validate", fmt.Sprintf("factor must not be negative, got %s", sw.Factor), nil)
	}
	return nil
}

func (sw *ScaleWithdrawal) Apply(base *domain.Scenario) (*domain.Scenario, error) {
	modified := base.DeepCopy()
	modified.Withdrawal = domain.NewWithdrawal(base.Withdrawal.Monthly.Mul(sw.Factor).Round(0))
	return modified, nil
}

// SetWithdrawal replaces the monthly withdrawal. Negative amounts become zero.
type SetWithdrawal struct {
	Monthly decimal.Decimal
}

func (s *SetWithdrawal) Name() string {
	return "set_withdrawal"
}

func (s *SetWithdrawal) Description() string {
	return fmt.Sprintf("Set the monthly withdrawal to %s", s.Monthly)
}

func (s *SetWithdrawal) Validate(base *domain.Scenario) error {
	if base == nil {
		return NewTransformError(s.Name(), "validate", "base scenario cannot be nil", nil)
	}
	return nil
}

func (s *SetWithdrawal) Apply(base *domain.Scenario) (*domain.Scenario, error) {
	modified := base.DeepCopy()
	modified.Withdrawal = domain.NewWithdrawal(s.Monthly)
	return modified, nil
}

// SetIncome sets the raw amount of one income source, creating the source
// when absent.
type SetIncome struct {
	Source string
	Amount decimal.Decimal
}

func (s *SetIncome) Name() string {
	return "set_income"
}

func (s *SetIncome) Description() string {
	return fmt.Sprintf("Set %s income to %s", s.Source, s.Amount)
}

func (s *SetIncome) Validate(base *domain.Scenario) error {
	if base == nil {
		return NewTransformError(s.Name(), "validate", "base scenario cannot be nil", nil)
	}
	if s.Source == "" {
		return NewTransformError(s.Name(), "validate", "income source cannot be empty", nil)
	}
	if s.Amount.IsNegative() {
		return NewTransformError(s.Name(), "validate", fmt.Sprintf("income must not be negative, got %s", s.Amount), nil)
	}
	return nil
}

func (s *SetIncome) Apply(base *domain.Scenario) (*domain.Scenario, error) {
	modified := base.DeepCopy()
	if modified.IncomeSources == nil {
		modified.IncomeSources = make(domain.IncomeSources)
	}
	modified.IncomeSources[s.Source] = s.Amount
	return modified, nil
}
