package allocation

import (
	"fmt"

	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/shopspring/decimal"
)

// Tolerance is how far an allocation's sum may drift from 100 and still be
// considered legal.
var Tolerance = decimal.RequireFromString("0.1")

// DriftError reports an allocation whose sum is outside tolerance.
type DriftError struct {
	Sum decimal.Decimal
}

func (e *DriftError) Error() string {
	return fmt.Sprintf("allocation sums to %s%%, want 100%% (tolerance %s)", e.Sum.StringFixed(2), Tolerance)
}

// NegativeWeightError reports an instrument with a negative percentage.
type NegativeWeightError struct {
	Instrument string
	Value      decimal.Decimal
}

func (e *NegativeWeightError) Error() string {
	return fmt.Sprintf("instrument %s has negative weight %s", e.Instrument, e.Value)
}

// Validate checks that no weight is negative and the sum is within
// Tolerance of 100.
func Validate(a domain.Allocation) error {
	for _, k := range a.Keys() {
		if a[k].IsNegative() {
			return &NegativeWeightError{Instrument: k, Value: a[k]}
		}
	}
	sum := a.Sum()
	if sum.Sub(domain.Hundred).Abs().GreaterThan(Tolerance) {
		return &DriftError{Sum: sum}
	}
	return nil
}
