package transform

import (
	"errors"
	"fmt"

	"github.com/rgehrsitz/corpusplan/internal/domain"
)

// ErrOutOfRange is returned when a transform leaves a percentage outside
// [0,100] or a rate, income or withdrawal below zero.
var ErrOutOfRange = errors.New("value out of range")

// ScenarioTransform derives one scenario from another. Apply must not
// mutate its argument.
type ScenarioTransform interface {
	Apply(base *domain.Scenario) (*domain.Scenario, error)
	// Name is the registry key, e.g. "scale_rates".
	Name() string
	Description() string
	Validate(base *domain.Scenario) error
}

// ApplyTransforms runs transforms left to right on a copy of base. The
// result is always a fresh scenario, even for an empty chain, and every
// intermediate result must stay in range.
func ApplyTransforms(base *domain.Scenario, transforms []ScenarioTransform) (*domain.Scenario, error) {
	if base == nil {
		return nil, fmt.Errorf("base scenario cannot be nil")
	}

	current := base.DeepCopy()
	for i, t := range transforms {
		if t == nil {
			return nil, fmt.Errorf("transform at index %d is nil", i)
		}
		if err := t.Validate(current); err != nil {
			return nil, fmt.Errorf("transform %s validation failed: %w", t.Name(), err)
		}
		next, err := t.Apply(current)
		if err != nil {
			return nil, fmt.Errorf("transform %s failed: %w", t.Name(), err)
		}
		if err := checkRange(next); err != nil {
			return nil, NewTransformError(t.Name(), "apply", "result rejected", err)
		}
		current = next
	}
	return current, nil
}

func checkRange(sc *domain.Scenario) error {
	if sc == nil {
		return fmt.Errorf("%w: nil scenario", ErrOutOfRange)
	}
	for _, k := range sc.Allocations.Keys() {
		if v := sc.Allocations[k]; v.IsNegative() || v.GreaterThan(domain.Hundred) {
			return fmt.Errorf("%w: allocation %s = %s", ErrOutOfRange, k, v)
		}
	}
	for k, v := range sc.Rates {
		if v.IsNegative() {
			return fmt.Errorf("%w: rate %s = %s", ErrOutOfRange, k, v)
		}
	}
	for k, v := range sc.IncomeSources {
		if v.IsNegative() {
			return fmt.Errorf("%w: income %s = %s", ErrOutOfRange, k, v)
		}
	}
	if sc.Withdrawal.Monthly.IsNegative() {
		return fmt.Errorf("%w: withdrawal %s", ErrOutOfRange, sc.Withdrawal.Monthly)
	}
	return nil
}

// TransformError records which transform failed and at which step.
type TransformError struct {
	TransformName string
	Operation     string // "validate" or "apply"
	Reason        string
	Err           error
}

func (e *TransformError) Error() string {
	msg := fmt.Sprintf("transform %s (%s): %s", e.TransformName, e.Operation, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransformError) Unwrap() error { return e.Err }

// NewTransformError returns a *TransformError as an error.
func NewTransformError(transformName, operation, reason string, err error) error {
	return &TransformError{
		TransformName: transformName,
		Operation:     operation,
		Reason:        reason,
		Err:           err,
	}
}
