package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// TransformRegistry provides a central registry for all available transforms.
// It enables creation of transforms from string parameters, useful for CLI commands.
type TransformRegistry struct {
	factories map[string]TransformFactory
}

// TransformFactory is a function that creates a transform from parameters.
type TransformFactory func(params map[string]string) (ScenarioTransform, error)

// NewTransformRegistry creates a new registry with all built-in transforms registered.
func NewTransformRegistry() *TransformRegistry {
	registry := &TransformRegistry{
		factories: make(map[string]TransformFactory),
	}

	registry.Register("scale_rates", createScaleRates)
	registry.Register("set_rate", createSetRate)
	registry.Register("scale_withdrawal", createScaleWithdrawal)
	registry.Register("set_withdrawal", createSetWithdrawal)
	registry.Register("set_income", createSetIncome)
	registry.Register("shift_growth", createShiftGrowth)
	registry.Register("set_allocation", createSetAllocation)

	return registry
}

// Register adds a transform factory to the registry.
func (r *TransformRegistry) Register(name string, factory TransformFactory) {
	r.factories[name] = factory
}

// Create creates a transform by name with the given parameters.
func (r *TransformRegistry) Create(name string, params map[string]string) (ScenarioTransform, error) {
	factory, exists := r.factories[name]
	if !exists {
		return nil, fmt.Errorf("unknown transform: %s", name)
	}

	return factory(params)
}

// List returns the names of all registered transforms, sorted.
func (r *TransformRegistry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseTransformSpec parses a transform specification string.
// Format: "transform_name:param1=value1,param2=value2"
// Example: "shift_growth:instrument=SWP,delta=-10"
func (r *TransformRegistry) ParseTransformSpec(spec string) (ScenarioTransform, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid transform spec format, expected 'name:params', got: %s", spec)
	}

	name := strings.TrimSpace(parts[0])
	paramsStr := strings.TrimSpace(parts[1])

	params := make(map[string]string)
	if paramsStr != "" {
		for _, paramPair := range strings.Split(paramsStr, ",") {
			kv := strings.SplitN(paramPair, "=", 2)
			if len(kv) != 2 {
				return nil, fmt.Errorf("invalid parameter format, expected 'key=value', got: %s", paramPair)
			}
			params[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
		}
	}

	return r.Create(name, params)
}

// ParseTransformSpecs parses several specs in order.
func (r *TransformRegistry) ParseTransformSpecs(specs []string) ([]ScenarioTransform, error) {
	out := make([]ScenarioTransform, 0, len(specs))
	for _, spec := range specs {
		t, err := r.ParseTransformSpec(spec)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func requireParam(transform string, params map[string]string, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("%s requires '%s' parameter", transform, key)
	}
	return v, nil
}

func requireDecimal(transform string, params map[string]string, key string) (decimal.Decimal, error) {
	raw, err := requireParam(transform, params, key)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return d, nil
}

// Factory functions for each transform

func createScaleRates(params map[string]string) (ScenarioTransform, error) {
	factor, err := requireDecimal("scale_rates", params, "factor")
	if err != nil {
		return nil, err
	}
	return &ScaleRates{Factor: factor}, nil
}

func createSetRate(params map[string]string) (ScenarioTransform, error) {
	instrument, err := requireParam("set_rate", params, "instrument")
	if err != nil {
		return nil, err
	}
	rate, err := requireDecimal("set_rate", params, "rate")
	if err != nil {
		return nil, err
	}
	return &SetRate{Instrument: strings.ToUpper(instrument), Rate: rate}, nil
}

func createScaleWithdrawal(params map[string]string) (ScenarioTransform, error) {
	factor, err := requireDecimal("scale_withdrawal", params, "factor")
	if err != nil {
		return nil, err
	}
	return &ScaleWithdrawal{Factor: factor}, nil
}

func createSetWithdrawal(params map[string]string) (ScenarioTransform, error) {
	monthly, err := requireDecimal("set_withdrawal", params, "monthly")
	if err != nil {
		return nil, err
	}
	return &SetWithdrawal{Monthly: monthly}, nil
}

func createSetIncome(params map[string]string) (ScenarioTransform, error) {
	source, err := requireParam("set_income", params, "source")
	if err != nil {
		return nil, err
	}
	amount, err := requireDecimal("set_income", params, "amount")
	if err != nil {
		return nil, err
	}
	return &SetIncome{Source: strings.ToLower(source), Amount: amount}, nil
}

func createShiftGrowth(params map[string]string) (ScenarioTransform, error) {
	instrument, err := requireParam("shift_growth", params, "instrument")
	if err != nil {
		return nil, err
	}
	delta, err := requireDecimal("shift_growth", params, "delta")
	if err != nil {
		return nil, err
	}
	return &ShiftGrowthAllocation{Instrument: strings.ToUpper(instrument), Delta: delta}, nil
}

func createSetAllocation(params map[string]string) (ScenarioTransform, error) {
	instrument, err := requireParam("set_allocation", params, "instrument")
	if err != nil {
		return nil, err
	}
	pct, err := requireDecimal("set_allocation", params, "percent")
	if err != nil {
		return nil, err
	}
	return &SetAllocation{Instrument: strings.ToUpper(instrument), Percent: pct}, nil
}
