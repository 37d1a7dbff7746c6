// Package instruments holds the static per-country instrument tables: which
// instruments exist, who may hold them, how much may be invested, and the
// default allocation model a new plan starts from.
package instruments

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrUnsupportedCountry is returned for a country code with no rule set.
var ErrUnsupportedCountry = errors.New("unsupported country")

// Field is one instrument as presented to a user: its key and display label.
type Field struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
}

// DefaultModel returns the starting allocation and rate table for a holder
// of the given age. Age <= 0 means unknown.
type DefaultModel func(age int) (domain.Allocation, domain.RateTable)

// CountryProfile is everything country-specific the engine needs. Adding a
// country means registering a profile; no control flow changes.
type CountryProfile struct {
	Code     string
	Currency string
	Fields   []Field
	Rules    domain.RuleSet
	// Absorber receives surplus percentage clipped from capped or
	// ineligible instruments. It doubles as the growth proxy shifted by
	// scenario derivation.
	Absorber          string
	Model             DefaultModel
	IncomeSources     domain.IncomeSources
	MonthlyWithdrawal decimal.Decimal
	// IncomeKeys lists every income source the country knows, in display order.
	IncomeKeys []string
}

// Instruments returns the instrument keys in display order.
func (p *CountryProfile) Instruments() []string {
	keys := make([]string, len(p.Fields))
	for i, f := range p.Fields {
		keys[i] = f.Key
	}
	return keys
}

// Label returns the display label for an instrument key.
func (p *CountryProfile) Label(key string) string {
	for _, f := range p.Fields {
		if f.Key == key {
			return f.Label
		}
	}
	return key
}

func (p *CountryProfile) clone() *CountryProfile {
	out := *p
	out.Fields = append([]Field(nil), p.Fields...)
	out.Rules = p.Rules.Clone()
	out.IncomeSources = p.IncomeSources.Clone()
	out.IncomeKeys = append([]string(nil), p.IncomeKeys...)
	return &out
}

// Option adjusts a profile at lookup time.
type Option func(*CountryProfile)

// WithJointPOMIS raises the POMIS investment cap to the joint-holder limit.
func WithJointPOMIS() Option {
	return func(p *CountryProfile) {
		rule, ok := p.Rules[POMIS]
		if !ok {
			return
		}
		rule.MaxInvestmentAmount = domain.DecimalPtr(POMISMaxJoint)
		p.Rules[POMIS] = rule
	}
}

// Registry maps country codes to profiles.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]*CountryProfile
}

// NewRegistry creates a registry with the built-in IN, US and UK profiles.
func NewRegistry() *Registry {
	r := &Registry{profiles: make(map[string]*CountryProfile)}
	r.Register(indiaProfile())
	r.Register(usProfile())
	r.Register(ukProfile())
	return r
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the shared built-in registry.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Register adds or replaces a profile. Codes are case-insensitive.
func (r *Registry) Register(p *CountryProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[strings.ToUpper(p.Code)] = p
}

// Profile returns a copy of the profile for country with options applied.
func (r *Registry) Profile(country string, opts ...Option) (*CountryProfile, error) {
	r.mu.RLock()
	p, ok := r.profiles[strings.ToUpper(strings.TrimSpace(country))]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCountry, country)
	}

	out := p.clone()
	for _, opt := range opts {
		opt(out)
	}
	return out, nil
}

// RulesFor returns the instrument rules for country.
func (r *Registry) RulesFor(country string, opts ...Option) (domain.RuleSet, error) {
	p, err := r.Profile(country, opts...)
	if err != nil {
		return nil, err
	}
	return p.Rules, nil
}

// Countries returns the registered country codes, sorted.
func (r *Registry) Countries() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]string, 0, len(r.profiles))
	for code := range r.profiles {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
