// Package planner wires the allocation engine, scenario management,
// persistence and the projection backend into the operations the CLI, the
// HTTP API and the TUI call. Every operation works on the profile it is
// given; callers own concurrency (see internal/session).
package planner

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rgehrsitz/corpusplan/internal/allocation"
	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/rgehrsitz/corpusplan/internal/instruments"
	"github.com/rgehrsitz/corpusplan/internal/metrics"
	"github.com/rgehrsitz/corpusplan/internal/projection"
	"github.com/rgehrsitz/corpusplan/internal/scenario"
	"github.com/rgehrsitz/corpusplan/internal/store"
	"github.com/shopspring/decimal"
)

var (
	// ErrGuestForbidden is returned when a guest tries to add or remove
	// scenarios.
	ErrGuestForbidden = errors.New("not available to guests")
	// ErrUnknownInstrument is returned when an edit names an instrument the
	// country does not offer.
	ErrUnknownInstrument = errors.New("unknown instrument")
	ErrNoProjector       = errors.New("no projection backend configured")
	ErrNoStore           = errors.New("no store configured")
)

// Projector runs projections for a prepared profile.
type Projector interface {
	CalculateProjections(ctx context.Context, profile *domain.UserProfile, user domain.User) (*projection.Result, error)
}

// Service is the planning facade.
type Service struct {
	registry  *instruments.Registry
	projector Projector
	store     store.Store
	metrics   *metrics.Registry
	logger    Logger
}

// Option configures a Service.
type Option func(*Service)

// WithProjector sets the projection backend.
func WithProjector(p Projector) Option {
	return func(s *Service) { s.projector = p }
}

// WithStore sets the persistence backend.
func WithStore(st store.Store) Option {
	return func(s *Service) { s.store = st }
}

// WithMetrics records edits and cap clips.
func WithMetrics(m *metrics.Registry) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates a service over registry. A nil registry uses the built-ins.
func New(registry *instruments.Registry, opts ...Option) *Service {
	if registry == nil {
		registry = instruments.Default()
	}
	s := &Service{registry: registry, logger: NopLogger{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetLogger sets the logger. nil restores the no-op logger.
func (s *Service) SetLogger(l Logger) {
	if l == nil {
		l = NopLogger{}
	}
	s.logger = l
}

// Logger returns the current logger.
func (s *Service) Logger() Logger {
	return s.logger
}

// Registry returns the instrument registry in use.
func (s *Service) Registry() *instruments.Registry {
	return s.registry
}

// CountryProfile resolves the instrument set for p.
func (s *Service) CountryProfile(p *domain.UserProfile) (*instruments.CountryProfile, error) {
	if p == nil {
		return nil, errors.New("nil profile")
	}
	if p.JointPOMIS {
		return s.registry.Profile(p.Country, instruments.WithJointPOMIS())
	}
	return s.registry.Profile(p.Country)
}

// Prepare makes p's plan usable: creates it when absent, seeds or reseeds
// Base, derives the variants and hydrates missing keys. It reports whether
// the plan changed.
func (s *Service) Prepare(p *domain.UserProfile) (bool, error) {
	cp, err := s.CountryProfile(p)
	if err != nil {
		return false, err
	}

	changed := false
	if p.InvestmentPlan == nil {
		p.InvestmentPlan = domain.NewPlan()
		changed = true
	}
	if scenario.EnsureScenarios(p.InvestmentPlan, cp, p.Age) {
		changed = true
	}
	if scenario.Hydrate(p.InvestmentPlan, cp, p.Age) {
		changed = true
	}
	if changed {
		s.logger.Debugf("prepared plan for %s (%s, age %d)", p.Username, cp.Code, p.Age)
	}
	return changed, nil
}

// Legalize rewrites every scenario's allocation so it is eligible, capped
// and sums to 100.
func (s *Service) Legalize(p *domain.UserProfile) error {
	cp, err := s.CountryProfile(p)
	if err != nil {
		return err
	}
	if p.InvestmentPlan == nil {
		return nil
	}

	total := p.Corpus.Total()
	for name, sc := range p.InvestmentPlan.Scenarios {
		if sc == nil {
			continue
		}
		legal, surplus := allocation.Legalize(total, sc.Allocations, p.Age, cp.Rules, cp.Absorber)
		if surplus.IsPositive() {
			s.metrics.RecordClip("legalize")
			s.logger.Debugf("scenario %s: %s%% clipped into %s", name, surplus.StringFixed(2), cp.Absorber)
		}
		sc.Allocations = allocation.Round(legal, 2)
	}
	return nil
}

// Edit applies one allocation edit to the active scenario through the
// rebalancer and stores the result.
func (s *Service) Edit(p *domain.UserProfile, instrument string, value decimal.Decimal) (allocation.EditResult, error) {
	cp, err := s.CountryProfile(p)
	if err != nil {
		return allocation.EditResult{}, err
	}
	if !slices.Contains(cp.Instruments(), instrument) {
		return allocation.EditResult{}, fmt.Errorf("%w: %q for %s", ErrUnknownInstrument, instrument, cp.Code)
	}
	if _, err := s.Prepare(p); err != nil {
		return allocation.EditResult{}, err
	}

	sc := p.InvestmentPlan.Active()
	res := allocation.NewRebalancer(cp, p.Corpus.Total()).Edit(sc.Allocations, instrument, value, p.Age)
	sc.Allocations = res.Allocation

	s.metrics.RecordEdit(cp.Code, res.Capped)
	if res.FirstPassSurplus.IsPositive() {
		s.metrics.RecordClip("first")
	}
	if res.FinalPassSurplus.IsPositive() {
		s.metrics.RecordClip("final")
	}
	if res.Capped {
		s.logger.Infof("%s capped at %s%% (requested %s%%)", instrument, res.Applied.StringFixed(2), res.Requested.StringFixed(2))
	}
	return res, nil
}

// Select makes name active and re-legalizes its allocation against the
// current age: ineligible weights are zeroed and the rest rescaled.
func (s *Service) Select(p *domain.UserProfile, name string) error {
	cp, err := s.CountryProfile(p)
	if err != nil {
		return err
	}
	if p.InvestmentPlan == nil {
		return fmt.Errorf("%w: %q", scenario.ErrUnknownScenario, name)
	}
	if err := scenario.Select(p.InvestmentPlan, name); err != nil {
		return err
	}
	sc := p.InvestmentPlan.Active()
	filtered := allocation.FilterEligible(sc.Allocations, p.Age, cp.Rules, allocation.Zero)
	sc.Allocations = allocation.Round(allocation.Normalize(filtered), 2)
	return nil
}

// Clone copies the active scenario for a registered user.
func (s *Service) Clone(p *domain.UserProfile, user domain.User) (string, error) {
	if user.IsGuest {
		return "", fmt.Errorf("clone scenario: %w", ErrGuestForbidden)
	}
	if p.InvestmentPlan == nil {
		return "", fmt.Errorf("clone scenario: %w", scenario.ErrUnknownScenario)
	}
	name, err := scenario.Clone(p.InvestmentPlan)
	if err != nil {
		return "", err
	}
	s.logger.Infof("cloned scenario %s for %s", name, user.Username)
	return name, nil
}

// Delete removes a scenario for a registered user.
func (s *Service) Delete(p *domain.UserProfile, user domain.User, name string) error {
	if user.IsGuest {
		return fmt.Errorf("delete scenario: %w", ErrGuestForbidden)
	}
	if p.InvestmentPlan == nil {
		return fmt.Errorf("%w: %q", scenario.ErrUnknownScenario, name)
	}
	return scenario.Delete(p.InvestmentPlan, name)
}

// Model returns the default allocation model for a country, age and corpus.
func (s *Service) Model(country string, age int, totalCorpus decimal.Decimal) (*allocation.Model, error) {
	cp, err := s.registry.Profile(country)
	if err != nil {
		return nil, err
	}
	return allocation.BuildModel(cp, age, totalCorpus)
}

// Breakdown returns the per-instrument income table of the active scenario.
func (s *Service) Breakdown(p *domain.UserProfile) (scenario.Breakdown, error) {
	cp, err := s.CountryProfile(p)
	if err != nil {
		return scenario.Breakdown{}, err
	}
	if _, err := s.Prepare(p); err != nil {
		return scenario.Breakdown{}, err
	}
	return scenario.IncomeBreakdown(cp, p.InvestmentPlan.Active(), p.Corpus.Total()), nil
}

// Project prepares and legalizes a copy of p and sends it to the backend.
// p itself is not modified.
func (s *Service) Project(ctx context.Context, p *domain.UserProfile, user domain.User) (*projection.Result, error) {
	if s.projector == nil {
		return nil, ErrNoProjector
	}
	work := p.Clone()
	if _, err := s.Prepare(work); err != nil {
		return nil, err
	}
	if err := s.Legalize(work); err != nil {
		return nil, err
	}

	res, err := s.projector.CalculateProjections(ctx, work, user)
	if err != nil {
		s.logger.Errorf("projection for %s failed: %v", user.Username, err)
		return nil, fmt.Errorf("project: %w", err)
	}
	return res, nil
}

// Load fetches a saved profile and prepares it. Stale plans are reseeded.
func (s *Service) Load(ctx context.Context, username string) (*domain.UserProfile, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	p, err := s.store.Load(ctx, username)
	if err != nil {
		return nil, err
	}
	if _, err := s.Prepare(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Save persists p. Guests are never saved.
func (s *Service) Save(ctx context.Context, p *domain.UserProfile, user domain.User) error {
	if user.IsGuest {
		return nil
	}
	if s.store == nil {
		return ErrNoStore
	}
	return s.store.Save(ctx, p)
}
