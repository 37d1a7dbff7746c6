package planner

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/rgehrsitz/corpusplan/internal/instruments"
	"github.com/rgehrsitz/corpusplan/internal/logging"
	"github.com/rgehrsitz/corpusplan/internal/metrics"
	"github.com/rgehrsitz/corpusplan/internal/projection"
	"github.com/rgehrsitz/corpusplan/internal/scenario"
	"github.com/rgehrsitz/corpusplan/internal/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProjector struct {
	got  *domain.UserProfile
	user domain.User
	err  error
}

func (f *fakeProjector) CalculateProjections(_ context.Context, p *domain.UserProfile, user domain.User) (*projection.Result, error) {
	f.got = p
	f.user = user
	if f.err != nil {
		return nil, f.err
	}
	return &projection.Result{BaseContext: map[string]any{"ok": true}}, nil
}

func indiaProfile(age int) *domain.UserProfile {
	return &domain.UserProfile{
		Username: "meera",
		Country:  "IN",
		Age:      age,
		Corpus:   domain.Corpus{"PF": decimal.NewFromInt(1_000_000)},
	}
}

func assertAlloc(t *testing.T, want map[string]string, got domain.Allocation) {
	t.Helper()
	for k, v := range want {
		assert.Equal(t, decimal.RequireFromString(v).String(), got.Get(k).String(), "allocation %s", k)
	}
}

func TestService_SetLogger(t *testing.T) {
	svc := New(nil)
	assert.IsType(t, NopLogger{}, svc.Logger())

	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)
	svc.SetLogger(logging.NewAdapter(zerolog.New(&buf)))
	_, err := svc.Prepare(indiaProfile(35))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "prepared plan for meera")

	svc.SetLogger(nil)
	assert.IsType(t, NopLogger{}, svc.Logger())
}

func TestService_Prepare(t *testing.T) {
	svc := New(nil)
	p := indiaProfile(35)

	changed, err := svc.Prepare(p)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"Base", "Aggressive", "Conservative"}, p.InvestmentPlan.Names())
	assertAlloc(t, map[string]string{"SWP": "70", "FD": "20", "SCSS": "0", "POMIS": "10"}, p.InvestmentPlan.Active().Allocations)

	changed, err = svc.Prepare(p)
	require.NoError(t, err)
	assert.False(t, changed, "second prepare is a no-op")

	_, err = svc.Prepare(&domain.UserProfile{Country: "FR"})
	assert.ErrorIs(t, err, instruments.ErrUnsupportedCountry)
}

func TestService_Legalize(t *testing.T) {
	svc := New(nil)
	p := indiaProfile(35)
	_, err := svc.Prepare(p)
	require.NoError(t, err)

	p.InvestmentPlan.Scenarios[domain.BaseScenario].Allocations = domain.NewAllocation(map[string]float64{
		"SWP": 10, "FD": 10, "SCSS": 30, "POMIS": 50,
	})
	require.NoError(t, svc.Legalize(p))

	base := p.InvestmentPlan.Scenarios[domain.BaseScenario].Allocations
	assertAlloc(t, map[string]string{"SWP": "40.71", "FD": "14.29", "SCSS": "0", "POMIS": "45"}, base)
	assert.Equal(t, "100", base.Sum().String())
}

func TestService_Edit(t *testing.T) {
	reg := metrics.NewRegistry()
	svc := New(nil, WithMetrics(reg))
	p := indiaProfile(35)

	res, err := svc.Edit(p, instruments.FD, decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.False(t, res.Capped)
	assertAlloc(t, map[string]string{"SWP": "43.75", "FD": "50", "SCSS": "0", "POMIS": "6.25"}, p.InvestmentPlan.Active().Allocations)

	res, err = svc.Edit(p, instruments.SCSS, decimal.NewFromInt(20))
	require.NoError(t, err)
	assert.True(t, res.Capped, "SCSS is closed to a 35 year old")
	assert.True(t, res.Applied.IsZero())
	assert.Equal(t, "100", p.InvestmentPlan.Active().Allocations.Sum().String())

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.Edits.WithLabelValues("IN", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.Edits.WithLabelValues("IN", "true")))

	_, err = svc.Edit(p, "GOLD", decimal.NewFromInt(5))
	assert.ErrorIs(t, err, ErrUnknownInstrument)
}

func TestService_EditCapsPOMIS(t *testing.T) {
	reg := metrics.NewRegistry()
	svc := New(nil, WithMetrics(reg))
	p := indiaProfile(35)

	res, err := svc.Edit(p, instruments.POMIS, decimal.NewFromInt(80))
	require.NoError(t, err)
	assert.True(t, res.Capped)
	assert.Equal(t, "45", res.Applied.String(), "single-holder limit is 4.5L of a 10L corpus")
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.CapClips.WithLabelValues("first")))
}

func TestService_EditJointPOMIS(t *testing.T) {
	svc := New(nil)

	single := indiaProfile(35)
	single.Corpus = domain.Corpus{"PF": decimal.NewFromInt(10_000_000)}
	res, err := svc.Edit(single, instruments.POMIS, decimal.NewFromInt(8))
	require.NoError(t, err)
	assert.True(t, res.Capped)
	assert.Equal(t, "4.5", res.Applied.String())

	joint := indiaProfile(35)
	joint.Corpus = domain.Corpus{"PF": decimal.NewFromInt(10_000_000)}
	joint.JointPOMIS = true
	res, err = svc.Edit(joint, instruments.POMIS, decimal.NewFromInt(8))
	require.NoError(t, err)
	assert.False(t, res.Capped)
	assert.Equal(t, "8", res.Applied.String())

	cp, err := svc.CountryProfile(joint)
	require.NoError(t, err)
	assert.Equal(t, "900000", cp.Rules[instruments.POMIS].MaxInvestmentAmount.String())
}

func TestService_LegalizeJointPOMIS(t *testing.T) {
	svc := New(nil)
	p := indiaProfile(35)
	p.JointPOMIS = true
	_, err := svc.Prepare(p)
	require.NoError(t, err)
	p.InvestmentPlan.Active().Allocations = domain.NewAllocation(map[string]float64{"SWP": 20, "FD": 0, "SCSS": 0, "POMIS": 80})

	require.NoError(t, svc.Legalize(p))
	assertAlloc(t, map[string]string{"SWP": "20", "POMIS": "80"}, p.InvestmentPlan.Active().Allocations)
}

func TestService_Select(t *testing.T) {
	svc := New(nil)
	p := indiaProfile(35)
	_, err := svc.Prepare(p)
	require.NoError(t, err)

	p.InvestmentPlan.Scenarios[domain.AggressiveScenario].Allocations = domain.NewAllocation(map[string]float64{
		"SWP": 60, "FD": 20, "SCSS": 20, "POMIS": 0,
	})
	require.NoError(t, svc.Select(p, domain.AggressiveScenario))
	assert.Equal(t, domain.AggressiveScenario, p.InvestmentPlan.ActiveScenario)
	assertAlloc(t, map[string]string{"SWP": "75", "FD": "25", "SCSS": "0", "POMIS": "0"}, p.InvestmentPlan.Active().Allocations)

	err = svc.Select(p, "Nope")
	assert.ErrorIs(t, err, scenario.ErrUnknownScenario)
	assert.Equal(t, domain.AggressiveScenario, p.InvestmentPlan.ActiveScenario)
}

func TestService_CloneDelete(t *testing.T) {
	svc := New(nil)
	p := indiaProfile(35)
	_, err := svc.Prepare(p)
	require.NoError(t, err)

	guest := domain.User{Username: "guest-1", IsGuest: true}
	user := domain.User{Username: "meera"}

	_, err = svc.Clone(p, guest)
	assert.ErrorIs(t, err, ErrGuestForbidden)
	assert.ErrorIs(t, svc.Delete(p, guest, domain.ConservativeScenario), ErrGuestForbidden)

	_, err = svc.Clone(p, user)
	assert.ErrorIs(t, err, scenario.ErrScenarioLimit)

	assert.ErrorIs(t, svc.Delete(p, user, domain.BaseScenario), scenario.ErrBaseScenario)
	require.NoError(t, svc.Delete(p, user, domain.ConservativeScenario))

	name, err := svc.Clone(p, user)
	require.NoError(t, err)
	assert.Equal(t, "Scenario 2", name)
	assert.Equal(t, name, p.InvestmentPlan.ActiveScenario)
}

func TestService_Project(t *testing.T) {
	fake := &fakeProjector{}
	svc := New(nil, WithProjector(fake))
	p := indiaProfile(35)

	res, err := svc.Project(context.Background(), p, domain.User{Username: "meera"})
	require.NoError(t, err)
	assert.Equal(t, true, res.BaseContext["ok"])

	assert.Nil(t, p.InvestmentPlan, "caller's profile is untouched")
	require.NotNil(t, fake.got.InvestmentPlan)
	assert.Len(t, fake.got.InvestmentPlan.Scenarios, 3)
	for name, sc := range fake.got.InvestmentPlan.Scenarios {
		assert.Equal(t, "100", sc.Allocations.Sum().String(), "scenario %s is legal", name)
	}

	fake.err = &projection.StatusError{StatusCode: 500}
	_, err = svc.Project(context.Background(), p, domain.User{})
	var se *projection.StatusError
	assert.True(t, errors.As(err, &se))

	_, err = New(nil).Project(context.Background(), p, domain.User{})
	assert.ErrorIs(t, err, ErrNoProjector)
}

func TestService_LoadSave(t *testing.T) {
	ctx := context.Background()
	backing := store.NewMemoryStore()
	svc := New(nil, WithStore(backing))

	p := indiaProfile(65)
	require.NoError(t, svc.Save(ctx, p, domain.User{Username: "meera"}))
	require.NoError(t, svc.Save(ctx, &domain.UserProfile{Username: "g", Country: "IN"}, domain.User{IsGuest: true}))

	loaded, err := svc.Load(ctx, "meera")
	require.NoError(t, err)
	require.NotNil(t, loaded.InvestmentPlan, "stale profiles are seeded on load")
	assertAlloc(t, map[string]string{"SWP": "35", "FD": "25", "SCSS": "25", "POMIS": "15"}, loaded.InvestmentPlan.Active().Allocations)

	_, err = svc.Load(ctx, "g")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = New(nil).Load(ctx, "meera")
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestService_ModelAndBreakdown(t *testing.T) {
	svc := New(nil)

	m, err := svc.Model("in", 65, decimal.NewFromInt(1_000_000))
	require.NoError(t, err)
	assert.Equal(t, "250000", m.Amounts["SCSS"].String())

	_, err = svc.Model("XX", 40, decimal.Zero)
	assert.ErrorIs(t, err, instruments.ErrUnsupportedCountry)

	b, err := svc.Breakdown(indiaProfile(65))
	require.NoError(t, err)
	assert.Equal(t, "75900", b.IncomeTotal.String())
}
