package projection

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/rgehrsitz/corpusplan/internal/metrics"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProfile() *domain.UserProfile {
	plan := domain.NewPlan()
	plan.Scenarios[domain.BaseScenario] = &domain.Scenario{
		Allocations:   domain.NewAllocation(map[string]float64{"SWP": 70, "FD": 20, "SCSS": 0, "POMIS": 10}),
		Rates:         domain.RateTable{"SWP": decimal.NewFromInt(8), "FD": decimal.RequireFromString("6.5")},
		IncomeSources: domain.IncomeSources{"rental": decimal.NewFromInt(20000)},
		Withdrawal:    domain.NewWithdrawal(decimal.NewFromInt(10000)),
	}
	return &domain.UserProfile{
		Username:       "asha",
		Country:        "IN",
		Age:            35,
		Corpus:         domain.Corpus{"PF": decimal.NewFromInt(1000000)},
		InvestmentPlan: plan,
		Extra:          map[string]any{"inflation": 6.0},
	}
}

func testConfig(url string) Config {
	return Config{BaseURL: url, Timeout: 2 * time.Second, FailureThreshold: 2, OpenTimeout: time.Minute}
}

func TestCalculateProjections(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/projections/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"active_result": [{"year": 1, "corpus": 1000000}],
			"results_by_scenario": {"Base": [], "Aggressive": []},
			"base_context": {"currency": "INR"}
		}`))
	}))
	defer srv.Close()

	m := metrics.NewRegistry()
	client := NewClient(testConfig(srv.URL+"/"), WithMetrics(m))

	res, err := client.CalculateProjections(context.Background(), sampleProfile(), domain.User{Username: "asha", IsPremium: true})
	require.NoError(t, err)

	assert.JSONEq(t, `[{"year": 1, "corpus": 1000000}]`, string(res.ActiveResult))
	assert.Equal(t, []string{"Aggressive", "Base"}, res.Scenarios())
	assert.Equal(t, "INR", res.BaseContext["currency"])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProjectionCalls.WithLabelValues("ok")))

	user := got["user"].(map[string]any)
	assert.Equal(t, "asha", user["username"])
	assert.Equal(t, true, user["is_premium"])

	userData := got["user_data"].(map[string]any)
	assert.Equal(t, "IN", userData["country"])
	assert.Equal(t, 6.0, userData["inflation"], "extra keys pass through")
	plan := userData["investment_plan"].(map[string]any)
	base := plan["scenarios"].(map[string]any)["Base"].(map[string]any)
	assert.Equal(t, 70.0, base["allocations"].(map[string]any)["SWP"], "numbers go out as floats")
	assert.Equal(t, 10000.0, base["withdrawal"].(map[string]any)["monthly"])
}

func TestCalculateProjections_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad plan", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	_, err := client.CalculateProjections(context.Background(), sampleProfile(), domain.User{})

	var se *StatusError
	require.True(t, errors.As(err, &se), "expected *StatusError, got %v", err)
	assert.Equal(t, http.StatusUnprocessableEntity, se.StatusCode)
	assert.Equal(t, "bad plan", se.Body)
	assert.Equal(t, "closed", client.BreakerState(), "client errors do not trip the breaker")
}

func TestCalculateProjections_BreakerOpens(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := client.CalculateProjections(ctx, sampleProfile(), domain.User{})
		var se *StatusError
		require.True(t, errors.As(err, &se), "call %d", i)
	}
	assert.Equal(t, "open", client.BreakerState())

	_, err := client.CalculateProjections(ctx, sampleProfile(), domain.User{})
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "open breaker short-circuits")
}

func TestCalculateProjections_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(testConfig(url)).CalculateProjections(context.Background(), sampleProfile(), domain.User{})
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestCalculateProjections_NilProfile(t *testing.T) {
	_, err := NewClient(Config{}).CalculateProjections(context.Background(), nil, domain.User{})
	assert.Error(t, err)
}

func TestCalculateProjections_RateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.RatePerSecond = 0.001
	cfg.Burst = 1
	client := NewClient(cfg)

	_, err := client.CalculateProjections(context.Background(), sampleProfile(), domain.User{})
	require.NoError(t, err, "first call uses the burst")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.CalculateProjections(ctx, sampleProfile(), domain.User{})
	assert.Error(t, err)
}

func TestAdvisorRecommendations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/advisor", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "scenario")
		assert.Contains(t, body, "user_data")
		_, _ = w.Write([]byte(`{"recommendations": ["hold"]}`))
	}))
	defer srv.Close()

	p := sampleProfile()
	out, err := NewClient(testConfig(srv.URL)).AdvisorRecommendations(context.Background(), AdvisorRequest{
		Projections: json.RawMessage(`[]`),
		UserData:    p,
		Scenario:    p.InvestmentPlan.Active(),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"recommendations": ["hold"]}`, string(out))
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{})
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, "closed", c.BreakerState())
}
