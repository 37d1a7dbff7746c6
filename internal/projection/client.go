// Package projection talks to the projection backend. The backend owns the
// year-by-year simulation; this package only ships user_data to it and
// decodes what comes back.
package projection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/rgehrsitz/corpusplan/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is used when no backend URL is configured.
const DefaultBaseURL = "http://127.0.0.1:8000"

// ErrBackendUnavailable wraps transport failures and open-breaker rejections.
var ErrBackendUnavailable = errors.New("projection backend unavailable")

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("projection backend %s returned %d: %s", e.Path, e.StatusCode, e.Body)
}

// Config controls the client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RatePerSecond and Burst bound outgoing calls. Zero disables limiting.
	RatePerSecond float64
	Burst         int
	// FailureThreshold consecutive failures open the breaker, which stays
	// open for OpenTimeout.
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:          DefaultBaseURL,
		Timeout:          10 * time.Second,
		RatePerSecond:    5,
		Burst:            5,
		FailureThreshold: 3,
		OpenTimeout:      60 * time.Second,
	}
}

// Result is the decoded projection response. Series are left raw: their
// shape belongs to the backend.
type Result struct {
	ActiveResult      json.RawMessage            `json:"active_result"`
	ResultsByScenario map[string]json.RawMessage `json:"results_by_scenario"`
	BaseContext       map[string]any             `json:"base_context"`
}

// Scenarios returns the scenario names present in the response.
func (r *Result) Scenarios() []string {
	names := make([]string, 0, len(r.ResultsByScenario))
	for name := range r.ResultsByScenario {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AdvisorRequest is the payload of the advisor endpoint.
type AdvisorRequest struct {
	Projections json.RawMessage
	UserData    *domain.UserProfile
	BaseContext map[string]any
	Scenario    *domain.Scenario
}

// Client calls the projection backend.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Registry
	log     zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithMetrics records call outcomes into m.
func WithMetrics(m *metrics.Registry) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the client logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l.With().Str("component", "projection").Logger() }
}

// NewClient builds a client. Zero-valued config fields take defaults.
func NewClient(cfg Config, opts ...Option) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     zerolog.Nop(),
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	st := gobreaker.Settings{Name: "projection"}
	st.Interval = 60 * time.Second
	st.Timeout = cfg.OpenTimeout
	threshold := cfg.FailureThreshold
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		if counts.ConsecutiveFailures >= threshold {
			return true
		}
		if counts.Requests < 20 {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > 0.05
	}
	// 4xx answers are the caller's fault and must not trip the breaker.
	st.IsSuccessful = func(err error) bool {
		var se *StatusError
		if errors.As(err, &se) {
			return se.StatusCode < 500
		}
		return err == nil
	}
	c.breaker = gobreaker.NewCircuitBreaker(st)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// BreakerState reports the breaker state for health output.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// CalculateProjections posts {user_data, user} to /projections/.
func (c *Client) CalculateProjections(ctx context.Context, profile *domain.UserProfile, user domain.User) (*Result, error) {
	if profile == nil {
		return nil, errors.New("calculate projections: nil profile")
	}
	payload := map[string]any{
		"user_data": profile.WireMap(),
		"user":      user,
	}

	start := time.Now()
	var result Result
	err := c.post(ctx, "/projections/", payload, &result)
	c.metrics.RecordProjection(outcome(err), time.Since(start))
	if err != nil {
		c.log.Warn().Err(err).Str("user", user.Username).Msg("Projection failed")
		return nil, err
	}

	c.log.Debug().
		Str("user", user.Username).
		Int("scenarios", len(result.ResultsByScenario)).
		Dur("elapsed", time.Since(start)).
		Msg("Projection completed")
	return &result, nil
}

// AdvisorRecommendations posts a projection plus context to /advisor and
// returns the backend's answer undecoded.
func (c *Client) AdvisorRecommendations(ctx context.Context, req AdvisorRequest) (json.RawMessage, error) {
	payload := map[string]any{
		"projections":  req.Projections,
		"base_context": req.BaseContext,
	}
	if req.UserData != nil {
		payload["user_data"] = req.UserData.WireMap()
	}
	if req.Scenario != nil {
		payload["scenario"] = req.Scenario.WireMap()
	}

	var out json.RawMessage
	if err := c.post(ctx, "/advisor", payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func outcome(err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &se):
		return "status"
	case errors.Is(err, ErrBackendUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", path, err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit %s: %w", path, err)
		}
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.do(ctx, path, body, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return err
}

func (c *Client) do(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
