package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Counters(t *testing.T) {
	r := NewRegistry()

	r.RecordEdit("IN", true)
	r.RecordEdit("IN", true)
	r.RecordEdit("US", false)
	r.RecordClip("final")
	r.RecordProjection("ok", 120*time.Millisecond)
	r.RecordExpired(3)
	r.RecordExpired(0)
	r.SetActiveSessions(5)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Edits.WithLabelValues("IN", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Edits.WithLabelValues("US", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.CapClips.WithLabelValues("final")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ProjectionCalls.WithLabelValues("ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.SessionsExpired))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.ActiveSessions))
}

func TestRegistry_IndependentInstances(t *testing.T) {
	assert.NotPanics(t, func() {
		NewRegistry()
		NewRegistry()
	}, "each registry owns its collectors")
}

func TestRegistry_NilIsNoop(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.RecordEdit("IN", false)
		r.RecordClip("first")
		r.RecordProjection("error", time.Second)
		r.RecordHTTP("/health", "GET", 200, time.Millisecond)
		r.SetActiveSessions(1)
		r.RecordExpired(1)
	})
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.RecordHTTP("/health", http.MethodGet, http.StatusOK, time.Millisecond)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `corpusplan_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
