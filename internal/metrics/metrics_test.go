package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionCounters(t *testing.T) {
	m := New()
	m.Transaction("draft", "confirmed", 120*time.Millisecond)
	m.Transaction("draft", "confirmed", 80*time.Millisecond)
	m.Transaction("remove", "timed_out", 10*time.Second)
	m.Refused("draft", "pending")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transactions.WithLabelValues("draft", "confirmed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactions.WithLabelValues("remove", "timed_out")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactions.WithLabelValues("draft", "refused_pending")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.latency))
}

func TestConnectionStatusIsOneHot(t *testing.T) {
	m := New()
	m.ConnectionStatus("connected", "primary")
	m.ConnectionStatus("degraded", "fallback")

	assert.Equal(t, 0.0, testutil.ToFloat64(m.connection.WithLabelValues("connected", "primary")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.connection.WithLabelValues("degraded", "fallback")))
	assert.Equal(t, 8, testutil.CollectAndCount(m.connection))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Transaction("draft", "confirmed", time.Second)
	m.Refused("draft", "pending")
	m.ConnectionStatus("connected", "primary")
	m.ServerEvent("joined_room")
	m.FitFailure()
	assert.NotNil(t, m.Registry())
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ServerEvent("player_drafted_enhanced")
	m.FitFailure()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `draftboard_server_events_total{event="player_drafted_enhanced"} 1`))
	assert.True(t, strings.Contains(body, "draftboard_fit_refresh_failures_total 1"))
}
