package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credtech/credintel/internal/metrics"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := DefaultServerConfig()
	cfg.Port = 0 // let the probe listener pick a free port
	srv, err := NewServer(cfg, nil, nil, metrics.NewCollector(), zerolog.Nop())
	require.NoError(t, err)
	return srv
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRouteReturnsJSONError(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not found", body["error"])
}

func TestQualityEndpointReportsDegradedInputs(t *testing.T) {
	srv := newTestServer(t)
	srv.collector.RecordDegradedInput("ACME", "current_ratio")
	srv.collector.RecordDegradedInput("OTHER", "current_ratio")

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/quality", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		DegradedInputs map[string]float64 `json:"degraded_inputs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2.0, body.DegradedInputs["current_ratio"])
	assert.Equal(t, 0.0, body.DegradedInputs["debt_to_equity"])
}

func TestHistoryWithoutStoreIsEmpty(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/assessments/ACME/history", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}
