package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecker(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(h *HealthChecker)
		path         string
		wantStatus   int
		wantResponse string
	}{
		{"liveness", nil, "/healthz", http.StatusOK, healthStatusOK},
		{"liveness while not ready", func(h *HealthChecker) { h.SetReady(false) }, "/healthz", http.StatusOK, healthStatusOK},
		{"readiness", nil, "/readyz", http.StatusOK, healthStatusOK},
		{"readiness not ready", func(h *HealthChecker) { h.SetReady(false) }, "/readyz", http.StatusServiceUnavailable, healthStatusNotReady},
		{"readiness shutting down", func(h *HealthChecker) { h.MarkShuttingDown() }, "/readyz", http.StatusServiceUnavailable, healthStatusNotReady},
		{"detailed", nil, "/healthz/detailed", http.StatusOK, healthStatusOK},
		{"detailed shutting down", func(h *HealthChecker) { h.MarkShuttingDown() }, "/healthz/detailed", http.StatusServiceUnavailable, healthStatusShuttingDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker(HealthInfo{})
			if tt.setup != nil {
				tt.setup(h)
			}
			r := mux.NewRouter()
			h.RegisterHealthEndpoints(r)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var resp HealthResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantResponse, resp.Status)
		})
	}
}

func TestDetailedHealth_ReportsInfo(t *testing.T) {
	h := NewHealthChecker(HealthInfo{Version: "1.2.3", CalendarID: "bookings@example.com", CacheType: "memory"})

	rec := httptest.NewRecorder()
	h.DetailedHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))

	var resp DetailedHealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, "bookings@example.com", resp.CalendarID)
	assert.Equal(t, "memory", resp.CacheType)
	assert.NotEmpty(t, resp.Uptime)
}

func TestHealthChecker_SetReady(t *testing.T) {
	h := NewHealthChecker(HealthInfo{})
	assert.True(t, h.IsReady())

	h.SetReady(false)
	assert.False(t, h.IsReady())
}
