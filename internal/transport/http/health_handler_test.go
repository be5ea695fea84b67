package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keygate/internal/services"
	"keygate/internal/shared/testutil"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newHealthRouter(p services.Pinger) chi.Router {
	logger := testutil.NewSilentLogger()
	h := NewHealthHandler(services.NewHealthService(services.BuildInfo{Version: "1.2.3", Commit: "abc"}, "memory", p, logger), logger)

	r := chi.NewRouter()
	r.Mount("/health", h.Routes())
	r.Get("/version", h.Version)
	return r
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name           string
		pinger         services.Pinger
		path           string
		expectedStatus int
		expectedState  string
	}{
		{"health ok", stubPinger{}, "/health", http.StatusOK, "ok"},
		{"health degraded", stubPinger{err: errors.New("disk gone")}, "/health", http.StatusOK, "degraded"},
		{"ready", stubPinger{}, "/health/ready", http.StatusOK, "ready"},
		{"not ready", stubPinger{err: errors.New("disk gone")}, "/health/ready", http.StatusServiceUnavailable, "not_ready"},
		{"live even when store is down", stubPinger{err: errors.New("disk gone")}, "/health/live", http.StatusOK, "alive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newHealthRouter(tt.pinger).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedState, body["status"])
		})
	}
}

func TestHealthHandler_Version(t *testing.T) {
	rec := httptest.NewRecorder()
	newHealthRouter(stubPinger{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "1.2.3", body["version"])
	assert.Equal(t, "abc", body["commit"])
	assert.NotContains(t, body, "build_time")
}

func TestHealthHandler_ReadyReportsStore(t *testing.T) {
	rec := httptest.NewRecorder()
	newHealthRouter(stubPinger{err: errors.New("disk gone")}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var body struct {
		Store struct {
			Status  string `json:"status"`
			Driver  string `json:"driver"`
			Message string `json:"message"`
		} `json:"store"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_ready", body.Store.Status)
	assert.Equal(t, "memory", body.Store.Driver)
	assert.Contains(t, body.Store.Message, "disk gone")
}
