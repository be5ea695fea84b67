package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keygate/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestOTelInitialization(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.TelemetryConfig
		wantMetrics bool
		wantTracing bool
		wantErr     bool
	}{
		{
			name:        "metrics only",
			cfg:         config.TelemetryConfig{MetricsEnabled: true, TraceExporter: "none", SampleRatio: 1},
			wantMetrics: true,
		},
		{
			name:        "stdout tracing",
			cfg:         config.TelemetryConfig{MetricsEnabled: false, TraceExporter: "stdout", SampleRatio: 1},
			wantTracing: true,
		},
		{
			name: "everything off",
			cfg:  config.TelemetryConfig{TraceExporter: "none"},
		},
		{
			name:    "unknown exporter",
			cfg:     config.TelemetryConfig{TraceExporter: "zipkin"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers, err := InitializeOTel(tt.cfg, "test", discardLogger())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer providers.Shutdown(context.Background())

			assert.NotNil(t, providers.Meter)
			assert.NotNil(t, providers.Tracer)
			assert.Equal(t, tt.wantMetrics, providers.MeterProvider != nil)
			assert.Equal(t, tt.wantMetrics, providers.PrometheusHTTP != nil)
			assert.Equal(t, tt.wantTracing, providers.TracerProvider != nil)
		})
	}
}

func TestPrometheusEndpoint(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{MetricsEnabled: true, TraceExporter: "none"}, "test", discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordKeyCreated(ctx, false)
	metrics.RecordVerification(ctx, "valid_bind")
	metrics.RecordBind(ctx)
	metrics.RecordSweep(ctx, 3, 10*time.Millisecond, nil)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "keys_created")
	assert.Contains(t, body, "key_verifications")
	assert.Contains(t, body, `outcome="valid_bind"`)
	assert.Contains(t, body, "keys_swept")
	assert.Contains(t, body, "go_goroutines")
}

func TestBusinessMetrics_NilSafe(t *testing.T) {
	var m *BusinessMetrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordKeyCreated(ctx, true)
		m.RecordKeyDeleted(ctx)
		m.RecordVerification(ctx, "expired")
		m.RecordBind(ctx)
		m.RecordStoreError(ctx, "create")
		m.RecordSweep(ctx, 0, time.Second, errors.New("boom"))
	})
}

func TestNewNoopMetrics(t *testing.T) {
	m := NewNoopMetrics()
	require.NotNil(t, m)
	assert.NotPanics(t, func() {
		m.RecordSweep(context.Background(), 5, time.Second, nil)
	})
}

func TestRecordError_NoSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordError(context.Background(), errors.New("boom"))
	})
}
