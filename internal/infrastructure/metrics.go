package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
)

// BusinessMetrics holds all application-specific metrics
type BusinessMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Key lifecycle metrics
	KeysCreated      metric.Int64Counter
	KeysDeleted      metric.Int64Counter
	KeyVerifications metric.Int64Counter
	KeyBinds         metric.Int64Counter
	StoreErrors      metric.Int64Counter

	// Sweeper metrics
	Sweeps        metric.Int64Counter
	KeysSwept     metric.Int64Counter
	SweepDuration metric.Float64Histogram
}

// CreateBusinessMetrics creates application-specific metrics
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	m := &BusinessMetrics{}
	var err error

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.KeysCreated, err = meter.Int64Counter(
		"keys_created_total",
		metric.WithDescription("Total number of issued keys"),
	); err != nil {
		return nil, err
	}

	if m.KeysDeleted, err = meter.Int64Counter(
		"keys_deleted_total",
		metric.WithDescription("Total number of administrative key deletions"),
	); err != nil {
		return nil, err
	}

	if m.KeyVerifications, err = meter.Int64Counter(
		"key_verifications_total",
		metric.WithDescription("Total number of key verifications by outcome"),
	); err != nil {
		return nil, err
	}

	if m.KeyBinds, err = meter.Int64Counter(
		"key_binds_total",
		metric.WithDescription("Total number of first-use hardware bindings"),
	); err != nil {
		return nil, err
	}

	if m.StoreErrors, err = meter.Int64Counter(
		"key_store_errors_total",
		metric.WithDescription("Total number of key store failures by operation"),
	); err != nil {
		return nil, err
	}

	if m.Sweeps, err = meter.Int64Counter(
		"key_sweeps_total",
		metric.WithDescription("Total number of expiration sweeps by status"),
	); err != nil {
		return nil, err
	}

	if m.KeysSwept, err = meter.Int64Counter(
		"keys_swept_total",
		metric.WithDescription("Total number of expired keys removed by the sweeper"),
	); err != nil {
		return nil, err
	}

	if m.SweepDuration, err = meter.Float64Histogram(
		"key_sweep_duration_seconds",
		metric.WithDescription("Expiration sweep duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// NewNoopMetrics returns metrics backed by a no-op meter.
func NewNoopMetrics() *BusinessMetrics {
	m, _ := CreateBusinessMetrics(metricnoop.NewMeterProvider().Meter(MeterName))
	return m
}

// RecordKeyCreated counts an issued key
func (m *BusinessMetrics) RecordKeyCreated(ctx context.Context, bypass bool) {
	if m == nil {
		return
	}
	m.KeysCreated.Add(ctx, 1, metric.WithAttributes(attribute.Bool("bypass", bypass)))
}

// RecordKeyDeleted counts an administrative delete
func (m *BusinessMetrics) RecordKeyDeleted(ctx context.Context) {
	if m == nil {
		return
	}
	m.KeysDeleted.Add(ctx, 1)
}

// RecordVerification counts a verification by outcome label
func (m *BusinessMetrics) RecordVerification(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.KeyVerifications.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordBind counts a persisted first-use binding
func (m *BusinessMetrics) RecordBind(ctx context.Context) {
	if m == nil {
		return
	}
	m.KeyBinds.Add(ctx, 1)
}

// RecordStoreError counts a failed store call
func (m *BusinessMetrics) RecordStoreError(ctx context.Context, op string) {
	if m == nil {
		return
	}
	m.StoreErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

// RecordSweep records one sweep cycle
func (m *BusinessMetrics) RecordSweep(ctx context.Context, removed int64, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.Sweeps.Add(ctx, 1, attrs)
	m.SweepDuration.Record(ctx, duration.Seconds(), attrs)
	if removed > 0 {
		m.KeysSwept.Add(ctx, removed)
	}
}
