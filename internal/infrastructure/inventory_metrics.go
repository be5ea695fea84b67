package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"keygate/internal/license"
)

// inventoryTimeout bounds the store scan done for each collection
const inventoryTimeout = 5 * time.Second

// KeyInventory is the read side of the key store observed at collection time
type KeyInventory interface {
	ListAll(ctx context.Context) ([]license.KeyRecord, error)
}

// InventoryStats summarizes the stored keys at one instant
type InventoryStats struct {
	Total     int64
	Unset     int64
	Bypass    int64
	Bound     int64
	Stale     int64
	Timestamp time.Time
}

// InventoryMetrics exposes gauges describing the stored keys. Values are
// computed from the store whenever the meter provider collects.
type InventoryMetrics struct {
	inventory KeyInventory
	clock     license.Clock
	logger    *slog.Logger

	keysStored metric.Int64ObservableGauge
	keysStale  metric.Int64ObservableGauge

	registration metric.Registration
}

// NewInventoryMetrics registers the inventory gauges on meter
func NewInventoryMetrics(meter metric.Meter, inventory KeyInventory, clock license.Clock, logger *slog.Logger) (*InventoryMetrics, error) {
	if clock == nil {
		clock = license.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}

	im := &InventoryMetrics{
		inventory: inventory,
		clock:     clock,
		logger:    WithComponent(logger, "inventory_metrics"),
	}

	var err error
	if im.keysStored, err = meter.Int64ObservableGauge(
		"keys_stored",
		metric.WithDescription("Number of stored keys by hwid state"),
	); err != nil {
		return nil, err
	}

	if im.keysStale, err = meter.Int64ObservableGauge(
		"keys_stale",
		metric.WithDescription("Number of stored keys already past expiry and awaiting the sweeper"),
	); err != nil {
		return nil, err
	}

	im.registration, err = meter.RegisterCallback(im.observe, im.keysStored, im.keysStale)
	if err != nil {
		return nil, fmt.Errorf("failed to register inventory callback: %w", err)
	}

	return im, nil
}

// Collect scans the store and summarizes what it holds
func (im *InventoryMetrics) Collect(ctx context.Context) (*InventoryStats, error) {
	ctx, cancel := context.WithTimeout(ctx, inventoryTimeout)
	defer cancel()

	records, err := im.inventory.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	now := im.clock()
	stats := &InventoryStats{Total: int64(len(records)), Timestamp: now}
	for i := range records {
		rec := &records[i]
		switch rec.HwidState() {
		case license.HwidBypass:
			stats.Bypass++
		case license.HwidBound:
			stats.Bound++
		default:
			stats.Unset++
		}
		if license.IsStale(rec, now) {
			stats.Stale++
		}
	}
	return stats, nil
}

// observe is the collection callback. A failed scan skips the observation
// rather than failing the whole collection.
func (im *InventoryMetrics) observe(ctx context.Context, o metric.Observer) error {
	stats, err := im.Collect(ctx)
	if err != nil {
		im.logger.WarnContext(ctx, "inventory scan failed", slog.String("error", err.Error()))
		return nil
	}

	o.ObserveInt64(im.keysStored, stats.Unset, metric.WithAttributes(attribute.String("hwid_state", license.HwidUnset.String())))
	o.ObserveInt64(im.keysStored, stats.Bypass, metric.WithAttributes(attribute.String("hwid_state", license.HwidBypass.String())))
	o.ObserveInt64(im.keysStored, stats.Bound, metric.WithAttributes(attribute.String("hwid_state", license.HwidBound.String())))
	o.ObserveInt64(im.keysStale, stats.Stale)
	return nil
}

// Unregister detaches the gauges from the meter
func (im *InventoryMetrics) Unregister() error {
	if im.registration == nil {
		return nil
	}
	return im.registration.Unregister()
}
