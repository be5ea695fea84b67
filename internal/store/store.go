package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"keygate/internal/config"
	"keygate/internal/license"
)

// ErrNotFound is returned when no record matches a lookup.
var ErrNotFound = errors.New("key not found")

// Store persists key records. Every method is a single statement against the
// backing store; there are no multi-step transactions.
type Store interface {
	// Create inserts rec and returns the assigned id.
	Create(ctx context.Context, rec *license.KeyRecord) (int64, error)
	// ListAll returns every record in ascending id order.
	ListAll(ctx context.Context) ([]license.KeyRecord, error)
	// GetByKey returns the lowest-id record with the given key string.
	GetByKey(ctx context.Context, key string) (*license.KeyRecord, error)
	// UpdateHwid overwrites the hwid of one record. Unknown ids are a no-op.
	UpdateHwid(ctx context.Context, id int64, hwid *string) error
	// DeleteByID removes one record. Unknown ids are a no-op.
	DeleteByID(ctx context.Context, id int64) error
	// DeleteExpired removes every record with expires_at <= cutoff.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg)
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg)
	case config.DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %q", cfg.Driver)
	}
}
