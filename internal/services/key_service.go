package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"keygate/internal/infrastructure"
	"keygate/internal/license"
	"keygate/internal/store"
)

// KeyService issues, administers and verifies license keys.
type KeyService interface {
	Create(ctx context.Context, input CreateKeyInput) (int64, error)
	List(ctx context.Context) ([]license.KeyRecord, error)
	UpdateHwid(ctx context.Context, id int64, hwid *string) error
	Delete(ctx context.Context, id int64) error
	Verify(ctx context.Context, key, hwid string) (*VerifyResult, error)
}

// CreateKeyInput carries the fields of a key creation request.
type CreateKeyInput struct {
	Key        string
	Months     int
	HwidBypass bool
}

// VerifyResult is the outcome of a verification. ID is set for valid outcomes.
type VerifyResult struct {
	Outcome license.Outcome
	ID      int64
}

type keyService struct {
	store   store.Store
	clock   license.Clock
	metrics *infrastructure.BusinessMetrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewKeyService creates the key service. A nil clock means license.SystemClock.
func NewKeyService(st store.Store, clock license.Clock, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) KeyService {
	if clock == nil {
		clock = license.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &keyService{
		store:   st,
		clock:   clock,
		metrics: metrics,
		tracer:  otel.Tracer("keygate.services"),
		logger:  logger.With(slog.String("service", "keys")),
	}
}

// Create stores a new key issued now. Months may be zero or negative but
// must keep the expiry within a four-digit year.
func (s *keyService) Create(ctx context.Context, input CreateKeyInput) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "keys.create")
	defer span.End()

	if input.Key == "" {
		return 0, license.ErrKeyRequired
	}

	now := s.clock()
	if err := license.CheckMonths(now, input.Months); err != nil {
		return 0, err
	}

	rec := license.NewRecord(input.Key, input.Months, input.HwidBypass, now)
	id, err := s.store.Create(ctx, &rec)
	if err != nil {
		return 0, s.storeFailure(ctx, "create", err)
	}

	span.SetAttributes(attribute.Int64("key.id", id), attribute.Bool("key.bypass", input.HwidBypass))
	s.metrics.RecordKeyCreated(ctx, input.HwidBypass)
	s.logger.InfoContext(ctx, "key created",
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.Int64("id", id),
		slog.String("key", license.MaskKey(input.Key)),
		slog.Int("months", input.Months),
		slog.Bool("bypass", input.HwidBypass),
		slog.Time("expires_at", rec.ExpiresAt),
	)
	return id, nil
}

func (s *keyService) List(ctx context.Context) ([]license.KeyRecord, error) {
	ctx, span := s.tracer.Start(ctx, "keys.list")
	defer span.End()

	records, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, s.storeFailure(ctx, "list", err)
	}
	span.SetAttributes(attribute.Int("keys.count", len(records)))
	return records, nil
}

// UpdateHwid overwrites the binding of one key with the value as given. nil
// and "" both clear it; "" is stored as an empty string. An unknown id is
// not an error.
func (s *keyService) UpdateHwid(ctx context.Context, id int64, hwid *string) error {
	ctx, span := s.tracer.Start(ctx, "keys.update_hwid", trace.WithAttributes(attribute.Int64("key.id", id)))
	defer span.End()

	value := license.CopyHwid(hwid)
	if err := s.store.UpdateHwid(ctx, id, value); err != nil {
		return s.storeFailure(ctx, "update_hwid", err)
	}

	s.logger.InfoContext(ctx, "key hwid updated",
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.Int64("id", id),
		slog.Bool("cleared", value == nil || *value == ""),
	)
	return nil
}

// Delete removes one key. An unknown id is not an error.
func (s *keyService) Delete(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "keys.delete", trace.WithAttributes(attribute.Int64("key.id", id)))
	defer span.End()

	if err := s.store.DeleteByID(ctx, id); err != nil {
		return s.storeFailure(ctx, "delete", err)
	}

	s.metrics.RecordKeyDeleted(ctx)
	s.logger.InfoContext(ctx, "key deleted",
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.Int64("id", id),
	)
	return nil
}

// Verify evaluates key against hwid and persists a first-use binding before
// reporting success. An empty hwid counts as not supplied.
func (s *keyService) Verify(ctx context.Context, key, hwid string) (*VerifyResult, error) {
	ctx, span := s.tracer.Start(ctx, "keys.verify")
	defer span.End()

	if key == "" {
		return nil, license.ErrKeyRequired
	}

	rec, err := s.store.GetByKey(ctx, key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, s.storeFailure(ctx, "get_by_key", err)
	}

	verdict := license.Evaluate(rec, hwid, s.clock())
	if verdict.BindRequired() {
		if err := s.store.UpdateHwid(ctx, rec.ID, &verdict.BindHwid); err != nil {
			return nil, s.storeFailure(ctx, "bind", err)
		}
		s.metrics.RecordBind(ctx)
	}

	result := &VerifyResult{Outcome: verdict.Outcome}
	if verdict.Outcome.Valid() {
		result.ID = rec.ID
	}

	span.SetAttributes(attribute.String("verify.outcome", verdict.Outcome.String()))
	s.metrics.RecordVerification(ctx, verdict.Outcome.String())

	attrs := []any{
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("key", license.MaskKey(key)),
		slog.String("outcome", verdict.Outcome.String()),
		slog.Bool("hwid_supplied", hwid != ""),
	}
	if rec != nil {
		attrs = append(attrs, slog.Int64("id", rec.ID))
	}
	if verdict.Outcome.Valid() {
		s.logger.InfoContext(ctx, "key verified", attrs...)
	} else {
		attrs = append(attrs, slog.String("code", verdict.Outcome.Code()))
		s.logger.WarnContext(ctx, "key verification rejected", attrs...)
	}
	return result, nil
}

func (s *keyService) storeFailure(ctx context.Context, op string, err error) error {
	infrastructure.RecordError(ctx, err)
	s.metrics.RecordStoreError(ctx, op)
	s.logger.ErrorContext(ctx, "key store operation failed",
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	// the cause stays in the chain so a request deadline still reads as one
	return fmt.Errorf("%w: %s: %w", ErrStoreFailure, op, err)
}
