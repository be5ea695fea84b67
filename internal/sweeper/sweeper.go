package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"keygate/internal/infrastructure"
	"keygate/internal/license"
)

// DefaultInterval is the time between two sweep cycles.
const DefaultInterval = time.Hour

// ExpiredDeleter removes every record whose expiry is at or before cutoff.
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper periodically purges expired keys from the store.
type Sweeper struct {
	deleter  ExpiredDeleter
	clock    license.Clock
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
	tracer   trace.Tracer
	interval time.Duration

	stopChan chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
	done     chan struct{}
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(s *Sweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

// New creates a sweeper. A nil clock means license.SystemClock.
func New(deleter ExpiredDeleter, clock license.Clock, metrics *infrastructure.BusinessMetrics, logger *slog.Logger, opts ...Option) *Sweeper {
	if clock == nil {
		clock = license.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sweeper{
		deleter:  deleter,
		clock:    clock,
		metrics:  metrics,
		logger:   infrastructure.WithComponent(logger, "sweeper"),
		tracer:   otel.Tracer("keygate.sweeper"),
		interval: DefaultInterval,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval returns the configured time between cycles.
func (s *Sweeper) Interval() time.Duration {
	return s.interval
}

// SweepOnce deletes every key that has expired as of now and returns the
// number of removed records.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := s.tracer.Start(ctx, "sweeper.sweep")
	defer span.End()

	start := time.Now()
	now := s.clock()
	removed, err := s.deleter.DeleteExpired(ctx, now)
	duration := time.Since(start)

	s.metrics.RecordSweep(ctx, removed, duration, err)
	span.SetAttributes(attribute.Int64("keys.removed", removed))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.ErrorContext(ctx, "sweep failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", duration),
		)
		return 0, err
	}

	if removed > 0 {
		s.logger.InfoContext(ctx, "expired keys removed",
			slog.Int64("removed", removed),
			slog.Time("cutoff", now),
			slog.Duration("duration", duration),
		)
	} else {
		s.logger.DebugContext(ctx, "sweep found no expired keys",
			slog.Duration("duration", duration),
		)
	}
	return removed, nil
}

// Run sweeps immediately and then once per interval until ctx is cancelled
// or Stop is called. Failed cycles are logged and never end the loop.
func (s *Sweeper) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "sweeper started", slog.Duration("interval", s.interval))

	s.SweepOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.SweepOnce(ctx)
		case <-s.stopChan:
			s.logger.Info("sweeper stopped")
			return nil
		case <-ctx.Done():
			s.logger.Info("sweeper stopped", slog.String("reason", ctx.Err().Error()))
			return nil
		}
	}
}

// Start runs the sweeper in a background goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(s.done)
		s.Run(ctx)
	}()
}

// Stop signals the loop to exit and waits for a loop started with Start.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	if s.started.Load() {
		<-s.done
	}
}
