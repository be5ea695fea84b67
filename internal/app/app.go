package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"keygate/internal/config"
	apierrors "keygate/internal/errors"
	"keygate/internal/infrastructure"
	"keygate/internal/license"
	customMiddleware "keygate/internal/middleware"
	"keygate/internal/services"
	"keygate/internal/store"
	"keygate/internal/sweeper"
	handlers "keygate/internal/transport/http"
	"keygate/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Inventory     *infrastructure.InventoryMetrics
	Store         store.Store
	KeyService    services.KeyService
	HealthService *services.HealthService
	Sweeper       *sweeper.Sweeper

	clock    license.Clock
	ownsLogs bool
}

// Option customizes NewApplication
type Option func(*Application)

// WithLogger uses logger instead of one built from the logging config
func WithLogger(logger *slog.Logger) Option {
	return func(a *Application) { a.Logger = logger }
}

// WithClock replaces the wall clock used for issuing, verifying and sweeping
func WithClock(clock license.Clock) Option {
	return func(a *Application) { a.clock = clock }
}

// WithStore injects an already open store. The application takes ownership
// and closes it on shutdown.
func WithStore(st store.Store) Option {
	return func(a *Application) { a.Store = st }
}

// NewApplication wires every component from cfg
func NewApplication(ctx context.Context, cfg *config.Config, opts ...Option) (*Application, error) {
	app := &Application{Config: cfg, clock: license.SystemClock}
	for _, opt := range opts {
		opt(app)
	}

	if app.Logger == nil {
		logger, err := infrastructure.InitializeLogger(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		app.Logger = logger
		app.ownsLogs = true
	}

	app.Logger.InfoContext(ctx, "Application starting",
		slog.String("version", contracts.Version),
		slog.String("store_driver", cfg.Store.Driver),
		slog.Int("port", cfg.Server.Port))

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, contracts.Version, app.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	app.OTelProviders = otelProviders

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	app.Metrics = metrics

	if app.Store == nil {
		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			_ = otelProviders.Shutdown(ctx)
			return nil, fmt.Errorf("failed to open key store: %w", err)
		}
		app.Store = st
	}

	if cfg.Telemetry.MetricsEnabled {
		inventory, err := infrastructure.NewInventoryMetrics(otelProviders.Meter, app.Store, app.clock, app.Logger)
		if err != nil {
			_ = app.Close(ctx)
			return nil, fmt.Errorf("failed to register inventory metrics: %w", err)
		}
		app.Inventory = inventory
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the services around the shared store
func (a *Application) initializeServices() {
	a.KeyService = services.NewKeyService(a.Store, a.clock, a.Metrics, a.Logger)
	a.HealthService = services.NewHealthService(services.BuildInfo{
		Version:   contracts.Version,
		Commit:    contracts.GitCommit,
		BuildTime: contracts.BuildTime,
	}, a.Config.Store.Driver, a.Store, a.Logger)
	a.Sweeper = sweeper.New(a.Store, a.clock, a.Metrics, a.Logger)
}

// setupRouter builds the chi router. Middleware order:
// RequestID → RealIP → OTel → Logger → Recoverer → SecurityHeaders → CORS → RateLimit → Timeout
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errHandler := apierrors.NewErrorHandler(a.Logger, false)

	r.NotFound(errHandler.NotFound)
	r.MethodNotAllowed(errHandler.MethodNotAllowed)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(errHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				Logger:         a.Logger,
			}))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				errHandler,
				a.Logger,
			).Handler)
		}

		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, errHandler))

		a.setupAPIRoutes(r, errHandler)
	})

	// Prometheus scrapes bypass the request middleware
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes registers the public, administrative and health routes
func (a *Application) setupAPIRoutes(r chi.Router, errHandler *apierrors.ErrorHandler) {
	validator := customMiddleware.NewRequestValidator(a.Config.Server.MaxBodyBytes, a.Logger)

	verifyHandler := handlers.NewVerifyHandler(a.KeyService, errHandler, a.Logger)
	keyHandler := handlers.NewKeyHandler(a.KeyService, validator, errHandler, a.Logger)
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)

	r.Get("/", verifyHandler.Index)
	r.Get("/verify", verifyHandler.Verify)
	r.Mount("/keys", keyHandler.Routes())
	r.Mount("/health", healthHandler.Routes())
	r.Get("/version", healthHandler.Version)
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Run listens on the configured address and serves until ctx is cancelled
// or the process receives SIGINT or SIGTERM.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		_ = a.Close(context.Background())
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve runs the HTTP server on ln together with the expiration sweeper.
// When ctx ends, or either task fails, the server drains, the sweeper stops
// and every resource is released.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "HTTP server listening", slog.String("address", ln.Addr().String()))
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.Sweeper.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.InfoContext(context.Background(), "Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	runErr := g.Wait()
	closeErr := a.Close(context.Background())
	return errors.Join(runErr, closeErr)
}

// SweepOnce removes expired keys immediately, for one-shot maintenance runs
func (a *Application) SweepOnce(ctx context.Context) (int64, error) {
	return a.Sweeper.SweepOnce(ctx)
}

// Close releases the store and flushes telemetry
func (a *Application) Close(ctx context.Context) error {
	var errs []error

	if a.Inventory != nil {
		if err := a.Inventory.Unregister(); err != nil {
			errs = append(errs, fmt.Errorf("unregister inventory metrics: %w", err))
		}
	}

	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}

	if a.OTelProviders != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")

	if a.ownsLogs {
		if err := infrastructure.CloseLogFile(); err != nil {
			errs = append(errs, fmt.Errorf("close log file: %w", err))
		}
	}

	return errors.Join(errs...)
}
