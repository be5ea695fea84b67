// Package app wires the keygate service together and manages its lifetime.
//
// NewApplication builds, in order, the logger, OpenTelemetry providers,
// business metrics, the key store, the inventory gauges, the services, the
// expiration sweeper and the chi router. Every component receives its
// dependencies explicitly. The store is shared by the key service, the
// inventory gauges and the sweeper.
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	application, err := app.NewApplication(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// # Graceful Shutdown
//
// Run stops on SIGINT, SIGTERM or cancellation of its context. The HTTP
// server drains in-flight requests within the configured shutdown timeout,
// the sweeper stops, the store is closed and telemetry is flushed.
package app
