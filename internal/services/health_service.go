package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// Health states reported by HealthService
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
	StatusAlive    = "alive"
)

// storePingTimeout bounds a single store probe
const storePingTimeout = 2 * time.Second

// Pinger is anything whose availability can be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// HealthStatus is the body of the health endpoints
type HealthStatus struct {
	Status    string       `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Version   string       `json:"version"`
	Store     *StoreHealth `json:"store,omitempty"`
	Runtime   *RuntimeInfo `json:"runtime,omitempty"`
}

// StoreHealth is the result of probing the key store
type StoreHealth struct {
	Status    string  `json:"status"`
	Driver    string  `json:"driver"`
	LatencyMS float64 `json:"latency_ms"`
	Message   string  `json:"message,omitempty"`
}

// RuntimeInfo describes the process for liveness probes
type RuntimeInfo struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
	GoVersion     string  `json:"go_version"`
	Goroutines    int     `json:"goroutines"`
}

// VersionInfo is the body of GET /version
type VersionInfo struct {
	Version   string    `json:"version"`
	Commit    string    `json:"commit,omitempty"`
	BuildTime string    `json:"build_time,omitempty"`
	GoVersion string    `json:"go_version"`
	OS        string    `json:"os"`
	Arch      string    `json:"arch"`
	StartTime time.Time `json:"start_time"`
}

// HealthService reports liveness, readiness and build information
type HealthService struct {
	build     BuildInfo
	driver    string
	store     Pinger
	startTime time.Time
	logger    *slog.Logger
}

// NewHealthService creates a health service that probes st
func NewHealthService(build BuildInfo, driver string, st Pinger, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		build:     build,
		driver:    driver,
		store:     st,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck always answers; an unreachable store only degrades it.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	store := hs.checkStore(ctx)
	status := hs.status(StatusOK)
	status.Store = &store
	if store.Status != StatusReady {
		status.Status = StatusDegraded
	}
	return status
}

// ReadinessCheck reports whether the store is reachable. The error is
// ErrNotReady when it is not.
func (hs *HealthService) ReadinessCheck(ctx context.Context) (HealthStatus, error) {
	store := hs.checkStore(ctx)
	status := hs.status(StatusReady)
	status.Store = &store

	if store.Status != StatusReady {
		status.Status = StatusNotReady
		hs.logger.WarnContext(ctx, "readiness check failed",
			slog.String("driver", hs.driver),
			slog.String("reason", store.Message))
		return status, ErrNotReady
	}
	return status, nil
}

// LivenessCheck never touches the store
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	status := hs.status(StatusAlive)
	status.Runtime = &RuntimeInfo{
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
		GoVersion:     runtime.Version(),
		Goroutines:    runtime.NumGoroutine(),
	}
	return status
}

// Version describes the running build
func (hs *HealthService) Version() VersionInfo {
	return VersionInfo{
		Version:   hs.build.Version,
		Commit:    hs.build.Commit,
		BuildTime: hs.build.BuildTime,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		StartTime: hs.startTime.UTC(),
	}
}

func (hs *HealthService) status(state string) HealthStatus {
	return HealthStatus{Status: state, Timestamp: time.Now().UTC(), Version: hs.build.Version}
}

func (hs *HealthService) checkStore(ctx context.Context) StoreHealth {
	health := StoreHealth{Status: StatusNotReady, Driver: hs.driver}
	if hs.store == nil {
		health.Message = "store not initialized"
		return health
	}

	ctx, cancel := context.WithTimeout(ctx, storePingTimeout)
	defer cancel()

	start := time.Now()
	err := hs.store.Ping(ctx)
	health.LatencyMS = float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		health.Message = "store ping failed: " + err.Error()
		return health
	}

	health.Status = StatusReady
	return health
}
