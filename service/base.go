package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mkdir700/EchoPlayer-sub001/errors"
	"github.com/mkdir700/EchoPlayer-sub001/health"
	"github.com/mkdir700/EchoPlayer-sub001/metric"
)

// InitializeHook performs the service-specific setup work. Every
// concrete service provides one; services with no setup may omit it.
type InitializeHook func(ctx context.Context, opts InitOptions) error

// HealthHook returns service-specific health details. A returned error
// marks the service unhealthy with the error's message.
type HealthHook func(ctx context.Context) (map[string]any, error)

// DisposeHook performs the service-specific teardown work.
type DisposeHook func(ctx context.Context) error

// Option is a functional option for configuring Base
type Option func(*Base)

// WithLogger sets a custom logger for the service
func WithLogger(logger *slog.Logger) Option {
	return func(b *Base) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics sets the metrics registry for the service
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(b *Base) {
		b.metrics = registry
	}
}

// WithInitialize sets the initialization hook
func WithInitialize(hook InitializeHook) Option {
	return func(b *Base) {
		b.onInitialize = hook
	}
}

// WithHealthDetails sets the health details hook
func WithHealthDetails(hook HealthHook) Option {
	return func(b *Base) {
		b.onHealth = hook
	}
}

// WithDispose sets the teardown hook
func WithDispose(hook DisposeHook) Option {
	return func(b *Base) {
		b.onDispose = hook
	}
}

// Base provides the reusable implementation of the Service contract:
// status tracking, idempotent initialize/dispose, structured error
// wrapping, and logging. Concrete services embed *Base and supply their
// domain logic through hooks.
//
// Lifecycle state lives in atomics so status reads never contend with a
// transition in flight. The mutex only serializes Initialize and
// Dispose against each other; hooks may freely query their own service
// state, including from goroutines a teardown hook is waiting on.
type Base struct {
	name    string
	version string
	logger  *slog.Logger
	metrics *metric.MetricsRegistry

	onInitialize InitializeHook
	onHealth     HealthHook
	onDispose    DisposeHook

	mu       sync.Mutex // serializes lifecycle transitions
	status   atomic.Int32
	disposed atomic.Bool

	healthChecks       atomic.Int64
	failedHealthChecks atomic.Int64
}

// NewBase creates a new base service
func NewBase(name, version string, opts ...Option) *Base {
	b := &Base{
		name:    name,
		version: version,
		logger:  slog.Default().With("service", name),
	}

	for _, opt := range opts {
		opt(b)
	}

	b.status.Store(int32(StatusIdle))
	b.recordStatus(StatusIdle)
	return b
}

// Name returns the service name
func (b *Base) Name() string {
	return b.name
}

// Version returns the service version
func (b *Base) Version() string {
	return b.version
}

// Status returns the current lifecycle status
func (b *Base) Status() Status {
	return Status(b.status.Load())
}

// IsInitialized reports whether the service completed initialization
// and has not been disposed
func (b *Base) IsInitialized() bool {
	return Status(b.status.Load()) == StatusReady && !b.disposed.Load()
}

// IsDisposed reports whether the service has been disposed
func (b *Base) IsDisposed() bool {
	return b.disposed.Load()
}

// Logger returns the service logger for use by embedding services
func (b *Base) Logger() *slog.Logger {
	return b.logger
}

// Metrics returns the metrics registry, which may be nil
func (b *Base) Metrics() *metric.MetricsRegistry {
	return b.metrics
}

// Initialize drives the service through idle → initializing → ready.
// A failed initialize hook moves the service to error and the wrapped
// cause is returned. Calling Initialize on an already-initialized
// service logs and returns without side effects.
func (b *Base) Initialize(ctx context.Context, opts InitOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.disposed.Load() {
		return errors.WrapInternal(errors.ErrDisposed, b.name, "Initialize",
			"cannot initialize disposed service")
	}

	if Status(b.status.Load()) == StatusReady {
		b.logger.Debug("Service already initialized, skipping")
		return nil
	}

	b.setStatus(StatusInitializing)
	started := time.Now()

	if b.onInitialize != nil {
		if err := b.onInitialize(ctx, opts); err != nil {
			b.setStatus(StatusError)
			if b.metrics != nil {
				b.metrics.CoreMetrics().RecordInitialization(b.name, 0, false)
			}
			b.logger.Error("Service initialization failed", "error", err)
			return errors.WrapInternal(err, b.name, "Initialize", "initialization")
		}
	}

	b.setStatus(StatusReady)
	if b.metrics != nil {
		b.metrics.CoreMetrics().RecordInitialization(b.name, time.Since(started), true)
	}
	b.logger.Info("Service initialized",
		"version", b.version,
		"duration_ms", time.Since(started).Milliseconds())
	return nil
}

// HealthCheck reports the current health of the service. Disposed and
// uninitialized services are always unhealthy; a failing health hook
// turns into an unhealthy report, never a panic or an aborted batch.
func (b *Base) HealthCheck(ctx context.Context) health.Status {
	b.healthChecks.Add(1)

	if b.IsDisposed() {
		b.failedHealthChecks.Add(1)
		return b.recordHealth(health.NewUnhealthy(b.name, "service is disposed"))
	}
	if !b.IsInitialized() {
		b.failedHealthChecks.Add(1)
		return b.recordHealth(health.NewUnhealthy(b.name, "service not initialized"))
	}

	if b.onHealth != nil {
		details, err := b.onHealth(ctx)
		if err != nil {
			b.failedHealthChecks.Add(1)
			return b.recordHealth(health.NewUnhealthy(b.name, err.Error()))
		}
		return b.recordHealth(health.NewHealthy(b.name, "Service operating normally").WithDetails(details))
	}

	return b.recordHealth(health.NewHealthy(b.name, "Service operating normally"))
}

// Dispose tears the service down. Disposing twice is a no-op. If the
// teardown hook fails, the service stays undisposed so the failure is
// visible and the call can be retried.
func (b *Base) Dispose(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.disposed.Load() {
		b.logger.Debug("Service already disposed, skipping")
		return nil
	}

	if b.onDispose != nil {
		if err := b.onDispose(ctx); err != nil {
			if b.metrics != nil {
				b.metrics.CoreMetrics().RecordDisposal(b.name, false)
			}
			b.logger.Error("Service disposal failed", "error", err)
			return errors.WrapInternal(err, b.name, "Dispose", "teardown")
		}
	}

	b.disposed.Store(true)
	b.setStatus(StatusIdle)
	if b.metrics != nil {
		b.metrics.CoreMetrics().RecordDisposal(b.name, true)
	}
	b.logger.Info("Service disposed")
	return nil
}

// EnsureInitialized fails with an internal error when the service is
// disposed or has not completed initialization. Domain operations call
// this (directly or via SafeExecute) before touching service state.
func (b *Base) EnsureInitialized() error {
	if b.disposed.Load() {
		return errors.WrapInternal(errors.ErrDisposed, b.name, "EnsureInitialized", "readiness check")
	}
	if Status(b.status.Load()) != StatusReady {
		return errors.WrapInternal(errors.ErrNotInitialized, b.name, "EnsureInitialized", "readiness check")
	}
	return nil
}

// SafeExecute is the standard guard for domain operations: it enforces
// EnsureInitialized, runs the operation, and wraps any failure with the
// service and operation context before returning it.
func (b *Base) SafeExecute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if err := b.EnsureInitialized(); err != nil {
		return err
	}
	if err := fn(ctx); err != nil {
		return errors.WrapInternal(err, b.name, operation, "operation")
	}
	return nil
}

// HealthCheckCounts returns the total and failed health check counts
func (b *Base) HealthCheckCounts() (total, failed int64) {
	return b.healthChecks.Load(), b.failedHealthChecks.Load()
}

func (b *Base) setStatus(status Status) {
	b.status.Store(int32(status))
	b.recordStatus(status)
}

func (b *Base) recordStatus(status Status) {
	if b.metrics != nil {
		b.metrics.CoreMetrics().RecordServiceStatus(b.name, int(status))
	}
}

func (b *Base) recordHealth(status health.Status) health.Status {
	if b.metrics != nil {
		b.metrics.CoreMetrics().RecordHealthCheck(b.name, status.Healthy)
	}
	return status
}
