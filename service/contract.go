package service

import (
	"context"

	"github.com/mkdir700/EchoPlayer-sub001/health"
)

// Service defines the contract every managed unit implements. The
// registry drives instances through a strict lifecycle: idle →
// initializing → ready or error, with an independent disposed flag.
type Service interface {
	Name() string
	Version() string
	Status() Status
	IsInitialized() bool
	IsDisposed() bool

	// Initialize transitions the service to ready. Re-initializing an
	// already-initialized service is a no-op; initializing a disposed
	// service fails with an internal error.
	Initialize(ctx context.Context, opts InitOptions) error

	// HealthCheck reports the current health. A genuinely ready service
	// reports healthy, augmented with service-specific details; disposed
	// and uninitialized services always report unhealthy.
	HealthCheck(ctx context.Context) health.Status

	// Dispose releases the service's resources. Disposing twice is a
	// no-op. A failed teardown leaves the service undisposed so the
	// failure is visible and the call retryable.
	Dispose(ctx context.Context) error
}

// Constructor creates a new service instance. Registrations of
// non-singleton services keep their constructor so every lookup
// produces a fresh instance.
type Constructor func() Service
