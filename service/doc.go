// Package service implements the EchoPlayer core service lifecycle
// orchestrator: a registry of named, dependency-ordered, singleton or
// transient services driven through a strict lifecycle.
//
// # Lifecycle
//
// Every service moves through idle → initializing → ready or error,
// with an independent disposed flag. Initialize and Dispose are
// idempotent; a disposed service can never be initialized again.
//
// # Contract and Base
//
// The Service interface is the contract every managed unit implements.
// Base provides the reusable implementation (status tracking, typed
// error wrapping, logging, metrics) so concrete services only supply
// their domain hooks:
//
//	svc := service.NewBase("storage", "1.2.0",
//	    service.WithInitialize(store.open),
//	    service.WithHealthDetails(store.details),
//	    service.WithDispose(store.close),
//	)
//
// # Registry
//
// The Registry owns all registrations and computes the initialization
// order: a topological order of the dependency graph, seeded by
// priority (descending) so higher-priority services come first among
// independent nodes. InitializeAll is fail-fast; DisposeAll runs the
// exact reverse order and is best-effort; HealthCheckAll fault-isolates
// every check.
//
// Registries are explicitly constructed and passed to bootstrap code.
// There is no process-wide singleton: tests create isolated instances.
//
// # Factory
//
// Factory and its fluent Builder construct, wire, and register a
// service in one call:
//
//	_, err := factory.Builder("dictionary", newDictionary).
//	    WithRequired("storage").
//	    WithPriority(5).
//	    Build()
//
// # Error semantics
//
// Wiring mistakes such as duplicate names, missing required
// dependencies, dependency cycles, and unregistering a depended-upon
// service are configuration errors: fatal, surfaced immediately, never
// retried.
// Disposal and health check failures are operational: isolated, logged,
// and recorded without aborting batch operations.
package service
