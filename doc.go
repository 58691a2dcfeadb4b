// Package echoplayer is the core service layer of the EchoPlayer video
// player: the background process that backs the UI with settings and
// vocabulary storage, dictionary lookups for language learning, and an
// IPC bridge the UI connects to over a local WebSocket.
//
// # Architecture
//
// Everything revolves around an explicit service registry:
//
//	┌─────────────────────────────────────┐
//	│         service.Registry            │  Registration, ordering,
//	│ (register, initialize, dispose)     │  health fan-out
//	└─────────────────────────────────────┘
//	           ↓ orchestrates
//	┌─────────────────────────────────────┐
//	│            Services                 │  storage, dictionary,
//	│     (embed service.Base)            │  bridge, ...
//	└─────────────────────────────────────┘
//	           ↓ report into
//	┌─────────────────────────────────────┐
//	│    health.Monitor + metric          │  Snapshots for the UI,
//	│                                     │  Prometheus metrics
//	└─────────────────────────────────────┘
//
// Services declare named dependencies when they register. The registry
// computes a topological initialization order (priority breaks ties
// among independent services), initializes in that order, and disposes
// in reverse so dependents shut down before the services they rely on.
//
// Each service embeds service.Base, which owns the lifecycle state
// machine (idle → initializing → ready | error, plus a disposed flag),
// idempotent initialize/dispose, and fault-isolated health checks.
//
// # Package Layout
//
//   - service: contract, base service, registry, factory
//   - errors: typed error taxonomy with operational/configuration classes
//   - health: health status model and monitor
//   - metric: Prometheus instrumentation
//   - config: layered application configuration
//   - storage, dictionary, bridge: the core services
//   - cmd/echoplayer-core: the process entry point
package echoplayer
