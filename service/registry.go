package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mkdir700/EchoPlayer-sub001/errors"
	"github.com/mkdir700/EchoPlayer-sub001/health"
	"github.com/mkdir700/EchoPlayer-sub001/metric"
)

// Dependency declares that a service needs another service by name.
// Required dependencies must be registered and initialized before the
// dependent; optional dependencies are consulted only when registered.
type Dependency struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
	Version  string `json:"version,omitempty"`
}

// Required declares a required dependency on the named service
func Required(name string) Dependency {
	return Dependency{Name: name, Required: true}
}

// Optional declares an optional dependency on the named service
func Optional(name string) Dependency {
	return Dependency{Name: name, Required: false}
}

// Registration holds the metadata record for one registered service name
type Registration struct {
	Name         string
	Dependencies []Dependency
	Singleton    bool
	AutoStart    bool
	Priority     int
	InitOptions  InitOptions

	service     Service
	constructor Constructor
}

// RegisterOption configures a Registration at registration time
type RegisterOption func(*Registration)

// WithDependencies sets the dependency declarations
func WithDependencies(deps ...Dependency) RegisterOption {
	return func(r *Registration) {
		r.Dependencies = append(r.Dependencies, deps...)
	}
}

// WithRequired declares required dependencies by name
func WithRequired(names ...string) RegisterOption {
	return func(r *Registration) {
		for _, name := range names {
			r.Dependencies = append(r.Dependencies, Required(name))
		}
	}
}

// WithOptional declares optional dependencies by name
func WithOptional(names ...string) RegisterOption {
	return func(r *Registration) {
		for _, name := range names {
			r.Dependencies = append(r.Dependencies, Optional(name))
		}
	}
}

// AsTransient marks the registration non-singleton: every Get
// constructs a fresh instance through the given constructor.
func AsTransient(constructor Constructor) RegisterOption {
	return func(r *Registration) {
		r.Singleton = false
		r.constructor = constructor
	}
}

// WithoutAutoStart excludes the service from InitializeAll
func WithoutAutoStart() RegisterOption {
	return func(r *Registration) {
		r.AutoStart = false
	}
}

// WithPriority sets the ordering preference among independent services.
// Higher priority services initialize earlier when no dependency
// constraint says otherwise.
func WithPriority(priority int) RegisterOption {
	return func(r *Registration) {
		r.Priority = priority
	}
}

// WithInitOptions sets per-service initialization options, merged over
// the options passed to InitializeAll.
func WithInitOptions(opts InitOptions) RegisterOption {
	return func(r *Registration) {
		r.InitOptions = opts
	}
}

// RegistryOption configures a Registry at construction time
type RegistryOption func(*Registry)

// WithRegistryLogger sets the registry logger
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRegistryMetrics sets the metrics registry propagated to lifecycle bookkeeping
func WithRegistryMetrics(metrics *metric.MetricsRegistry) RegistryOption {
	return func(r *Registry) {
		r.metrics = metrics
	}
}

// Registry is the single source of truth for service registrations and
// the authority for initialization and disposal ordering. It is
// explicitly constructed and explicitly passed; tests create isolated
// instances instead of resetting process-wide state.
//
// Configuration mistakes (duplicate names, missing required
// dependencies, cycles, unregistering a depended-upon service) surface
// immediately as configuration errors and are never retried. Disposal
// and health check failures are isolated and logged: teardown and
// diagnostics never abort because one service misbehaves.
type Registry struct {
	logger  *slog.Logger
	metrics *metric.MetricsRegistry
	monitor *health.Monitor

	mu            sync.RWMutex
	registrations map[string]*Registration
	instances     map[string]Service
	regOrder      []string // registration sequence
	initOrder     []string // last computed initialization order
	initialized   bool
}

// NewRegistry creates a new empty service registry
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		logger:        slog.Default().With("component", "registry"),
		monitor:       health.NewMonitor(),
		registrations: make(map[string]*Registration),
		instances:     make(map[string]Service),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Monitor returns the health monitor holding the latest health check
// results per service
func (r *Registry) Monitor() *health.Monitor {
	return r.monitor
}

// Register stores a service registration. Duplicate names are rejected:
// a second registration under an existing name is a configuration error
// the caller must fix, never a silent overwrite. Registering does not
// initialize.
func (r *Registry) Register(name string, svc Service, opts ...RegisterOption) error {
	if name == "" {
		return errors.WrapConfiguration(errors.ErrInvalidRegistration,
			"Registry", "Register", "service name validation")
	}
	if svc == nil {
		return errors.WrapConfiguration(errors.ErrInvalidRegistration,
			"Registry", "Register", "service instance validation")
	}

	reg := &Registration{
		Name:      name,
		Singleton: true,
		AutoStart: true,
		service:   svc,
	}
	for _, opt := range opts {
		opt(reg)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.registrations[name]; exists {
		return errors.WrapConfiguration(
			fmt.Errorf("%w: %s", errors.ErrAlreadyRegistered, name),
			"Registry", "Register", "duplicate registration check")
	}

	r.registrations[name] = reg
	r.regOrder = append(r.regOrder, name)

	r.logger.Debug("Service registered",
		"service", name,
		"singleton", reg.Singleton,
		"auto_start", reg.AutoStart,
		"priority", reg.Priority,
		"dependencies", len(reg.Dependencies))
	return nil
}

// Unregister removes a registration. It fails when other registered
// services list the name as a dependency; the error names every
// dependent. A live instance is disposed before removal, and a failed
// disposal aborts the unregistration so the failure stays visible.
func (r *Registry) Unregister(ctx context.Context, name string) error {
	r.mu.Lock()
	if _, exists := r.registrations[name]; !exists {
		r.mu.Unlock()
		return errors.WrapConfiguration(
			fmt.Errorf("%w: %s", errors.ErrNotRegistered, name),
			"Registry", "Unregister", "registration lookup")
	}

	dependents := r.dependentsLocked(name)
	if len(dependents) > 0 {
		r.mu.Unlock()
		return errors.WrapConfiguration(
			fmt.Errorf("%w: %s is required by %v", errors.ErrHasDependents, name, dependents),
			"Registry", "Unregister", "dependents check")
	}

	instance := r.instances[name]
	r.mu.Unlock()

	if instance != nil {
		if err := instance.Dispose(ctx); err != nil {
			return errors.Wrap(err, "Registry", "Unregister", fmt.Sprintf("dispose %s", name))
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.registrations, name)
	delete(r.instances, name)
	r.regOrder = removeName(r.regOrder, name)
	r.initOrder = removeName(r.initOrder, name)
	r.monitor.Remove(name)

	r.logger.Info("Service unregistered", "service", name)
	return nil
}

// Get returns the service instance for name. Singleton registrations
// return the cached instance, materializing it on first access;
// non-singleton registrations construct a fresh instance per call when
// a constructor is available, otherwise they return the pre-supplied
// instance (object creation is the factory's job, not the registry's).
func (r *Registry) Get(name string) (Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLocked(name)
}

func (r *Registry) getLocked(name string) (Service, error) {
	reg, exists := r.registrations[name]
	if !exists {
		return nil, errors.WrapConfiguration(
			fmt.Errorf("%w: %s", errors.ErrNotRegistered, name),
			"Registry", "Get", "registration lookup")
	}

	if !reg.Singleton {
		if reg.constructor != nil {
			return reg.constructor(), nil
		}
		return reg.service, nil
	}

	if instance, live := r.instances[name]; live {
		return instance, nil
	}

	instance := reg.service
	if instance == nil && reg.constructor != nil {
		instance = reg.constructor()
	}
	r.instances[name] = instance
	return instance, nil
}

// Lookup returns the service registered under name asserted to type T.
// A mismatch is a configuration error: the caller asked for the wrong
// kind of service.
func Lookup[T Service](r *Registry, name string) (T, error) {
	var zero T
	svc, err := r.Get(name)
	if err != nil {
		return zero, err
	}
	typed, ok := svc.(T)
	if !ok {
		return zero, errors.WrapConfiguration(
			fmt.Errorf("%w: service %s is %T, not %T", errors.ErrInvalidRegistration, name, svc, zero),
			"Registry", "Lookup", "type assertion")
	}
	return typed, nil
}

// Has reports whether a service name is registered
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.registrations[name]
	return exists
}

// ServiceNames returns all registered service names in registration order
func (r *Registry) ServiceNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.regOrder))
	copy(names, r.regOrder)
	return names
}

// Registration returns a copy of the metadata record for name
func (r *Registry) Registration(name string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, exists := r.registrations[name]
	if !exists {
		return Registration{}, false
	}
	snapshot := *reg
	snapshot.Dependencies = append([]Dependency(nil), reg.Dependencies...)
	snapshot.service = nil
	snapshot.constructor = nil
	return snapshot, true
}

// InitializeAll initializes every auto-start service in dependency
// order. It runs at most once: repeated calls log a warning and return
// nil. Any initialization failure aborts the remaining pass and
// propagates: a half-initialized dependency graph is unsafe to keep
// building on.
func (r *Registry) InitializeAll(ctx context.Context, opts InitOptions) error {
	r.mu.Lock()
	if r.initialized {
		r.mu.Unlock()
		r.logger.Warn("InitializeAll called more than once, skipping")
		return nil
	}

	order, err := r.initializationOrderLocked()
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.initOrder = order

	autoStart := make([]string, 0, len(order))
	for _, name := range order {
		if r.registrations[name].AutoStart {
			autoStart = append(autoStart, name)
		}
	}
	r.mu.Unlock()

	r.logger.Info("Initializing services", "order", autoStart)

	for _, name := range autoStart {
		if err := r.InitializeService(ctx, name, opts); err != nil {
			r.logger.Error("Service initialization failed, aborting pass",
				"service", name, "error", err)
			return errors.Wrap(err, "Registry", "InitializeAll",
				fmt.Sprintf("initialize %s", name))
		}
	}

	r.mu.Lock()
	r.initialized = true
	r.mu.Unlock()

	r.logger.Info("All services initialized", "count", len(autoStart))
	return nil
}

// InitializeService initializes a single service on demand, first
// ensuring every required dependency is registered and initialized
// (depth-first). Optional dependencies are initialized when registered
// and skipped otherwise. Already-initialized services are left alone.
func (r *Registry) InitializeService(ctx context.Context, name string, opts InitOptions) error {
	return r.initializeService(ctx, name, opts, make(map[string]bool))
}

func (r *Registry) initializeService(ctx context.Context, name string, opts InitOptions, visiting map[string]bool) error {
	if visiting[name] {
		return errors.WrapConfiguration(
			fmt.Errorf("%w: %s", errors.ErrCircularDependency, name),
			"Registry", "InitializeService", "dependency traversal")
	}
	visiting[name] = true
	defer delete(visiting, name)

	r.mu.RLock()
	reg, exists := r.registrations[name]
	var deps []Dependency
	if exists {
		deps = append(deps, reg.Dependencies...)
	}
	r.mu.RUnlock()

	if !exists {
		return errors.WrapConfiguration(
			fmt.Errorf("%w: %s", errors.ErrNotRegistered, name),
			"Registry", "InitializeService", "registration lookup")
	}

	for _, dep := range deps {
		if !r.Has(dep.Name) {
			if dep.Required {
				return errors.WrapConfiguration(
					fmt.Errorf("%w: %s (required by %s)", errors.ErrMissingDependency, dep.Name, name),
					"Registry", "InitializeService", "dependency check")
			}
			r.logger.Debug("Optional dependency not registered, skipping",
				"service", name, "dependency", dep.Name)
			continue
		}
		// Registered dependencies are initialized regardless of their
		// auto-start setting: a dependent that needs them needs them live.
		if err := r.initializeService(ctx, dep.Name, opts, visiting); err != nil {
			return err
		}
	}

	r.mu.Lock()
	if !reg.Singleton && reg.service == nil {
		// Constructor-only transient services are materialized by their
		// consumers per Get; there is no tracked instance to initialize.
		r.mu.Unlock()
		r.logger.Debug("Transient service has no tracked instance, skipping", "service", name)
		return nil
	}
	instance, err := r.getLocked(name)
	merged := opts.Merge(reg.InitOptions)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	if instance.IsInitialized() {
		r.logger.Debug("Service already initialized, skipping", "service", name)
		return nil
	}

	return instance.Initialize(ctx, merged)
}

// DisposeAll disposes every live instance in the reverse of the last
// computed initialization order, so dependents are torn down before the
// services they depend on. Teardown is best-effort: individual failures
// are logged and recorded but never abort the pass. Afterwards the
// instance cache is cleared and the registry can be initialized again;
// registrations stay intact.
func (r *Registry) DisposeAll(ctx context.Context) error {
	r.mu.Lock()
	sequence := make([]string, 0, len(r.instances))
	seen := make(map[string]bool, len(r.instances))
	for i := len(r.initOrder) - 1; i >= 0; i-- {
		name := r.initOrder[i]
		if _, live := r.instances[name]; live {
			sequence = append(sequence, name)
			seen[name] = true
		}
	}
	// Instances initialized outside InitializeAll are not in the
	// computed order; tear them down in reverse registration order.
	for i := len(r.regOrder) - 1; i >= 0; i-- {
		name := r.regOrder[i]
		if _, live := r.instances[name]; live && !seen[name] {
			sequence = append(sequence, name)
		}
	}
	instances := make(map[string]Service, len(r.instances))
	for name, instance := range r.instances {
		instances[name] = instance
	}
	r.mu.Unlock()

	r.logger.Info("Disposing services", "order", sequence)

	var failures []error
	for _, name := range sequence {
		if err := instances[name].Dispose(ctx); err != nil {
			r.logger.Error("Service disposal failed, continuing",
				"service", name, "error", err)
			failures = append(failures, fmt.Errorf("dispose %s: %w", name, err))
		}
	}

	r.mu.Lock()
	r.instances = make(map[string]Service)
	r.initialized = false
	r.mu.Unlock()
	r.monitor.Clear()

	if len(failures) > 0 {
		return fmt.Errorf("dispose errors: %v", failures)
	}
	return nil
}

// HealthCheckAll runs a health check on every live instance. Checks are
// independent and fault-isolated: a panicking or failing check becomes
// an unhealthy entry for that service only and never aborts the batch.
// Results are also recorded in the registry's health monitor.
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]health.Status {
	r.mu.RLock()
	instances := make(map[string]Service, len(r.instances))
	for name, instance := range r.instances {
		instances[name] = instance
	}
	r.mu.RUnlock()

	var (
		resultMu sync.Mutex
		results  = make(map[string]health.Status, len(instances))
	)

	var g errgroup.Group
	for name, instance := range instances {
		name, instance := name, instance
		g.Go(func() error {
			status := checkOne(ctx, name, instance)
			resultMu.Lock()
			results[name] = status
			resultMu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for name, status := range results {
		r.monitor.Update(name, status)
		if !status.Healthy {
			r.logger.Warn("Service unhealthy", "service", name, "message", status.Message)
		}
	}
	return results
}

// checkOne isolates a single health check, converting panics into
// unhealthy entries so one misbehaving service cannot take down the batch
func checkOne(ctx context.Context, name string, instance Service) (status health.Status) {
	defer func() {
		if rec := recover(); rec != nil {
			status = health.NewUnhealthy(name, fmt.Sprintf("health check panicked: %v", rec))
		}
	}()
	return instance.HealthCheck(ctx)
}

// dependentsLocked returns the sorted names of registrations that list
// name among their dependencies
func (r *Registry) dependentsLocked(name string) []string {
	var dependents []string
	for other, reg := range r.registrations {
		for _, dep := range reg.Dependencies {
			if dep.Name == name {
				dependents = append(dependents, other)
				break
			}
		}
	}
	sort.Strings(dependents)
	return dependents
}

func removeName(names []string, name string) []string {
	for i, n := range names {
		if n == name {
			return append(names[:i], names[i+1:]...)
		}
	}
	return names
}
