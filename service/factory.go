package service

import (
	"log/slog"

	"github.com/mkdir700/EchoPlayer-sub001/errors"
)

// Factory is a thin ergonomic layer over a Registry: it constructs a
// service, wires its dependency declarations, and registers it in one
// call. It carries no state of its own and adds no invariants beyond
// the registry's.
type Factory struct {
	registry *Registry
	logger   *slog.Logger
}

// NewFactory creates a factory bound to the given registry
func NewFactory(registry *Registry) *Factory {
	return &Factory{
		registry: registry,
		logger:   slog.Default().With("component", "factory"),
	}
}

// Create constructs a service through its constructor and registers it
// under name with the given options. Non-singleton registrations keep
// the constructor so later lookups produce fresh instances.
func (f *Factory) Create(name string, constructor Constructor, opts ...RegisterOption) (Service, error) {
	if constructor == nil {
		return nil, errors.WrapConfiguration(errors.ErrInvalidRegistration,
			"Factory", "Create", "constructor validation")
	}

	svc := constructor()
	if svc == nil {
		return nil, errors.WrapConfiguration(errors.ErrInvalidRegistration,
			"Factory", "Create", "constructor result validation")
	}

	reg := &Registration{Singleton: true}
	for _, opt := range opts {
		opt(reg)
	}
	if !reg.Singleton && reg.constructor == nil {
		// Preserve the constructor for transient registrations created
		// without an explicit AsTransient constructor.
		opts = append(opts, AsTransient(constructor))
	}

	if err := f.registry.Register(name, svc, opts...); err != nil {
		return nil, err
	}

	f.logger.Debug("Service created and registered", "service", name)
	return svc, nil
}

// Spec describes one service for CreateMultiple
type Spec struct {
	Name        string
	Constructor Constructor
	Options     []RegisterOption
}

// CreateMultiple creates and registers a batch of services. The first
// failure aborts the batch and propagates; earlier registrations stand.
func (f *Factory) CreateMultiple(specs []Spec) error {
	for _, spec := range specs {
		if _, err := f.Create(spec.Name, spec.Constructor, spec.Options...); err != nil {
			return errors.Wrap(err, "Factory", "CreateMultiple", "create "+spec.Name)
		}
	}
	return nil
}

// Builder returns a fluent builder that defers to Create on Build
func (f *Factory) Builder(name string, constructor Constructor) *Builder {
	return &Builder{
		factory:     f,
		name:        name,
		constructor: constructor,
		singleton:   true,
		autoStart:   true,
	}
}

// Builder accumulates registration options fluently. All methods return
// the builder; Build performs the single Create call.
type Builder struct {
	factory     *Factory
	name        string
	constructor Constructor
	deps        []Dependency
	singleton   bool
	autoStart   bool
	priority    int
	initOpts    InitOptions
}

// WithDependencies adds dependency declarations
func (b *Builder) WithDependencies(deps ...Dependency) *Builder {
	b.deps = append(b.deps, deps...)
	return b
}

// WithRequired adds required dependencies by name
func (b *Builder) WithRequired(names ...string) *Builder {
	for _, name := range names {
		b.deps = append(b.deps, Required(name))
	}
	return b
}

// WithOptional adds optional dependencies by name
func (b *Builder) WithOptional(names ...string) *Builder {
	for _, name := range names {
		b.deps = append(b.deps, Optional(name))
	}
	return b
}

// AsSingleton controls instance caching (default true)
func (b *Builder) AsSingleton(singleton bool) *Builder {
	b.singleton = singleton
	return b
}

// AutoStart controls inclusion in InitializeAll (default true)
func (b *Builder) AutoStart(autoStart bool) *Builder {
	b.autoStart = autoStart
	return b
}

// WithPriority sets the ordering preference among independent services
func (b *Builder) WithPriority(priority int) *Builder {
	b.priority = priority
	return b
}

// WithInitOptions sets per-service initialization options
func (b *Builder) WithInitOptions(opts InitOptions) *Builder {
	b.initOpts = opts
	return b
}

// Build constructs, wires, and registers the service
func (b *Builder) Build() (Service, error) {
	opts := []RegisterOption{WithDependencies(b.deps...)}
	if !b.singleton {
		opts = append(opts, AsTransient(b.constructor))
	}
	if !b.autoStart {
		opts = append(opts, WithoutAutoStart())
	}
	if b.priority != 0 {
		opts = append(opts, WithPriority(b.priority))
	}
	if b.initOpts != nil {
		opts = append(opts, WithInitOptions(b.initOpts))
	}
	return b.factory.Create(b.name, b.constructor, opts...)
}
