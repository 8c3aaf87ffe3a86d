package di

import (
	"context"
	"sync"

	"github.com/xraph/anchor/internal/errors"
	"github.com/xraph/anchor/internal/events"
	"github.com/xraph/anchor/internal/graph"
	"github.com/xraph/anchor/internal/lifecycle"
	"github.com/xraph/anchor/internal/logger"
	"github.com/xraph/anchor/internal/shared"
)

// Factory creates a service instance. Factories run without any registry
// lock held and may resolve other services through the container.
type Factory func(ctx context.Context, c Container) (any, error)

// Container is the service registry: a dependency-aware DI container that
// initializes singletons ancestors-first and disposes them dependents-first.
type Container interface {
	// Register adds a service under name. Re-registering an existing name
	// replaces the prior registration silently; the previous value is NOT
	// disposed — that remains the caller's responsibility.
	Register(name string, factory Factory, opts ...RegisterOption) error

	// RegisterValue registers a pre-built instance as a singleton.
	RegisterValue(name string, value any, opts ...RegisterOption) error

	// Resolve returns the service value for name, initializing the entry and
	// its dependency closure first when it is a singleton.
	Resolve(ctx context.Context, name string) (any, error)

	// Has reports whether name is registered.
	Has(name string) bool

	// IsInitialized reports whether name is a singleton holding a value.
	IsInitialized(name string) bool

	// Unregister removes a registration. Idempotent; no hooks run.
	Unregister(name string)

	// Start initializes every registered singleton in dependency order.
	// The first failure aborts the remaining sequence and names its key;
	// already-initialized entries stay initialized.
	Start(ctx context.Context) error

	// Stop disposes every initialized singleton in reverse dependency
	// order. Disposal is best-effort: hook failures are logged and counted
	// but never abort the sweep, and Stop always returns nil.
	Stop(ctx context.Context) error

	// Services returns the registered names in registration order.
	Services() []string

	// Stats returns container statistics.
	Stats() ContainerStats

	// Reset drops every registration without running dispose hooks.
	// Intended for tests.
	Reset()
}

// ContainerConfig contains construction options for the container.
type ContainerConfig struct {
	Logger  logger.Logger
	Metrics shared.Metrics
	Bus     *events.Bus
}

// ContainerStats contains statistics about the container.
type ContainerStats struct {
	Registered         int            `json:"registered"`
	Initialized        int            `json:"initialized"`
	Singletons         int            `json:"singletons"`
	Transients         int            `json:"transients"`
	CircularRejections int            `json:"circular_rejections"`
	FactoryFailures    int            `json:"factory_failures"`
	DisposeFailures    int            `json:"dispose_failures"`
	ByState            map[string]int `json:"by_state"`
}

// container implements Container.
type container struct {
	store *lifecycle.Store
	graph *graph.Graph
	coord *lifecycle.Coordinator

	// mu is the structural lock guarding the graph and the failure
	// counters. It is never held while factories or hooks run.
	mu sync.RWMutex

	circularRejections int
	factoryFailures    int
	disposeFailures    int

	logger  logger.Logger
	metrics shared.Metrics
	bus     *events.Bus
}

// NewContainer creates a new service registry.
func NewContainer(config ContainerConfig) Container {
	if config.Logger == nil {
		config.Logger = logger.NewNoopLogger()
	}
	return &container{
		store:   lifecycle.NewStore(),
		graph:   graph.New(),
		coord:   lifecycle.NewCoordinator(),
		logger:  config.Logger,
		metrics: config.Metrics,
		bus:     config.Bus,
	}
}

func (c *container) Register(name string, factory Factory, opts ...RegisterOption) error {
	if name == "" {
		return errors.ErrEmptyKey
	}
	if factory == nil {
		return errors.ErrNilFactory
	}

	options := defaultRegisterOptions()
	for _, opt := range opts {
		opt(&options)
	}
	for _, dep := range options.dependencies {
		if dep == name {
			return errors.NewEntryError(name, "register", errors.ErrSelfDepend)
		}
	}

	c.mu.Lock()
	isNew := !c.graph.Has(name)
	c.graph.Add(name, options.priority)
	for _, dep := range options.dependencies {
		if !c.graph.Has(dep) {
			// Forward declaration: the dependency may register later.
			c.graph.Add(dep, 0)
		}
	}

	if err := c.graph.SetDependencies(name, options.dependencies); err != nil {
		// Rejected atomically: no edge was added, and a node created only
		// for this registration is removed again.
		if isNew {
			c.graph.Remove(name)
		}
		c.circularRejections++
		c.mu.Unlock()

		c.logger.Warn("service registration rejected",
			logger.String("service", name),
			logger.Error(err),
		)
		if c.metrics != nil {
			c.metrics.Counter("anchor.di.circular_rejections").Inc()
		}
		return err
	}
	c.mu.Unlock()

	entry := &lifecycle.Entry{
		Key:          name,
		Kind:         lifecycle.KindService,
		Dependencies: options.dependencies,
		Singleton:    options.singleton,
		Factory:      c.adaptFactory(factory),
		OnInitialize: options.onInitialize,
		OnDispose:    options.onDispose,
		Priority:     options.priority,
	}

	prev, replaced := c.store.Put(entry)
	if replaced {
		// Replace wins by design; the old value is not disposed here. The
		// event lets callers observe the hazard.
		c.publish(events.NewEvent(name, lifecycle.KindService.String(),
			prev.State().String(), lifecycle.StateRegistered.String()).
			WithReason(events.ReasonReplaced))
	} else {
		c.publish(events.NewEvent(name, lifecycle.KindService.String(),
			"", lifecycle.StateRegistered.String()))
	}

	c.logger.Debug("service registered",
		logger.String("service", name),
		logger.Bool("singleton", options.singleton),
		logger.Strings("dependencies", options.dependencies),
		logger.Bool("replaced", replaced),
	)
	if c.metrics != nil {
		c.metrics.Counter("anchor.di.services_registered").Inc()
		c.metrics.Gauge("anchor.di.services_count").Set(float64(c.store.Len()))
	}
	return nil
}

func (c *container) RegisterValue(name string, value any, opts ...RegisterOption) error {
	return c.Register(name, func(context.Context, Container) (any, error) {
		return value, nil
	}, append(opts, Singleton())...)
}

func (c *container) Resolve(ctx context.Context, name string) (any, error) {
	entry, ok := c.store.Get(name)
	if !ok {
		return nil, errors.ErrNotRegistered(name)
	}

	if !entry.Singleton {
		value, err := entry.Factory(ctx)
		if err != nil {
			c.recordFactoryFailure()
			return nil, errors.ErrFactoryError(name, err)
		}
		entry.Touch()
		return value, nil
	}

	value, err := c.initialize(ctx, name)
	if err != nil {
		return nil, err
	}
	entry.Touch()
	return value, nil
}

func (c *container) Has(name string) bool {
	_, ok := c.store.Get(name)
	return ok
}

func (c *container) IsInitialized(name string) bool {
	entry, ok := c.store.Get(name)
	return ok && entry.State() == lifecycle.StateInitialized
}

func (c *container) Unregister(name string) {
	if _, ok := c.store.Remove(name); !ok {
		return
	}

	c.mu.Lock()
	if len(c.graph.DependentsOf(name)) > 0 {
		// Keep a placeholder node so dependents retain their declared edge;
		// the key may be re-registered later.
		_ = c.graph.SetDependencies(name, nil)
	} else {
		c.graph.Remove(name)
	}
	c.mu.Unlock()

	c.logger.Debug("service unregistered", logger.String("service", name))
	if c.metrics != nil {
		c.metrics.Gauge("anchor.di.services_count").Set(float64(c.store.Len()))
	}
}

func (c *container) Start(ctx context.Context) error {
	c.mu.RLock()
	order := c.graph.TopologicalOrder()
	c.mu.RUnlock()

	c.logger.Info("initializing services",
		logger.Int("count", c.store.Len()),
		logger.Strings("order", order),
	)

	for _, name := range order {
		entry, ok := c.store.Get(name)
		if !ok || !entry.Singleton {
			continue
		}
		if _, err := c.initialize(ctx, name); err != nil {
			c.logger.Error("service initialization failed, aborting",
				logger.String("service", name),
				logger.Error(err),
			)
			return errors.NewEntryError(name, "initialize", err)
		}
	}

	c.logger.Info("all services initialized")
	return nil
}

func (c *container) Stop(ctx context.Context) error {
	c.mu.RLock()
	order := c.graph.TopologicalOrder()
	c.mu.RUnlock()

	// Reverse dependency order: dependents dispose before dependencies.
	for i := len(order) - 1; i >= 0; i-- {
		name := order[i]
		entry, ok := c.store.Get(name)
		if !ok || entry.State() != lifecycle.StateInitialized {
			continue
		}
		if err := c.disposeEntry(ctx, entry); err != nil {
			c.logger.Error("service dispose hook failed, continuing",
				logger.String("service", name),
				logger.Error(err),
			)
		}
	}

	c.logger.Info("all services disposed")
	return nil
}

func (c *container) Services() []string {
	return c.store.Keys()
}

func (c *container) Stats() ContainerStats {
	c.mu.RLock()
	stats := ContainerStats{
		CircularRejections: c.circularRejections,
		FactoryFailures:    c.factoryFailures,
		DisposeFailures:    c.disposeFailures,
		ByState:            make(map[string]int),
	}
	c.mu.RUnlock()

	for _, entry := range c.store.Snapshot() {
		stats.Registered++
		if entry.Singleton {
			stats.Singletons++
		} else {
			stats.Transients++
		}
		state := entry.State()
		if state == lifecycle.StateInitialized {
			stats.Initialized++
		}
		stats.ByState[state.String()]++
	}
	return stats
}

func (c *container) Reset() {
	for _, name := range c.store.Keys() {
		c.store.Remove(name)
	}
	c.mu.Lock()
	c.graph = graph.New()
	c.circularRejections = 0
	c.factoryFailures = 0
	c.disposeFailures = 0
	c.mu.Unlock()
}

// initialize brings one singleton (and its dependency closure) to
// initialized, running each factory exactly once even under concurrent
// resolution.
func (c *container) initialize(ctx context.Context, name string) (any, error) {
	return c.coord.Do(ctx, name, func() (any, error) {
		entry, ok := c.store.Get(name)
		if !ok {
			return nil, errors.ErrNotRegistered(name)
		}
		if entry.State() == lifecycle.StateInitialized {
			if value, has := entry.Value(); has {
				return value, nil
			}
		}

		// Ancestors first: walk the dependency closure in topological order.
		c.mu.RLock()
		order := c.graph.TopologicalOrder(name)
		c.mu.RUnlock()

		for _, dep := range order {
			if dep == name {
				continue
			}
			depEntry, registered := c.store.Get(dep)
			if !registered {
				return nil, errors.NewEntryError(name, "resolve", errors.ErrNotRegistered(dep))
			}
			if !depEntry.Singleton {
				continue
			}
			if _, err := c.initialize(ctx, dep); err != nil {
				return nil, err
			}
		}

		return c.construct(ctx, entry)
	})
}

// construct runs the factory and hooks for one entry. No structural lock is
// held while user code executes; failures leave the entry failed so the
// next resolve retries from scratch.
func (c *container) construct(ctx context.Context, entry *lifecycle.Entry) (any, error) {
	old, err := entry.Transition(lifecycle.StateInitializing)
	if err != nil {
		return nil, err
	}
	c.publish(events.NewEvent(entry.Key, entry.Kind.String(),
		old.String(), lifecycle.StateInitializing.String()))

	value, ferr := entry.Factory(ctx)
	if ferr == nil && entry.OnInitialize != nil {
		ferr = entry.OnInitialize(ctx, value)
	}

	if ferr != nil {
		prev, _ := entry.Transition(lifecycle.StateFailed)
		c.publish(events.NewEvent(entry.Key, entry.Kind.String(),
			prev.String(), lifecycle.StateFailed.String()))
		c.recordFactoryFailure()
		return nil, errors.ErrFactoryError(entry.Key, ferr)
	}

	entry.SetValue(value)
	prev, _ := entry.Transition(lifecycle.StateInitialized)
	c.publish(events.NewEvent(entry.Key, entry.Kind.String(),
		prev.String(), lifecycle.StateInitialized.String()))

	c.logger.Debug("service initialized", logger.String("service", entry.Key))
	if c.metrics != nil {
		c.metrics.Counter("anchor.di.services_initialized").Inc()
	}
	return value, nil
}

// disposeEntry disposes one initialized singleton. The entry ends disposed
// even when the hook fails, with the value cleared and the registration
// revived for reuse.
func (c *container) disposeEntry(ctx context.Context, entry *lifecycle.Entry) error {
	old, err := entry.Transition(lifecycle.StateDisposing)
	if err != nil {
		return nil
	}
	c.publish(events.NewEvent(entry.Key, entry.Kind.String(),
		old.String(), lifecycle.StateDisposing.String()))

	var hookErr error
	if entry.OnDispose != nil {
		value, _ := entry.Value()
		hookErr = entry.OnDispose(ctx, value)
	}
	if hookErr != nil {
		c.mu.Lock()
		c.disposeFailures++
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.Counter("anchor.di.dispose_failures").Inc()
		}
	}

	entry.ClearValue()
	prev, _ := entry.Transition(lifecycle.StateDisposed)
	c.publish(events.NewEvent(entry.Key, entry.Kind.String(),
		prev.String(), lifecycle.StateDisposed.String()))

	// The registration survives disposal with a fresh lifecycle so a later
	// resolve re-runs the factory.
	entry.Revive()

	if c.metrics != nil {
		c.metrics.Counter("anchor.di.services_disposed").Inc()
	}
	return hookErr
}

// adaptFactory binds the container reference into the stored factory.
func (c *container) adaptFactory(factory Factory) lifecycle.Factory {
	return func(ctx context.Context) (any, error) {
		return factory(ctx, c)
	}
}

func (c *container) recordFactoryFailure() {
	c.mu.Lock()
	c.factoryFailures++
	c.mu.Unlock()
	if c.metrics != nil {
		c.metrics.Counter("anchor.di.factory_failures").Inc()
	}
}

func (c *container) publish(event *events.Event) {
	if c.bus != nil {
		c.bus.Publish(event)
	}
}
