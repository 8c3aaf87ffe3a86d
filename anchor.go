package anchor

import (
	"context"
	"time"

	"github.com/xraph/anchor/internal/di"
	"github.com/xraph/anchor/internal/events"
	"github.com/xraph/anchor/internal/logger"
	"github.com/xraph/anchor/internal/resource"
	"github.com/xraph/anchor/internal/shared"
)

// Container is the service registry.
type Container = di.Container

// Factory creates a service instance.
type Factory = di.Factory

// ContainerStats contains statistics about a container.
type ContainerStats = di.ContainerStats

// ResourceManager tracks keyed runtime resources with dispose hooks, TTLs,
// and dependency edges.
type ResourceManager = resource.Manager

// ResourceStats contains statistics about a resource manager.
type ResourceStats = resource.ManagerStats

// Timer is the value held by a timer resource.
type Timer = resource.Timer

// Stream is the value held by a stream resource.
type Stream = resource.Stream

// Sweeper periodically disposes expired resources.
type Sweeper = resource.Sweeper

// Option configures container and manager construction.
type Option func(*buildOptions)

type buildOptions struct {
	logger  logger.Logger
	metrics shared.Metrics
	bus     *events.Bus
}

// WithLogger sets the structured logger.
func WithLogger(l Logger) Option {
	return func(o *buildOptions) {
		o.logger = l
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m Metrics) Option {
	return func(o *buildOptions) {
		o.metrics = m
	}
}

// WithEventBus routes lifecycle events to bus.
func WithEventBus(bus *EventBus) Option {
	return func(o *buildOptions) {
		o.bus = bus
	}
}

func applyOptions(opts []Option) buildOptions {
	var options buildOptions
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// NewContainer creates a standalone service registry.
func NewContainer(opts ...Option) Container {
	options := applyOptions(opts)
	return di.NewContainer(di.ContainerConfig{
		Logger:  options.logger,
		Metrics: options.metrics,
		Bus:     options.bus,
	})
}

// NewResourceManager creates a standalone resource manager.
func NewResourceManager(opts ...Option) ResourceManager {
	options := applyOptions(opts)
	return resource.NewManager(resource.ManagerConfig{
		Logger:  options.logger,
		Metrics: options.metrics,
		Bus:     options.bus,
	})
}

// NewSweeper creates a sweeper for manager.
func NewSweeper(manager ResourceManager, interval time.Duration, log Logger) *Sweeper {
	return resource.NewSweeper(manager, interval, log)
}

// Anchor bundles a container, a resource manager, an event bus, and a
// sweeper behind one lifecycle.
type Anchor struct {
	config Config

	Services  Container
	Resources ResourceManager
	Events    *EventBus

	sweeper *Sweeper
	logger  logger.Logger
}

// New builds an Anchor from config. Call Start to initialize services and
// begin sweeping, Stop to tear everything down.
func New(config Config, opts ...Option) (*Anchor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	options := applyOptions(opts)

	log := options.logger
	if log == nil {
		var err error
		log, err = config.BuildLogger()
		if err != nil {
			return nil, err
		}
	}

	bus := options.bus
	if bus == nil {
		bus = NewEventBus(EventBusConfig{
			ReplaySize: config.EventReplaySize,
			Logger:     log,
			Metrics:    options.metrics,
		})
	}

	services := di.NewContainer(di.ContainerConfig{
		Logger:  log,
		Metrics: options.metrics,
		Bus:     bus,
	})
	resources := resource.NewManager(resource.ManagerConfig{
		Logger:  log,
		Metrics: options.metrics,
		Bus:     bus,
	})

	return &Anchor{
		config:    config,
		Services:  services,
		Resources: resources,
		Events:    bus,
		sweeper:   resource.NewSweeper(resources, config.SweepInterval, log),
		logger:    log,
	}, nil
}

// Start initializes every registered service in dependency order and
// launches the expiry sweeper. The first service failure aborts startup.
func (a *Anchor) Start(ctx context.Context) error {
	if err := a.Services.Start(ctx); err != nil {
		return err
	}
	// The sweeper outlives the startup call: its lifetime is bound to
	// Stop, not to ctx.
	a.sweeper.Start(context.WithoutCancel(ctx))
	a.logger.Info("anchor started")
	return nil
}

// Stop halts the sweeper, disposes all resources, disposes all services in
// reverse dependency order, and closes the event bus. Best-effort.
func (a *Anchor) Stop(ctx context.Context) error {
	a.sweeper.Stop()
	a.Resources.DisposeAll(ctx)
	_ = a.Services.Stop(ctx)
	a.Events.Close()
	a.logger.Info("anchor stopped")
	return nil
}
