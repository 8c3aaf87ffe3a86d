package resource

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/anchor/internal/errors"
	"github.com/xraph/anchor/internal/events"
	"github.com/xraph/anchor/internal/graph"
	"github.com/xraph/anchor/internal/lifecycle"
	"github.com/xraph/anchor/internal/logger"
	"github.com/xraph/anchor/internal/shared"
)

// Manager tracks arbitrary runtime resources: keyed values with a dispose
// hook, optional TTL, and dependency edges shared with the same graph
// semantics the service registry uses. Disposing a resource cascades to its
// dependents first.
type Manager interface {
	// Register admits a live resource under name. The resource is
	// initialized immediately; a name collision replaces the prior
	// registration without disposing it. The entry becomes visible to Get
	// as soon as it is admitted, so a concurrent Get racing a slow init
	// hook can observe the entry before it holds a value and fail.
	Register(ctx context.Context, name string, value any, dispose lifecycle.Hook, opts ...Option) error

	// Get returns the resource value. Expired resources are not returned.
	Get(name string) (any, error)

	// Has reports whether name is registered.
	Has(name string) bool

	// AddDependency records that dependent relies on dependency. Edges
	// that would close a cycle are rejected.
	AddDependency(dependent, dependency string) error

	// Dispose removes name and every transitive dependent, dependents
	// first. The cascade always runs to completion; the first hook failure
	// is returned after it finishes. Disposing an unknown name is a no-op.
	Dispose(ctx context.Context, name string) error

	// DisposeGroup disposes every resource in group, highest priority
	// first. Best-effort: failures are logged and counted.
	DisposeGroup(ctx context.Context, group string) int

	// DisposeTag disposes every resource carrying tag, highest priority
	// first. Best-effort.
	DisposeTag(ctx context.Context, tag string) int

	// DisposeAll disposes every resource in reverse dependency order.
	// Best-effort.
	DisposeAll(ctx context.Context) int

	// RegisterTimer registers a ticker resource invoking tick every
	// interval until the resource is disposed.
	RegisterTimer(ctx context.Context, name string, interval time.Duration, tick func(time.Time), opts ...Option) error

	// RegisterStream registers a producer goroutine feeding a channel
	// until the resource is disposed.
	RegisterStream(ctx context.Context, name string, buffer int, produce func(ctx context.Context, out chan<- any), opts ...Option) (*Stream, error)

	// IsExpired reports whether name's TTL has elapsed.
	IsExpired(name string) (bool, error)

	// Sweep disposes every expired auto-dispose resource and returns how
	// many were swept.
	Sweep(ctx context.Context) int

	// Resources returns the registered names in registration order.
	Resources() []string

	// Stats returns manager statistics.
	Stats() ManagerStats
}

// ManagerConfig contains construction options for the manager.
type ManagerConfig struct {
	Logger  logger.Logger
	Metrics shared.Metrics
	Bus     *events.Bus
}

// ManagerStats contains statistics about the manager.
type ManagerStats struct {
	Registered      int            `json:"registered"`
	TotalRegistered int            `json:"total_registered"`
	Disposed        int            `json:"disposed"`
	Swept           int            `json:"swept"`
	DisposeFailures int            `json:"dispose_failures"`
	ByGroup         map[string]int `json:"by_group"`
	ByPriority      map[int]int    `json:"by_priority"`
	ByState         map[string]int `json:"by_state"`
}

type manager struct {
	store *lifecycle.Store
	graph *graph.Graph

	mu              sync.RWMutex
	disposed        int
	swept           int
	disposeFailures int

	logger  logger.Logger
	metrics shared.Metrics
	bus     *events.Bus
}

// NewManager creates a new resource manager.
func NewManager(config ManagerConfig) Manager {
	if config.Logger == nil {
		config.Logger = logger.NewNoopLogger()
	}
	return &manager{
		store:   lifecycle.NewStore(),
		graph:   graph.New(),
		logger:  config.Logger,
		metrics: config.Metrics,
		bus:     config.Bus,
	}
}

func (m *manager) Register(ctx context.Context, name string, value any, dispose lifecycle.Hook, opts ...Option) error {
	if name == "" {
		return errors.ErrEmptyKey
	}

	options := defaultResourceOptions()
	for _, opt := range opts {
		opt(&options)
	}
	for _, dep := range options.dependencies {
		if dep == name {
			return errors.NewEntryError(name, "register", errors.ErrSelfDepend)
		}
	}

	m.mu.Lock()
	isNew := !m.graph.Has(name)
	m.graph.Add(name, options.priority)
	for _, dep := range options.dependencies {
		if !m.graph.Has(dep) {
			m.graph.Add(dep, 0)
		}
	}
	if err := m.graph.SetDependencies(name, options.dependencies); err != nil {
		if isNew {
			m.graph.Remove(name)
		}
		m.mu.Unlock()
		return err
	}
	m.mu.Unlock()

	entry := &lifecycle.Entry{
		Key:          name,
		Kind:         lifecycle.KindResource,
		Dependencies: options.dependencies,
		Singleton:    true,
		OnInitialize: options.onInitialize,
		OnDispose:    dispose,
		Priority:     options.priority,
		Tags:         options.tags,
		Group:        options.group,
		MaxLifetime:  options.maxLifetime,
		AutoDispose:  options.autoDispose,
	}

	prev, replaced := m.store.Put(entry)
	if replaced {
		m.publish(events.NewEvent(name, lifecycle.KindResource.String(),
			prev.State().String(), lifecycle.StateRegistered.String()).
			WithReason(events.ReasonReplaced))
	}

	// Resources arrive live: run the init hook and settle the entry
	// immediately.
	old, err := entry.Transition(lifecycle.StateInitializing)
	if err != nil {
		return err
	}
	m.publish(events.NewEvent(name, lifecycle.KindResource.String(),
		old.String(), lifecycle.StateInitializing.String()))

	if options.onInitialize != nil {
		if herr := options.onInitialize(ctx, value); herr != nil {
			prevState, _ := entry.Transition(lifecycle.StateFailed)
			m.publish(events.NewEvent(name, lifecycle.KindResource.String(),
				prevState.String(), lifecycle.StateFailed.String()))
			m.store.Remove(name)
			m.detachNode(name)
			return errors.ErrLifecycleError(name, herr)
		}
	}

	entry.SetValue(value)
	prevState, _ := entry.Transition(lifecycle.StateInitialized)
	m.publish(events.NewEvent(name, lifecycle.KindResource.String(),
		prevState.String(), lifecycle.StateInitialized.String()))

	m.logger.Debug("resource registered",
		logger.String("resource", name),
		logger.String("group", options.group),
		logger.Duration("max_lifetime", options.maxLifetime),
	)
	if m.metrics != nil {
		m.metrics.Counter("anchor.resources_registered").Inc()
		m.metrics.Gauge("anchor.resources_count").Set(float64(m.store.Len()))
	}
	return nil
}

func (m *manager) Get(name string) (any, error) {
	entry, ok := m.store.Get(name)
	if !ok {
		return nil, errors.ErrNotRegistered(name)
	}
	if now := time.Now(); entry.Expired(now) {
		return nil, errors.ErrResourceExpired(name, entry.Age(now))
	}
	value, has := entry.Value()
	if !has {
		return nil, errors.ErrLifecycleError(name, errors.New("resource has no value"))
	}
	entry.Touch()
	return value, nil
}

func (m *manager) Has(name string) bool {
	_, ok := m.store.Get(name)
	return ok
}

func (m *manager) AddDependency(dependent, dependency string) error {
	if _, ok := m.store.Get(dependent); !ok {
		return errors.ErrNotRegistered(dependent)
	}
	if _, ok := m.store.Get(dependency); !ok {
		return errors.ErrNotRegistered(dependency)
	}
	if dependent == dependency {
		return errors.NewEntryError(dependent, "add-dependency", errors.ErrSelfDepend)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.graph.AddEdge(dependent, dependency)
}

func (m *manager) Dispose(ctx context.Context, name string) error {
	if _, ok := m.store.Get(name); !ok {
		return nil
	}

	m.mu.RLock()
	order := m.graph.DisposalOrder(name)
	m.mu.RUnlock()

	var first error
	for _, key := range order {
		if err := m.disposeOne(ctx, key, ""); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *manager) DisposeGroup(ctx context.Context, group string) int {
	return m.disposeBatch(ctx, m.store.ByGroup(group))
}

func (m *manager) DisposeTag(ctx context.Context, tag string) int {
	return m.disposeBatch(ctx, m.store.ByTag(tag))
}

func (m *manager) DisposeAll(ctx context.Context) int {
	m.mu.RLock()
	order := m.graph.TopologicalOrder()
	m.mu.RUnlock()

	count := 0
	for i := len(order) - 1; i >= 0; i-- {
		if _, ok := m.store.Get(order[i]); !ok {
			continue
		}
		if err := m.disposeOne(ctx, order[i], ""); err != nil {
			m.logger.Error("resource dispose failed, continuing",
				logger.String("resource", order[i]),
				logger.Error(err),
			)
		}
		count++
	}
	return count
}

// Timer is the value held by a RegisterTimer resource.
type Timer struct {
	stop chan struct{}
	done chan struct{}
}

func (m *manager) RegisterTimer(ctx context.Context, name string, interval time.Duration, tick func(time.Time), opts ...Option) error {
	if interval <= 0 {
		return errors.ErrInvalidConfig("interval", errors.New("timer interval must be positive"))
	}

	timer := &Timer{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(timer.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case t := <-ticker.C:
				tick(t)
			case <-timer.stop:
				return
			}
		}
	}()

	dispose := func(context.Context, any) error {
		close(timer.stop)
		<-timer.done
		return nil
	}
	if err := m.Register(ctx, name, timer, dispose, opts...); err != nil {
		close(timer.stop)
		<-timer.done
		return err
	}
	return nil
}

// Stream is the value held by a RegisterStream resource. C delivers
// produced items and closes when the resource is disposed.
type Stream struct {
	C <-chan any

	cancel context.CancelFunc
	done   chan struct{}
}

func (m *manager) RegisterStream(ctx context.Context, name string, buffer int, produce func(ctx context.Context, out chan<- any), opts ...Option) (*Stream, error) {
	streamCtx, cancel := context.WithCancel(context.Background())
	out := make(chan any, buffer)
	stream := &Stream{
		C:      out,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(stream.done)
		defer close(out)
		produce(streamCtx, out)
	}()

	dispose := func(context.Context, any) error {
		cancel()
		<-stream.done
		return nil
	}
	if err := m.Register(ctx, name, stream, dispose, opts...); err != nil {
		cancel()
		<-stream.done
		return nil, err
	}
	return stream, nil
}

func (m *manager) IsExpired(name string) (bool, error) {
	entry, ok := m.store.Get(name)
	if !ok {
		return false, errors.ErrNotRegistered(name)
	}
	return entry.Expired(time.Now()), nil
}

func (m *manager) Sweep(ctx context.Context) int {
	now := time.Now()
	count := 0
	for _, entry := range m.store.Expired(now) {
		if !entry.AutoDispose {
			continue
		}
		if _, ok := m.store.Get(entry.Key); !ok {
			// Already removed by an earlier cascade in this sweep.
			continue
		}

		m.mu.RLock()
		order := m.graph.DisposalOrder(entry.Key)
		m.mu.RUnlock()

		for _, key := range order {
			if err := m.disposeOne(ctx, key, events.ReasonExpired); err != nil {
				m.logger.Error("expired resource dispose failed, continuing",
					logger.String("resource", key),
					logger.Error(err),
				)
			}
		}
		count++
	}

	if count > 0 {
		m.mu.Lock()
		m.swept += count
		m.mu.Unlock()
		if m.metrics != nil {
			m.metrics.Counter("anchor.resources_swept").Inc()
		}
	}
	return count
}

func (m *manager) Resources() []string {
	return m.store.Keys()
}

func (m *manager) Stats() ManagerStats {
	m.mu.RLock()
	stats := ManagerStats{
		TotalRegistered: m.store.Total(),
		Disposed:        m.disposed,
		Swept:           m.swept,
		DisposeFailures: m.disposeFailures,
		ByGroup:         make(map[string]int),
		ByPriority:      make(map[int]int),
		ByState:         make(map[string]int),
	}
	m.mu.RUnlock()

	for _, entry := range m.store.Snapshot() {
		stats.Registered++
		if entry.Group != "" {
			stats.ByGroup[entry.Group]++
		}
		stats.ByPriority[entry.Priority]++
		stats.ByState[entry.State().String()]++
	}
	return stats
}

// disposeBatch disposes a set of entries highest priority first, cascading
// through dependents of each. Best-effort.
func (m *manager) disposeBatch(ctx context.Context, entries []*lifecycle.Entry) int {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority > entries[j].Priority
		}
		return entries[i].Seq() < entries[j].Seq()
	})

	count := 0
	for _, entry := range entries {
		if _, ok := m.store.Get(entry.Key); !ok {
			continue
		}
		if err := m.Dispose(ctx, entry.Key); err != nil {
			m.logger.Error("resource dispose failed, continuing",
				logger.String("resource", entry.Key),
				logger.Error(err),
			)
		}
		count++
	}
	return count
}

// disposeOne disposes a single resource and removes it from the store and
// graph. The entry ends removed even when the hook fails.
func (m *manager) disposeOne(ctx context.Context, name, reason string) error {
	entry, ok := m.store.Get(name)
	if !ok {
		return nil
	}

	old, err := entry.Transition(lifecycle.StateDisposing)
	if err != nil {
		return nil
	}
	event := events.NewEvent(name, lifecycle.KindResource.String(),
		old.String(), lifecycle.StateDisposing.String())
	if reason != "" {
		event = event.WithReason(reason)
	}
	m.publish(event)

	var hookErr error
	if entry.OnDispose != nil {
		value, _ := entry.Value()
		hookErr = entry.OnDispose(ctx, value)
	}
	if hookErr != nil {
		m.mu.Lock()
		m.disposeFailures++
		m.mu.Unlock()
		hookErr = errors.NewEntryError(name, "dispose", hookErr)
		if m.metrics != nil {
			m.metrics.Counter("anchor.resource_dispose_failures").Inc()
		}
	}

	entry.ClearValue()
	prev, _ := entry.Transition(lifecycle.StateDisposed)
	event = events.NewEvent(name, lifecycle.KindResource.String(),
		prev.String(), lifecycle.StateDisposed.String())
	if reason != "" {
		event = event.WithReason(reason)
	}
	m.publish(event)

	m.store.Remove(name)
	m.detachNode(name)

	m.mu.Lock()
	m.disposed++
	m.mu.Unlock()

	m.logger.Debug("resource disposed", logger.String("resource", name))
	if m.metrics != nil {
		m.metrics.Counter("anchor.resources_disposed").Inc()
		m.metrics.Gauge("anchor.resources_count").Set(float64(m.store.Len()))
	}
	return hookErr
}

// detachNode removes name from the graph, keeping a placeholder when live
// dependents still point at it.
func (m *manager) detachNode(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.graph.DependentsOf(name)) > 0 {
		_ = m.graph.SetDependencies(name, nil)
		return
	}
	m.graph.Remove(name)
}

func (m *manager) publish(event *events.Event) {
	if m.bus != nil {
		m.bus.Publish(event)
	}
}
