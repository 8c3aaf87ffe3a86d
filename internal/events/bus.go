package events

import (
	"sync"

	"github.com/xraph/anchor/internal/logger"
	"github.com/xraph/anchor/internal/shared"
)

// Handler consumes lifecycle events.
type Handler func(event *Event)

// DefaultReplaySize bounds the late-subscriber replay buffer.
const DefaultReplaySize = 256

// Bus is the lifecycle event emitter. Publishing never blocks and never
// fails the lifecycle operation that triggered it: events are appended to
// an ordered queue and delivered by a single dispatcher goroutine, so a
// slow or panicking subscriber cannot delay initialization or disposal.
//
// While paused, delivery stops but publishing continues to queue; Resume
// flushes the queue in original order. Already-delivered events are retained
// in a bounded replay buffer for late subscribers.
type Bus struct {
	mu        sync.Mutex
	queue     []queueItem
	subs      map[int]*subscription
	nextSub   int
	replay    []*Event
	maxReplay int
	paused    bool
	closed    bool

	notify chan struct{}
	done   chan struct{}

	logger  logger.Logger
	metrics shared.Metrics
}

type subscription struct {
	id      int
	filter  Filter
	handler Handler
}

// queueItem carries one event; target routes replayed history to a single
// late subscriber without re-delivering it to everyone else.
type queueItem struct {
	event  *Event
	target int // -1 broadcasts to all subscriptions
}

// BusConfig configures the event bus.
type BusConfig struct {
	ReplaySize int `yaml:"replay_size" json:"replay_size"`

	Logger  logger.Logger  `yaml:"-" json:"-"`
	Metrics shared.Metrics `yaml:"-" json:"-"`
}

// NewBus creates and starts an event bus.
func NewBus(config BusConfig) *Bus {
	if config.Logger == nil {
		config.Logger = logger.NewNoopLogger()
	}
	if config.ReplaySize <= 0 {
		config.ReplaySize = DefaultReplaySize
	}

	b := &Bus{
		subs:      make(map[int]*subscription),
		maxReplay: config.ReplaySize,
		notify:    make(chan struct{}, 1),
		done:      make(chan struct{}),
		logger:    config.Logger,
		metrics:   config.Metrics,
	}
	go b.dispatch()
	return b
}

// SubscribeOption configures a subscription.
type SubscribeOption func(*subscribeOptions)

type subscribeOptions struct {
	replay bool
}

// WithReplay delivers the retained event history to the new subscriber
// before any live events.
func WithReplay() SubscribeOption {
	return func(o *subscribeOptions) {
		o.replay = true
	}
}

// Subscribe registers a handler for events matching filter and returns the
// subscription id. A nil filter matches everything.
func (b *Bus) Subscribe(filter Filter, handler Handler, opts ...SubscribeOption) int {
	var options subscribeOptions
	for _, opt := range opts {
		opt(&options)
	}
	if filter == nil {
		filter = All()
	}

	b.mu.Lock()
	b.nextSub++
	id := b.nextSub
	b.subs[id] = &subscription{id: id, filter: filter, handler: handler}

	if options.replay && len(b.replay) > 0 {
		// Prepend targeted history so the new subscriber observes replayed
		// events before anything still waiting in the queue.
		items := make([]queueItem, 0, len(b.replay)+len(b.queue))
		for _, event := range b.replay {
			items = append(items, queueItem{event: event, target: id})
		}
		b.queue = append(items, b.queue...)
	}

	if b.metrics != nil {
		b.metrics.Gauge("anchor.events.subscribers").Set(float64(len(b.subs)))
	}
	b.mu.Unlock()

	b.wake()
	return id
}

// Unsubscribe removes a subscription. Unknown ids are a no-op.
func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	delete(b.subs, id)
	if b.metrics != nil {
		b.metrics.Gauge("anchor.events.subscribers").Set(float64(len(b.subs)))
	}
	b.mu.Unlock()
}

// Publish queues an event for delivery. It never blocks; publishing on a
// closed bus drops the event with a warning.
func (b *Bus) Publish(event *Event) {
	if event == nil {
		return
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		b.logger.Warn("event dropped, bus closed",
			logger.String("entity_key", event.EntityKey),
			logger.String("new_state", event.NewState),
		)
		return
	}
	b.queue = append(b.queue, queueItem{event: event, target: -1})
	if b.metrics != nil {
		b.metrics.Counter("anchor.events.published").Inc()
	}
	b.mu.Unlock()

	b.wake()
}

// Pause stops delivery. Events published while paused are queued in order.
func (b *Bus) Pause() {
	b.mu.Lock()
	b.paused = true
	b.mu.Unlock()
}

// Resume restarts delivery, flushing queued events in original order.
func (b *Bus) Resume() {
	b.mu.Lock()
	b.paused = false
	b.mu.Unlock()
	b.wake()
}

// Paused reports whether delivery is currently paused.
func (b *Bus) Paused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paused
}

// Pending returns the number of undelivered events.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Close drains the queue and stops the dispatcher. The bus cannot be reused.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.paused = false
	b.mu.Unlock()

	b.wake()
	<-b.done
}

// wake signals the dispatcher without ever blocking the publisher.
func (b *Bus) wake() {
	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// dispatch is the single delivery goroutine; one consumer preserves the
// total publish order across all subscribers.
func (b *Bus) dispatch() {
	defer close(b.done)

	for {
		<-b.notify

		for {
			b.mu.Lock()
			if b.paused || len(b.queue) == 0 {
				closed := b.closed
				empty := len(b.queue) == 0
				b.mu.Unlock()
				if closed && empty {
					return
				}
				break
			}

			item := b.queue[0]
			b.queue = b.queue[1:]

			var targets []*subscription
			for _, sub := range b.subs {
				if item.target >= 0 && sub.id != item.target {
					continue
				}
				if sub.filter(item.event) {
					targets = append(targets, sub)
				}
			}

			// Broadcast events enter the replay buffer once they are
			// handed to delivery; targeted items are themselves replays.
			if item.target < 0 {
				b.replay = append(b.replay, item.event)
				if len(b.replay) > b.maxReplay {
					b.replay = b.replay[len(b.replay)-b.maxReplay:]
				}
			}
			b.mu.Unlock()

			for _, sub := range targets {
				b.deliver(sub, item.event)
			}
			if b.metrics != nil {
				b.metrics.Counter("anchor.events.delivered").Inc()
			}
		}
	}
}

// deliver invokes one handler, containing panics so a broken subscriber
// cannot take down the dispatcher.
func (b *Bus) deliver(sub *subscription, event *Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				logger.Int("subscription", sub.id),
				logger.String("entity_key", event.EntityKey),
				logger.Any("panic", r),
			)
			if b.metrics != nil {
				b.metrics.Counter("anchor.events.handler_panics").Inc()
			}
		}
	}()
	sub.handler(event)
}
