package anchor

import (
	"github.com/xraph/anchor/internal/events"
)

// Event describes one lifecycle state change.
type Event = events.Event

// EventBus delivers lifecycle events to subscribers in publish order.
type EventBus = events.Bus

// EventBusConfig contains construction options for an event bus.
type EventBusConfig = events.BusConfig

// EventHandler receives delivered events.
type EventHandler = events.Handler

// EventFilter selects which events a subscription receives.
type EventFilter = events.Filter

// SubscribeOption configures a subscription.
type SubscribeOption = events.SubscribeOption

// Event reasons attached to state changes that have a cause beyond a
// direct API call.
const (
	ReasonExpired  = events.ReasonExpired
	ReasonReplaced = events.ReasonReplaced
)

// DefaultReplaySize is the bound on events retained for late subscribers.
const DefaultReplaySize = events.DefaultReplaySize

// NewEventBus creates an event bus and starts its dispatcher.
func NewEventBus(config EventBusConfig) *EventBus {
	return events.NewBus(config)
}

// NewEvent creates a lifecycle event.
func NewEvent(entityKey, entityKind, oldState, newState string) *Event {
	return events.NewEvent(entityKey, entityKind, oldState, newState)
}

// WithReplay delivers retained past events to the new subscriber before
// live ones.
func WithReplay() SubscribeOption {
	return events.WithReplay()
}

// AllEvents matches every event.
func AllEvents() EventFilter {
	return events.All()
}

// KeyFilter matches events for the given entity keys.
func KeyFilter(keys ...string) EventFilter {
	return events.KeyFilter(keys...)
}

// KindFilter matches events for one entity kind.
func KindFilter(kind string) EventFilter {
	return events.KindFilter(kind)
}

// StateFilter matches events entering one of the given states.
func StateFilter(newStates ...string) EventFilter {
	return events.StateFilter(newStates...)
}

// ReasonFilter matches events carrying one of the given reasons.
func ReasonFilter(reasons ...string) EventFilter {
	return events.ReasonFilter(reasons...)
}

// CombineFilters matches events passing every given filter.
func CombineFilters(filters ...EventFilter) EventFilter {
	return events.CombineFilters(filters...)
}
