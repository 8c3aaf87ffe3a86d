package events

import (
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
)

// Reasons attached to lifecycle events.
const (
	// ReasonExpired marks a disposal triggered by the expiry sweeper.
	ReasonExpired = "expired"

	// ReasonReplaced marks an entry silently discarded by re-registration.
	ReasonReplaced = "replaced"
)

// Event describes one lifecycle transition of a managed entry. Events are
// emitted after the state mutation is committed, never before.
type Event struct {
	// ID is the unique identifier for the event
	ID string `json:"id"`

	// EntityKey is the key of the entry that transitioned
	EntityKey string `json:"entity_key"`

	// EntityKind is the flavor of the entry (service or resource)
	EntityKind string `json:"entity_kind"`

	// OldState is the state before the transition
	OldState string `json:"old_state"`

	// NewState is the state after the transition
	NewState string `json:"new_state"`

	// Reason optionally explains why the transition happened
	Reason string `json:"reason,omitempty"`

	// Timestamp when the transition committed
	Timestamp time.Time `json:"timestamp"`

	// Metadata contains additional event information
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewEvent creates a lifecycle event for one committed transition.
func NewEvent(entityKey, entityKind, oldState, newState string) *Event {
	return &Event{
		ID:         uuid.New().String(),
		EntityKey:  entityKey,
		EntityKind: entityKind,
		OldState:   oldState,
		NewState:   newState,
		Timestamp:  time.Now().UTC(),
	}
}

// WithReason sets the transition reason.
func (e *Event) WithReason(reason string) *Event {
	e.Reason = reason
	return e
}

// WithMetadata adds metadata to the event.
func (e *Event) WithMetadata(key string, value any) *Event {
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}
	e.Metadata[key] = value
	return e
}

// GetMetadata retrieves metadata by key.
func (e *Event) GetMetadata(key string) (any, bool) {
	if e.Metadata == nil {
		return nil, false
	}
	value, exists := e.Metadata[key]
	return value, exists
}

// Clone creates a copy of the event with its own metadata map.
func (e *Event) Clone() *Event {
	clone := *e
	if e.Metadata != nil {
		clone.Metadata = make(map[string]any, len(e.Metadata))
		maps.Copy(clone.Metadata, e.Metadata)
	}
	return &clone
}

// String returns a string representation of the event.
func (e *Event) String() string {
	return fmt.Sprintf("Event{Key: %s, Kind: %s, %s -> %s}",
		e.EntityKey, e.EntityKind, e.OldState, e.NewState)
}

// Filter selects the events a subscriber receives.
type Filter func(event *Event) bool

// All matches every event.
func All() Filter {
	return func(*Event) bool { return true }
}

// KeyFilter creates a filter for specific entity keys.
func KeyFilter(keys ...string) Filter {
	keyMap := make(map[string]bool)
	for _, key := range keys {
		keyMap[key] = true
	}
	return func(event *Event) bool {
		return keyMap[event.EntityKey]
	}
}

// KindFilter creates a filter for a specific entity kind.
func KindFilter(kind string) Filter {
	return func(event *Event) bool {
		return event.EntityKind == kind
	}
}

// StateFilter creates a filter matching transitions into specific states.
func StateFilter(newStates ...string) Filter {
	stateMap := make(map[string]bool)
	for _, state := range newStates {
		stateMap[state] = true
	}
	return func(event *Event) bool {
		return stateMap[event.NewState]
	}
}

// ReasonFilter creates a filter for specific transition reasons.
func ReasonFilter(reasons ...string) Filter {
	reasonMap := make(map[string]bool)
	for _, reason := range reasons {
		reasonMap[reason] = true
	}
	return func(event *Event) bool {
		return reasonMap[event.Reason]
	}
}

// CombineFilters combines multiple filters with AND logic.
func CombineFilters(filters ...Filter) Filter {
	return func(event *Event) bool {
		for _, filter := range filters {
			if !filter(event) {
				return false
			}
		}
		return true
	}
}
