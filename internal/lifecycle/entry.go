package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/xraph/anchor/internal/errors"
)

// Factory produces the value of a service entry.
type Factory func(ctx context.Context) (any, error)

// Hook is an asynchronous lifecycle callback. Hooks receive the entry value
// and run without any registry lock held.
type Hook func(ctx context.Context, value any) error

// Entry is the unit of management: a keyed record holding lifecycle state,
// value or factory, dependency list, and metadata. The registry owns all
// entries; callers interact with them only through the registry API.
type Entry struct {
	Key          string
	Kind         Kind
	Dependencies []string
	Singleton    bool
	Factory      Factory
	OnInitialize Hook
	OnDispose    Hook
	Priority     int
	Tags         map[string]struct{}
	Group        string
	MaxLifetime  time.Duration
	AutoDispose  bool

	seq            int
	mu             sync.RWMutex
	state          State
	value          any
	hasValue       bool
	createdAt      time.Time
	lastAccessedAt time.Time
	initializedAt  time.Time
}

// Seq returns the registration sequence number assigned by the store.
func (e *Entry) Seq() int {
	return e.seq
}

// State returns the current lifecycle state.
func (e *Entry) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Transition atomically moves the entry to next, returning the previous
// state. Illegal moves fail with an INVALID_TRANSITION error and leave the
// entry untouched.
func (e *Entry) Transition(next State) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	old := e.state
	if !old.CanTransition(next) {
		return old, errors.ErrInvalidTransition(e.Key, old.String(), next.String())
	}
	e.state = next
	if next == StateInitialized {
		e.initializedAt = time.Now()
	}
	return old, nil
}

// Value returns the cached value and whether one is present. Presence is
// tracked separately from the value itself: a factory may legitimately
// produce nil.
func (e *Entry) Value() (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.value, e.hasValue
}

// SetValue caches the produced value.
func (e *Entry) SetValue(value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.value = value
	e.hasValue = true
}

// ClearValue drops the cached value after disposal.
func (e *Entry) ClearValue() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.value = nil
	e.hasValue = false
}

// Touch records a successful access.
func (e *Entry) Touch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastAccessedAt = time.Now()
}

// CreatedAt returns the registration time.
func (e *Entry) CreatedAt() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.createdAt
}

// LastAccessedAt returns the time of the last successful access.
func (e *Entry) LastAccessedAt() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastAccessedAt
}

// InitializedAt returns the time the entry became initialized.
func (e *Entry) InitializedAt() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.initializedAt
}

// Age returns how long the entry has existed.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt())
}

// Expired reports whether the entry's TTL has elapsed.
func (e *Entry) Expired(now time.Time) bool {
	if e.MaxLifetime <= 0 {
		return false
	}
	return e.Age(now) > e.MaxLifetime
}

// HasTag reports whether the entry carries the given tag.
func (e *Entry) HasTag(tag string) bool {
	_, ok := e.Tags[tag]
	return ok
}

// Revive returns a disposed entry to registered so a later resolve starts a
// fresh lifecycle with the same registration.
func (e *Entry) Revive() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateDisposed {
		return
	}
	e.state = StateRegistered
	e.value = nil
	e.hasValue = false
	e.initializedAt = time.Time{}
}

// reset is used by the store when an entry is (re)admitted.
func (e *Entry) reset(seq int, now time.Time) {
	e.seq = seq
	e.state = StateRegistered
	e.value = nil
	e.hasValue = false
	e.createdAt = now
	e.lastAccessedAt = now
}
