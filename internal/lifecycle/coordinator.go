package lifecycle

import (
	"context"
	"sync"

	"github.com/xraph/anchor/internal/errors"
)

// Coordinator guarantees at most one concurrent execution per key. Callers
// that arrive while a key's execution is in flight wait for it and receive
// the same result or the same error. A finished flight is forgotten, so the
// next call executes again: errors are never cached.
type Coordinator struct {
	mu      sync.Mutex
	flights map[string]*flight
}

type flight struct {
	done chan struct{}
	val  any
	err  error
}

// NewCoordinator creates a new per-key execution coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		flights: make(map[string]*flight),
	}
}

// Do executes fn for key, or waits on an execution already in flight.
// fn runs on the calling goroutine with no coordinator lock held, so a
// blocking fn on one key never delays operations on other keys.
//
// ctx cancellation aborts only this caller's wait; the in-flight execution
// itself keeps running so internal state is never corrupted by a hung hook.
func (c *Coordinator) Do(ctx context.Context, key string, fn func() (any, error)) (any, error) {
	c.mu.Lock()
	if f, inFlight := c.flights[key]; inFlight {
		c.mu.Unlock()
		select {
		case <-f.done:
			return f.val, f.err
		case <-ctx.Done():
			return nil, errors.ErrContextCancelled("wait for "+key).WithContext("cause", ctx.Err().Error())
		}
	}

	f := &flight{done: make(chan struct{})}
	c.flights[key] = f
	c.mu.Unlock()

	f.val, f.err = fn()

	c.mu.Lock()
	delete(c.flights, key)
	c.mu.Unlock()
	close(f.done)

	return f.val, f.err
}

// InFlight reports whether key currently has an execution in flight.
func (c *Coordinator) InFlight(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.flights[key]
	return ok
}
