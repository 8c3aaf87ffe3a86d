package resource

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/anchor/internal/errors"
	"github.com/xraph/anchor/internal/events"
)

func newTestManager(t *testing.T) Manager {
	t.Helper()
	return NewManager(ManagerConfig{})
}

func noopDispose(context.Context, any) error { return nil }

func TestManager_RegisterAndGet(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	conn := &struct{ addr string }{addr: "localhost:6379"}
	require.NoError(t, m.Register(ctx, "conn", conn, noopDispose))
	assert.True(t, m.Has("conn"))

	got, err := m.Get("conn")
	require.NoError(t, err)
	assert.Same(t, conn, got)

	_, err = m.Get("missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotRegistered(err))
}

func TestManager_NilValueResource(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	// A nil value is a legitimate resource; Get returns it without error.
	require.NoError(t, m.Register(ctx, "placeholder", nil, noopDispose))

	got, err := m.Get("placeholder")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, m.Dispose(ctx, "placeholder"))
	assert.False(t, m.Has("placeholder"))
}

func TestManager_RegisterValidation(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	err := m.Register(ctx, "", 1, noopDispose)
	assert.ErrorIs(t, err, errors.ErrEmptyKey)

	err = m.Register(ctx, "r", 1, noopDispose, WithDependencies("r"))
	assert.ErrorIs(t, err, errors.ErrSelfDepend)
}

func TestManager_InitHook(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	var hooked any
	require.NoError(t, m.Register(ctx, "r", "value", noopDispose, WithInitHook(
		func(_ context.Context, value any) error {
			hooked = value
			return nil
		})))
	assert.Equal(t, "value", hooked)
}

func TestManager_InitHookFailureRejectsRegistration(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	boom := errors.New("warmup failed")
	err := m.Register(ctx, "r", "value", noopDispose, WithInitHook(
		func(context.Context, any) error {
			return boom
		}))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, m.Has("r"))
}

func TestManager_DisposeCascadesDependentsFirst(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	var mu sync.Mutex
	var order []string
	disposer := func(name string) func(context.Context, any) error {
		return func(context.Context, any) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	require.NoError(t, m.Register(ctx, "pool", "pool", disposer("pool")))
	require.NoError(t, m.Register(ctx, "conn", "conn", disposer("conn"), WithDependencies("pool")))
	require.NoError(t, m.Register(ctx, "session", "session", disposer("session"), WithDependencies("conn")))

	require.NoError(t, m.Dispose(ctx, "pool"))

	assert.Equal(t, []string{"session", "conn", "pool"}, order)
	assert.False(t, m.Has("pool"))
	assert.False(t, m.Has("conn"))
	assert.False(t, m.Has("session"))
}

func TestManager_DisposeDoesNotTouchDependencies(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Register(ctx, "pool", "pool", noopDispose))
	require.NoError(t, m.Register(ctx, "conn", "conn", noopDispose, WithDependencies("pool")))

	require.NoError(t, m.Dispose(ctx, "conn"))
	assert.False(t, m.Has("conn"))
	assert.True(t, m.Has("pool"))

	// Disposal is idempotent: an already-gone key is a no-op.
	require.NoError(t, m.Dispose(ctx, "conn"))
	require.NoError(t, m.Dispose(ctx, "never-registered"))
}

func TestManager_DisposeSurfacesFirstFailureAfterCascade(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	var mu sync.Mutex
	var order []string
	record := func(name string, err error) func(context.Context, any) error {
		return func(context.Context, any) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return err
		}
	}

	broken := errors.New("session close failed")
	require.NoError(t, m.Register(ctx, "pool", "pool", record("pool", nil)))
	require.NoError(t, m.Register(ctx, "conn", "conn", record("conn", errors.New("conn close failed")), WithDependencies("pool")))
	require.NoError(t, m.Register(ctx, "session", "session", record("session", broken), WithDependencies("conn")))

	err := m.Dispose(ctx, "pool")
	require.Error(t, err)

	// The whole cascade ran and the first failure is the one returned.
	assert.Equal(t, []string{"session", "conn", "pool"}, order)
	assert.ErrorIs(t, err, broken)
	assert.False(t, m.Has("pool"))
	assert.Equal(t, 2, m.Stats().DisposeFailures)
}

func TestManager_AddDependency(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Register(ctx, "a", "a", noopDispose))
	require.NoError(t, m.Register(ctx, "b", "b", noopDispose))
	require.NoError(t, m.AddDependency("b", "a"))

	err := m.AddDependency("a", "b")
	require.Error(t, err)
	assert.True(t, errors.IsCircularDependency(err))

	err = m.AddDependency("a", "missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotRegistered(err))

	err = m.AddDependency("a", "a")
	assert.ErrorIs(t, err, errors.ErrSelfDepend)
}

func TestManager_AddDependencyFeedsCascade(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	var mu sync.Mutex
	var order []string
	disposer := func(name string) func(context.Context, any) error {
		return func(context.Context, any) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	require.NoError(t, m.Register(ctx, "base", "base", disposer("base")))
	require.NoError(t, m.Register(ctx, "user", "user", disposer("user")))
	require.NoError(t, m.AddDependency("user", "base"))

	// Edges added after registration drive the cascade like declared ones.
	require.NoError(t, m.Dispose(ctx, "base"))
	assert.Equal(t, []string{"user", "base"}, order)
}

func TestManager_DisposeGroup(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	var mu sync.Mutex
	var order []string
	disposer := func(name string) func(context.Context, any) error {
		return func(context.Context, any) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	require.NoError(t, m.Register(ctx, "low", "low", disposer("low"), WithGroup("conns"), WithPriority(1)))
	require.NoError(t, m.Register(ctx, "high", "high", disposer("high"), WithGroup("conns"), WithPriority(10)))
	require.NoError(t, m.Register(ctx, "other", "other", disposer("other"), WithGroup("timers")))

	count := m.DisposeGroup(ctx, "conns")
	assert.Equal(t, 2, count)

	// Only group members were disposed, highest priority first.
	assert.Equal(t, []string{"high", "low"}, order)
	assert.True(t, m.Has("other"))
}

func TestManager_DisposeTag(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Register(ctx, "a", "a", noopDispose, WithTags("cache")))
	require.NoError(t, m.Register(ctx, "b", "b", noopDispose, WithTags("cache", "hot")))
	require.NoError(t, m.Register(ctx, "c", "c", noopDispose, WithTags("hot")))

	count := m.DisposeTag(ctx, "cache")
	assert.Equal(t, 2, count)
	assert.False(t, m.Has("a"))
	assert.False(t, m.Has("b"))
	assert.True(t, m.Has("c"))
}

func TestManager_DisposeAll(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	var mu sync.Mutex
	var order []string
	disposer := func(name string) func(context.Context, any) error {
		return func(context.Context, any) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	require.NoError(t, m.Register(ctx, "pool", "pool", disposer("pool")))
	require.NoError(t, m.Register(ctx, "conn", "conn", disposer("conn"), WithDependencies("pool")))
	require.NoError(t, m.Register(ctx, "lone", "lone", disposer("lone")))

	count := m.DisposeAll(ctx)
	assert.Equal(t, 3, count)
	assert.Empty(t, m.Resources())

	// Reverse dependency order: conn before pool.
	assert.Less(t, indexOf(order, "conn"), indexOf(order, "pool"))
}

func TestManager_Expiry(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Register(ctx, "token", "token", noopDispose,
		WithMaxLifetime(20*time.Millisecond)))
	require.NoError(t, m.Register(ctx, "stable", "stable", noopDispose))

	expired, err := m.IsExpired("token")
	require.NoError(t, err)
	assert.False(t, expired)

	time.Sleep(40 * time.Millisecond)

	expired, err = m.IsExpired("token")
	require.NoError(t, err)
	assert.True(t, expired)

	// Expired resources are not returned.
	_, err = m.Get("token")
	require.Error(t, err)
	assert.True(t, errors.IsResourceExpired(err))

	// Sweep disposes the expired resource only.
	swept := m.Sweep(ctx)
	assert.Equal(t, 1, swept)
	assert.False(t, m.Has("token"))
	assert.True(t, m.Has("stable"))

	_, err = m.IsExpired("token")
	assert.True(t, errors.IsNotRegistered(err))
}

func TestManager_ManualExpirySkipsSweep(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Register(ctx, "lease", "lease", noopDispose,
		WithMaxLifetime(time.Millisecond), WithManualExpiry()))

	time.Sleep(10 * time.Millisecond)

	expired, err := m.IsExpired("lease")
	require.NoError(t, err)
	assert.True(t, expired)

	// The sweeper leaves manually-managed resources alone.
	assert.Equal(t, 0, m.Sweep(ctx))
	assert.True(t, m.Has("lease"))

	// The caller disposes it explicitly.
	require.NoError(t, m.Dispose(ctx, "lease"))
	assert.False(t, m.Has("lease"))
}

func TestManager_SweepEmitsExpiredReason(t *testing.T) {
	bus := events.NewBus(events.BusConfig{})
	defer bus.Close()

	var mu sync.Mutex
	var reasons []string
	bus.Subscribe(events.ReasonFilter(events.ReasonExpired), func(event *events.Event) {
		mu.Lock()
		reasons = append(reasons, event.EntityKey+":"+event.NewState)
		mu.Unlock()
	})

	m := NewManager(ManagerConfig{Bus: bus})
	ctx := context.Background()

	require.NoError(t, m.Register(ctx, "token", "token", noopDispose,
		WithMaxLifetime(time.Millisecond)))
	time.Sleep(10 * time.Millisecond)
	require.Equal(t, 1, m.Sweep(ctx))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reasons) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"token:disposing", "token:disposed"}, reasons)
}

func TestManager_ReplaceDoesNotDispose(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	var disposed int32
	require.NoError(t, m.Register(ctx, "conn", "old", func(context.Context, any) error {
		atomic.AddInt32(&disposed, 1)
		return nil
	}))
	require.NoError(t, m.Register(ctx, "conn", "new", noopDispose))

	assert.Equal(t, int32(0), atomic.LoadInt32(&disposed))
	got, err := m.Get("conn")
	require.NoError(t, err)
	assert.Equal(t, "new", got)
}

func TestManager_RegisterTimer(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	var ticks int32
	require.NoError(t, m.RegisterTimer(ctx, "heartbeat", 5*time.Millisecond, func(time.Time) {
		atomic.AddInt32(&ticks, 1)
	}))

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&ticks) >= 3
	}, time.Second, time.Millisecond)

	// Disposal stops the goroutine; the count settles.
	require.NoError(t, m.Dispose(ctx, "heartbeat"))
	settled := atomic.LoadInt32(&ticks)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, atomic.LoadInt32(&ticks))

	err := m.RegisterTimer(ctx, "bad", 0, func(time.Time) {})
	require.Error(t, err)
}

func TestManager_RegisterStream(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	stream, err := m.RegisterStream(ctx, "numbers", 8, func(ctx context.Context, out chan<- any) {
		for i := 0; ; i++ {
			select {
			case out <- i:
			case <-ctx.Done():
				return
			}
		}
	})
	require.NoError(t, err)

	first := <-stream.C
	second := <-stream.C
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)

	// Disposal cancels the producer and closes the channel.
	require.NoError(t, m.Dispose(ctx, "numbers"))
	for range stream.C {
	}
}

func TestManager_Stats(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Register(ctx, "a", "a", noopDispose, WithGroup("conns"), WithPriority(5)))
	require.NoError(t, m.Register(ctx, "b", "b", noopDispose, WithGroup("conns")))
	require.NoError(t, m.Register(ctx, "c", "c", noopDispose))
	require.NoError(t, m.Dispose(ctx, "c"))

	stats := m.Stats()
	assert.Equal(t, 2, stats.Registered)
	assert.Equal(t, 3, stats.TotalRegistered)
	assert.Equal(t, 1, stats.Disposed)
	assert.Equal(t, 2, stats.ByGroup["conns"])
	assert.Equal(t, 1, stats.ByPriority[5])
	assert.Equal(t, 1, stats.ByPriority[0])
	assert.Equal(t, 2, stats.ByState["initialized"])
}

func indexOf(list []string, key string) int {
	for i, item := range list {
		if item == key {
			return i
		}
	}
	return -1
}
