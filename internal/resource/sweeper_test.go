package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeper_DisposesExpiredResources(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Register(ctx, "token", "token", noopDispose,
		WithMaxLifetime(10*time.Millisecond)))
	require.NoError(t, m.Register(ctx, "stable", "stable", noopDispose))

	sweeper := NewSweeper(m, 5*time.Millisecond, nil)
	sweeper.Start(ctx)
	defer sweeper.Stop()
	assert.True(t, sweeper.Running())

	require.Eventually(t, func() bool {
		return !m.Has("token")
	}, time.Second, 5*time.Millisecond)
	assert.True(t, m.Has("stable"))
}

func TestSweeper_StartStopIdempotent(t *testing.T) {
	m := newTestManager(t)
	sweeper := NewSweeper(m, time.Millisecond, nil)

	// Stop before Start is a no-op.
	sweeper.Stop()

	ctx := context.Background()
	sweeper.Start(ctx)
	sweeper.Start(ctx)
	assert.True(t, sweeper.Running())

	sweeper.Stop()
	sweeper.Stop()
	assert.False(t, sweeper.Running())

	// The sweeper restarts cleanly.
	sweeper.Start(ctx)
	assert.True(t, sweeper.Running())
	sweeper.Stop()
}

func TestSweeper_StopsOnContextCancel(t *testing.T) {
	m := newTestManager(t)
	sweeper := NewSweeper(m, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	sweeper.Start(ctx)
	cancel()

	// The loop goroutine exits; Stop still cleans up the bookkeeping.
	time.Sleep(10 * time.Millisecond)
	sweeper.Stop()
	assert.False(t, sweeper.Running())
}

func TestSweeper_DefaultInterval(t *testing.T) {
	m := newTestManager(t)
	sweeper := NewSweeper(m, 0, nil)
	assert.Equal(t, DefaultSweepInterval, sweeper.interval)
}
