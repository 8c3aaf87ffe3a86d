package anchor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type database struct {
	dsn    string
	closed bool
}

type repository struct {
	db *database
}

func TestAnchor_EndToEnd(t *testing.T) {
	app, err := New(DefaultConfig(), WithLogger(NewNoopLogger()))
	require.NoError(t, err)
	ctx := context.Background()

	// Observe every lifecycle transition of the db service.
	var mu sync.Mutex
	var transitions []string
	app.Events.Subscribe(KeyFilter("db"), func(event *Event) {
		mu.Lock()
		transitions = append(transitions, event.NewState)
		mu.Unlock()
	})

	db := &database{dsn: "postgres://localhost"}
	require.NoError(t, app.Services.Register("db",
		func(context.Context, Container) (any, error) {
			return db, nil
		},
		OnDispose(func(_ context.Context, value any) error {
			value.(*database).closed = true
			return nil
		}),
	))
	require.NoError(t, RegisterSingleton(app.Services, "repo",
		func(ctx context.Context, c Container) (*repository, error) {
			d, err := Resolve[*database](ctx, c, "db")
			if err != nil {
				return nil, err
			}
			return &repository{db: d}, nil
		},
		WithDependencies("db"),
	))

	require.NoError(t, app.Start(ctx))

	repo, err := Resolve[*repository](ctx, app.Services, "repo")
	require.NoError(t, err)
	assert.Same(t, db, repo.db)

	// A resource rides the same event stream and cascades on shutdown.
	cacheClosed := false
	require.NoError(t, app.Resources.Register(ctx, "cache", "cache-conn",
		func(context.Context, any) error {
			cacheClosed = true
			return nil
		},
		WithGroup("conns"),
	))

	require.NoError(t, app.Stop(ctx))

	assert.True(t, db.closed)
	assert.True(t, cacheClosed)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"registered", "initializing", "initialized", "disposing", "disposed",
	}, transitions)
}

func TestAnchor_SweeperDisposesExpired(t *testing.T) {
	config := DefaultConfig()
	config.SweepInterval = 5 * time.Millisecond
	app, err := New(config, WithLogger(NewNoopLogger()))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, app.Start(ctx))
	defer app.Stop(ctx)

	require.NoError(t, app.Resources.Register(ctx, "session", "session-data",
		func(context.Context, any) error { return nil },
		WithMaxLifetime(10*time.Millisecond),
	))

	require.Eventually(t, func() bool {
		return !app.Resources.Has("session")
	}, time.Second, 5*time.Millisecond)
}

func TestAnchor_SweeperOutlivesStartContext(t *testing.T) {
	config := DefaultConfig()
	config.SweepInterval = 5 * time.Millisecond
	app, err := New(config, WithLogger(NewNoopLogger()))
	require.NoError(t, err)

	startCtx, cancel := context.WithCancel(context.Background())
	require.NoError(t, app.Start(startCtx))
	defer app.Stop(context.Background())

	// Cancelling the startup context must not stop the sweep loop.
	cancel()

	ctx := context.Background()
	require.NoError(t, app.Resources.Register(ctx, "session", "session-data",
		func(context.Context, any) error { return nil },
		WithMaxLifetime(10*time.Millisecond),
	))

	require.Eventually(t, func() bool {
		return !app.Resources.Has("session")
	}, time.Second, 5*time.Millisecond)
}

func TestAnchor_InvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.LogLevel = "loud"
	_, err := New(config)
	require.Error(t, err)

	config = DefaultConfig()
	config.SweepInterval = -time.Second
	_, err = New(config)
	require.Error(t, err)
}

func TestHelpers_TypeMismatch(t *testing.T) {
	c := NewContainer(WithLogger(NewNoopLogger()))
	ctx := context.Background()

	require.NoError(t, RegisterValue(c, "number", 42))

	_, err := Resolve[string](ctx, c, "number")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	value, err := Resolve[int](ctx, c, "number")
	require.NoError(t, err)
	assert.Equal(t, 42, value)
}

func TestHelpers_GetResource(t *testing.T) {
	m := NewResourceManager(WithLogger(NewNoopLogger()))
	ctx := context.Background()

	require.NoError(t, m.Register(ctx, "conn", "tcp-conn",
		func(context.Context, any) error { return nil }))

	value, err := GetResource[string](m, "conn")
	require.NoError(t, err)
	assert.Equal(t, "tcp-conn", value)

	_, err = GetResource[int](m, "conn")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestMustResolve_PanicsOnMissing(t *testing.T) {
	c := NewContainer(WithLogger(NewNoopLogger()))

	assert.Panics(t, func() {
		MustResolve[string](context.Background(), c, "missing")
	})
}
