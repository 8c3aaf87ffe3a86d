// Package anchor provides a dependency-aware lifecycle engine: a service
// registry (DI container) and a generic resource manager built on the same
// dependency graph, lifecycle state machine, and event stream.
//
// Services are registered with factories and resolved lazily; singletons
// initialize exactly once, ancestors first, even under concurrent
// resolution. Resources are registered live with a dispose hook, optional
// TTL, tags, and groups; disposing one cascades to its transitive
// dependents before it. Every state change is observable through the event
// bus.
//
// A minimal service setup:
//
//	c := anchor.NewContainer()
//	_ = c.Register("db", func(ctx context.Context, c anchor.Container) (any, error) {
//		return openDatabase(ctx)
//	}, anchor.OnDispose(func(ctx context.Context, v any) error {
//		return v.(*Database).Close()
//	}))
//	_ = c.Register("repo", func(ctx context.Context, c anchor.Container) (any, error) {
//		db, err := anchor.Resolve[*Database](ctx, c, "db")
//		if err != nil {
//			return nil, err
//		}
//		return NewRepository(db), nil
//	}, anchor.WithDependencies("db"))
//
//	if err := c.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer c.Stop(ctx)
package anchor
