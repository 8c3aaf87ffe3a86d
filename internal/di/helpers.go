package di

import (
	"context"
	"fmt"

	"github.com/xraph/anchor/internal/errors"
)

// Resolve resolves a service by name and asserts its type.
func Resolve[T any](ctx context.Context, c Container, name string) (T, error) {
	var zero T
	value, err := c.Resolve(ctx, name)
	if err != nil {
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		return zero, errors.NewEntryError(name, "resolve",
			fmt.Errorf("%w: have %T, want %T", errors.ErrTypeMismatch, value, zero))
	}
	return typed, nil
}

// Must resolves a service by name and panics on failure. Intended for
// wiring code where a missing service is a programming error.
func Must[T any](ctx context.Context, c Container, name string) T {
	value, err := Resolve[T](ctx, c, name)
	if err != nil {
		panic(err)
	}
	return value
}

// RegisterSingleton registers a typed singleton factory.
func RegisterSingleton[T any](c Container, name string, factory func(ctx context.Context, c Container) (T, error), opts ...RegisterOption) error {
	return c.Register(name, func(ctx context.Context, c Container) (any, error) {
		return factory(ctx, c)
	}, append(opts, Singleton())...)
}

// RegisterTransient registers a typed factory that runs on every resolve.
func RegisterTransient[T any](c Container, name string, factory func(ctx context.Context, c Container) (T, error), opts ...RegisterOption) error {
	return c.Register(name, func(ctx context.Context, c Container) (any, error) {
		return factory(ctx, c)
	}, append(opts, Transient())...)
}

// RegisterValue registers a pre-built typed instance as a singleton.
func RegisterValue[T any](c Container, name string, value T, opts ...RegisterOption) error {
	return c.RegisterValue(name, value, opts...)
}
