package anchor

import (
	"context"
	"fmt"

	"github.com/xraph/anchor/internal/di"
	"github.com/xraph/anchor/internal/errors"
)

// Resolve resolves a service by name and asserts its type.
func Resolve[T any](ctx context.Context, c Container, name string) (T, error) {
	return di.Resolve[T](ctx, c, name)
}

// MustResolve resolves a service by name and panics on failure.
func MustResolve[T any](ctx context.Context, c Container, name string) T {
	return di.Must[T](ctx, c, name)
}

// RegisterSingleton registers a typed singleton factory.
func RegisterSingleton[T any](c Container, name string, factory func(ctx context.Context, c Container) (T, error), opts ...RegisterOption) error {
	return di.RegisterSingleton(c, name, factory, opts...)
}

// RegisterTransient registers a typed factory that runs on every resolve.
func RegisterTransient[T any](c Container, name string, factory func(ctx context.Context, c Container) (T, error), opts ...RegisterOption) error {
	return di.RegisterTransient(c, name, factory, opts...)
}

// RegisterValue registers a pre-built typed instance as a singleton.
func RegisterValue[T any](c Container, name string, value T, opts ...RegisterOption) error {
	return di.RegisterValue(c, name, value, opts...)
}

// GetResource returns a resource value from m and asserts its type.
func GetResource[T any](m ResourceManager, name string) (T, error) {
	var zero T
	value, err := m.Get(name)
	if err != nil {
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		return zero, errors.NewEntryError(name, "get",
			fmt.Errorf("%w: have %T, want %T", errors.ErrTypeMismatch, value, zero))
	}
	return typed, nil
}
