package di

import (
	"github.com/xraph/anchor/internal/lifecycle"
)

// RegisterOption configures a service registration.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	singleton    bool
	dependencies []string
	priority     int
	onInitialize lifecycle.Hook
	onDispose    lifecycle.Hook
}

func defaultRegisterOptions() registerOptions {
	return registerOptions{
		singleton: true,
	}
}

// Singleton makes the service's factory run at most once; all resolutions
// share the one instance. This is the default.
func Singleton() RegisterOption {
	return func(o *registerOptions) {
		o.singleton = true
	}
}

// Transient makes the factory run on every resolve. Transient services do
// not participate in lifecycle state tracking.
func Transient() RegisterOption {
	return func(o *registerOptions) {
		o.singleton = false
	}
}

// WithDependencies declares the services that must be initialized before
// this one.
func WithDependencies(deps ...string) RegisterOption {
	return func(o *registerOptions) {
		o.dependencies = append(o.dependencies, deps...)
	}
}

// WithPriority sets the ordering hint used to break ties between unrelated
// services during bulk operations. Higher priority initializes first.
func WithPriority(priority int) RegisterOption {
	return func(o *registerOptions) {
		o.priority = priority
	}
}

// OnInitialize registers a hook that runs after the factory constructs the
// value, while the entry is still initializing.
func OnInitialize(hook lifecycle.Hook) RegisterOption {
	return func(o *registerOptions) {
		o.onInitialize = hook
	}
}

// OnDispose registers a hook that runs when the service is disposed.
func OnDispose(hook lifecycle.Hook) RegisterOption {
	return func(o *registerOptions) {
		o.onDispose = hook
	}
}
