package anchor

import (
	"time"

	"github.com/xraph/anchor/internal/di"
	"github.com/xraph/anchor/internal/resource"
)

// RegisterOption configures a service registration.
type RegisterOption = di.RegisterOption

// Singleton caches the factory's value; the factory runs at most once per
// lifecycle. This is the default.
func Singleton() RegisterOption { return di.Singleton() }

// Transient runs the factory on every resolve; nothing is cached and no
// lifecycle state changes.
func Transient() RegisterOption { return di.Transient() }

// WithDependencies declares the services this service depends on.
func WithDependencies(deps ...string) RegisterOption {
	return di.WithDependencies(deps...)
}

// WithPriority breaks ordering ties between services with no dependency
// relation; higher priorities initialize first.
func WithPriority(priority int) RegisterOption {
	return di.WithPriority(priority)
}

// OnInitialize runs a hook on the value right after the factory succeeds.
func OnInitialize(hook Hook) RegisterOption {
	return di.OnInitialize(hook)
}

// OnDispose runs a hook on the value when the service is disposed.
func OnDispose(hook Hook) RegisterOption {
	return di.OnDispose(hook)
}

// ResourceOption configures a resource registration.
type ResourceOption = resource.Option

// WithResourceDependencies declares the resources this resource depends
// on.
func WithResourceDependencies(deps ...string) ResourceOption {
	return resource.WithDependencies(deps...)
}

// WithResourcePriority sets the disposal priority for bulk disposal.
func WithResourcePriority(priority int) ResourceOption {
	return resource.WithPriority(priority)
}

// WithTags attaches free-form tags usable for bulk disposal.
func WithTags(tags ...string) ResourceOption {
	return resource.WithTags(tags...)
}

// WithGroup places the resource in a named group for bulk disposal.
func WithGroup(group string) ResourceOption {
	return resource.WithGroup(group)
}

// WithMaxLifetime sets a TTL after which the resource is expired and, by
// default, swept.
func WithMaxLifetime(d time.Duration) ResourceOption {
	return resource.WithMaxLifetime(d)
}

// WithManualExpiry keeps an expiring resource out of the sweeper.
func WithManualExpiry() ResourceOption {
	return resource.WithManualExpiry()
}

// WithInitHook runs a callback on the resource value at registration.
func WithInitHook(hook Hook) ResourceOption {
	return resource.WithInitHook(hook)
}
