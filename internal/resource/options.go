package resource

import (
	"time"

	"github.com/xraph/anchor/internal/lifecycle"
)

// resourceOptions holds per-resource registration settings.
type resourceOptions struct {
	dependencies []string
	priority     int
	tags         map[string]struct{}
	group        string
	maxLifetime  time.Duration
	autoDispose  bool
	onInitialize lifecycle.Hook
}

// Option configures a resource registration.
type Option func(*resourceOptions)

func defaultResourceOptions() resourceOptions {
	return resourceOptions{
		tags: make(map[string]struct{}),
	}
}

// WithDependencies declares the resources this resource depends on. The
// dependents are disposed before their dependencies.
func WithDependencies(deps ...string) Option {
	return func(o *resourceOptions) {
		o.dependencies = append(o.dependencies, deps...)
	}
}

// WithPriority sets the disposal priority. Higher priorities dispose first
// among resources with no ordering constraint between them.
func WithPriority(priority int) Option {
	return func(o *resourceOptions) {
		o.priority = priority
	}
}

// WithTags attaches free-form tags usable for bulk disposal.
func WithTags(tags ...string) Option {
	return func(o *resourceOptions) {
		for _, tag := range tags {
			o.tags[tag] = struct{}{}
		}
	}
}

// WithGroup places the resource in a named group for bulk disposal.
func WithGroup(group string) Option {
	return func(o *resourceOptions) {
		o.group = group
	}
}

// WithMaxLifetime sets a TTL after which the resource is considered
// expired. Expired resources are disposed automatically by the sweeper
// unless WithManualExpiry is also set.
func WithMaxLifetime(d time.Duration) Option {
	return func(o *resourceOptions) {
		o.maxLifetime = d
		o.autoDispose = true
	}
}

// WithManualExpiry keeps an expiring resource out of the sweeper: callers
// observe expiry through IsExpired and dispose it themselves.
func WithManualExpiry() Option {
	return func(o *resourceOptions) {
		o.autoDispose = false
	}
}

// WithInitHook runs a callback on the resource value right after the
// factory succeeds; a hook failure fails the registration.
func WithInitHook(hook lifecycle.Hook) Option {
	return func(o *resourceOptions) {
		o.onInitialize = hook
	}
}
