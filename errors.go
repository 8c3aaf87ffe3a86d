package anchor

import (
	"github.com/xraph/anchor/internal/errors"
)

// Error codes carried by Error values.
const (
	CodeNotRegistered      = errors.CodeNotRegistered
	CodeAlreadyDisposed    = errors.CodeAlreadyDisposed
	CodeCircularDependency = errors.CodeCircularDependency
	CodeFactoryError       = errors.CodeFactoryError
	CodeLifecycleError     = errors.CodeLifecycleError
	CodeInvalidTransition  = errors.CodeInvalidTransition
	CodeResourceExpired    = errors.CodeResourceExpired
	CodeInvalidConfig      = errors.CodeInvalidConfig
	CodeContextCancelled   = errors.CodeContextCancelled
)

// Error is the structured error type returned by the engine.
type Error = errors.AnchorError

// EntryError wraps a failure with the entry key and operation it occurred
// in.
type EntryError = errors.EntryError

// Validation sentinels.
var (
	ErrNilFactory   = errors.ErrNilFactory
	ErrEmptyKey     = errors.ErrEmptyKey
	ErrSelfDepend   = errors.ErrSelfDepend
	ErrTypeMismatch = errors.ErrTypeMismatch
	ErrBusClosed    = errors.ErrBusClosed
)

// Code sentinels for use with errors.Is.
var (
	ErrNotRegistered      = errors.ErrNotRegisteredSentinel
	ErrAlreadyDisposed    = errors.ErrAlreadyDisposedSentinel
	ErrCircularDependency = errors.ErrCircularDependencySentinel
	ErrFactoryError       = errors.ErrFactoryErrorSentinel
	ErrInvalidTransition  = errors.ErrInvalidTransitionSentinel
	ErrLifecycleError     = errors.ErrLifecycleErrorSentinel
	ErrResourceExpired    = errors.ErrResourceExpiredSentinel
)

// IsNotRegistered reports whether err is a NOT_REGISTERED error.
func IsNotRegistered(err error) bool { return errors.IsNotRegistered(err) }

// IsCircularDependency reports whether err is a CIRCULAR_DEPENDENCY error.
func IsCircularDependency(err error) bool { return errors.IsCircularDependency(err) }

// IsFactoryError reports whether err is a FACTORY_ERROR error.
func IsFactoryError(err error) bool { return errors.IsFactoryError(err) }

// IsInvalidTransition reports whether err is an INVALID_TRANSITION error.
func IsInvalidTransition(err error) bool { return errors.IsInvalidTransition(err) }

// IsResourceExpired reports whether err is a RESOURCE_EXPIRED error.
func IsResourceExpired(err error) bool { return errors.IsResourceExpired(err) }
