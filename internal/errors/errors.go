package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// ERROR CODES
// =============================================================================

// Error code constants for structured errors
const (
	CodeNotRegistered      = "NOT_REGISTERED"
	CodeAlreadyDisposed    = "ALREADY_DISPOSED"
	CodeCircularDependency = "CIRCULAR_DEPENDENCY"
	CodeFactoryError       = "FACTORY_ERROR"
	CodeLifecycleError     = "LIFECYCLE_ERROR"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeResourceExpired    = "RESOURCE_EXPIRED"
	CodeInvalidConfig      = "INVALID_CONFIG"
	CodeContextCancelled   = "CONTEXT_CANCELLED"
)

// =============================================================================
// REGISTRY ERRORS
// =============================================================================

// Standard registry errors
var (
	ErrNilFactory   = errors.New("factory cannot be nil")
	ErrEmptyKey     = errors.New("entry key cannot be empty")
	ErrSelfDepend   = errors.New("entry cannot depend on itself")
	ErrTypeMismatch = errors.New("resolved value type mismatch")
	ErrBusClosed    = errors.New("event bus already closed")
)

// EntryError wraps an error with the entry and operation it occurred on
type EntryError struct {
	Key       string
	Operation string
	Err       error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("entry %s: %s: %v", e.Key, e.Operation, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is interface for EntryError
func (e *EntryError) Is(target error) bool {
	t, ok := target.(*EntryError)
	if !ok {
		return false
	}
	return (e.Key == "" || t.Key == "" || e.Key == t.Key) &&
		(e.Operation == "" || t.Operation == "" || e.Operation == t.Operation)
}

// NewEntryError creates a new entry error
func NewEntryError(key, operation string, err error) *EntryError {
	return &EntryError{
		Key:       key,
		Operation: operation,
		Err:       err,
	}
}

// =============================================================================
// ANCHOR ERROR (STRUCTURED ERROR)
// =============================================================================

// AnchorError represents a structured error with context
type AnchorError struct {
	Code      string
	Message   string
	Cause     error
	Timestamp time.Time
	Context   map[string]interface{}
}

func (e *AnchorError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AnchorError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is interface for AnchorError
// Compares by error code, allowing matching against sentinel errors
func (e *AnchorError) Is(target error) bool {
	t, ok := target.(*AnchorError)
	if !ok {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

// WithContext adds context to the error
func (e *AnchorError) WithContext(key string, value interface{}) *AnchorError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// ErrNotRegistered creates an error for an unknown entry key
func ErrNotRegistered(key string) *AnchorError {
	return &AnchorError{
		Code:      CodeNotRegistered,
		Message:   "entry '" + key + "' is not registered",
		Timestamp: time.Now(),
		Context:   map[string]interface{}{"key": key},
	}
}

// ErrAlreadyDisposed creates an error for a key whose entry was disposed and removed
func ErrAlreadyDisposed(key string) *AnchorError {
	return &AnchorError{
		Code:      CodeAlreadyDisposed,
		Message:   "entry '" + key + "' has already been disposed",
		Timestamp: time.Now(),
		Context:   map[string]interface{}{"key": key},
	}
}

// ErrCircularDependency creates an error describing a rejected dependency cycle
func ErrCircularDependency(path []string) *AnchorError {
	return &AnchorError{
		Code:      CodeCircularDependency,
		Message:   "circular dependency detected: " + strings.Join(path, " -> "),
		Timestamp: time.Now(),
		Context:   map[string]interface{}{"path": path},
	}
}

// ErrFactoryError wraps a failure raised by a user-supplied factory
func ErrFactoryError(key string, cause error) *AnchorError {
	return &AnchorError{
		Code:      CodeFactoryError,
		Message:   "factory for entry '" + key + "' failed",
		Cause:     cause,
		Timestamp: time.Now(),
		Context:   map[string]interface{}{"key": key},
	}
}

// ErrLifecycleError creates a lifecycle error
func ErrLifecycleError(operation string, cause error) *AnchorError {
	return &AnchorError{
		Code:      CodeLifecycleError,
		Message:   "lifecycle error during " + operation,
		Cause:     cause,
		Timestamp: time.Now(),
		Context:   map[string]interface{}{"operation": operation},
	}
}

// ErrInvalidTransition creates an error for an illegal state transition
func ErrInvalidTransition(key, from, to string) *AnchorError {
	return &AnchorError{
		Code:      CodeInvalidTransition,
		Message:   "entry '" + key + "' cannot transition from " + from + " to " + to,
		Timestamp: time.Now(),
		Context:   map[string]interface{}{"key": key, "from": from, "to": to},
	}
}

// ErrResourceExpired creates an informational error for an expired resource
func ErrResourceExpired(key string, age time.Duration) *AnchorError {
	return &AnchorError{
		Code:      CodeResourceExpired,
		Message:   "resource '" + key + "' expired after " + age.String(),
		Timestamp: time.Now(),
		Context:   map[string]interface{}{"key": key, "age": age.String()},
	}
}

// ErrInvalidConfig creates an error for an invalid configuration value
func ErrInvalidConfig(configKey string, cause error) *AnchorError {
	return &AnchorError{
		Code:      CodeInvalidConfig,
		Message:   "invalid configuration for key '" + configKey + "'",
		Cause:     cause,
		Timestamp: time.Now(),
		Context:   map[string]interface{}{"config_key": configKey},
	}
}

// ErrContextCancelled creates an error for a context cancelled mid-operation
func ErrContextCancelled(operation string) *AnchorError {
	return &AnchorError{
		Code:      CodeContextCancelled,
		Message:   "context cancelled during " + operation,
		Timestamp: time.Now(),
		Context:   map[string]interface{}{"operation": operation},
	}
}

// =============================================================================
// STANDARD ERRORS PACKAGE INTEGRATION
// =============================================================================

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around errors.Is from the standard library.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around errors.As from the standard library.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err, if any.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// =============================================================================
// SENTINEL ERRORS (for use with Is)
// =============================================================================

// Sentinel errors that can be used with errors.Is comparisons
var (
	// ErrNotRegisteredSentinel is a sentinel error for unknown entries
	ErrNotRegisteredSentinel = &AnchorError{Code: CodeNotRegistered}

	// ErrAlreadyDisposedSentinel is a sentinel error for disposed entries
	ErrAlreadyDisposedSentinel = &AnchorError{Code: CodeAlreadyDisposed}

	// ErrCircularDependencySentinel is a sentinel error for dependency cycles
	ErrCircularDependencySentinel = &AnchorError{Code: CodeCircularDependency}

	// ErrFactoryErrorSentinel is a sentinel error for factory failures
	ErrFactoryErrorSentinel = &AnchorError{Code: CodeFactoryError}

	// ErrInvalidTransitionSentinel is a sentinel error for illegal transitions
	ErrInvalidTransitionSentinel = &AnchorError{Code: CodeInvalidTransition}

	// ErrLifecycleErrorSentinel is a sentinel error for lifecycle failures
	ErrLifecycleErrorSentinel = &AnchorError{Code: CodeLifecycleError}

	// ErrResourceExpiredSentinel is a sentinel error for expired resources
	ErrResourceExpiredSentinel = &AnchorError{Code: CodeResourceExpired}
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotRegistered checks if the error is a not-registered error
func IsNotRegistered(err error) bool {
	return Is(err, ErrNotRegisteredSentinel)
}

// IsAlreadyDisposed checks if the error is an already-disposed error
func IsAlreadyDisposed(err error) bool {
	return Is(err, ErrAlreadyDisposedSentinel)
}

// IsCircularDependency checks if the error is a circular dependency error
func IsCircularDependency(err error) bool {
	return Is(err, ErrCircularDependencySentinel)
}

// IsFactoryError checks if the error wraps a factory failure
func IsFactoryError(err error) bool {
	return Is(err, ErrFactoryErrorSentinel)
}

// IsInvalidTransition checks if the error is an invalid transition error
func IsInvalidTransition(err error) bool {
	return Is(err, ErrInvalidTransitionSentinel)
}

// IsResourceExpired checks if the error is a resource expired error
func IsResourceExpired(err error) bool {
	return Is(err, ErrResourceExpiredSentinel)
}
