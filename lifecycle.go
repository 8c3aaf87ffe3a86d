package anchor

import (
	"github.com/xraph/anchor/internal/lifecycle"
)

// State represents the lifecycle state of an entry.
type State = lifecycle.State

// Lifecycle states. Within one lifecycle the progression is monotonic;
// failed entries may re-enter initializing so a later resolve retries.
const (
	StateRegistered   = lifecycle.StateRegistered
	StateInitializing = lifecycle.StateInitializing
	StateInitialized  = lifecycle.StateInitialized
	StateDisposing    = lifecycle.StateDisposing
	StateDisposed     = lifecycle.StateDisposed
	StateFailed       = lifecycle.StateFailed
)

// Kind distinguishes the two entry flavors managed by the engine.
type Kind = lifecycle.Kind

const (
	KindService  = lifecycle.KindService
	KindResource = lifecycle.KindResource
)

// Hook is an asynchronous lifecycle callback.
type Hook = lifecycle.Hook
