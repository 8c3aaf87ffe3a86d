package lifecycle

// State represents the lifecycle state of an entry.
type State string

const (
	StateRegistered   State = "registered"
	StateInitializing State = "initializing"
	StateInitialized  State = "initialized"
	StateDisposing    State = "disposing"
	StateDisposed     State = "disposed"
	StateFailed       State = "failed"
)

// transitions is the set of legal state moves. Within one lifecycle the
// progression is monotonic; failed absorbs errors from initializing and
// disposing, and a failed entry may re-enter initializing so a later
// resolve retries the factory.
var transitions = map[State][]State{
	StateRegistered:   {StateInitializing, StateDisposing},
	StateInitializing: {StateInitialized, StateFailed},
	StateInitialized:  {StateDisposing},
	StateDisposing:    {StateDisposed, StateFailed},
	StateDisposed:     {},
	StateFailed:       {StateInitializing, StateDisposing},
}

// CanTransition reports whether moving from s to next is legal.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether s is an end state for this lifecycle.
func (s State) Terminal() bool {
	return s == StateDisposed
}

func (s State) String() string {
	return string(s)
}

// Kind distinguishes the two entry flavors managed by the engine.
type Kind string

const (
	// KindService entries carry a factory and resolve to a typed value.
	KindService Kind = "service"

	// KindResource entries carry an already-constructed value plus optional
	// init/dispose hooks.
	KindResource Kind = "resource"
)

func (k Kind) String() string {
	return string(k)
}
