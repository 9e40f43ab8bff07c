package virtual

// State is the Render Window Controller's recompute state.
type State int

const (
	StateIdle      State = iota // window current, nothing owed
	StateDirty                  // an event invalidated the window
	StateMeasuring              // window emitted, measurements outstanding
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDirty:
		return "dirty"
	case StateMeasuring:
		return "measuring"
	default:
		return "unknown"
	}
}

// transitions lists the legal successor states. Staying put is always legal.
var transitions = map[State][]State{
	StateIdle:      {StateDirty},
	StateDirty:     {StateMeasuring, StateIdle},
	StateMeasuring: {StateDirty, StateIdle},
}

// CanTransition reports whether moving from s to next is legal.
func (s State) CanTransition(next State) bool {
	if s == next {
		return true
	}
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}
