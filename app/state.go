package app

// State represents the current application state.
type State int

const (
	StateLoading State = iota // Waiting for the data source
	StateReady                // Browsing the list
	StateFilter               // Typing into the filter bar
	StateError                // The data source failed to load
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFilter:
		return "filter"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
