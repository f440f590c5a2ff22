// Package playback provides ownership of the background music resource.
package playback

// State represents the playback state.
type State int

const (
	StateIdle    State = iota // No resource open
	StatePlaying              // Track is looping
	StatePaused               // Track is open but paused
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}
