// Package player provides the playback session state machine. It owns what
// is playing, what plays next, and what played before, and keeps that state
// synchronized with the audio output, preference storage, and telemetry.
package player

// State represents the session transport state.
type State int

const (
	StateIdle    State = iota // No current track
	StateLoading              // Track selected, engine has not confirmed yet
	StatePlaying              // Track is playing
	StatePaused               // Track is paused
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}
