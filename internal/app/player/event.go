package player

import (
	"github.com/CoderFake/playerd/internal/domain/prefs"
	"github.com/CoderFake/playerd/internal/domain/track"
)

// EventType represents a session event type.
type EventType int

const (
	EventTrackChanged EventType = iota // Current track changed
	EventStateChanged                  // Transport state or preferences changed
	EventQueueChanged                  // Queue was mutated without a track change
	EventProgress                      // Playback position moved
	EventCondition                     // A transient condition signal was raised
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackChanged:
		return "track_changed"
	case EventStateChanged:
		return "state_changed"
	case EventQueueChanged:
		return "queue_changed"
	case EventProgress:
		return "progress"
	case EventCondition:
		return "condition"
	default:
		return "unknown"
	}
}

// Condition is a transient, non-fatal condition surfaced to the UI.
type Condition int

const (
	ConditionNone               Condition = iota
	ConditionMissingAudioSource           // Chosen track has no playable reference
	ConditionPlaybackBlocked              // Engine rejected a play attempt
)

// String returns the string representation of the condition.
func (c Condition) String() string {
	switch c {
	case ConditionNone:
		return "none"
	case ConditionMissingAudioSource:
		return "missing_audio_source"
	case ConditionPlaybackBlocked:
		return "playback_blocked"
	default:
		return "unknown"
	}
}

// Event is a session event pushed to UI observers.
type Event struct {
	Type      EventType
	Condition Condition // Set for EventCondition
	Snapshot  Snapshot  // State after the transition
}

// Snapshot is the read model exposed to the UI layer: a consistent copy of
// every observable session field.
type Snapshot struct {
	State           State
	CurrentTrack    *track.Track
	Queue           []track.Track
	History         []track.Track
	IsPlaying       bool
	Volume          float64
	ProgressSeconds float64
	DurationSeconds float64
	RepeatMode      prefs.RepeatMode
	PlaylistMode    bool
	LastCondition   Condition
}
