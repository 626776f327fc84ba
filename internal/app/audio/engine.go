// Package audio owns the session's single audio output resource and
// translates playback intents into engine calls and engine callbacks into
// normalized events.
package audio

// EventType represents a normalized engine event type.
type EventType int

const (
	EventProgress       EventType = iota // Periodic progress tick
	EventMetadataLoaded                  // Duration is now known
	EventEnded                           // Natural completion
	EventPlayRejected                    // Engine rejected a play attempt
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventProgress:
		return "progress"
	case EventMetadataLoaded:
		return "metadata_loaded"
	case EventEnded:
		return "ended"
	case EventPlayRejected:
		return "play_rejected"
	default:
		return "unknown"
	}
}

// Event is an upward event from the media engine. TrackID identifies the
// track the event was issued for, so consumers can discard events whose
// originating track was superseded before the event arrived.
type Event struct {
	Type     EventType
	TrackID  string
	Position float64 // Playback position in seconds
	Duration float64 // Track duration in seconds (metadata events)
}

// Engine is the underlying media engine port. Implementations perform
// decode/playback off the caller's control flow and communicate only through
// the event channel; no call blocks its caller.
type Engine interface {
	// Load assigns a new audio source and begins preparing it.
	// durationHint is the catalog-reported duration in seconds, 0 if unknown.
	Load(trackID, url string, durationHint float64)
	// Play requests playback. The request may be rejected asynchronously
	// with an EventPlayRejected event.
	Play()
	Pause()
	Seek(sec float64)
	SetVolume(v float64)
	// Stop halts playback and detaches the current source.
	Stop()
	Events() <-chan Event
	Close()
}
