// Package telemetry provides the fire-and-forget reporter for playback
// interaction events.
package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// Context carries the derived context attached to every interaction event.
type Context struct {
	TimeOfDayBucket string `json:"timeOfDayBucket"`
	DeviceClass     string `json:"deviceClass"`
	PlayerMode      string `json:"playerMode"`
}

// Event is a single playback interaction event.
type Event struct {
	ID      string    `json:"id"`
	Type    string    `json:"eventType"`
	TrackID string    `json:"trackId"`
	Context Context   `json:"context"`
	At      time.Time `json:"at"`
}

// TimeOfDayBucket maps a wall-clock hour to its context bucket.
func TimeOfDayBucket(hour int) string {
	switch {
	case hour >= 5 && hour <= 11:
		return "morning"
	case hour >= 12 && hour <= 16:
		return "afternoon"
	case hour >= 17 && hour <= 20:
		return "evening"
	default:
		return "night"
	}
}

// newPlayEvent builds a play event with derived context.
func newPlayEvent(trackID, device string, playlistMode bool, at time.Time) Event {
	mode := "single"
	if playlistMode {
		mode = "playlist"
	}
	return Event{
		ID:      uuid.New().String(),
		Type:    "play",
		TrackID: trackID,
		Context: Context{
			TimeOfDayBucket: TimeOfDayBucket(at.Hour()),
			DeviceClass:     device,
			PlayerMode:      mode,
		},
		At: at,
	}
}
