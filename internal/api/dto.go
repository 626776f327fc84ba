// Package api exposes the playback session over HTTP and WebSocket.
package api

import (
	"github.com/CoderFake/playerd/internal/app/player"
	"github.com/CoderFake/playerd/internal/domain/track"
)

// trackJSON is the wire form of a catalog track.
type trackJSON struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Artist      string  `json:"artist,omitempty"`
	ArtworkURL  string  `json:"artworkUrl,omitempty"`
	DurationSec float64 `json:"durationSec,omitempty"`
	Genre       string  `json:"genre,omitempty"`
	Playable    bool    `json:"playable"`
}

func toTrackJSON(t track.Track) trackJSON {
	return trackJSON{
		ID:          t.ID,
		Title:       t.Title,
		Artist:      t.Artist,
		ArtworkURL:  t.ArtworkURL,
		DurationSec: t.DurationSec,
		Genre:       t.Genre,
		Playable:    t.Playable(),
	}
}

// stateJSON is the wire form of a session snapshot.
type stateJSON struct {
	State           string      `json:"state"`
	CurrentTrack    *trackJSON  `json:"currentTrack,omitempty"`
	Queue           []trackJSON `json:"queue"`
	History         []trackJSON `json:"history"`
	IsPlaying       bool        `json:"isPlaying"`
	Volume          float64     `json:"volume"`
	ProgressSeconds float64     `json:"progressSeconds"`
	DurationSeconds float64     `json:"durationSeconds"`
	RepeatMode      string      `json:"repeatMode"`
	PlaylistMode    bool        `json:"playlistModeEnabled"`
}

func toStateJSON(snap player.Snapshot) stateJSON {
	out := stateJSON{
		State:           snap.State.String(),
		Queue:           make([]trackJSON, len(snap.Queue)),
		History:         make([]trackJSON, len(snap.History)),
		IsPlaying:       snap.IsPlaying,
		Volume:          snap.Volume,
		ProgressSeconds: snap.ProgressSeconds,
		DurationSeconds: snap.DurationSeconds,
		RepeatMode:      snap.RepeatMode.String(),
		PlaylistMode:    snap.PlaylistMode,
	}
	if snap.CurrentTrack != nil {
		t := toTrackJSON(*snap.CurrentTrack)
		out.CurrentTrack = &t
	}
	for i, t := range snap.Queue {
		out.Queue[i] = toTrackJSON(t)
	}
	for i, t := range snap.History {
		out.History[i] = toTrackJSON(t)
	}
	return out
}

// eventJSON is the wire form of a session event pushed to subscribers.
type eventJSON struct {
	SequenceNo uint64    `json:"sequenceNo"`
	Type       string    `json:"type"`
	Condition  string    `json:"condition,omitempty"`
	State      stateJSON `json:"state"`
}

func toEventJSON(ev player.Event) eventJSON {
	out := eventJSON{
		Type:  ev.Type.String(),
		State: toStateJSON(ev.Snapshot),
	}
	if ev.Type == player.EventCondition {
		out.Condition = ev.Condition.String()
	}
	return out
}

type playRequest struct {
	TrackID  string   `json:"trackId"`
	QueueIDs []string `json:"queueIds"`
}

type volumeRequest struct {
	Volume float64 `json:"volume"`
}

type seekRequest struct {
	Position float64 `json:"position"`
}

type queueRequest struct {
	TrackID string `json:"trackId"`
}

type repeatRequest struct {
	Mode string `json:"mode"`
}

type errorJSON struct {
	Error string `json:"error"`
}
