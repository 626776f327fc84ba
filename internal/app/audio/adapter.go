package audio

import (
	"sync"

	zlog "github.com/rs/zerolog/log"

	"github.com/CoderFake/playerd/internal/domain/track"
)

// Adapter owns exactly one playable media resource for the whole session and
// reconciles the session's logical state with it. The session store never
// touches the engine directly.
type Adapter struct {
	mu sync.Mutex

	engine    Engine
	currentID string
}

// NewAdapter creates an adapter around the given engine.
func NewAdapter(engine Engine) *Adapter {
	return &Adapter{engine: engine}
}

// SetTrack assigns the track's audio source and issues a load. When autoplay
// is set, a playback start is attempted; the engine may reject it
// asynchronously with an EventPlayRejected event.
func (a *Adapter) SetTrack(t track.Track, autoplay bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.currentID = t.ID
	a.engine.Load(t.ID, t.AudioURL, t.DurationSec)
	if autoplay {
		a.engine.Play()
	}
}

// SetPlaying issues play or pause to the engine for the current source.
func (a *Adapter) SetPlaying(playing bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.currentID == "" {
		return
	}
	if playing {
		a.engine.Play()
	} else {
		a.engine.Pause()
	}
}

// Seek moves the playback position of the current source.
func (a *Adapter) Seek(sec float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.engine.Seek(sec)
}

// SetVolume pushes the volume to the engine.
func (a *Adapter) SetVolume(v float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.engine.SetVolume(v)
}

// Events returns the engine's normalized event stream.
func (a *Adapter) Events() <-chan Event {
	return a.engine.Events()
}

// Release stops playback, detaches the source, and closes the engine.
// Called once on session teardown.
func (a *Adapter) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()

	zlog.Debug().Msg("audio: releasing output resource")
	a.currentID = ""
	a.engine.Close()
}
