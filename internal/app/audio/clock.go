package audio

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"
)

const defaultTrackDuration = 180.0

// ClockConfig holds clock engine configuration.
type ClockConfig struct {
	TickInterval  time.Duration // Progress tick cadence
	BlockAutoplay bool          // Reject the first play attempt after each load
}

// ClockEngine is an Engine that advances playback position on wall-clock
// timers instead of decoding real audio. It emits the same event sequence a
// real media engine would: metadata after load, progress ticks while playing,
// and ended at the end of the track.
type ClockEngine struct {
	mu sync.Mutex

	trackID  string
	url      string
	duration float64
	position float64
	volume   float64
	playing  bool

	// Set when a play attempt for the current load was already rejected.
	// A later attempt models an explicit user gesture and is allowed.
	playRejected bool

	tickCancel func()

	config  ClockConfig
	eventCh chan Event

	ctx    context.Context
	cancel context.CancelFunc
}

// NewClockEngine creates a new clock-driven engine.
func NewClockEngine(config ClockConfig) *ClockEngine {
	if config.TickInterval <= 0 {
		config.TickInterval = 500 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ClockEngine{
		volume:  1.0,
		config:  config,
		eventCh: make(chan Event, 16),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Events returns the event channel.
func (e *ClockEngine) Events() <-chan Event {
	return e.eventCh
}

// Load assigns a new source. Any in-flight playback is dropped.
func (e *ClockEngine) Load(trackID, url string, durationHint float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopTickerLocked()

	e.trackID = trackID
	e.url = url
	e.position = 0
	e.playing = false
	e.playRejected = false

	e.duration = durationHint
	if e.duration <= 0 {
		e.duration = defaultTrackDuration
	}

	zlog.Debug().Msgf("audio: source loaded: track=%s duration=%.1fs", trackID, e.duration)

	e.sendEventLocked(Event{
		Type:     EventMetadataLoaded,
		TrackID:  trackID,
		Duration: e.duration,
	})
}

// Play requests playback of the loaded source.
func (e *ClockEngine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.trackID == "" {
		return
	}
	if e.playing {
		return
	}

	if e.config.BlockAutoplay && !e.playRejected {
		e.playRejected = true
		zlog.Debug().Msgf("audio: play attempt rejected: track=%s", e.trackID)
		e.sendEventLocked(Event{
			Type:    EventPlayRejected,
			TrackID: e.trackID,
		})
		return
	}

	e.playing = true
	e.startTickerLocked()
}

// Pause halts position advancement without detaching the source.
func (e *ClockEngine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.playing = false
	e.stopTickerLocked()
}

// Seek moves the playback position, clamped to the track bounds.
func (e *ClockEngine) Seek(sec float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if sec < 0 {
		sec = 0
	}
	if e.duration > 0 && sec > e.duration {
		sec = e.duration
	}
	e.position = sec
}

// SetVolume sets the output volume.
func (e *ClockEngine) SetVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = v
}

// Stop halts playback and detaches the current source.
func (e *ClockEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopTickerLocked()
	e.trackID = ""
	e.url = ""
	e.position = 0
	e.playing = false
}

// Close releases the engine and its event channel.
func (e *ClockEngine) Close() {
	e.Stop()
	e.cancel()
	close(e.eventCh)
}

// startTickerLocked starts the progress ticker. Must be called with lock held.
func (e *ClockEngine) startTickerLocked() {
	e.stopTickerLocked()

	ctx, cancel := context.WithCancel(e.ctx)
	e.tickCancel = cancel

	trackID := e.trackID
	step := e.config.TickInterval.Seconds()

	go func() {
		ticker := time.NewTicker(e.config.TickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if done := e.tick(trackID, step); done {
					return
				}
			}
		}
	}()
}

// tick advances the position by one step. Returns true when the ticker
// should stop, either because the track ended or the load was superseded.
func (e *ClockEngine) tick(trackID string, step float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.trackID != trackID || !e.playing {
		return true
	}

	e.position += step
	if e.position >= e.duration {
		e.position = e.duration
		e.playing = false
		e.sendEventLocked(Event{
			Type:     EventProgress,
			TrackID:  trackID,
			Position: e.position,
			Duration: e.duration,
		})
		e.sendEventLocked(Event{
			Type:    EventEnded,
			TrackID: trackID,
		})
		return true
	}

	e.sendEventLocked(Event{
		Type:     EventProgress,
		TrackID:  trackID,
		Position: e.position,
		Duration: e.duration,
	})
	return false
}

// stopTickerLocked cancels the progress ticker. Must be called with lock held.
func (e *ClockEngine) stopTickerLocked() {
	if e.tickCancel != nil {
		e.tickCancel()
		e.tickCancel = nil
	}
}

// sendEventLocked sends an event without blocking. Must be called with lock held.
func (e *ClockEngine) sendEventLocked(ev Event) {
	select {
	case e.eventCh <- ev:
	case <-e.ctx.Done():
	default:
		// Channel full, drop event
	}
}
