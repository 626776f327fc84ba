package player

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/CoderFake/playerd/internal/app/audio"
	"github.com/CoderFake/playerd/internal/domain/prefs"
	"github.com/CoderFake/playerd/internal/domain/track"
	"github.com/CoderFake/playerd/internal/infra/prefstore"
)

const (
	// historyLimit bounds the history list. The oldest entry is dropped
	// when a new one would exceed it.
	historyLimit = 20

	// restartThresholdSec is the position beyond which a previous intent
	// restarts the current track instead of stepping back.
	restartThresholdSec = 3.0

	eventBufferSize = 32
	persistTimeout  = 5 * time.Second
)

// AudioPort is the session's view of the audio output. The session holds the
// single playback resource through this port and never touches the engine
// directly.
type AudioPort interface {
	SetTrack(t track.Track, autoplay bool)
	SetPlaying(playing bool)
	Seek(sec float64)
	SetVolume(v float64)
	Events() <-chan audio.Event
	Release()
}

// PlayEmitter receives play events for tracks the session starts.
type PlayEmitter interface {
	EmitPlay(trackID string, playlistMode bool)
}

// Session is the playback session store. All intents and engine callbacks
// funnel through its mutex, so observers always see a consistent snapshot.
type Session struct {
	mu sync.Mutex

	id      string
	current *track.Track
	queue   []track.Track
	history []track.Track // history[0] is the most recent entry

	playing  bool
	loaded   bool // engine confirmed the current load
	progress float64
	duration float64

	prefs         prefs.Preferences
	lastCondition Condition

	audio   AudioPort
	store   prefstore.Store
	emitter PlayEmitter

	eventCh chan Event
	saveCh  chan prefs.Preferences
	closed  bool

	ctx      context.Context
	cancel   context.CancelFunc
	loopDone chan struct{}
	saveDone chan struct{}
}

// New creates a session, seeds preferences from the store, and starts the
// engine event and preference persistence loops.
func New(port AudioPort, store prefstore.Store, emitter PlayEmitter) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:       uuid.New().String(),
		prefs:    prefs.Default(),
		audio:    port,
		store:    store,
		emitter:  emitter,
		eventCh:  make(chan Event, eventBufferSize),
		saveCh:   make(chan prefs.Preferences, 1),
		ctx:      ctx,
		cancel:   cancel,
		loopDone: make(chan struct{}),
		saveDone: make(chan struct{}),
	}

	loadCtx, loadCancel := context.WithTimeout(ctx, persistTimeout)
	stored, err := store.Load(loadCtx)
	loadCancel()
	if err != nil {
		zlog.Warn().Msgf("player: failed to load preferences, using defaults: %v", err)
	} else if stored != nil {
		s.prefs = *stored
		s.prefs.Clamp()
	}
	s.audio.SetVolume(s.prefs.Volume)

	go s.eventLoop()
	go s.saveLoop()

	zlog.Info().Msgf("player: session started: id=%s volume=%.2f repeat=%s playlist_mode=%t",
		s.id, s.prefs.Volume, s.prefs.Repeat, s.prefs.PlaylistMode)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Events returns the session event stream. The channel is buffered; slow
// observers lose events rather than block the session.
func (s *Session) Events() <-chan Event {
	return s.eventCh
}

// Snapshot returns a consistent copy of the observable session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// PlayTrack replaces the current track and queue in one step. The previous
// current track is pushed onto history first.
func (s *Session) PlayTrack(t track.Track, newQueue []track.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.pushHistoryLocked(*s.current)
	}
	s.queue = append([]track.Track(nil), newQueue...)
	s.startTrackLocked(t, true)
}

// Pause suspends playback. No-op when nothing is playing.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || !s.playing {
		return
	}
	s.playing = false
	s.audio.SetPlaying(false)
	s.sendEventLocked(Event{Type: EventStateChanged, Snapshot: s.snapshotLocked()})
}

// Resume restarts playback of the current track. No-op when there is no
// current track or playback is already running.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.playing {
		return
	}
	s.playing = true
	s.audio.SetPlaying(true)
	s.sendEventLocked(Event{Type: EventStateChanged, Snapshot: s.snapshotLocked()})
}

// Next advances to the next track. With an empty queue and repeat-all it
// rebuilds a cycle from history; with an empty queue otherwise it is a no-op.
func (s *Session) Next() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextLocked()
}

// Previous restarts the current track when more than three seconds in,
// otherwise steps back to the most recent history entry. The current track
// goes to the front of the queue so Next returns to it.
func (s *Session) Previous() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && s.progress > restartThresholdSec {
		s.progress = 0
		s.audio.Seek(0)
		s.sendEventLocked(Event{Type: EventProgress, Snapshot: s.snapshotLocked()})
		return
	}
	if len(s.history) == 0 {
		return
	}

	prev := s.history[0]
	s.history = append([]track.Track(nil), s.history[1:]...)
	if s.current != nil {
		s.queue = append([]track.Track{*s.current}, s.queue...)
	}
	s.startTrackLocked(prev, false)
}

// SetVolume clamps the value to [0, 1], applies it to the engine, and
// schedules a preference save.
func (s *Session) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs.Volume = v
	s.prefs.Clamp()
	s.audio.SetVolume(s.prefs.Volume)
	s.schedulePersistLocked()
	s.sendEventLocked(Event{Type: EventStateChanged, Snapshot: s.snapshotLocked()})
}

// SeekTo moves the playback position, clamped to [0, duration]. No-op
// without a current track.
func (s *Session) SeekTo(sec float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return
	}
	if sec < 0 {
		sec = 0
	}
	if s.duration > 0 && sec > s.duration {
		sec = s.duration
	}
	s.progress = sec
	s.audio.Seek(sec)
	s.sendEventLocked(Event{Type: EventProgress, Snapshot: s.snapshotLocked()})
}

// AddToQueue appends a track to the end of the queue. Duplicates are allowed.
func (s *Session) AddToQueue(t track.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue = append(s.queue, t)
	s.sendEventLocked(Event{Type: EventQueueChanged, Snapshot: s.snapshotLocked()})
}

// ClearQueue empties the queue. The current track keeps playing.
func (s *Session) ClearQueue() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue = nil
	s.sendEventLocked(Event{Type: EventQueueChanged, Snapshot: s.snapshotLocked()})
}

// SetRepeatMode updates the repeat mode and schedules a preference save.
func (s *Session) SetRepeatMode(m prefs.RepeatMode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs.Repeat = m
	s.schedulePersistLocked()
	s.sendEventLocked(Event{Type: EventStateChanged, Snapshot: s.snapshotLocked()})
}

// TogglePlaylistMode flips the playlist-mode flag and schedules a
// preference save. The flag only changes how plays are reported.
func (s *Session) TogglePlaylistMode() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs.PlaylistMode = !s.prefs.PlaylistMode
	s.schedulePersistLocked()
	s.sendEventLocked(Event{Type: EventStateChanged, Snapshot: s.snapshotLocked()})
}

// Close stops the session loops and releases the audio resource.
func (s *Session) Close() {
	s.cancel()
	<-s.loopDone
	<-s.saveDone

	s.mu.Lock()
	s.closed = true
	close(s.eventCh)
	s.mu.Unlock()

	s.audio.Release()
	zlog.Info().Msgf("player: session closed: id=%s", s.id)
}

// startTrackLocked makes t the current track and requests a load. A track
// without an audio source never reaches the engine; it raises a condition
// and auto-advances instead.
func (s *Session) startTrackLocked(t track.Track, emit bool) {
	s.current = &t
	s.playing = true
	s.loaded = false
	s.progress = 0
	s.duration = 0

	if !t.Playable() {
		s.handleMissingSourceLocked()
		return
	}

	s.audio.SetTrack(t, true)
	if emit && s.emitter != nil {
		s.emitter.EmitPlay(t.ID, s.prefs.PlaylistMode)
	}
	s.sendEventLocked(Event{Type: EventTrackChanged, Snapshot: s.snapshotLocked()})
}

func (s *Session) handleMissingSourceLocked() {
	zlog.Warn().Msgf("player: track has no audio source, skipping: track_id=%s", s.current.ID)
	s.lastCondition = ConditionMissingAudioSource
	s.sendEventLocked(Event{
		Type:      EventCondition,
		Condition: ConditionMissingAudioSource,
		Snapshot:  s.snapshotLocked(),
	})
	// Advance as if the track had ended. Repeat-one is ignored here: it
	// would reselect the same unplayable track forever.
	s.endedLocked(true)
}

// endedLocked applies the end-of-track transition. skipRepeatOne suppresses
// the single-track replay branch.
func (s *Session) endedLocked(skipRepeatOne bool) {
	if s.current == nil {
		return
	}

	if !skipRepeatOne && s.prefs.Repeat == prefs.RepeatOne {
		s.playing = true
		s.loaded = false
		s.progress = 0
		s.audio.SetTrack(*s.current, true)
		s.sendEventLocked(Event{Type: EventStateChanged, Snapshot: s.snapshotLocked()})
		return
	}

	if len(s.queue) > 0 || (s.prefs.Repeat == prefs.RepeatAll && len(s.history) > 0) {
		s.nextLocked()
		return
	}

	// Nothing left to play: hold the track so resume replays it. The engine
	// is parked at the end of the source, so rewind it to match.
	s.playing = false
	s.progress = 0
	s.audio.Seek(0)
	s.sendEventLocked(Event{Type: EventStateChanged, Snapshot: s.snapshotLocked()})
}

func (s *Session) nextLocked() {
	if len(s.queue) > 0 {
		nxt := s.queue[0]
		s.queue = append([]track.Track(nil), s.queue[1:]...)
		if s.current != nil {
			s.pushHistoryLocked(*s.current)
		}
		s.startTrackLocked(nxt, true)
		return
	}

	if s.prefs.Repeat == prefs.RepeatAll && len(s.history) > 0 {
		// Rebuild the cycle from history, oldest first. The track that
		// just finished is not re-queued; the cycle is the history.
		cycle := make([]track.Track, len(s.history))
		for i, t := range s.history {
			cycle[len(s.history)-1-i] = t
		}
		s.history = nil
		s.queue = append([]track.Track(nil), cycle[1:]...)
		s.startTrackLocked(cycle[0], true)
		return
	}

	// Empty queue, no cycle to rebuild: hold position.
}

// pushHistoryLocked prepends t, dropping the oldest entry at the limit.
func (s *Session) pushHistoryLocked(t track.Track) {
	s.history = append([]track.Track{t}, s.history...)
	if len(s.history) > historyLimit {
		s.history = s.history[:historyLimit]
	}
}

// eventLoop consumes engine events until the session is closed.
func (s *Session) eventLoop() {
	defer close(s.loopDone)
	for {
		select {
		case <-s.ctx.Done():
			return
		case ev, ok := <-s.audio.Events():
			if !ok {
				return
			}
			s.handleEngineEvent(ev)
		}
	}
}

func (s *Session) handleEngineEvent(ev audio.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Events from a superseded load describe a track the user already
	// navigated away from. Discard them.
	if s.current == nil || s.current.ID != ev.TrackID {
		zlog.Debug().Msgf("player: discarding stale engine event: type=%s track_id=%s", ev.Type, ev.TrackID)
		return
	}

	switch ev.Type {
	case audio.EventMetadataLoaded:
		s.loaded = true
		s.duration = ev.Duration
		if s.duration > 0 && s.progress > s.duration {
			s.progress = s.duration
		}
		s.sendEventLocked(Event{Type: EventStateChanged, Snapshot: s.snapshotLocked()})
	case audio.EventProgress:
		s.loaded = true
		s.progress = ev.Position
		if s.duration > 0 && s.progress > s.duration {
			s.progress = s.duration
		}
		s.sendEventLocked(Event{Type: EventProgress, Snapshot: s.snapshotLocked()})
	case audio.EventEnded:
		s.endedLocked(false)
	case audio.EventPlayRejected:
		// Roll the optimistic playing flag back. Track, queue, and
		// history stay as the user left them.
		zlog.Warn().Msgf("player: play attempt rejected by engine: track_id=%s", ev.TrackID)
		s.playing = false
		s.lastCondition = ConditionPlaybackBlocked
		s.sendEventLocked(Event{
			Type:      EventCondition,
			Condition: ConditionPlaybackBlocked,
			Snapshot:  s.snapshotLocked(),
		})
	}
}

// saveLoop persists preference changes in the background. saveCh holds at
// most the latest pending value, so the stored record converges on the most
// recent change even when saves are slow.
func (s *Session) saveLoop() {
	defer close(s.saveDone)
	for {
		select {
		case <-s.ctx.Done():
			return
		case p := <-s.saveCh:
			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			if err := s.store.Save(ctx, p); err != nil {
				zlog.Warn().Msgf("player: failed to persist preferences: %v", err)
			}
			cancel()
		}
	}
}

func (s *Session) schedulePersistLocked() {
	p := s.prefs
	for {
		select {
		case s.saveCh <- p:
			return
		default:
			// Replace the stale pending value with the latest one.
			select {
			case <-s.saveCh:
			default:
			}
		}
	}
}

func (s *Session) sendEventLocked(ev Event) {
	if s.closed {
		return
	}
	select {
	case s.eventCh <- ev:
	default:
		zlog.Warn().Msgf("player: event buffer full, dropping event: type=%s", ev.Type)
	}
}

func (s *Session) stateLocked() State {
	switch {
	case s.current == nil:
		return StateIdle
	case !s.loaded:
		return StateLoading
	case s.playing:
		return StatePlaying
	default:
		return StatePaused
	}
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:           s.stateLocked(),
		Queue:           append([]track.Track(nil), s.queue...),
		History:         append([]track.Track(nil), s.history...),
		IsPlaying:       s.playing,
		Volume:          s.prefs.Volume,
		ProgressSeconds: s.progress,
		DurationSeconds: s.duration,
		RepeatMode:      s.prefs.Repeat,
		PlaylistMode:    s.prefs.PlaylistMode,
		LastCondition:   s.lastCondition,
	}
	if s.current != nil {
		cur := *s.current
		snap.CurrentTrack = &cur
	}
	return snap
}
