package player

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CoderFake/playerd/internal/app/audio"
	"github.com/CoderFake/playerd/internal/domain/prefs"
	"github.com/CoderFake/playerd/internal/domain/track"
)

type fakeAudio struct {
	mu       sync.Mutex
	events   chan audio.Event
	loads    []string
	playing  []bool
	seeks    []float64
	volume   float64
	released bool
}

func newFakeAudio() *fakeAudio {
	return &fakeAudio{events: make(chan audio.Event, 32)}
}

func (f *fakeAudio) SetTrack(t track.Track, autoplay bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads = append(f.loads, t.ID)
}

func (f *fakeAudio) SetPlaying(playing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = append(f.playing, playing)
}

func (f *fakeAudio) Seek(sec float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, sec)
}

func (f *fakeAudio) SetVolume(v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = v
}

func (f *fakeAudio) Events() <-chan audio.Event {
	return f.events
}

func (f *fakeAudio) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = true
}

func (f *fakeAudio) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.loads)
}

func (f *fakeAudio) lastSeek() (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.seeks) == 0 {
		return 0, false
	}
	return f.seeks[len(f.seeks)-1], true
}

func (f *fakeAudio) currentVolume() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volume
}

type fakeStore struct {
	mu     sync.Mutex
	stored *prefs.Preferences
	err    error
	saves  []prefs.Preferences
}

func (f *fakeStore) Load(_ context.Context) (*prefs.Preferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored, f.err
}

func (f *fakeStore) Save(_ context.Context, p prefs.Preferences) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, p)
	return nil
}

func (f *fakeStore) lastSave() (prefs.Preferences, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saves) == 0 {
		return prefs.Preferences{}, false
	}
	return f.saves[len(f.saves)-1], true
}

type fakeEmitter struct {
	mu    sync.Mutex
	plays []string
	modes []bool
}

func (f *fakeEmitter) EmitPlay(trackID string, playlistMode bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays = append(f.plays, trackID)
	f.modes = append(f.modes, playlistMode)
}

func (f *fakeEmitter) playIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.plays...)
}

func testTrack(id string) track.Track {
	return track.Track{
		ID:       id,
		Title:    "Title " + id,
		Artist:   "Artist",
		AudioURL: "https://cdn.example.com/" + id + ".mp3",
	}
}

func newTestSession(t *testing.T) (*Session, *fakeAudio, *fakeStore, *fakeEmitter) {
	t.Helper()
	fa := newFakeAudio()
	fs := &fakeStore{}
	fe := &fakeEmitter{}
	s := New(fa, fs, fe)
	t.Cleanup(s.Close)
	return s, fa, fs, fe
}

func trackIDs(tracks []track.Track) []string {
	ids := make([]string, len(tracks))
	for i, tr := range tracks {
		ids[i] = tr.ID
	}
	return ids
}

func TestSession_PlayTrack(t *testing.T) {
	s, fa, _, fe := newTestSession(t)

	s.PlayTrack(testTrack("a"), []track.Track{testTrack("b"), testTrack("c")})

	snap := s.Snapshot()
	require.NotNil(t, snap.CurrentTrack)
	assert.Equal(t, "a", snap.CurrentTrack.ID)
	assert.Equal(t, []string{"b", "c"}, trackIDs(snap.Queue))
	assert.Empty(t, snap.History)
	assert.True(t, snap.IsPlaying)
	assert.Equal(t, StateLoading, snap.State)
	assert.Equal(t, []string{"a"}, fa.loads)
	assert.Equal(t, []string{"a"}, fe.playIDs())
}

func TestSession_PlayTrack_PushesCurrentToHistory(t *testing.T) {
	s, _, _, _ := newTestSession(t)

	s.PlayTrack(testTrack("a"), nil)
	s.PlayTrack(testTrack("b"), nil)

	snap := s.Snapshot()
	assert.Equal(t, "b", snap.CurrentTrack.ID)
	assert.Equal(t, []string{"a"}, trackIDs(snap.History))
}

func TestSession_HistoryBounded(t *testing.T) {
	s, _, _, _ := newTestSession(t)

	for i := 0; i < 25; i++ {
		s.PlayTrack(testTrack(fmt.Sprintf("t%02d", i)), nil)
	}

	snap := s.Snapshot()
	require.Len(t, snap.History, 20)
	assert.Equal(t, "t23", snap.History[0].ID)
	assert.Equal(t, "t04", snap.History[19].ID)
}

func TestSession_Next(t *testing.T) {
	s, _, _, fe := newTestSession(t)

	s.PlayTrack(testTrack("a"), []track.Track{testTrack("b"), testTrack("c")})
	s.Next()

	snap := s.Snapshot()
	assert.Equal(t, "b", snap.CurrentTrack.ID)
	assert.Equal(t, []string{"c"}, trackIDs(snap.Queue))
	assert.Equal(t, []string{"a"}, trackIDs(snap.History))
	assert.Equal(t, []string{"a", "b"}, fe.playIDs())
}

func TestSession_Next_EmptyQueueNoRepeat(t *testing.T) {
	s, fa, _, _ := newTestSession(t)

	s.PlayTrack(testTrack("a"), nil)
	s.Next()

	snap := s.Snapshot()
	assert.Equal(t, "a", snap.CurrentTrack.ID)
	assert.True(t, snap.IsPlaying)
	assert.Equal(t, 1, fa.loadCount())
}

func TestSession_Next_RepeatAllRebuildsFromHistory(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	s.SetRepeatMode(prefs.RepeatAll)

	// history ends up [p, q] with p most recent.
	s.PlayTrack(testTrack("q"), nil)
	s.PlayTrack(testTrack("p"), nil)
	s.PlayTrack(testTrack("z"), nil)

	s.Next()

	snap := s.Snapshot()
	assert.Equal(t, "q", snap.CurrentTrack.ID)
	assert.Equal(t, []string{"p"}, trackIDs(snap.Queue))
	assert.Empty(t, snap.History)
}

func TestSession_Previous_StepsBack(t *testing.T) {
	s, _, _, fe := newTestSession(t)

	s.PlayTrack(testTrack("x"), nil)
	s.PlayTrack(testTrack("y"), []track.Track{testTrack("z")})
	s.Previous()

	snap := s.Snapshot()
	assert.Equal(t, "x", snap.CurrentTrack.ID)
	assert.Equal(t, []string{"y", "z"}, trackIDs(snap.Queue))
	assert.Empty(t, snap.History)
	// Stepping back is not a new play.
	assert.Equal(t, []string{"x", "y"}, fe.playIDs())
}

func TestSession_Previous_RestartsPastThreshold(t *testing.T) {
	s, fa, _, _ := newTestSession(t)

	s.PlayTrack(testTrack("x"), nil)
	s.PlayTrack(testTrack("y"), nil)
	s.SeekTo(5)

	s.Previous()

	snap := s.Snapshot()
	assert.Equal(t, "y", snap.CurrentTrack.ID)
	assert.Equal(t, []string{"x"}, trackIDs(snap.History))
	assert.Equal(t, 0.0, snap.ProgressSeconds)
	last, ok := fa.lastSeek()
	require.True(t, ok)
	assert.Equal(t, 0.0, last)
}

func TestSession_Previous_EmptyHistoryNoOp(t *testing.T) {
	s, _, _, _ := newTestSession(t)

	s.PlayTrack(testTrack("a"), nil)
	s.Previous()

	snap := s.Snapshot()
	assert.Equal(t, "a", snap.CurrentTrack.ID)
	assert.True(t, snap.IsPlaying)
}

func TestSession_PauseResume(t *testing.T) {
	s, _, _, _ := newTestSession(t)

	s.PlayTrack(testTrack("a"), nil)
	s.Pause()
	assert.False(t, s.Snapshot().IsPlaying)

	s.Resume()
	assert.True(t, s.Snapshot().IsPlaying)
}

func TestSession_PauseWithoutTrackNoOp(t *testing.T) {
	s, fa, _, _ := newTestSession(t)

	s.Pause()
	s.Resume()

	assert.Equal(t, StateIdle, s.Snapshot().State)
	fa.mu.Lock()
	defer fa.mu.Unlock()
	assert.Empty(t, fa.playing)
}

func TestSession_SetVolumeClampsAndPersists(t *testing.T) {
	s, fa, fs, _ := newTestSession(t)

	s.SetVolume(1.5)
	assert.Equal(t, 1.0, s.Snapshot().Volume)
	assert.Equal(t, 1.0, fa.currentVolume())

	s.SetVolume(-0.2)
	assert.Equal(t, 0.0, s.Snapshot().Volume)
	assert.Equal(t, 0.0, fa.currentVolume())

	require.Eventually(t, func() bool {
		last, ok := fs.lastSave()
		return ok && last.Volume == 0.0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSession_SeekClampedToDuration(t *testing.T) {
	s, _, _, _ := newTestSession(t)

	s.PlayTrack(testTrack("a"), nil)
	s.pushEngineEvent(t, audio.Event{Type: audio.EventMetadataLoaded, TrackID: "a", Duration: 100})

	require.Eventually(t, func() bool {
		return s.Snapshot().DurationSeconds == 100
	}, 2*time.Second, 10*time.Millisecond)

	s.SeekTo(500)
	assert.Equal(t, 100.0, s.Snapshot().ProgressSeconds)

	s.SeekTo(-3)
	assert.Equal(t, 0.0, s.Snapshot().ProgressSeconds)
}

func TestSession_QueueOps(t *testing.T) {
	s, _, _, _ := newTestSession(t)

	s.PlayTrack(testTrack("a"), nil)
	s.AddToQueue(testTrack("b"))
	s.AddToQueue(testTrack("c"))
	s.AddToQueue(testTrack("b")) // duplicates allowed

	assert.Equal(t, []string{"b", "c", "b"}, trackIDs(s.Snapshot().Queue))

	s.ClearQueue()
	snap := s.Snapshot()
	assert.Empty(t, snap.Queue)
	assert.Equal(t, "a", snap.CurrentTrack.ID)
}

func TestSession_RepeatModePersists(t *testing.T) {
	s, _, fs, _ := newTestSession(t)

	s.SetRepeatMode(prefs.RepeatOne)
	assert.Equal(t, prefs.RepeatOne, s.Snapshot().RepeatMode)

	require.Eventually(t, func() bool {
		last, ok := fs.lastSave()
		return ok && last.Repeat == prefs.RepeatOne
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSession_TogglePlaylistMode(t *testing.T) {
	s, _, _, fe := newTestSession(t)

	s.TogglePlaylistMode()
	assert.True(t, s.Snapshot().PlaylistMode)

	s.PlayTrack(testTrack("a"), nil)
	assert.Equal(t, []bool{true}, fe.modes)

	s.TogglePlaylistMode()
	assert.False(t, s.Snapshot().PlaylistMode)
}

func TestSession_SeedsPreferencesFromStore(t *testing.T) {
	fa := newFakeAudio()
	fs := &fakeStore{stored: &prefs.Preferences{Volume: 0.3, Repeat: prefs.RepeatAll, PlaylistMode: true}}
	s := New(fa, fs, &fakeEmitter{})
	t.Cleanup(s.Close)

	snap := s.Snapshot()
	assert.Equal(t, 0.3, snap.Volume)
	assert.Equal(t, prefs.RepeatAll, snap.RepeatMode)
	assert.True(t, snap.PlaylistMode)
	assert.Equal(t, 0.3, fa.currentVolume())
}

func TestSession_LoadErrorFallsBackToDefaults(t *testing.T) {
	fa := newFakeAudio()
	fs := &fakeStore{err: fmt.Errorf("store unavailable")}
	s := New(fa, fs, &fakeEmitter{})
	t.Cleanup(s.Close)

	snap := s.Snapshot()
	assert.Equal(t, 0.7, snap.Volume)
	assert.Equal(t, prefs.RepeatOff, snap.RepeatMode)
	assert.False(t, snap.PlaylistMode)
}

func TestSession_EndedAdvancesQueue(t *testing.T) {
	s, _, _, fe := newTestSession(t)

	s.PlayTrack(testTrack("a"), []track.Track{testTrack("b")})
	s.pushEngineEvent(t, audio.Event{Type: audio.EventEnded, TrackID: "a"})

	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return snap.CurrentTrack != nil && snap.CurrentTrack.ID == "b"
	}, 2*time.Second, 10*time.Millisecond)

	snap := s.Snapshot()
	assert.Equal(t, []string{"a"}, trackIDs(snap.History))
	assert.True(t, snap.IsPlaying)
	assert.Equal(t, []string{"a", "b"}, fe.playIDs())
}

func TestSession_EndedEmptyQueueStops(t *testing.T) {
	s, fa, _, _ := newTestSession(t)

	s.PlayTrack(testTrack("a"), nil)
	s.pushEngineEvent(t, audio.Event{Type: audio.EventEnded, TrackID: "a"})

	require.Eventually(t, func() bool {
		return !s.Snapshot().IsPlaying
	}, 2*time.Second, 10*time.Millisecond)

	snap := s.Snapshot()
	assert.Equal(t, "a", snap.CurrentTrack.ID)
	assert.Equal(t, 0.0, snap.ProgressSeconds)

	// The engine sits at the end of the source; it must be rewound so a
	// later resume starts from the top.
	last, ok := fa.lastSeek()
	require.True(t, ok)
	assert.Equal(t, 0.0, last)
}

func TestSession_ResumeAfterEndedReplays(t *testing.T) {
	engine := audio.NewClockEngine(audio.ClockConfig{TickInterval: 10 * time.Millisecond})
	adapter := audio.NewAdapter(engine)
	s := New(adapter, &fakeStore{}, &fakeEmitter{})
	t.Cleanup(s.Close)

	tr := testTrack("a")
	tr.DurationSec = 0.3
	s.PlayTrack(tr, nil)

	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return !snap.IsPlaying && snap.ProgressSeconds == 0
	}, 2*time.Second, 5*time.Millisecond)

	s.Resume()

	// The track plays again from the start instead of instantly ending.
	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return snap.IsPlaying && snap.ProgressSeconds > 0 && snap.ProgressSeconds < tr.DurationSec
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSession_EndedRepeatOneReplays(t *testing.T) {
	s, fa, _, fe := newTestSession(t)

	s.PlayTrack(testTrack("a"), nil)
	s.SetRepeatMode(prefs.RepeatOne)
	s.pushEngineEvent(t, audio.Event{Type: audio.EventEnded, TrackID: "a"})

	require.Eventually(t, func() bool {
		return fa.loadCount() == 2
	}, 2*time.Second, 10*time.Millisecond)

	snap := s.Snapshot()
	assert.Equal(t, "a", snap.CurrentTrack.ID)
	assert.True(t, snap.IsPlaying)
	assert.Equal(t, 0.0, snap.ProgressSeconds)
	// Replaying the same track is not a new play.
	assert.Equal(t, []string{"a"}, fe.playIDs())
}

func TestSession_EndedRepeatAllReconstruction(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	s.SetRepeatMode(prefs.RepeatAll)

	s.PlayTrack(testTrack("q"), nil)
	s.PlayTrack(testTrack("p"), nil)
	s.PlayTrack(testTrack("z"), nil)

	s.pushEngineEvent(t, audio.Event{Type: audio.EventEnded, TrackID: "z"})

	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return snap.CurrentTrack != nil && snap.CurrentTrack.ID == "q"
	}, 2*time.Second, 10*time.Millisecond)

	snap := s.Snapshot()
	assert.Equal(t, []string{"p"}, trackIDs(snap.Queue))
	assert.Empty(t, snap.History)
	assert.True(t, snap.IsPlaying)
}

func TestSession_StaleEngineEventDiscarded(t *testing.T) {
	s, _, _, _ := newTestSession(t)

	s.PlayTrack(testTrack("a"), nil)
	s.pushEngineEvent(t, audio.Event{Type: audio.EventProgress, TrackID: "old", Position: 42})
	s.pushEngineEvent(t, audio.Event{Type: audio.EventProgress, TrackID: "a", Position: 7})

	require.Eventually(t, func() bool {
		return s.Snapshot().ProgressSeconds == 7
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSession_PlayRejectedRollsBack(t *testing.T) {
	s, _, _, _ := newTestSession(t)

	s.PlayTrack(testTrack("a"), []track.Track{testTrack("b")})
	s.pushEngineEvent(t, audio.Event{Type: audio.EventPlayRejected, TrackID: "a"})

	require.Eventually(t, func() bool {
		return !s.Snapshot().IsPlaying
	}, 2*time.Second, 10*time.Millisecond)

	snap := s.Snapshot()
	assert.Equal(t, "a", snap.CurrentTrack.ID)
	assert.Equal(t, []string{"b"}, trackIDs(snap.Queue))
	assert.Equal(t, ConditionPlaybackBlocked, snap.LastCondition)
}

func TestSession_MissingAudioSourceAutoAdvances(t *testing.T) {
	s, fa, _, fe := newTestSession(t)

	broken := track.Track{ID: "broken", Title: "No Source"}
	s.PlayTrack(broken, []track.Track{testTrack("b")})

	snap := s.Snapshot()
	assert.Equal(t, "b", snap.CurrentTrack.ID)
	assert.Equal(t, ConditionMissingAudioSource, snap.LastCondition)
	// The unplayable track never reached the engine or telemetry.
	assert.Equal(t, []string{"b"}, fa.loads)
	assert.Equal(t, []string{"b"}, fe.playIDs())
}

func TestSession_MissingAudioSourceEmptyQueueStops(t *testing.T) {
	s, fa, _, fe := newTestSession(t)

	s.PlayTrack(track.Track{ID: "broken"}, nil)

	snap := s.Snapshot()
	assert.False(t, snap.IsPlaying)
	assert.Equal(t, ConditionMissingAudioSource, snap.LastCondition)
	assert.Equal(t, 0, fa.loadCount())
	assert.Empty(t, fe.playIDs())
}

func TestSession_EmitsEvents(t *testing.T) {
	fa := newFakeAudio()
	s := New(fa, &fakeStore{}, &fakeEmitter{})
	t.Cleanup(s.Close)

	s.PlayTrack(testTrack("a"), nil)

	select {
	case ev := <-s.Events():
		assert.Equal(t, EventTrackChanged, ev.Type)
		require.NotNil(t, ev.Snapshot.CurrentTrack)
		assert.Equal(t, "a", ev.Snapshot.CurrentTrack.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a session event")
	}
}

func TestSession_CloseReleasesAudio(t *testing.T) {
	fa := newFakeAudio()
	s := New(fa, &fakeStore{}, &fakeEmitter{})

	s.Close()

	fa.mu.Lock()
	defer fa.mu.Unlock()
	assert.True(t, fa.released)
}

// pushEngineEvent feeds an event to the session as if the engine emitted it.
func (s *Session) pushEngineEvent(t *testing.T, ev audio.Event) {
	t.Helper()
	fa, ok := s.audio.(*fakeAudio)
	require.True(t, ok)
	fa.events <- ev
}
