package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	zlog "github.com/rs/zerolog/log"

	"github.com/CoderFake/playerd/internal/app/player"
	"github.com/CoderFake/playerd/internal/domain/prefs"
	"github.com/CoderFake/playerd/internal/domain/track"
	"github.com/CoderFake/playerd/internal/infra/catalog"
)

// Server wires the playback session to HTTP handlers and forwards session
// events to WebSocket subscribers.
type Server struct {
	session  *player.Session
	catalog  catalog.Provider
	hub      *Hub
	upgrader websocket.Upgrader
	done     chan struct{}
}

// NewServer creates a server and starts forwarding session events to the
// hub until the session event channel closes.
func NewServer(session *player.Session, provider catalog.Provider) *Server {
	s := &Server{
		session: session,
		catalog: provider,
		hub:     NewHub(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		done: make(chan struct{}),
	}
	go s.forwardEvents()
	return s
}

// Router returns the HTTP route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	p := r.PathPrefix("/api/player").Subrouter()

	p.HandleFunc("/play", s.handlePlay).Methods(http.MethodPost)
	p.HandleFunc("/pause", s.handlePause).Methods(http.MethodPost)
	p.HandleFunc("/resume", s.handleResume).Methods(http.MethodPost)
	p.HandleFunc("/next", s.handleNext).Methods(http.MethodPost)
	p.HandleFunc("/previous", s.handlePrevious).Methods(http.MethodPost)
	p.HandleFunc("/volume", s.handleVolume).Methods(http.MethodPost)
	p.HandleFunc("/seek", s.handleSeek).Methods(http.MethodPost)
	p.HandleFunc("/queue", s.handleQueueAdd).Methods(http.MethodPost)
	p.HandleFunc("/queue", s.handleQueueClear).Methods(http.MethodDelete)
	p.HandleFunc("/repeat", s.handleRepeat).Methods(http.MethodPost)
	p.HandleFunc("/playlist-mode", s.handlePlaylistMode).Methods(http.MethodPost)
	p.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	p.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)

	r.HandleFunc("/api/tracks", s.handleTracks).Methods(http.MethodGet)
	return r
}

func (s *Server) forwardEvents() {
	defer close(s.done)
	for ev := range s.session.Events() {
		s.hub.Broadcast(toEventJSON(ev))
	}
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := s.catalog.Get(req.TrackID)
	if err != nil {
		respondCatalogError(w, err)
		return
	}

	resolved, err := s.resolveQueue(req.QueueIDs)
	if err != nil {
		respondCatalogError(w, err)
		return
	}

	s.session.PlayTrack(t, resolved)
	respondJSON(w, http.StatusOK, toStateJSON(s.session.Snapshot()))
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.session.Pause()
	respondJSON(w, http.StatusOK, toStateJSON(s.session.Snapshot()))
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.session.Resume()
	respondJSON(w, http.StatusOK, toStateJSON(s.session.Snapshot()))
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.session.Next()
	respondJSON(w, http.StatusOK, toStateJSON(s.session.Snapshot()))
}

func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	s.session.Previous()
	respondJSON(w, http.StatusOK, toStateJSON(s.session.Snapshot()))
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.session.SetVolume(req.Volume)
	respondJSON(w, http.StatusOK, toStateJSON(s.session.Snapshot()))
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.session.SeekTo(req.Position)
	respondJSON(w, http.StatusOK, toStateJSON(s.session.Snapshot()))
}

func (s *Server) handleQueueAdd(w http.ResponseWriter, r *http.Request) {
	var req queueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := s.catalog.Get(req.TrackID)
	if err != nil {
		respondCatalogError(w, err)
		return
	}
	s.session.AddToQueue(t)
	respondJSON(w, http.StatusOK, toStateJSON(s.session.Snapshot()))
}

func (s *Server) handleQueueClear(w http.ResponseWriter, r *http.Request) {
	s.session.ClearQueue()
	respondJSON(w, http.StatusOK, toStateJSON(s.session.Snapshot()))
}

func (s *Server) handleRepeat(w http.ResponseWriter, r *http.Request) {
	var req repeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.session.SetRepeatMode(prefs.ParseRepeatMode(req.Mode))
	respondJSON(w, http.StatusOK, toStateJSON(s.session.Snapshot()))
}

func (s *Server) handlePlaylistMode(w http.ResponseWriter, r *http.Request) {
	s.session.TogglePlaylistMode()
	respondJSON(w, http.StatusOK, toStateJSON(s.session.Snapshot()))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, toStateJSON(s.session.Snapshot()))
}

func (s *Server) handleTracks(w http.ResponseWriter, r *http.Request) {
	list := s.catalog.List()
	out := make([]trackJSON, len(list))
	for i, t := range list {
		out[i] = toTrackJSON(t)
	}
	respondJSON(w, http.StatusOK, out)
}

// handleEvents upgrades the connection and streams session events. The
// current state is sent first so late subscribers start from a full picture.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zlog.Warn().Msgf("api: websocket upgrade failed: %v", err)
		return
	}

	id := s.hub.Subscribe(conn)
	initial := eventJSON{
		Type:  "initial_state",
		State: toStateJSON(s.session.Snapshot()),
	}
	if err := conn.WriteJSON(initial); err != nil {
		s.hub.Unsubscribe(id)
		_ = conn.Close()
		return
	}

	// Drain reads to process close frames; we never expect client messages.
	go func() {
		defer func() {
			s.hub.Unsubscribe(id)
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) resolveQueue(ids []string) ([]track.Track, error) {
	queue := make([]track.Track, 0, len(ids))
	for _, id := range ids {
		t, err := s.catalog.Get(id)
		if err != nil {
			return nil, err
		}
		queue = append(queue, t)
	}
	return queue, nil
}

func respondCatalogError(w http.ResponseWriter, err error) {
	if errors.Is(err, catalog.ErrTrackNotFound) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, err.Error())
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Warn().Msgf("api: failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorJSON{Error: msg})
}

// Shutdown waits for event forwarding to stop and drops all subscribers.
// The session must be closed first so its event channel terminates.
func (s *Server) Shutdown(ctx context.Context) error {
	select {
	case <-s.done:
		s.hub.Close()
		return nil
	case <-ctx.Done():
		s.hub.Close()
		return ctx.Err()
	}
}
