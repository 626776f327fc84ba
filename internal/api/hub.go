package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	zlog "github.com/rs/zerolog/log"
)

const writeTimeout = 500 * time.Millisecond

// subscriber is a single WebSocket connection. Writes are serialized per
// connection; gorilla/websocket allows only one concurrent writer.
type subscriber struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(v)
}

// Hub manages WebSocket subscriptions and broadcasts session events.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]*subscriber

	seqMu sync.Mutex
	seq   uint64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]*subscriber)}
}

// Subscribe registers a connection and returns its subscription ID.
func (h *Hub) Subscribe(conn *websocket.Conn) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.New().String()
	h.subs[id] = &subscriber{id: id, conn: conn}
	zlog.Debug().Msgf("api: subscriber added: id=%s total=%d", id, len(h.subs))
	return id
}

// Unsubscribe removes a subscription. The connection is not closed; the
// caller owns it.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

// SubscriberCount returns the number of active subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Broadcast stamps the event with a sequence number and sends it to every
// subscriber. Sends run in parallel; a dead connection is dropped rather
// than blocking the rest.
func (h *Hub) Broadcast(ev eventJSON) {
	h.seqMu.Lock()
	h.seq++
	ev.SequenceNo = h.seq
	h.seqMu.Unlock()

	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscriber) {
			defer wg.Done()
			if err := s.send(ev); err != nil {
				zlog.Debug().Msgf("api: dropping subscriber after write failure: id=%s err=%v", s.id, err)
				h.Unsubscribe(s.id)
				_ = s.conn.Close()
			}
		}(sub)
	}
	wg.Wait()
}

// Close drops all subscriptions and closes their connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		_ = sub.conn.Close()
	}
	h.subs = make(map[string]*subscriber)
}
