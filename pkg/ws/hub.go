package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Hub tracks live burst connections and the frames each has uploaded.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	conn   *websocket.Conn
	frames [][]byte
}

func NewHub() *Hub {
	return &Hub{sessions: map[string]*session{}}
}

// Add registers a connection, replacing any previous one under id.
func (h *Hub) Add(id string, c *websocket.Conn) {
	h.mu.Lock()
	h.sessions[id] = &session{conn: c}
	h.mu.Unlock()
}

func (h *Hub) Get(id string) (*websocket.Conn, bool) {
	h.mu.RLock()
	s, ok := h.sessions[id]
	h.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return s.conn, true
}

func (h *Hub) Remove(id string) {
	h.mu.Lock()
	delete(h.sessions, id)
	h.mu.Unlock()
}

// Append buffers a frame and returns the buffered count. Frames beyond limit
// are dropped; ok is false for unknown sessions.
func (h *Hub) Append(id string, frame []byte, limit int) (n int, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[id]
	if !ok {
		return 0, false
	}
	if limit <= 0 || len(s.frames) < limit {
		s.frames = append(s.frames, frame)
	}
	return len(s.frames), true
}

// Take returns the buffered frames in arrival order and clears the buffer.
func (h *Hub) Take(id string) [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[id]
	if !ok {
		return nil
	}
	frames := s.frames
	s.frames = nil
	return frames
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
