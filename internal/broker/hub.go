package broker

import (
	"sync"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

// Conn is one live connection. Send must not block: it enqueues the event
// and fails when the connection cannot keep up or is closed.
type Conn interface {
	ID() string
	Identity() domain.Identity
	Send(evt Event) error
	Close() error
}

// Hub is the registry of live connections. Broadcasts are serialized under
// one lock, so every connection observes the same global event order.
type Hub struct {
	mu    sync.Mutex
	conns map[Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{conns: make(map[Conn]struct{})}
}

func (h *Hub) Add(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[c] = struct{}{}
}

// Remove reports whether c was registered.
func (h *Hub) Remove(c Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; !ok {
		return false
	}
	delete(h.conns, c)

	return true
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.conns)
}

func (h *Hub) Broadcast(evt Event) {
	h.BroadcastExcept(nil, evt)
}

// BroadcastExcept delivers evt to every connection but except.
// Connections that fail to accept the event are dropped and closed.
func (h *Hub) BroadcastExcept(except Conn, evt Event) {
	var dead []Conn

	h.mu.Lock()
	for c := range h.conns {
		if c == except {
			continue
		}
		if err := c.Send(evt); err != nil {
			delete(h.conns, c)
			dead = append(dead, c)
		}
	}
	h.mu.Unlock()

	for _, c := range dead {
		_ = c.Close()
	}
}

// CloseAll closes and forgets every connection.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	conns := make([]Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.conns = make(map[Conn]struct{})
	h.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
}
