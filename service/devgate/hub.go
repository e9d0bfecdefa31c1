package devgate

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// clientConn is one registered ws connection. Writes are serialized per
// connection; a user may hold several (multiple tabs/devices).
type clientConn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *clientConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}

type hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*clientConn]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[uuid.UUID]map[*clientConn]struct{})}
}

func (h *hub) register(userID uuid.UUID, ws *websocket.Conn) *clientConn {
	c := &clientConn{ws: ws}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*clientConn]struct{})
	}
	h.clients[userID][c] = struct{}{}
	return c
}

func (h *hub) unregister(userID uuid.UUID, c *clientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, userID)
		}
	}
}

func (h *hub) sendToUser(userID uuid.UUID, payload any) {
	h.mu.RLock()
	conns := make([]*clientConn, 0, 2)
	for c := range h.clients[userID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	for _, c := range conns {
		_ = c.writeJSON(payload)
	}
}

func (h *hub) isOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}
