// Package hub tracks live dashboard connections and fans events out to
// them. It provides best-effort fan-out with no guarantees regarding
// delivery, ordering, durability, or retries. The hub is not a message
// broker: it exists so open dashboards see new messages as they land.
//
// Hub is safe for concurrent use by multiple goroutines.
package hub

import (
	"chatdesk/contract"
	"chatdesk/domain"
	"fmt"
	"log/slog"
	"sync"
)

type Hub struct {
	mu    sync.RWMutex
	log   *slog.Logger
	conns map[contract.Conn]string // conn -> client id
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{log: log, conns: make(map[contract.Conn]string)}
}

// Connect registers a connection. The same client id may be registered
// over several physical connections (multiple dashboard tabs); no
// dedup by identity happens here.
func (h *Hub) Connect(clientID string, conn contract.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = clientID
	h.log.Debug(fmt.Sprintf("Client %s connected (%d live connections)", clientID, len(h.conns)))
}

// Disconnect removes a connection. Idempotent: unknown connections are
// ignored.
func (h *Hub) Disconnect(conn contract.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clientID, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		h.log.Debug(fmt.Sprintf("Client %s disconnected (%d live connections)", clientID, len(h.conns)))
	}
}

// Len reports the number of registered connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast sends the event to every connection registered at call
// time. Delivery is best effort per connection: a failed send is logged
// and the loop moves on to the remaining connections. A failing
// connection is NOT deregistered here; the transport layer owns the
// connection lifecycle and calls Disconnect when the socket dies.
func (h *Hub) Broadcast(evt domain.Event) {
	h.mu.RLock()
	snapshot := make(map[contract.Conn]string, len(h.conns))
	for conn, clientID := range h.conns {
		snapshot[conn] = clientID
	}
	h.mu.RUnlock()

	for conn, clientID := range snapshot {
		if err := conn.SendEvent(evt); err != nil {
			h.log.Warn("Failed to push event to connection",
				"client_id", clientID,
				"error", err)
		}
	}
}
