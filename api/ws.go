package api

import (
	"chatdesk/hub"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// WSHandler owns the live-connection endpoint: it upgrades the request,
// registers the connection in the hub, and holds it open until the
// transport drops. Only the transport-level disconnect deregisters.
type WSHandler struct {
	log      *slog.Logger
	hub      *hub.Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(log *slog.Logger, h *hub.Hub) *WSHandler {
	return &WSHandler{
		log: log,
		hub: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard is served from another origin in development.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) Handle(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "client_id", clientID, "error", err)
		return
	}

	client := hub.NewClient(clientID, conn, h.log)
	h.hub.Connect(clientID, client)

	go client.WritePump()
	// ReadPump blocks until the socket dies, then deregisters.
	client.ReadPump(func() {
		h.hub.Disconnect(client)
	})
}
