package hub

import (
	"chatdesk/domain"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 45 * time.Second
	sendBuffer   = 64
)

// Client wraps one websocket connection as a hub subscriber. Events are
// queued on a buffered channel and written by a single pump goroutine,
// since gorilla connections allow only one concurrent writer.
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan domain.Event
	log  *slog.Logger
}

func NewClient(id string, conn *websocket.Conn, log *slog.Logger) *Client {
	return &Client{
		ID:   id,
		conn: conn,
		send: make(chan domain.Event, sendBuffer),
		log:  log,
	}
}

// SendEvent queues an event for the write pump. It fails when the
// client's buffer is full, which is how a dead or stalled connection
// surfaces to the hub without blocking a broadcast.
func (c *Client) SendEvent(evt domain.Event) error {
	select {
	case c.send <- evt:
		return nil
	default:
		return fmt.Errorf("send buffer full for client %s", c.ID)
	}
}

// ReadPump consumes incoming frames until the connection drops.
// Incoming frames carry no semantics in this system; they are logged
// and discarded. The given onClose callback runs when the read side
// ends, which is where the hub deregistration happens.
func (c *Client) ReadPump(onClose func()) {
	defer func() {
		onClose()
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("Unexpected websocket close", "client_id", c.ID, "error", err)
			}
			return
		}
		c.log.Debug(fmt.Sprintf("Ignoring inbound frame from %s: %s", c.ID, frame))
	}
}

// WritePump flushes queued events to the socket and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case evt := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(evt); err != nil {
				c.log.Warn("Websocket write failed", "client_id", c.ID, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
