package domain

// Event is the envelope broadcast to live dashboard connections.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// NewMessageEvent wraps a stored message for broadcast.
func NewMessageEvent(m Message) Event {
	return Event{Type: "message", Data: m}
}
