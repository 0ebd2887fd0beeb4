package domain

// ChatSession is the derived dashboard view of one conversation.
// It is recomputed on every read and never persisted.
type ChatSession struct {
	ID          string   `json:"id"`
	ContactID   string   `json:"contactId"`
	Contact     Contact  `json:"contact"`
	LastMessage *Message `json:"lastMessage,omitempty"`
	UnreadCount int      `json:"unreadCount"`
	Status      string   `json:"status"`
}

// Unread is the unread-count heuristic: 1 when the last message came
// from the contact, 0 otherwise. A deliberate simplification, not
// per-message read tracking.
func Unread(last *Message) int {
	if last != nil && !last.FromOperator() {
		return 1
	}
	return 0
}
