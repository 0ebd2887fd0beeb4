// Package domain contains the core concepts of the messaging dashboard.
// This file defines the Message, the only record the ledger stores.
// Messages are immutable once appended and are never deleted.
package domain

import "time"

// OperatorID is the sender token denoting the dashboard operator.
// Any other sender id denotes the contact side of the conversation.
const OperatorID = "me"

type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
	StatusFailed    MessageStatus = "failed"
)

type MessageType string

const (
	TypeText     MessageType = "text"
	TypeImage    MessageType = "image"
	TypeDocument MessageType = "document"
	TypeTemplate MessageType = "template"
)

// Message represents one immutable chat event. ID and Timestamp are
// materialized by the ledger on append when absent.
type Message struct {
	ID        string        `json:"id" cbor:"1,keyasint"`
	ChatID    string        `json:"chatId" cbor:"2,keyasint"`
	SenderID  string        `json:"senderId" cbor:"3,keyasint"`
	Text      string        `json:"text" cbor:"4,keyasint"`
	Timestamp time.Time     `json:"timestamp" cbor:"5,keyasint"`
	Status    MessageStatus `json:"status" cbor:"6,keyasint"`
	Type      MessageType   `json:"type" cbor:"7,keyasint"`
	MediaURL  string        `json:"mediaUrl,omitempty" cbor:"8,keyasint,omitempty"`
	ContactID string        `json:"contactId,omitempty" cbor:"9,keyasint,omitempty"`
}

// FromOperator reports whether the message was sent by the operator
// rather than by the contact.
func (m Message) FromOperator() bool {
	return m.SenderID == OperatorID
}
