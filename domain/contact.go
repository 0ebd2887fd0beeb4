package domain

import "time"

// Contact is a directory entry. The conversation key (chat id) of a
// contact is the contact id itself: one conversation per contact.
type Contact struct {
	ID         string    `json:"id" cbor:"1,keyasint"`
	Name       string    `json:"name" cbor:"2,keyasint"`
	Phone      string    `json:"phone" cbor:"3,keyasint"`
	Email      string    `json:"email,omitempty" cbor:"4,keyasint,omitempty"`
	Avatar     string    `json:"avatar,omitempty" cbor:"5,keyasint,omitempty"`
	Tags       []string  `json:"tags" cbor:"6,keyasint"`
	LastActive string    `json:"lastActive" cbor:"7,keyasint"`
	CreatedAt  time.Time `json:"createdAt" cbor:"8,keyasint"`
}
