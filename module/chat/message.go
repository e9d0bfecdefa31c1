package chat

import (
	"time"

	"github.com/google/uuid"
)

// MaxContentLen bounds message content, counted in Unicode code points
// after trimming. The server enforces the same bound.
const MaxContentLen = 2000

// Message is one chat message as the server reports it. Server-assigned
// id, unique within a conversation. Never mutated client-side; IsRead is
// advisory until the next authoritative fetch.
type Message struct {
	ID         uuid.UUID `json:"id"`
	SenderID   uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	IsRead     bool      `json:"is_read"`
}

// Presence is a one-shot snapshot, fetched on session open. Not kept
// live: the gateway pushes no presence updates.
type Presence struct {
	UserID   uuid.UUID  `json:"user_id"`
	IsOnline bool       `json:"is_online"`
	LastSeen *time.Time `json:"last_seen"`
}
