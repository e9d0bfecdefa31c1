package chat

import (
	"context"

	"github.com/google/uuid"
)

// API is the request/response collaborator the sync core consumes.
// service/api implements it against the production endpoints; tests
// substitute fakes.
type API interface {
	// ListMessages returns the conversation with otherID in server
	// order (assumed chronological). Used on open and as fallback-send
	// reconciliation.
	ListMessages(ctx context.Context, otherID uuid.UUID) ([]Message, error)

	// SendMessage is the fallback send, used only when the live
	// channel is not connected.
	SendMessage(ctx context.Context, otherID uuid.UUID, content string) (Message, error)

	// MarkRead tells the server all messages from otherID are read.
	MarkRead(ctx context.Context, otherID uuid.UUID) error

	// GetPresence fetches a one-shot presence snapshot for otherID.
	GetPresence(ctx context.Context, otherID uuid.UUID) (Presence, error)
}
