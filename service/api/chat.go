package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"matchakit/module/chat"
)

// Compile-time check: the client satisfies the sync core's collaborator
// contract.
var _ chat.API = (*Client)(nil)

type sendMessageReq struct {
	Content string `json:"content"`
}

// ListMessages fetches the conversation with otherID in server order.
func (c *Client) ListMessages(ctx context.Context, otherID uuid.UUID) ([]chat.Message, error) {
	var out []chat.Message
	err := c.do(ctx, http.MethodGet, "/api/v1/users/"+otherID.String()+"/messages", nil, &out)
	return out, err
}

// SendMessage is the fallback request/response send.
func (c *Client) SendMessage(ctx context.Context, otherID uuid.UUID, content string) (chat.Message, error) {
	var out chat.Message
	err := c.do(ctx, http.MethodPost, "/api/v1/users/"+otherID.String()+"/messages", sendMessageReq{Content: content}, &out)
	return out, err
}

// MarkRead marks everything from otherID as read.
func (c *Client) MarkRead(ctx context.Context, otherID uuid.UUID) error {
	return c.do(ctx, http.MethodPatch, "/api/v1/users/"+otherID.String()+"/messages/read", nil, nil)
}

// GetPresence fetches a one-shot presence snapshot.
func (c *Client) GetPresence(ctx context.Context, otherID uuid.UUID) (chat.Presence, error) {
	var out chat.Presence
	err := c.do(ctx, http.MethodGet, "/api/v1/presence/"+otherID.String(), nil, &out)
	return out, err
}
