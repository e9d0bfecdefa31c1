package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"matchakit/module/user"
)

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the token plus the authenticated profile.
type LoginResult struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

// Login authenticates and installs the returned token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var out LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", loginReq{Email: email, Password: password}, &out); err != nil {
		return LoginResult{}, err
	}
	c.SetToken(out.Token)
	return out, nil
}

// Me returns the current user.
func (c *Client) Me(ctx context.Context) (user.User, error) {
	var out user.User
	err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", nil, &out)
	return out, err
}

// GetUser fetches another user's public profile (the chat header).
func (c *Client) GetUser(ctx context.Context, id uuid.UUID) (user.User, error) {
	var out user.User
	err := c.do(ctx, http.MethodGet, "/api/v1/users/"+id.String(), nil, &out)
	return out, err
}

// Matches lists the users the current user can chat with.
func (c *Client) Matches(ctx context.Context) ([]user.User, error) {
	var out []user.User
	err := c.do(ctx, http.MethodGet, "/api/v1/matches", nil, &out)
	return out, err
}

var _ user.MeAPI = (*Client)(nil)
