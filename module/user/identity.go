// Package user resolves the current user's identity from the session
// provider's credential.
package user

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"matchakit/logger"
	"matchakit/tools/security"
)

// User is the profile shape the account endpoints return.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email,omitempty"`
	Username  string    `json:"username,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
}

// DisplayName prefers the real name, falling back to the username.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}

// MeAPI is the slice of the account endpoints identity resolution needs.
type MeAPI interface {
	Me(ctx context.Context) (User, error)
}

// ResolveID returns the current user's id: ask the backend, and if that
// fails fall back to the token's subject claim. The fallback parse is
// unverified — identity display only, the server still authenticates
// every call.
func ResolveID(ctx context.Context, api MeAPI, token string) (uuid.UUID, error) {
	me, err := api.Me(ctx)
	if err == nil {
		return me.ID, nil
	}
	logger.Warnf("[user] /auth/me failed, falling back to token claims: %v", err)

	sub, serr := security.Subject(token)
	if serr != nil {
		return uuid.Nil, errors.Wrap(err, "resolve identity")
	}
	id, perr := uuid.Parse(sub)
	if perr != nil {
		return uuid.Nil, errors.Wrap(perr, "token subject is not a user id")
	}
	return id, nil
}
