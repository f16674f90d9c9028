package auth

import (
	"context"
	"errors"

	"github.com/anonto42/careerconnect/backend/internal/apperr"
	"github.com/anonto42/careerconnect/backend/internal/models"
	"github.com/anonto42/careerconnect/backend/internal/repositories"
)

// Identity is the resolved caller of a request or socket
type Identity struct {
	UserID uint
	Role   string
}

func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// Authenticator resolves a bearer token to an active user
type Authenticator struct {
	tokens *TokenManager
	users  repositories.UserRepository
}

func NewAuthenticator(tokens *TokenManager, users repositories.UserRepository) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// Authenticate fails with an apperr Unauthorized error unless the token is valid and
// its user exists and is active. The role is taken from the stored user.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, apperr.Unauthorized("Unauthorized")
	}

	claims, err := a.tokens.Parse(token)
	if err != nil {
		return Identity{}, apperr.Unauthorized("Invalid token")
	}

	user, err := a.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return Identity{}, apperr.Unauthorized("Unauthorized")
		}
		return Identity{}, err
	}
	if !user.IsActive {
		return Identity{}, apperr.Unauthorized("Account is deactivated")
	}

	return Identity{UserID: user.ID, Role: user.Role}, nil
}
