package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/anonto42/careerconnect/backend/internal/apperr"
	"github.com/anonto42/careerconnect/backend/internal/auth"
	"github.com/labstack/echo/v4"
)

// IdentityKey is the echo context key holding the auth.Identity of the caller
const IdentityKey = "identity"

// Authenticator resolves a bearer token to a caller
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Identity, error)
}

// JWTAuthMiddleware checks for a valid bearer token belonging to an active user.
func JWTAuthMiddleware(authn Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
			}

			tokenString, ok := auth.BearerToken(authHeader)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
			}

			identity, err := authn.Authenticate(c.Request().Context(), tokenString)
			if err != nil {
				var appErr *apperr.Error
				if errors.As(err, &appErr) {
					return echo.NewHTTPError(http.StatusUnauthorized, appErr.Message)
				}
				return err
			}

			c.Set(IdentityKey, identity)
			return next(c)
		}
	}
}

// RequireRole rejects callers whose role is not one of roles. It must run after JWTAuthMiddleware.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := c.Get(IdentityKey).(auth.Identity)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
			}
			if !allowed[identity.Role] {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
			}
			return next(c)
		}
	}
}
