package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/points-app/points_app/internal/auth"
	"github.com/points-app/points_app/internal/identity"
)

// Locals keys populated by JWTAuth.
const (
	LocalUserID       = "user_id"
	LocalTokenVersion = "token_version"
)

// Authorizer resolves a bearer token into the calling user.
type Authorizer interface {
	Authorize(ctx context.Context, accessToken string) (identity.User, auth.Claims, error)
}

// JWTAuth returns a middleware that validates JWT access tokens and checks token version.
func JWTAuth(authz Authorizer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if len(header) < len("bearer ") || !strings.EqualFold(header[:len("bearer ")], "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		token := strings.TrimSpace(header[len("bearer "):])

		user, claims, err := authz.Authorize(c.UserContext(), token)
		switch {
		case errors.Is(err, auth.ErrTokenRevoked):
			return fiber.NewError(http.StatusUnauthorized, "token invalidated")
		case errors.Is(err, auth.ErrInvalidToken):
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		case err != nil:
			return fiber.NewError(http.StatusInternalServerError, "authorization lookup failed")
		}

		c.Locals(LocalUserID, user.ID)
		c.Locals(LocalTokenVersion, claims.Version)
		return c.Next()
	}
}
