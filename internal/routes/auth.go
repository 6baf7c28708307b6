package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/points-app/points_app/internal/auth"
)

// RegisterAuthRoutes wires session endpoints. Sign-out requires a valid token.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter, jwtmw fiber.Handler) {
	group := r.Group("/auth")
	if rateLimiter != nil {
		group.Post("/sign-in", rateLimiter, h.SignIn)
	} else {
		group.Post("/sign-in", h.SignIn)
	}
	group.Post("/refresh", h.Refresh)
	group.Post("/sign-out", jwtmw, h.SignOut)
}
