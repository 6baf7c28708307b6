package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/points-app/points_app/internal/identity"
)

// RegisterIdentityRoutes wires identity endpoints; registration provisions an empty wallet.
func RegisterIdentityRoutes(r fiber.Router, h *identity.Handler) {
	r.Post("/identity/register", h.Register)
}
