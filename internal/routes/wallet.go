package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/points-app/points_app/internal/wallet"
)

// RegisterWalletRoutes wires the signed-in user's wallet views.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Get("/wallet", h.Summary)
	r.Get("/transactions", h.History)
	r.Get("/me", h.Profile)
}
