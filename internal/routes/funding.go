package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/points-app/points_app/internal/funding"
)

// RegisterPaystackRoutes wires checkout creation, verification and the
// gateway webhook. Only create-payment honours Idempotency-Key.
func RegisterPaystackRoutes(app *fiber.App, h *funding.Handler, idempotent fiber.Handler) {
	group := app.Group("/api/paystack")
	group.Post("/create-payment", idempotent, h.CreatePayment)
	group.Post("/verify-payment", h.VerifyPayment)
	group.Post("/webhook", h.Webhook)
}
