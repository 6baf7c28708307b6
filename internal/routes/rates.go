package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/points-app/points_app/internal/rates"
)

// RegisterRateRoutes wires public pricing endpoints.
func RegisterRateRoutes(r fiber.Router, h *rates.Handler) {
	r.Get("/rates", h.List)
	r.Get("/rates/quote", h.Quote)
}
