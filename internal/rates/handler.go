package rates

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes pricing endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a rates handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Quote prices ?points=N.
func (h *Handler) Quote(c *fiber.Ctx) error {
	points, err := strconv.ParseInt(c.Query("points", "0"), 10, 64)
	if err != nil || points < 0 {
		return fiber.NewError(http.StatusBadRequest, "points must be a non-negative integer")
	}
	quote, err := h.service.Quote(c.UserContext(), points)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusServiceUnavailable, "pricing is not configured")
		}
		return fiber.NewError(http.StatusInternalServerError, "failed to load exchange rate")
	}
	return c.Status(http.StatusOK).JSON(quote)
}

// List returns the configured exchange rates.
func (h *Handler) List(c *fiber.Ctx) error {
	list, err := h.service.List(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "failed to load exchange rates")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"rates": list})
}
