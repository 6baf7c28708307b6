package identity

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// WalletProvisioner opens the points wallet of a new user.
type WalletProvisioner interface {
	EnsureWallet(ctx context.Context, userID string) error
}

// Handler exposes identity endpoints.
type Handler struct {
	service *Service
	wallets WalletProvisioner
	logger  *slog.Logger
}

// NewHandler constructs an identity HTTP handler. wallets may be nil.
func NewHandler(service *Service, wallets WalletProvisioner, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, wallets: wallets, logger: logger}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	Country  string `json:"country"`
}

type userResponse struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Country  string `json:"country"`
}

// Register handles user onboarding and provisions an empty wallet.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.service.Register(c.UserContext(), Registration{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
		Country:  req.Country,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRegistration):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrUserExists):
			return fiber.NewError(http.StatusConflict, err.Error())
		default:
			h.logger.Error("identity.register failed", slog.Any("error", err))
			return fiber.NewError(http.StatusInternalServerError, "registration failed")
		}
	}

	if h.wallets != nil {
		if err := h.wallets.EnsureWallet(c.UserContext(), user.ID); err != nil {
			h.logger.Warn("provision wallet", slog.String("user_id", user.ID), slog.Any("error", err))
		}
	}

	h.logger.Info("identity.register completed",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
		slog.Int("status", http.StatusCreated),
	)
	return c.Status(http.StatusCreated).JSON(userResponse{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		Country:  user.Country,
	})
}
