package wallet

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/points-app/points_app/internal/identity"
)

// Handler exposes wallet HTTP endpoints. All routes expect JWTAuth to have
// set user_id.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type summaryResponse struct {
	Coins      int64      `json:"coins"`
	UpdatedAt  *time.Time `json:"updatedAt"`
	USDValue   string     `json:"usdValue"`
	LocalValue *string    `json:"localValue"`
	Currency   string     `json:"currency,omitempty"`
	Country    string     `json:"country,omitempty"`
}

type entryResponse struct {
	ID          string    `json:"id"`
	Kind        string    `json:"type"`
	Coins       int64     `json:"coins"`
	AmountLocal string    `json:"amountLocal"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	Reference   string    `json:"reference,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type profileResponse struct {
	UserID    string          `json:"id"`
	Email     string          `json:"email"`
	Username  string          `json:"username"`
	Country   string          `json:"country"`
	AvatarURL string          `json:"avatarUrl,omitempty"`
	LastLogin *time.Time      `json:"lastLogin"`
	Wallet    summaryResponse `json:"wallet"`
	Rate      string          `json:"rechargeRate"`
	MinPoints int64           `json:"minPoints"`
}

// Summary returns the caller's balance.
func (h *Handler) Summary(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	summary, err := h.service.Summary(c.UserContext(), uid, c.Query("country"))
	if err != nil {
		h.logger.Error("wallet.summary failed", slog.String("user_id", uid), slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, "failed to load wallet")
	}
	return c.Status(http.StatusOK).JSON(toSummaryResponse(summary))
}

// History returns the caller's transactions, newest first.
func (h *Handler) History(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	entries, err := h.service.History(c.UserContext(), uid, c.QueryInt("limit", 0))
	if err != nil {
		h.logger.Error("wallet.history failed", slog.String("user_id", uid), slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, "failed to load transactions")
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:          e.ID,
			Kind:        string(e.Kind),
			Coins:       e.Coins,
			AmountLocal: e.AmountLocal.StringFixed(2),
			Currency:    e.Currency,
			Status:      string(e.Status),
			Reference:   e.Reference,
			CreatedAt:   e.CreatedAt,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": out})
}

// Profile returns the caller's dashboard.
func (h *Handler) Profile(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	p, err := h.service.Profile(c.UserContext(), uid)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		h.logger.Error("wallet.profile failed", slog.String("user_id", uid), slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, "failed to load profile")
	}
	return c.Status(http.StatusOK).JSON(profileResponse{
		UserID:    p.UserID,
		Email:     p.Email,
		Username:  p.Username,
		Country:   p.Country,
		AvatarURL: p.AvatarURL,
		LastLogin: p.LastLogin,
		Wallet:    toSummaryResponse(p.Wallet),
		Rate:      p.Rate.String(),
		MinPoints: p.MinPoints,
	})
}

func toSummaryResponse(s Summary) summaryResponse {
	resp := summaryResponse{
		Coins:     s.Coins,
		UpdatedAt: s.UpdatedAt,
		USDValue:  s.USD.StringFixed(2),
		Currency:  s.Currency,
		Country:   s.Country,
	}
	if s.Local != nil {
		v := s.Local.StringFixed(2)
		resp.LocalValue = &v
	}
	return resp
}

func userID(c *fiber.Ctx) (string, error) {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return "", fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	return uid, nil
}
