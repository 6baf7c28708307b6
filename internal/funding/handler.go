package funding

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/points-app/points_app/internal/ledger"
	"github.com/points-app/points_app/internal/paystack"
)

const eventChargeSuccess = "charge.success"

// Handler exposes the checkout endpoints.
type Handler struct {
	service       *Service
	webhookSecret string
	logger        *slog.Logger
}

// NewHandler constructs a funding handler. webhookSecret is the Paystack
// secret key used to sign webhook deliveries.
func NewHandler(service *Service, webhookSecret string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, webhookSecret: webhookSecret, logger: logger}
}

// CreatePayment opens a checkout for a points purchase.
func (h *Handler) CreatePayment(c *fiber.Ctx) error {
	var req CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "Missing required fields")
	}

	result, err := h.service.Initiate(c.UserContext(), InitiateInput{
		UserID:      req.UserID,
		Coins:       req.Coins,
		AmountLocal: req.AmountLocal,
		Currency:    req.Currency,
		Email:       req.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			return fiber.NewError(http.StatusBadRequest, "Missing required fields")
		case errors.Is(err, ErrGatewayInit):
			return fiber.NewError(http.StatusBadRequest, gatewayMessage(err, "Failed to initialize Paystack."))
		case errors.Is(err, ErrGatewayUnavailable):
			return fiber.NewError(http.StatusBadGateway, "Payment provider unavailable")
		default:
			return fiber.NewError(http.StatusInternalServerError, "Failed to create transaction record.")
		}
	}

	return c.Status(http.StatusOK).JSON(CreatePaymentResponse{
		AuthorizationURL: result.AuthorizationURL,
		Reference:        result.Reference,
	})
}

// VerifyPayment reconciles a checkout after the buyer returns from the gateway.
func (h *Handler) VerifyPayment(c *fiber.Ctx) error {
	var req VerifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "Missing Paystack reference")
	}

	result, err := h.service.Verify(c.UserContext(), req.Reference)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			return fiber.NewError(http.StatusBadRequest, "Missing Paystack reference")
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusBadRequest, "Transaction not found")
		case errors.Is(err, ErrPaymentInFlight):
			return fiber.NewError(http.StatusBadRequest, "Payment is still processing")
		case errors.Is(err, ErrGatewayVerify):
			return fiber.NewError(http.StatusBadRequest, gatewayMessage(err, "Verification failed"))
		case errors.Is(err, ErrGatewayUnavailable):
			return fiber.NewError(http.StatusBadGateway, "Payment provider unavailable")
		case errors.Is(err, ErrLedgerWrite):
			return fiber.NewError(http.StatusInternalServerError, "Failed to update transaction")
		default:
			return fiber.NewError(http.StatusInternalServerError, "Internal server error")
		}
	}

	return c.Status(http.StatusOK).JSON(toVerifyResponse(result))
}

// Webhook accepts signed Paystack event deliveries. Once the signature checks
// out the delivery is always acknowledged; failed reconciliations are left to
// the sweeper.
func (h *Handler) Webhook(c *fiber.Ctx) error {
	body := c.Body()
	if !paystack.VerifySignature(body, c.Get(paystack.SignatureHeader), h.webhookSecret) {
		return fiber.NewError(http.StatusUnauthorized, "invalid signature")
	}

	var evt webhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	if evt.Event == eventChargeSuccess && evt.Data.Reference != "" {
		if _, err := h.service.Verify(c.UserContext(), evt.Data.Reference); err != nil {
			h.logger.Warn("webhook verify",
				slog.String("event", evt.Event),
				slog.String("reference", evt.Data.Reference),
				slog.Any("error", err))
		}
	}
	return c.SendStatus(http.StatusOK)
}

func toVerifyResponse(result VerifyResult) VerifyPaymentResponse {
	resp := VerifyPaymentResponse{
		Success:         result.Status == ledger.StatusSuccess,
		AlreadyVerified: result.AlreadyVerified,
		Data: VerifyPaymentData{
			Reference: result.Reference,
			Coins:     result.Coins,
			Status:    string(result.Status),
			Metadata:  result.Metadata,
		},
	}
	switch {
	case result.AlreadyVerified:
		resp.Message = "Transaction already verified"
	case resp.Success:
		resp.Message = "Payment verified successfully"
	default:
		resp.Message = "Payment failed"
	}
	return resp
}

func gatewayMessage(err error, fallback string) string {
	var apiErr *paystack.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
