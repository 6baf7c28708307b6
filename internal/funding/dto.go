package funding

import "github.com/shopspring/decimal"

// CreatePaymentRequest is the checkout request sent by the buy-points page.
type CreatePaymentRequest struct {
	UserID      string          `json:"userId"`
	Coins       int64           `json:"coins"`
	Currency    string          `json:"currency"`
	AmountLocal decimal.Decimal `json:"amountLocal"`
	Email       string          `json:"email"`
}

// CreatePaymentResponse carries the redirect target for checkout.
type CreatePaymentResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
}

// VerifyPaymentRequest asks for the outcome of a checkout.
type VerifyPaymentRequest struct {
	Reference string `json:"reference"`
}

// VerifyPaymentResponse reports the outcome of a checkout.
type VerifyPaymentResponse struct {
	Success         bool              `json:"success"`
	AlreadyVerified bool              `json:"alreadyVerified"`
	Message         string            `json:"message"`
	Data            VerifyPaymentData `json:"data"`
}

// VerifyPaymentData is the payload of VerifyPaymentResponse.
type VerifyPaymentData struct {
	Reference string         `json:"reference"`
	Coins     int64          `json:"coins"`
	Status    string         `json:"status"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}
