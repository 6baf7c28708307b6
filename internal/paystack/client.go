// Package paystack is a small client for the Paystack transaction API.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public Paystack API endpoint.
const DefaultBaseURL = "https://api.paystack.co"

// ErrUnavailable marks failures worth retrying: network errors, timeouts,
// 5xx and 429 responses, and unreadable 2xx bodies.
var ErrUnavailable = errors.New("paystack unavailable")

// APIError is an explicit rejection reported by Paystack (status:false).
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("paystack: status %d", e.StatusCode)
	}
	return e.Message
}

// Transaction statuses reported by Verify.
const (
	StatusSuccess    = "success"
	StatusFailed     = "failed"
	StatusAbandoned  = "abandoned"
	StatusReversed   = "reversed"
	StatusOngoing    = "ongoing"
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusQueued     = "queued"
)

// InitializeRequest opens a checkout. Amount is in minor units.
type InitializeRequest struct {
	Email       string
	Amount      int64
	Currency    string
	CallbackURL string
	Metadata    map[string]any
}

// Authorization is the checkout handle returned by Initialize.
type Authorization struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// Verification is the gateway's record of a transaction.
type Verification struct {
	Status          string
	Reference       string
	Amount          int64
	Currency        string
	GatewayResponse string
	Metadata        map[string]any
	PaidAt          *time.Time
}

// InFlight reports whether the charge has not reached an outcome yet.
func (v Verification) InFlight() bool {
	switch v.Status {
	case StatusOngoing, StatusPending, StatusProcessing, StatusQueued:
		return true
	}
	return false
}

// Client calls the Paystack REST API with a secret key.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
}

// NewClient builds a client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL, secret string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		http:    &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeBody struct {
	Email       string         `json:"email"`
	Amount      int64          `json:"amount"`
	Currency    string         `json:"currency,omitempty"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Status          string          `json:"status"`
	Reference       string          `json:"reference"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	GatewayResponse string          `json:"gateway_response"`
	Metadata        json.RawMessage `json:"metadata"`
	PaidAt          *time.Time      `json:"paid_at"`
}

// Initialize calls POST /transaction/initialize.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (Authorization, error) {
	payload, err := json.Marshal(initializeBody{
		Email:       req.Email,
		Amount:      req.Amount,
		Currency:    req.Currency,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return Authorization{}, fmt.Errorf("encode initialize: %w", err)
	}

	var data initializeData
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", payload, &data); err != nil {
		return Authorization{}, err
	}
	return Authorization{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

// Verify calls GET /transaction/verify/{reference}.
func (c *Client) Verify(ctx context.Context, reference string) (Verification, error) {
	var data verifyData
	if err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &data); err != nil {
		return Verification{}, err
	}
	return Verification{
		Status:          data.Status,
		Reference:       data.Reference,
		Amount:          data.Amount,
		Currency:        data.Currency,
		GatewayResponse: data.GatewayResponse,
		Metadata:        decodeMetadata(data.Metadata),
		PaidAt:          data.PaidAt,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if !env.Status || resp.StatusCode >= http.StatusBadRequest {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: decode data: %v", ErrUnavailable, err)
		}
	}
	return nil
}

// decodeMetadata accepts metadata sent back either as an object or as a
// JSON-encoded string.
func decodeMetadata(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err == nil {
		return m
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		if err := json.Unmarshal([]byte(s), &m); err == nil {
			return m
		}
	}
	return nil
}
