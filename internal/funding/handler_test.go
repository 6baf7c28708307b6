package funding

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/points-app/points_app/internal/ledger"
	"github.com/points-app/points_app/internal/logging"
	"github.com/points-app/points_app/internal/paystack"
)

const testWebhookSecret = "sk_test_webhook"

func setupHandlerApp(t *testing.T) (*fiber.App, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	h := NewHandler(env.service, testWebhookSecret, logging.Discard())
	app := fiber.New()
	app.Post("/api/paystack/create-payment", h.CreatePayment)
	app.Post("/api/paystack/verify-payment", h.VerifyPayment)
	app.Post("/api/paystack/webhook", h.Webhook)
	return app, env
}

func postJSON(t *testing.T, app *fiber.App, path, body string, headers map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

func TestCreatePaymentReturnsCheckout(t *testing.T) {
	app, _ := setupHandlerApp(t)

	resp := postJSON(t, app, "/api/paystack/create-payment",
		`{"userId":"u1","coins":500,"currency":"NGN","amountLocal":4000,"email":"a@b.com"}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body CreatePaymentResponse
	decodeBody(t, resp, &body)
	if body.AuthorizationURL != "https://pay/x" || body.Reference != "ref_1" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestCreatePaymentStatusCodes(t *testing.T) {
	cases := map[string]struct {
		body    string
		initErr error
		want    int
	}{
		"missing email":    {body: `{"userId":"u1","coins":500,"amountLocal":4000}`, want: http.StatusBadRequest},
		"malformed json":   {body: `{"userId":`, want: http.StatusBadRequest},
		"gateway refused":  {body: `{"userId":"u1","coins":500,"amountLocal":4000,"email":"a@b.com"}`, initErr: &paystack.APIError{StatusCode: 400, Message: "Invalid key"}, want: http.StatusBadRequest},
		"gateway down":     {body: `{"userId":"u1","coins":500,"amountLocal":4000,"email":"a@b.com"}`, initErr: paystack.ErrUnavailable, want: http.StatusBadGateway},
		"amount too large": {body: `{"userId":"u1","coins":500,"amountLocal":1e20,"email":"a@b.com"}`, want: http.StatusBadRequest},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			app, env := setupHandlerApp(t)
			env.gateway.initErr = tc.initErr
			resp := postJSON(t, app, "/api/paystack/create-payment", tc.body, nil)
			resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}
}

func TestVerifyPaymentFlow(t *testing.T) {
	app, env := setupHandlerApp(t)
	env.initiate(t)
	env.gateway.verification = successVerification()

	resp := postJSON(t, app, "/api/paystack/verify-payment", `{"reference":"ref_1"}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var first VerifyPaymentResponse
	decodeBody(t, resp, &first)
	if !first.Success || first.AlreadyVerified || first.Data.Coins != 500 || first.Data.Status != "success" {
		t.Fatalf("unexpected first body: %+v", first)
	}

	resp = postJSON(t, app, "/api/paystack/verify-payment", `{"reference":"ref_1"}`, nil)
	var second VerifyPaymentResponse
	decodeBody(t, resp, &second)
	if !second.Success || !second.AlreadyVerified || second.Message != "Transaction already verified" {
		t.Fatalf("unexpected second body: %+v", second)
	}
}

func TestVerifyPaymentErrors(t *testing.T) {
	app, env := setupHandlerApp(t)

	resp := postJSON(t, app, "/api/paystack/verify-payment", `{}`, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing reference: expected 400, got %d", resp.StatusCode)
	}

	resp = postJSON(t, app, "/api/paystack/verify-payment", `{"reference":"unknown_ref"}`, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown reference: expected 400, got %d", resp.StatusCode)
	}
	if env.gateway.VerifyCalls() != 0 {
		t.Fatal("unknown reference must not reach the gateway")
	}

	env.initiate(t)
	env.gateway.verifyErrs = []error{paystack.ErrUnavailable, paystack.ErrUnavailable, paystack.ErrUnavailable}
	resp = postJSON(t, app, "/api/paystack/verify-payment", `{"reference":"ref_1"}`, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("gateway down: expected 502, got %d", resp.StatusCode)
	}
}

func TestWebhookRequiresValidSignature(t *testing.T) {
	app, env := setupHandlerApp(t)
	env.initiate(t)
	env.gateway.verification = successVerification()
	payload := `{"event":"charge.success","data":{"reference":"ref_1"}}`

	resp := postJSON(t, app, "/api/paystack/webhook", payload, map[string]string{
		paystack.SignatureHeader: paystack.ComputeSignature([]byte(payload), "wrong"),
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if env.gateway.VerifyCalls() != 0 {
		t.Fatal("unsigned webhook must not trigger verification")
	}

	resp = postJSON(t, app, "/api/paystack/webhook", payload, map[string]string{
		paystack.SignatureHeader: paystack.ComputeSignature([]byte(payload), testWebhookSecret),
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	tx, _ := env.ledger.GetByReference(context.Background(), "ref_1")
	if tx.Status != ledger.StatusSuccess {
		t.Fatalf("expected webhook to settle the transaction, got %s", tx.Status)
	}
}

func TestWebhookAcknowledgesUnknownReference(t *testing.T) {
	app, _ := setupHandlerApp(t)
	payload := `{"event":"charge.success","data":{"reference":"nope"}}`
	resp := postJSON(t, app, "/api/paystack/webhook", payload, map[string]string{
		paystack.SignatureHeader: paystack.ComputeSignature([]byte(payload), testWebhookSecret),
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
