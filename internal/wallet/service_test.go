package wallet

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/points-app/points_app/internal/identity"
	"github.com/points-app/points_app/internal/ledger"
	"github.com/points-app/points_app/internal/logging"
	"github.com/points-app/points_app/internal/rates"
)

func newTestService(t *testing.T) (*Service, ledger.Ledger, *identity.Service) {
	t.Helper()
	led := ledger.NewInMemory()
	rateSvc := rates.NewService(rates.NewMemoryRepository(rates.Rate{
		CountryName:  "Nigeria",
		Currency:     "NGN",
		RechargeRate: decimal.NewFromInt(1600),
	}), nil, 0, 100, logging.Discard())
	ids := identity.NewService(identity.NewMemoryRepository())
	return NewService(led, rateSvc, ids), led, ids
}

func TestSummaryValuesBalance(t *testing.T) {
	svc, led, _ := newTestService(t)
	ledger.SeedWallet(led, "u1", 500)

	s, err := svc.Summary(context.Background(), "u1", "nigeria")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.Coins != 500 || s.UpdatedAt == nil {
		t.Fatalf("unexpected summary %+v", s)
	}
	if !s.USD.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected $5, got %s", s.USD)
	}
	if s.Local == nil || !s.Local.Equal(decimal.NewFromInt(8000)) {
		t.Fatalf("expected 8000 local, got %v", s.Local)
	}
	if s.Currency != "NGN" {
		t.Fatalf("expected NGN, got %s", s.Currency)
	}
}

func TestSummaryWithoutWalletOrRate(t *testing.T) {
	svc, _, _ := newTestService(t)

	s, err := svc.Summary(context.Background(), "nobody", "Atlantis")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.Coins != 0 || s.UpdatedAt != nil || s.Local != nil {
		t.Fatalf("expected empty summary, got %+v", s)
	}
	if !s.USD.IsZero() {
		t.Fatalf("expected zero USD, got %s", s.USD)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	svc, led, _ := newTestService(t)
	ctx := context.Background()
	for _, coins := range []int64{100, 200} {
		tx, err := led.Create(ctx, ledger.NewTransaction{
			UserID: "u1", Kind: ledger.KindDeposit, Coins: coins, AmountLocal: decimal.NewFromInt(coins * 16),
			Currency: "NGN", Provider: ledger.ProviderPaystack, RechargeMethod: ledger.RechargeMethodBank,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if coins == 200 {
			if err := led.SetReference(ctx, tx.ID, "ref_200"); err != nil {
				t.Fatalf("set reference: %v", err)
			}
		}
	}

	entries, err := svc.History(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Coins == 200 && e.Reference != "ref_200" {
			t.Fatalf("expected reference on entry %+v", e)
		}
		if e.Status != ledger.StatusPending {
			t.Fatalf("expected pending, got %s", e.Status)
		}
	}
}

func TestProfileHandler(t *testing.T) {
	svc, led, ids := newTestService(t)
	user, err := ids.Register(context.Background(), identity.Registration{
		Email: "me@example.com", Password: "secret1", Country: "Nigeria",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	ledger.SeedWallet(led, user.ID, 250)

	h := NewHandler(svc, logging.Discard())
	app := fiber.New()
	app.Get("/me", func(c *fiber.Ctx) error {
		c.Locals("user_id", user.ID)
		return c.Next()
	}, h.Profile)
	app.Get("/anon", h.Profile)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/me", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
	var body profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Email != "me@example.com" || body.Wallet.Coins != 250 || body.Rate != "1600" || body.MinPoints != 100 {
		t.Fatalf("unexpected profile %+v", body)
	}
	if body.Wallet.LocalValue == nil || *body.Wallet.LocalValue != "4000.00" {
		t.Fatalf("unexpected local value %v", body.Wallet.LocalValue)
	}

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/anon", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.StatusCode)
	}
}
