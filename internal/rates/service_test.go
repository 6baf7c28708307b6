package rates

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/points-app/points_app/internal/logging"
)

var nigeria = Rate{CountryName: "Nigeria", Currency: "NGN", RechargeRate: decimal.NewFromInt(1600)}

func setupCache(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		cache.Close()
		mr.Close()
	})
	return cache, mr
}

func TestQuotePricesPoints(t *testing.T) {
	svc := NewService(NewMemoryRepository(nigeria), nil, 0, 100, logging.Discard())

	cases := []struct {
		points      int64
		usd         string
		amountLocal string
		purchasable bool
	}{
		{points: 500, usd: "5", amountLocal: "8000", purchasable: true},
		{points: 100, usd: "1", amountLocal: "1600", purchasable: true},
		{points: 99, usd: "0.99", amountLocal: "1584", purchasable: false},
		{points: 0, usd: "0", amountLocal: "0", purchasable: false},
	}
	for _, tc := range cases {
		q, err := svc.Quote(context.Background(), tc.points)
		if err != nil {
			t.Fatalf("quote %d: %v", tc.points, err)
		}
		if !q.USD.Equal(decimal.RequireFromString(tc.usd)) {
			t.Fatalf("%d points: expected usd %s, got %s", tc.points, tc.usd, q.USD)
		}
		if !q.AmountLocal.Equal(decimal.RequireFromString(tc.amountLocal)) {
			t.Fatalf("%d points: expected local %s, got %s", tc.points, tc.amountLocal, q.AmountLocal)
		}
		if q.Purchasable != tc.purchasable || q.Currency != "NGN" {
			t.Fatalf("%d points: unexpected quote %+v", tc.points, q)
		}
	}
}

func TestQuoteRoundsToWholeUnits(t *testing.T) {
	odd := Rate{CountryName: "Nigeria", Currency: "NGN", RechargeRate: decimal.RequireFromString("1533.75")}
	svc := NewService(NewMemoryRepository(odd), nil, 0, 100, logging.Discard())

	q, err := svc.Quote(context.Background(), 150)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	// 1.50 USD * 1533.75 = 2300.625
	if !q.Local.Equal(decimal.RequireFromString("2300.625")) || !q.AmountLocal.Equal(decimal.NewFromInt(2301)) {
		t.Fatalf("unexpected rounding: local %s amount %s", q.Local, q.AmountLocal)
	}
}

func TestQuoteWithoutRate(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil, 0, 100, logging.Discard())
	if _, err := svc.Quote(context.Background(), 100); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRateIsCachedInRedis(t *testing.T) {
	cache, mr := setupCache(t)
	repo := &countingRepo{Repository: NewMemoryRepository(nigeria)}
	svc := NewService(repo, cache, time.Minute, 100, logging.Discard())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rate, err := svc.Rate(ctx, "nigeria")
		if err != nil {
			t.Fatalf("rate: %v", err)
		}
		if !rate.RechargeRate.Equal(decimal.NewFromInt(1600)) {
			t.Fatalf("unexpected rate %s", rate.RechargeRate)
		}
	}
	if repo.gets != 1 {
		t.Fatalf("expected one repository read, got %d", repo.gets)
	}
	if !mr.Exists(cachePrefix + "nigeria") {
		t.Fatal("expected rate in cache")
	}
	if ttl := mr.TTL(cachePrefix + "nigeria"); ttl != time.Minute {
		t.Fatalf("expected ttl of a minute, got %s", ttl)
	}

	if err := svc.Invalidate(ctx, "Nigeria"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := svc.Rate(ctx, "Nigeria"); err != nil {
		t.Fatalf("rate after invalidate: %v", err)
	}
	if repo.gets != 2 {
		t.Fatalf("expected a second repository read, got %d", repo.gets)
	}
}

func TestSetRateReplacesCachedRate(t *testing.T) {
	cache, _ := setupCache(t)
	svc := NewService(NewMemoryRepository(nigeria), cache, time.Hour, 100, logging.Discard())
	ctx := context.Background()

	if _, err := svc.Rate(ctx, "Nigeria"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	if err := svc.SetRate(ctx, Rate{CountryName: "Nigeria", Currency: "ngn", RechargeRate: decimal.NewFromInt(1700)}); err != nil {
		t.Fatalf("set rate: %v", err)
	}
	rate, err := svc.Rate(ctx, "nigeria")
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if !rate.RechargeRate.Equal(decimal.NewFromInt(1700)) || rate.Currency != "NGN" {
		t.Fatalf("expected updated rate, got %+v", rate)
	}

	q, err := svc.Quote(ctx, 100)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if !q.AmountLocal.Equal(decimal.NewFromInt(1700)) {
		t.Fatalf("expected quote at the new rate, got %s", q.AmountLocal)
	}
}

func TestSetRateRejectsInvalidRates(t *testing.T) {
	svc := NewService(NewMemoryRepository(nigeria), nil, 0, 100, logging.Discard())

	cases := map[string]Rate{
		"no country":    {Currency: "NGN", RechargeRate: decimal.NewFromInt(1)},
		"no currency":   {CountryName: "Ghana", RechargeRate: decimal.NewFromInt(1)},
		"zero rate":     {CountryName: "Ghana", Currency: "GHS"},
		"negative rate": {CountryName: "Ghana", Currency: "GHS", RechargeRate: decimal.NewFromInt(-3)},
	}
	for name, rate := range cases {
		if err := svc.SetRate(context.Background(), rate); !errors.Is(err, ErrInvalidRate) {
			t.Fatalf("%s: expected ErrInvalidRate, got %v", name, err)
		}
	}
	if _, err := svc.Rate(context.Background(), "Ghana"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("rejected rate was stored: %v", err)
	}
}

func TestRateFallsBackWhenCacheDown(t *testing.T) {
	cache, mr := setupCache(t)
	svc := NewService(NewMemoryRepository(nigeria), cache, time.Minute, 100, logging.Discard())
	mr.Close()

	if _, err := svc.Rate(context.Background(), "Nigeria"); err != nil {
		t.Fatalf("expected repository fallback, got %v", err)
	}
}

func TestLocalValue(t *testing.T) {
	svc := NewService(NewMemoryRepository(nigeria), nil, 0, 100, logging.Discard())

	value, rate, ok, err := svc.LocalValue(context.Background(), 250, "Nigeria")
	if err != nil || !ok {
		t.Fatalf("local value: ok=%v err=%v", ok, err)
	}
	if !value.Equal(decimal.NewFromInt(4000)) || rate.Currency != "NGN" {
		t.Fatalf("unexpected value %s %s", value, rate.Currency)
	}

	if _, _, ok, err := svc.LocalValue(context.Background(), 250, "Ghana"); ok || err != nil {
		t.Fatalf("expected no rate for Ghana, ok=%v err=%v", ok, err)
	}
}

func TestQuoteHandler(t *testing.T) {
	svc := NewService(NewMemoryRepository(nigeria), nil, 0, 100, logging.Discard())
	app := fiber.New()
	app.Get("/rates/quote", NewHandler(svc).Quote)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/rates/quote?points=500", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/rates/quote?points=abc", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

type countingRepo struct {
	Repository
	gets int
}

func (r *countingRepo) Get(ctx context.Context, country string) (Rate, error) {
	r.gets++
	return r.Repository.Get(ctx, country)
}
