package routes

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/points-app/points_app/internal/auth"
	"github.com/points-app/points_app/internal/funding"
	"github.com/points-app/points_app/internal/identity"
	"github.com/points-app/points_app/internal/ledger"
	"github.com/points-app/points_app/internal/notification"
	"github.com/points-app/points_app/internal/paystack"
	"github.com/points-app/points_app/internal/rates"
	"github.com/points-app/points_app/internal/wallet"
)

// Services holds the application services built from Deps. It is shared by
// the HTTP server and the operations CLI.
type Services struct {
	Ledger     ledger.Ledger
	Identities *identity.Service
	IdentityDB identity.Repository
	Auth       *auth.Service
	Rates      *rates.Service
	Wallets    *wallet.Service
	Funding    *funding.Service
	Sweeper    *funding.Sweeper
}

// devRate seeds the in-memory rate table when running without Postgres.
var devRate = rates.Rate{CountryName: rates.DefaultCountry, Currency: "NGN", RechargeRate: decimal.NewFromInt(1600)}

// NewServices constructs every service, choosing Postgres-backed stores when a
// pool is present and in-memory ones otherwise.
func NewServices(d Deps) (*Services, error) {
	var (
		ledgerBackend ledger.Ledger
		identityRepo  identity.Repository
		rateRepo      rates.Repository
	)
	if d.DB != nil {
		ledgerBackend = ledger.NewPostgresLedger(d.DB)
		identityRepo = identity.NewPostgresRepository(d.DB)
		rateRepo = rates.NewPostgresRepository(d.DB)
	} else {
		ledgerBackend = ledger.NewInMemory()
		identityRepo = identity.NewMemoryRepository()
		rateRepo = rates.NewMemoryRepository(devRate)
	}

	gateway := d.Gateway
	if gateway == nil {
		gateway = paystack.NewClient(d.Cfg.PaystackBaseURL, d.Cfg.PaystackSecretKey, d.Cfg.PaystackTimeout)
	}

	fundingSvc, err := funding.NewService(ledgerBackend, gateway, notification.NewLoggerNotifier(d.Logger), d.Logger, funding.Options{
		Currency:      d.Cfg.SettlementCurrency,
		CallbackURL:   d.Cfg.CallbackURL(),
		MaxAttempts:   d.Cfg.VerifyMaxAttempts,
		Backoff:       d.Cfg.VerifyBackoff,
		PendingExpiry: d.Cfg.PendingExpiry,
	})
	if err != nil {
		return nil, fmt.Errorf("build funding service: %w", err)
	}

	identitySvc := identity.NewService(identityRepo)
	rateSvc := rates.NewService(rateRepo, d.Cache, d.Cfg.RateCacheTTL, d.Cfg.MinPurchasePoints, d.Logger)

	return &Services{
		Ledger:     ledgerBackend,
		Identities: identitySvc,
		IdentityDB: identityRepo,
		Auth:       auth.NewService(d.Cfg, identityRepo),
		Rates:      rateSvc,
		Wallets:    wallet.NewService(ledgerBackend, rateSvc, identitySvc),
		Funding:    fundingSvc,
		Sweeper:    funding.NewSweeper(fundingSvc, d.Cfg.SweepInterval, d.Logger),
	}, nil
}
