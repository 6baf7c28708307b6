package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/points-app/points_app/internal/auth"
	"github.com/points-app/points_app/internal/config"
	"github.com/points-app/points_app/internal/funding"
	"github.com/points-app/points_app/internal/identity"
	"github.com/points-app/points_app/internal/middleware"
	"github.com/points-app/points_app/internal/rates"
	"github.com/points-app/points_app/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
	// Gateway overrides the Paystack client, e.g. in tests.
	Gateway funding.Gateway
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) (*Services, error) {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return nil, fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return nil, fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	svc, err := NewServices(d)
	if err != nil {
		return nil, err
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	// Checkout endpoints keep the paths the storefront already calls.
	idempotent := middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	RegisterPaystackRoutes(app, funding.NewHandler(svc.Funding, d.Cfg.PaystackSecretKey, d.Logger), idempotent)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	RegisterRateRoutes(api, rates.NewHandler(svc.Rates))
	RegisterIdentityRoutes(api, identity.NewHandler(svc.Identities, svc.Ledger, d.Logger))
	jwtmw := middleware.JWTAuth(svc.Auth)
	RegisterAuthRoutes(api, auth.NewHandler(svc.Identities, svc.Auth),
		middleware.SignInRateLimit(d.Cache, 5, d.Logger), jwtmw)

	// Protected routes
	protected := api.Group("", jwtmw)
	RegisterWalletRoutes(protected, wallet.NewHandler(svc.Wallets, d.Logger))

	return svc, nil
}
