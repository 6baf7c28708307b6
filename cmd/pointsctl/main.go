package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/points-app/points_app/internal/config"
	"github.com/points-app/points_app/internal/infra"
	"github.com/points-app/points_app/internal/logging"
	"github.com/points-app/points_app/internal/routes"
)

var Version = "dev"

var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:     "pointsctl",
	Short:   "Operations tooling for the points purchase service",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		logger = logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, App: ctlName(), Env: cfg.AppEnv})
		return nil
	},
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(migrateCmd, sweepCmd, reverifyCmd, setRateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func ctlName() string {
	return cfg.AppName + "-ctl"
}

// openServices connects to Postgres (and Redis when configured) and builds
// the same services the API server runs. The returned func releases them.
func openServices(ctx context.Context) (*routes.Services, func(), error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL must be set")
	}
	db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL, infra.PostgresOptions{AppName: ctlName(), MaxConns: 2})
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	deps := routes.Deps{Cfg: cfg, DB: db, Logger: logger}
	if cfg.RedisURL != "" {
		cache, err := infra.NewRedisClient(ctx, cfg.RedisURL, infra.RedisOptions{ClientName: ctlName(), PoolSize: 2})
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		deps.Cache = cache
	}

	svc, err := routes.NewServices(deps)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	closeFn := func() {
		if deps.Cache != nil {
			_ = deps.Cache.Close()
		}
		db.Close()
	}
	return svc, closeFn, nil
}
