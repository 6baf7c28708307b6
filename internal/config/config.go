package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName           = "PointsApp"
	defaultAppEnv            = "development"
	defaultPort              = "8080"
	defaultLogLevel          = "info"
	defaultLogFormat         = "json"
	defaultAppURL            = "http://localhost:3000"
	defaultPaystackBaseURL   = "https://api.paystack.co"
	defaultSettlement        = "NGN"
	defaultShutdownDelay     = 10 * time.Second
	defaultIdempotencyTTL    = 24 * time.Hour
	defaultPaystackTimeout   = 15 * time.Second
	defaultVerifyAttempts    = 3
	defaultVerifyBackoff     = 250 * time.Millisecond
	defaultPendingExpiry     = 30 * time.Minute
	defaultSweepInterval     = 5 * time.Minute
	defaultAccessTokenTTL    = 15 * time.Minute
	defaultRefreshTokenTTL   = 30 * 24 * time.Hour
	defaultRateCacheTTL      = 10 * time.Minute
	defaultMinPurchasePoints = 100
	defaultDBMaxConns        = 10
	defaultRedisPoolSize     = 10
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	LogFormat      string
	DatabaseURL    string
	DBMaxConns     int32
	RedisURL       string
	RedisPoolSize  int
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	AppURL             string
	PaystackSecretKey  string
	PaystackBaseURL    string
	PaystackTimeout    time.Duration
	SettlementCurrency string

	VerifyMaxAttempts int
	VerifyBackoff     time.Duration
	PendingExpiry     time.Duration
	SweepInterval     time.Duration

	JWTSecret       string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	RateCacheTTL      time.Duration
	MinPurchasePoints int64
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:            getEnv("APP_NAME", defaultAppName),
		AppEnv:             getEnv("APP_ENV", defaultAppEnv),
		Port:               getEnv("PORT", defaultPort),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", defaultLogFormat)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		AppURL:             strings.TrimRight(getEnv("APP_URL", defaultAppURL), "/"),
		PaystackSecretKey:  os.Getenv("PAYSTACK_SECRET_KEY"),
		PaystackBaseURL:    strings.TrimRight(getEnv("PAYSTACK_BASE_URL", defaultPaystackBaseURL), "/"),
		SettlementCurrency: strings.ToUpper(getEnv("SETTLEMENT_CURRENCY", defaultSettlement)),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		RefreshSecret:      os.Getenv("REFRESH_SECRET"),
	}

	durations := []struct {
		target   *time.Duration
		name     string
		fallback time.Duration
	}{
		{&cfg.ShutdownPeriod, "SHUTDOWN_TIMEOUT", defaultShutdownDelay},
		{&cfg.IdempotencyTTL, "IDEMPOTENCY_TTL", defaultIdempotencyTTL},
		{&cfg.PaystackTimeout, "PAYSTACK_TIMEOUT", defaultPaystackTimeout},
		{&cfg.VerifyBackoff, "VERIFY_BACKOFF", defaultVerifyBackoff},
		{&cfg.PendingExpiry, "PENDING_EXPIRY", defaultPendingExpiry},
		{&cfg.SweepInterval, "SWEEP_INTERVAL", defaultSweepInterval},
		{&cfg.AccessTokenTTL, "ACCESS_TOKEN_TTL", defaultAccessTokenTTL},
		{&cfg.RefreshTokenTTL, "REFRESH_TOKEN_TTL", defaultRefreshTokenTTL},
		{&cfg.RateCacheTTL, "RATE_CACHE_TTL", defaultRateCacheTTL},
	}
	for _, d := range durations {
		v, err := durationEnv(d.name, d.fallback)
		if err != nil {
			return Config{}, err
		}
		*d.target = v
	}

	attempts, err := intEnv("VERIFY_MAX_ATTEMPTS", defaultVerifyAttempts)
	if err != nil {
		return Config{}, err
	}
	if attempts < 1 {
		return Config{}, fmt.Errorf("VERIFY_MAX_ATTEMPTS must be at least 1")
	}
	cfg.VerifyMaxAttempts = attempts

	minPoints, err := intEnv("MIN_PURCHASE_POINTS", defaultMinPurchasePoints)
	if err != nil {
		return Config{}, err
	}
	cfg.MinPurchasePoints = int64(minPoints)

	maxConns, err := intEnv("DB_MAX_CONNS", defaultDBMaxConns)
	if err != nil {
		return Config{}, err
	}
	poolSize, err := intEnv("REDIS_POOL_SIZE", defaultRedisPoolSize)
	if err != nil {
		return Config{}, err
	}
	if maxConns < 1 || maxConns > math.MaxInt32 || poolSize < 1 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS and REDIS_POOL_SIZE must be positive")
	}
	cfg.DBMaxConns = int32(maxConns)
	cfg.RedisPoolSize = poolSize

	if cfg.PendingExpiry <= 0 {
		return Config{}, fmt.Errorf("PENDING_EXPIRY must be positive")
	}

	if cfg.IsDev() {
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = "dev-access-secret"
		}
		if cfg.RefreshSecret == "" {
			cfg.RefreshSecret = "dev-refresh-secret"
		}
		return cfg, nil
	}

	required := []struct{ name, value string }{
		{"DATABASE_URL", cfg.DatabaseURL},
		{"REDIS_URL", cfg.RedisURL},
		{"PAYSTACK_SECRET_KEY", cfg.PaystackSecretKey},
		{"JWT_SECRET", cfg.JWTSecret},
		{"REFRESH_SECRET", cfg.RefreshSecret},
	}
	for _, r := range required {
		if r.value == "" {
			return Config{}, fmt.Errorf("%s must be set", r.name)
		}
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// CallbackURL is where the gateway redirects the customer after checkout.
func (c Config) CallbackURL() string {
	return c.AppURL + "/buy-points/success"
}

// IsDev reports whether in-memory fallbacks are allowed.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// durationEnv accepts KEY_SECONDS as an integer or KEY as a Go duration string.
func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(key + "_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s_SECONDS: %w", key, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	}
	return fallback, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
