package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const cachePrefix = "rates:v1:"

// Service prices points using exchange rates, caching lookups in Redis.
type Service struct {
	repo      Repository
	cache     *redis.Client
	ttl       time.Duration
	minPoints int64
	logger    *slog.Logger
}

// NewService builds a rate service. A nil cache disables caching.
func NewService(repo Repository, cache *redis.Client, ttl time.Duration, minPoints int64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if minPoints <= 0 {
		minPoints = 100
	}
	return &Service{repo: repo, cache: cache, ttl: ttl, minPoints: minPoints, logger: logger}
}

// MinPoints is the smallest purchasable bundle.
func (s *Service) MinPoints() int64 {
	return s.minPoints
}

// Rate returns the rate for country. Cache failures fall through to the repository.
func (s *Service) Rate(ctx context.Context, country string) (Rate, error) {
	country = strings.TrimSpace(country)
	if country == "" {
		return Rate{}, ErrNotFound
	}
	key := cachePrefix + strings.ToLower(country)

	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var rate Rate
			if err := json.Unmarshal(raw, &rate); err == nil {
				return rate, nil
			}
			s.logger.Warn("discard undecodable cached rate", slog.String("country", country))
		case !errors.Is(err, redis.Nil):
			s.logger.Warn("rate cache lookup failed", slog.String("country", country), slog.Any("error", err))
		}
	}

	rate, err := s.repo.Get(ctx, country)
	if err != nil {
		return Rate{}, err
	}

	if s.cache != nil && s.ttl > 0 {
		if payload, err := json.Marshal(rate); err == nil {
			if err := s.cache.Set(ctx, key, payload, s.ttl).Err(); err != nil {
				s.logger.Warn("rate cache store failed", slog.String("country", country), slog.Any("error", err))
			}
		}
	}
	return rate, nil
}

// List returns every configured rate.
func (s *Service) List(ctx context.Context) ([]Rate, error) {
	return s.repo.List(ctx)
}

// SetRate stores rate and drops its cached copy so the next lookup reads it.
func (s *Service) SetRate(ctx context.Context, rate Rate) error {
	rate.CountryName = strings.TrimSpace(rate.CountryName)
	rate.Currency = strings.ToUpper(strings.TrimSpace(rate.Currency))
	if rate.CountryName == "" || rate.Currency == "" {
		return fmt.Errorf("%w: country and currency are required", ErrInvalidRate)
	}
	if !rate.RechargeRate.IsPositive() {
		return fmt.Errorf("%w: recharge rate must be positive", ErrInvalidRate)
	}
	if err := s.repo.Upsert(ctx, rate); err != nil {
		return fmt.Errorf("store rate: %w", err)
	}
	if err := s.Invalidate(ctx, rate.CountryName); err != nil {
		s.logger.Warn("rate cache invalidate failed", slog.String("country", rate.CountryName), slog.Any("error", err))
	}
	s.logger.Info("exchange rate updated",
		slog.String("country", rate.CountryName),
		slog.String("currency", rate.Currency),
		slog.String("recharge_rate", rate.RechargeRate.String()))
	return nil
}

// Invalidate drops the cached rate for country.
func (s *Service) Invalidate(ctx context.Context, country string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, cachePrefix+strings.ToLower(strings.TrimSpace(country))).Err()
}

// Quote prices points in the default country's currency. AmountLocal is the
// whole-unit amount sent to checkout.
func (s *Service) Quote(ctx context.Context, points int64) (Quote, error) {
	if points < 0 {
		return Quote{}, fmt.Errorf("points must not be negative")
	}
	rate, err := s.Rate(ctx, DefaultCountry)
	if err != nil {
		return Quote{}, err
	}
	usd := USDValue(points)
	local := usd.Mul(rate.RechargeRate)
	return Quote{
		Points:      points,
		USD:         usd,
		Local:       local,
		AmountLocal: local.Round(0),
		Currency:    rate.Currency,
		Country:     rate.CountryName,
		Rate:        rate.RechargeRate,
		MinPoints:   s.minPoints,
		Purchasable: points >= s.minPoints,
	}, nil
}

// LocalValue converts coins to the local currency of country. ok is false when
// the country has no rate.
func (s *Service) LocalValue(ctx context.Context, coins int64, country string) (value decimal.Decimal, rate Rate, ok bool, err error) {
	rate, err = s.Rate(ctx, country)
	if errors.Is(err, ErrNotFound) {
		return decimal.Zero, Rate{}, false, nil
	}
	if err != nil {
		return decimal.Zero, Rate{}, false, err
	}
	return USDValue(coins).Mul(rate.RechargeRate), rate, true, nil
}
