package wallet

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/points-app/points_app/internal/identity"
	"github.com/points-app/points_app/internal/ledger"
	"github.com/points-app/points_app/internal/rates"
)

// Users is the part of the identity store the wallet views need.
type Users interface {
	Get(ctx context.Context, id string) (identity.User, error)
}

// Service assembles read models over the ledger, rates and identity.
type Service struct {
	ledger ledger.Ledger
	rates  *rates.Service
	users  Users
}

// NewService builds a wallet service instance.
func NewService(l ledger.Ledger, r *rates.Service, users Users) *Service {
	return &Service{ledger: l, rates: r, users: users}
}

// Summary returns the user's balance valued in USD and, when a rate exists
// for country, in local currency. A user without a wallet row has zero coins.
func (s *Service) Summary(ctx context.Context, userID, country string) (Summary, error) {
	summary, _, err := s.summary(ctx, userID, country)
	return summary, err
}

func (s *Service) summary(ctx context.Context, userID, country string) (Summary, decimal.Decimal, error) {
	summary := Summary{UserID: userID, USD: decimal.Zero}

	w, err := s.ledger.Wallet(ctx, userID)
	switch {
	case err == nil:
		summary.Coins = w.Coins
		updated := w.UpdatedAt
		summary.UpdatedAt = &updated
	case errors.Is(err, ledger.ErrWalletNotFound):
	default:
		return Summary{}, decimal.Zero, err
	}

	summary.USD = rates.USDValue(summary.Coins)
	if strings.TrimSpace(country) == "" {
		country = rates.DefaultCountry
	}
	local, rate, ok, err := s.rates.LocalValue(ctx, summary.Coins, country)
	if err != nil {
		return Summary{}, decimal.Zero, err
	}
	if !ok {
		return summary, decimal.Zero, nil
	}
	summary.Local = &local
	summary.Currency = rate.Currency
	summary.Country = rate.CountryName
	return summary, rate.RechargeRate, nil
}

// History lists the user's transactions newest first, capped at
// ledger.DefaultHistoryLimit.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]Entry, error) {
	txs, err := s.ledger.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(txs))
	for _, t := range txs {
		entries = append(entries, Entry{
			ID:          t.ID,
			Kind:        t.Kind,
			Coins:       t.Coins,
			AmountLocal: t.AmountLocal,
			Currency:    t.Currency,
			Status:      t.Status,
			Reference:   t.ReferenceValue(),
			CreatedAt:   t.CreatedAt,
		})
	}
	return entries, nil
}

// Profile builds the dashboard for the signed-in user.
func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	summary, rate, err := s.summary(ctx, userID, user.Country)
	if err != nil {
		return Profile{}, err
	}

	return Profile{
		UserID:    user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Country:   user.Country,
		AvatarURL: user.AvatarURL,
		LastLogin: user.LastLogin,
		Wallet:    summary,
		Rate:      rate,
		MinPoints: s.rates.MinPoints(),
	}, nil
}
