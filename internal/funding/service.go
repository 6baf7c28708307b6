package funding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/points-app/points_app/internal/ledger"
	"github.com/points-app/points_app/internal/notification"
	"github.com/points-app/points_app/internal/paystack"
)

// Options tune the funding flows.
type Options struct {
	// Currency is the fixed settlement currency every charge is made in.
	Currency string
	// CallbackURL is where the gateway sends the buyer after checkout.
	CallbackURL string
	// MaxAttempts bounds gateway verify calls for transient failures.
	MaxAttempts int
	// Backoff is the delay before the second verify attempt; it doubles after.
	Backoff time.Duration
	// PendingExpiry is the age after which pending rows are reconciled.
	PendingExpiry time.Duration
	// SweepBatch caps how many stale rows one sweep re-verifies.
	SweepBatch int
}

func (o Options) withDefaults() Options {
	if o.Currency == "" {
		o.Currency = "NGN"
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 3
	}
	if o.Backoff <= 0 {
		o.Backoff = 250 * time.Millisecond
	}
	if o.PendingExpiry <= 0 {
		o.PendingExpiry = 30 * time.Minute
	}
	if o.SweepBatch <= 0 {
		o.SweepBatch = 50
	}
	return o
}

// Service coordinates point purchases between the ledger and the payment gateway.
type Service struct {
	ledger   ledger.Ledger
	gateway  Gateway
	notifier notification.Notifier
	logger   *slog.Logger
	opts     Options

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewService wires a funding service.
func NewService(ledgerBackend ledger.Ledger, gateway Gateway, notifier notification.Notifier, logger *slog.Logger, opts Options) (*Service, error) {
	if ledgerBackend == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		ledger:   ledgerBackend,
		gateway:  gateway,
		notifier: notifier,
		logger:   logger,
		opts:     opts.withDefaults(),
		now:      func() time.Time { return time.Now().UTC() },
		sleep:    sleepContext,
	}, nil
}

// InitiateInput captures a purchase request.
type InitiateInput struct {
	UserID      string
	Coins       int64
	AmountLocal decimal.Decimal
	// Currency is the buyer's display currency; charges always use Options.Currency.
	Currency string
	Email    string
}

// InitiateResult is the checkout handle returned to the buyer.
type InitiateResult struct {
	TransactionID    string
	AuthorizationURL string
	Reference        string
}

// Initiate records a pending purchase, opens a checkout at the gateway and
// binds the gateway reference to the transaction.
//
// A gateway failure leaves the pending row without a reference; Sweep fails
// it once it is older than PendingExpiry. The gateway call is never retried.
func (s *Service) Initiate(ctx context.Context, input InitiateInput) (InitiateResult, error) {
	input.UserID = strings.TrimSpace(input.UserID)
	input.Email = strings.TrimSpace(input.Email)
	if err := validateInitiate(input); err != nil {
		return InitiateResult{}, err
	}

	tx, err := s.ledger.Create(ctx, ledger.NewTransaction{
		UserID:         input.UserID,
		Kind:           ledger.KindDeposit,
		Coins:          input.Coins,
		AmountLocal:    input.AmountLocal,
		Currency:       s.opts.Currency,
		Provider:       ledger.ProviderPaystack,
		RechargeMethod: ledger.RechargeMethodBank,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrUnknownUser) {
			s.logger.Warn("initiate for unknown user", slog.String("user_id", input.UserID))
			return InitiateResult{}, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		s.logger.Error("create transaction", slog.String("user_id", input.UserID), slog.Any("error", err))
		return InitiateResult{}, fmt.Errorf("%w: %w", ErrLedgerWrite, err)
	}

	logger := s.logger.With(slog.String("transaction_id", tx.ID), slog.String("user_id", input.UserID))

	auth, err := s.gateway.Initialize(ctx, paystack.InitializeRequest{
		Email:       input.Email,
		Amount:      paystack.ToMinor(input.AmountLocal),
		Currency:    s.opts.Currency,
		CallbackURL: s.opts.CallbackURL,
		Metadata: map[string]any{
			"transactionId": tx.ID,
			"userId":        input.UserID,
			"coins":         input.Coins,
		},
	})
	if err != nil {
		logger.Error("gateway initialize", slog.Any("error", err))
		if errors.Is(err, paystack.ErrUnavailable) {
			return InitiateResult{}, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
		}
		return InitiateResult{}, fmt.Errorf("%w: %w", ErrGatewayInit, err)
	}
	if auth.AuthorizationURL == "" || auth.Reference == "" {
		logger.Error("gateway initialize returned no checkout", slog.String("reference", auth.Reference))
		return InitiateResult{}, fmt.Errorf("%w: missing authorization url or reference", ErrGatewayInit)
	}

	if err := s.ledger.SetReference(ctx, tx.ID, auth.Reference); err != nil {
		logger.Error("save reference", slog.String("reference", auth.Reference), slog.Any("error", err))
		return InitiateResult{}, fmt.Errorf("%w: %w", ErrLedgerWrite, err)
	}

	logger.Info("payment initiated",
		slog.String("reference", auth.Reference),
		slog.Int64("coins", input.Coins),
		slog.String("amount_local", input.AmountLocal.String()),
		slog.String("display_currency", input.Currency),
	)
	return InitiateResult{TransactionID: tx.ID, AuthorizationURL: auth.AuthorizationURL, Reference: auth.Reference}, nil
}

// maxAmountLocal is the largest amount transactions.amount_local (NUMERIC(14,2)) holds.
var maxAmountLocal = decimal.RequireFromString("999999999999.99")

func validateInitiate(input InitiateInput) error {
	switch {
	case input.UserID == "":
		return fmt.Errorf("%w: userId is required", ErrValidation)
	case input.Email == "":
		return fmt.Errorf("%w: email is required", ErrValidation)
	case input.Coins <= 0:
		return fmt.Errorf("%w: coins must be positive", ErrValidation)
	case !input.AmountLocal.IsPositive():
		return fmt.Errorf("%w: amountLocal must be positive", ErrValidation)
	case input.AmountLocal.GreaterThan(maxAmountLocal):
		return fmt.Errorf("%w: amountLocal exceeds %s", ErrValidation, maxAmountLocal)
	case !input.AmountLocal.Equal(input.AmountLocal.Round(2)):
		return fmt.Errorf("%w: amountLocal has more than two decimal places", ErrValidation)
	}
	return nil
}

// VerifyResult is the reconciled state of a purchase.
type VerifyResult struct {
	TransactionID   string
	UserID          string
	Reference       string
	Status          ledger.Status
	Coins           int64
	AlreadyVerified bool
	// Credited is true only for the call that moved the row to success.
	Credited    bool
	WalletCoins int64
	Metadata    map[string]any
}

// Verify reconciles a purchase with the gateway. A transaction that already
// succeeded short-circuits without any gateway call or write; otherwise the
// gateway outcome is applied once, crediting the wallet on success.
func (s *Service) Verify(ctx context.Context, reference string) (VerifyResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return VerifyResult{}, fmt.Errorf("%w: reference is required", ErrValidation)
	}
	logger := s.logger.With(slog.String("reference", reference))

	tx, err := s.ledger.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			logger.Warn("verify unknown reference")
			return VerifyResult{}, ErrNotFound
		}
		logger.Error("load transaction", slog.Any("error", err))
		return VerifyResult{}, fmt.Errorf("%w: %w", ErrLedgerRead, err)
	}

	result := VerifyResult{
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Reference:     reference,
		Status:        tx.Status,
		Coins:         tx.Coins,
	}
	if tx.Status == ledger.StatusSuccess {
		result.AlreadyVerified = true
		return result, nil
	}

	verification, err := s.verifyWithRetry(ctx, logger, reference)
	if err != nil {
		logger.Error("gateway verify", slog.String("transaction_id", tx.ID), slog.Any("error", err))
		var apiErr *paystack.APIError
		if errors.As(err, &apiErr) {
			return VerifyResult{}, fmt.Errorf("%w: %w", ErrGatewayVerify, err)
		}
		return VerifyResult{}, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
	}
	result.Metadata = verification.Metadata

	if verification.InFlight() {
		logger.Info("payment still in flight", slog.String("gateway_status", verification.Status))
		return VerifyResult{}, fmt.Errorf("%w: %w (%s)", ErrGatewayVerify, ErrPaymentInFlight, verification.Status)
	}

	settlement := ledger.Settlement{
		Status:      ledger.StatusFailed,
		AmountLocal: paystack.FromMinor(verification.Amount),
		Currency:    verification.Currency,
	}
	if verification.Status == paystack.StatusSuccess {
		settlement.Status = ledger.StatusSuccess
	}
	if settlement.Currency == "" {
		settlement.Currency = tx.Currency
	}

	settled, err := s.ledger.Settle(ctx, reference, settlement)
	if err != nil {
		logger.Error("settle transaction",
			slog.String("transaction_id", tx.ID),
			slog.String("gateway_status", verification.Status),
			slog.Any("error", err))
		return VerifyResult{}, fmt.Errorf("%w: %w", ErrLedgerWrite, err)
	}

	result.Status = settled.Transaction.Status
	result.Credited = settled.Credited
	result.WalletCoins = settled.WalletCoins
	if !settled.Applied {
		// Another caller settled it first; report what is stored.
		result.AlreadyVerified = settled.Transaction.Status == ledger.StatusSuccess
		return result, nil
	}

	logger.Info("payment settled",
		slog.String("transaction_id", tx.ID),
		slog.String("user_id", tx.UserID),
		slog.String("status", string(result.Status)),
		slog.Int64("coins", tx.Coins),
	)
	if settled.Credited {
		s.notifyCredit(ctx, tx, settled.WalletCoins)
	}
	return result, nil
}

func (s *Service) verifyWithRetry(ctx context.Context, logger *slog.Logger, reference string) (paystack.Verification, error) {
	delay := s.opts.Backoff
	var lastErr error
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		v, err := s.gateway.Verify(ctx, reference)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, paystack.ErrUnavailable) {
			return paystack.Verification{}, err
		}
		lastErr = err
		if attempt == s.opts.MaxAttempts {
			break
		}
		logger.Warn("gateway verify retry", slog.Int("attempt", attempt), slog.Duration("backoff", delay), slog.Any("error", err))
		if err := s.sleep(ctx, delay); err != nil {
			return paystack.Verification{}, err
		}
		delay *= 2
	}
	return paystack.Verification{}, lastErr
}

func (s *Service) notifyCredit(ctx context.Context, tx ledger.Transaction, balance int64) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Send(ctx, notification.Message{
		Kind:        notification.KindPointsCredited,
		Destination: tx.UserID,
		Body:        fmt.Sprintf("%d points added to your wallet. New balance: %d", tx.Coins, balance),
	})
	if err != nil {
		s.logger.Warn("send credit notification", slog.String("user_id", tx.UserID), slog.Any("error", err))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
