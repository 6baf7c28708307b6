package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when no transaction matches the lookup key.
	ErrNotFound = errors.New("transaction not found")

	// ErrDuplicateReference indicates the gateway reference is already bound to
	// another transaction.
	ErrDuplicateReference = errors.New("duplicate reference")

	// ErrReferenceAlreadySet indicates the transaction already carries a
	// reference; references are immutable once written.
	ErrReferenceAlreadySet = errors.New("reference already set")

	// ErrWalletNotFound is returned when the user has no wallet row yet.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrUnknownUser is returned when a transaction names a user that does not exist.
	ErrUnknownUser = errors.New("unknown user")

	// ErrInvalidSettlement rejects settlements that do not target a terminal status.
	ErrInvalidSettlement = errors.New("settlement status must be terminal")
)

// Kind is the direction of a transaction relative to the wallet.
type Kind string

const (
	KindDeposit  Kind = "deposit"
	KindWithdraw Kind = "withdraw"
)

// Status is the lifecycle state of a transaction.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

const (
	// ProviderPaystack tags transactions charged through Paystack.
	ProviderPaystack = "paystack"
	// RechargeMethodBank is the only recharge method offered at checkout.
	RechargeMethodBank = "bank"
	// DefaultHistoryLimit caps history listings.
	DefaultHistoryLimit = 100
)

// Transaction is a single ledger entry.
type Transaction struct {
	ID             string
	UserID         string
	Kind           Kind
	Coins          int64
	AmountLocal    decimal.Decimal
	Currency       string
	Status         Status
	Provider       string
	RechargeMethod string
	Reference      *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ReferenceValue returns the reference or "" when unset.
func (t Transaction) ReferenceValue() string {
	if t.Reference == nil {
		return ""
	}
	return *t.Reference
}

// NewTransaction carries the fields needed to open a pending entry.
type NewTransaction struct {
	UserID         string
	Kind           Kind
	Coins          int64
	AmountLocal    decimal.Decimal
	Currency       string
	Provider       string
	RechargeMethod string
}

// Settlement is the terminal outcome reported by the gateway.
type Settlement struct {
	Status      Status
	AmountLocal decimal.Decimal
	Currency    string
}

// SettleResult describes what Settle did.
//
// Applied is false when the transaction had already left pending; in that case
// nothing was written and Transaction holds the stored row.
type SettleResult struct {
	Transaction Transaction
	Applied     bool
	Credited    bool
	WalletCoins int64
}

// Wallet is the per-user points balance.
type Wallet struct {
	UserID    string
	Coins     int64
	UpdatedAt time.Time
}

// Ledger defines the contract implemented by ledger backends (e.g. Postgres).
type Ledger interface {
	Create(ctx context.Context, input NewTransaction) (Transaction, error)
	SetReference(ctx context.Context, id, reference string) error
	Get(ctx context.Context, id string) (Transaction, error)
	GetByReference(ctx context.Context, reference string) (Transaction, error)
	// Settle moves a pending transaction to a terminal status and, on success,
	// credits the owner's wallet in the same atomic unit.
	Settle(ctx context.Context, reference string, settlement Settlement) (SettleResult, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Transaction, error)
	ExpireOrphans(ctx context.Context, before time.Time) (int64, error)
	// StalePending lists referenced pending transactions created before the
	// cutoff, least recently checked first.
	StalePending(ctx context.Context, before time.Time, limit int) ([]Transaction, error)
	// MarkChecked bumps updated_at of a still-pending transaction so the next
	// StalePending call rotates it behind rows that were not checked yet.
	MarkChecked(ctx context.Context, id string) error
	EnsureWallet(ctx context.Context, userID string) error
	Wallet(ctx context.Context, userID string) (Wallet, error)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > DefaultHistoryLimit {
		return DefaultHistoryLimit
	}
	return limit
}
