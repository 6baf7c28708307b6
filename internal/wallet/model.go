package wallet

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/points-app/points_app/internal/ledger"
)

// Summary is the balance view of a user's points wallet.
type Summary struct {
	UserID    string
	Coins     int64
	UpdatedAt *time.Time
	USD       decimal.Decimal
	// Local is nil when the user's country has no recharge rate.
	Local    *decimal.Decimal
	Currency string
	Country  string
}

// Entry is one line of the purchase history.
type Entry struct {
	ID          string
	Kind        ledger.Kind
	Coins       int64
	AmountLocal decimal.Decimal
	Currency    string
	Status      ledger.Status
	Reference   string
	CreatedAt   time.Time
}

// Profile is the signed-in user's dashboard: who they are, what they hold and
// what a point costs them.
type Profile struct {
	UserID    string
	Email     string
	Username  string
	Country   string
	AvatarURL string
	LastLogin *time.Time
	Wallet    Summary
	Rate      decimal.Decimal
	MinPoints int64
}
