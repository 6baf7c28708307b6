package rates

import (
	"errors"

	"github.com/shopspring/decimal"
)

// DefaultCountry prices every purchase; checkout always charges in its currency.
const DefaultCountry = "Nigeria"

// CoinPriceUSD is the price of one point in US dollars.
var CoinPriceUSD = decimal.RequireFromString("0.01")

var (
	// ErrNotFound is returned when no rate is configured for the country.
	ErrNotFound = errors.New("exchange rate not found")
	// ErrInvalidRate is returned by SetRate for an incomplete or non-positive rate.
	ErrInvalidRate = errors.New("invalid exchange rate")
)

// Rate converts US dollars to a country's local currency.
type Rate struct {
	CountryName  string          `json:"country_name"`
	Currency     string          `json:"currency"`
	RechargeRate decimal.Decimal `json:"recharge_rate"`
}

// Quote prices a number of points.
type Quote struct {
	Points      int64           `json:"points"`
	USD         decimal.Decimal `json:"usd"`
	Local       decimal.Decimal `json:"local"`
	AmountLocal decimal.Decimal `json:"amount_local"`
	Currency    string          `json:"currency"`
	Country     string          `json:"country"`
	Rate        decimal.Decimal `json:"recharge_rate"`
	MinPoints   int64           `json:"min_points"`
	Purchasable bool            `json:"purchasable"`
}

// USDValue returns the dollar value of coins.
func USDValue(coins int64) decimal.Decimal {
	return CoinPriceUSD.Mul(decimal.NewFromInt(coins))
}
