package paystack

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ToMinor converts a major-unit amount to minor units (kobo, cents),
// rounding half away from zero. The result must fit in an int64; callers
// bound amounts before converting.
func ToMinor(major decimal.Decimal) int64 {
	return major.Mul(hundred).Round(0).IntPart()
}

// FromMinor converts minor units back to a two-place major-unit amount.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
