package shared

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidMoneyScale     = errors.New("amount must have at most 2 decimal places")
	ErrInvalidCurrencyFormat = errors.New("currency must be a 3-letter code")
)

// All money in this system is fixed-point decimal with a 2-digit scale.
// Floating point never touches an amount; the cent helpers below are the
// bridge to exact integer arithmetic where remainder distribution needs it.

// Cents converts a 2-decimal amount to an integer number of minor units.
// The amount must already satisfy ValidMoney.
func Cents(d decimal.Decimal) int64 {
	return d.Shift(2).IntPart()
}

// FromCents converts an integer number of minor units back to a decimal amount.
func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

// ValidMoney reports whether the amount fits the 2-digit monetary scale.
func ValidMoney(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// ValidCurrency reports whether the code looks like an ISO 4217 currency code.
func ValidCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
