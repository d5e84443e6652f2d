// Package money normalizes catalog price strings for arithmetic. Prices are
// stored in display form with grouping separators ("1,39,900"); separators
// are stripped before parsing and amounts are handled as fixed-point decimals,
// never floats.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidPrice = errors.New("price is not a valid amount")

// Parse converts a stored price string to a decimal amount. Grouping
// separators (commas and spaces) are stripped; anything that still fails to
// parse is rejected rather than silently dropped.
func Parse(price string) (decimal.Decimal, error) {
	normalized := strings.NewReplacer(",", "", " ", "").Replace(strings.TrimSpace(price))
	if normalized == "" {
		return decimal.Zero, ErrInvalidPrice
	}

	amount, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, ErrInvalidPrice
	}
	if amount.IsNegative() {
		return decimal.Zero, ErrInvalidPrice
	}

	return amount, nil
}

// Valid reports whether a stored price string normalizes cleanly.
func Valid(price string) bool {
	_, err := Parse(price)
	return err == nil
}

// MinorUnits converts an amount to the payment provider's minor-unit integer
// convention (amount * 100, rounded to the nearest unit).
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
