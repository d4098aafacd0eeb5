// Package money provides decimal helpers for monetary values. All monetary
// arithmetic in the application goes through shopspring/decimal; values cross
// the API boundary as strings, never as binary floats.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Zero is the canonical zero amount.
var Zero = decimal.Zero

// ErrNegativeAmount indicates a monetary field that must not be negative.
var ErrNegativeAmount = errors.New("money: amount must not be negative")

// Parse converts a decimal string into a Decimal. An empty string parses as
// zero, matching the behaviour of optional monetary request fields.
func Parse(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return d, nil
}

// ParseNonNegative parses a decimal string and rejects negative values.
func ParseNonNegative(s string) (decimal.Decimal, error) {
	d, err := Parse(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if d.IsNegative() {
		return decimal.Decimal{}, ErrNegativeAmount
	}
	return d, nil
}

// MustParse parses a decimal string and panics on failure. Intended for
// constants, tests and seed data only.
func MustParse(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("money: must parse %q: %v", s, err))
	}
	return d
}

// FromInt converts an integer quantity into a Decimal.
func FromInt(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

// Sum adds the given amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// String renders an amount with two decimal places, the fixed scale used on
// documents and in API payloads.
func String(d decimal.Decimal) string {
	return d.StringFixed(2)
}
