// Package money converts between decimal amounts at the API boundary and
// the int64 minor units used everywhere inside the ledger.
package money

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits of one minor unit.
const Scale = 2

var (
	ErrInvalidFormat = errors.New("amount is not a valid decimal number")
	ErrTooPrecise    = fmt.Errorf("amount has more than %d decimal places", Scale)
	ErrOutOfRange    = errors.New("amount is out of range")
)

// Parse converts a decimal string such as "12.50" into minor units.
// Zero and negative values parse fine; positivity is a ledger rule.
func Parse(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidFormat
	}
	return FromDecimal(d)
}

// maxDigits is the number of decimal digits of math.MaxInt64.
const maxDigits = 19

// FromDecimal converts d into minor units, rejecting sub-cent precision.
// The exponent of d is client controlled, so magnitude and precision are
// checked on the digit count before any power of ten is expanded.
func FromDecimal(d decimal.Decimal) (int64, error) {
	if d.IsZero() {
		return 0, nil
	}

	coeff := d.Coefficient()
	abs := coeff.Abs(coeff).String()
	digits := strings.TrimRight(abs, "0")
	exp := int64(d.Exponent()) + int64(len(abs)-len(digits))

	if exp < -Scale {
		return 0, ErrTooPrecise
	}
	if int64(len(digits))+exp+Scale > maxDigits {
		return 0, ErrOutOfRange
	}

	normalized, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return 0, ErrInvalidFormat
	}
	if d.Sign() < 0 {
		normalized.Neg(normalized)
	}
	scaled := decimal.NewFromBigInt(normalized, int32(exp)).Shift(Scale)
	if !scaled.BigInt().IsInt64() {
		return 0, ErrOutOfRange
	}
	return scaled.IntPart(), nil
}

// ToDecimal returns the decimal value of minor units.
func ToDecimal(minor int64) decimal.Decimal {
	return decimal.New(minor, -Scale)
}

// Format renders minor units with exactly Scale fractional digits.
func Format(minor int64) string {
	return ToDecimal(minor).StringFixed(Scale)
}
