// Package money converts between decimal strings and integer cents.
//
// The ledger stores cents; decimal strings only exist at the RPC boundary.
// Percentages travel the same way and are stored as basis points
// (hundredths of a percent), so "33.33" becomes 3333.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxCents bounds any single amount. It matches a NUMERIC(12,2) column.
const MaxCents int64 = 999_999_999_999

// FullPercent is 100% expressed in basis points.
const FullPercent int64 = 10_000

var (
	ErrEmpty      = errors.New("empty amount")
	ErrTooPrecise = errors.New("more than two decimal places")
	ErrOutOfRange = errors.New("amount out of range")
	ErrNotANumber = errors.New("not a decimal number")
)

// ParseCents converts a decimal string such as "12.34" or "12,34" to cents.
// Negative values are accepted; callers decide whether they are allowed.
//
// Examples:
//
//	ParseCents("12.34") -> 1234, nil
//	ParseCents("7")     -> 700, nil
//	ParseCents("0.125") -> 0, ErrTooPrecise
func ParseCents(s string) (int64, error) {
	return parseHundredths(s)
}

// ParseBasisPoints converts a percentage string such as "33.33" to basis points.
func ParseBasisPoints(s string) (int64, error) {
	return parseHundredths(s)
}

func parseHundredths(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrEmpty
	}
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, s)
	}
	shifted := d.Shift(2)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("%w: %q", ErrTooPrecise, s)
	}
	if shifted.Abs().GreaterThan(decimal.NewFromInt(MaxCents)) {
		return 0, fmt.Errorf("%w: %q", ErrOutOfRange, s)
	}
	return shifted.IntPart(), nil
}

// FormatCents renders cents as a fixed two-decimal string ("-12.05").
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// FormatBasisPoints renders basis points as a percentage string ("33.33").
func FormatBasisPoints(bp int64) string {
	return decimal.New(bp, -2).StringFixed(2)
}
