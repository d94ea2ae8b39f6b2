// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// MoneyPlaces is the number of fractional digits kept for stored amounts.
const MoneyPlaces int32 = 2

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromInt creates an exact Money value from an integer.
func NewMoneyFromInt(n int64) Money {
	return decimal.NewFromInt(n)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// Round2 rounds to cents, half away from zero.
func Round2(m Money) Money {
	return m.Round(MoneyPlaces)
}

// Percent returns base * rate / 100 without rounding.
func Percent(base, rate Money) Money {
	return base.Mul(rate).Div(hundred)
}

// GrossUp adds rate percent on top of net: net * (1 + rate/100).
func GrossUp(net, rate Money) Money {
	return net.Mul(one.Add(rate.Div(hundred)))
}

// NetOf extracts the pre-tax part of a tax-inclusive figure: gross / (1 + rate/100).
func NetOf(gross, rate Money) Money {
	divisor := one.Add(rate.Div(hundred))
	if divisor.IsZero() {
		return gross
	}
	return gross.Div(divisor)
}

// Sum adds all values.
func Sum(values ...Money) Money {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// ApproxEqual reports whether a and b differ by no more than tolerance.
func ApproxEqual(a, b, tolerance Money) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}
