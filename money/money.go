// Package money converts between decimal amounts and the integer minor units
// they are stored as.
package money

import "github.com/shopspring/decimal"

// Epsilon is one minor unit; differences at or below it are noise.
var Epsilon = decimal.New(1, -2)

var hundred = decimal.NewFromInt(100)

// Round rounds to currency precision (2 places, half away from zero).
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Cents is the amount in minor units after rounding to currency precision.
func Cents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Percent returns total * pct / 100 rounded to currency precision.
func Percent(total, pct decimal.Decimal) decimal.Decimal {
	return Round(total.Mul(pct).Div(hundred))
}

func Hundred() decimal.Decimal {
	return hundred
}
