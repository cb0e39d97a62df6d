package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// Minor represents a monetary value stored in minor currency units (kopecks).
type Minor = int64

// Ptr returns a pointer to v. Handy for building optional prices.
func Ptr(v float64) *float64 {
	return &v
}

// IsAbsent reports whether the value is missing. Zero is a present value.
func IsAbsent(v *float64) bool {
	return v == nil
}

// IsPositiveFinite reports whether v is present, finite and strictly positive.
func IsPositiveFinite(v *float64) bool {
	if v == nil {
		return false
	}
	f := *v
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f > 0
}

func isFinite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

var half = decimal.New(5, -1)

// halfUp rounds ties toward positive infinity, so 2.5 → 3 and -2.5 → -2.
// decimal.Round would send -2.5 to -3.
func halfUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Shift(places).Add(half).Floor().Shift(-places)
}

// Round rounds half-up to the given number of decimals. Absent, NaN and
// infinite inputs yield nil rather than zero.
func Round(v *float64, decimals int32) *float64 {
	if !isFinite(v) {
		return nil
	}
	rounded, _ := halfUp(decimal.NewFromFloat(*v), decimals).Float64()
	return &rounded
}

// RoundInt rounds half-up to the nearest integer. Non-finite input yields 0.
func RoundInt(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return halfUp(decimal.NewFromFloat(v), 0).IntPart()
}

// ToMinor converts a major-unit amount into minor units (×100, nearest integer).
// Absent or non-finite amounts count as zero.
func ToMinor(major *float64) Minor {
	if !isFinite(major) {
		return 0
	}
	return halfUp(decimal.NewFromFloat(*major).Shift(2), 0).IntPart()
}

// FromMinor converts minor units back into a major-unit amount for presentation.
func FromMinor(minor Minor) float64 {
	f, _ := decimal.New(minor, -2).Float64()
	return f
}

// MulDivRound computes round(value × mul / div) on integers without float drift.
// A zero divisor yields 0.
func MulDivRound(value, mul, div int64) int64 {
	if div == 0 {
		return 0
	}
	return halfUp(decimal.NewFromInt(value).Mul(decimal.NewFromInt(mul)).Div(decimal.NewFromInt(div)), 0).IntPart()
}

// Format renders minor units as a fixed two-decimal major amount, e.g. 12345 → "123.45".
func Format(minor Minor) string {
	return decimal.New(minor, -2).StringFixed(2)
}

// Percent renders part/whole as a percentage with one decimal. A zero whole
// yields "0.0".
func Percent(part, whole Minor) string {
	if whole == 0 {
		return "0.0"
	}
	return decimal.NewFromInt(part).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(whole)).StringFixed(1)
}
