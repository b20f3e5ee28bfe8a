package compute

import "github.com/shopspring/decimal"

// RoundToIncrement rounds price to the nearest multiple of increment, halves
// away from zero, and returns it as an integer. increment must be positive.
func RoundToIncrement(price decimal.Decimal, increment int64) int64 {
	inc := decimal.NewFromInt(increment)
	return price.Div(inc).Round(0).Mul(inc).IntPart()
}
