// Package scoring implements the IJRU freestyle difficulty and presentation calculations.
package scoring

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds x to two decimals, half away from zero.
// Non-finite values are returned unchanged.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}
