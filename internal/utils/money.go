package utils

import (
	"fmt"
	"math"
)

// All monetary amounts in the engine are int64 minor currency units (kobo,
// cents). Percentages are applied with float math and rounded half away from
// zero back into minor units.

// PercentOf returns amount * percent / 100 rounded to the nearest minor unit.
func PercentOf(amount int64, percent float64) int64 {
	return int64(math.Round(float64(amount) * percent / 100))
}

// SplitFee computes the platform fee and net amount for a booking amount.
// The two always sum back to amount.
func SplitFee(amount int64, feePercent float64) (fee, net int64) {
	fee = PercentOf(amount, feePercent)
	return fee, amount - fee
}

// FormatMinorUnits renders minor units as a major-unit figure for messages
// and logs, e.g. 150050 -> "1500.50".
func FormatMinorUnits(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}
