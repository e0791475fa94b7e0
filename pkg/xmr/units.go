package xmr

import (
	"fmt"
	"math"
	"time"
)

// Amount units.
const (
	Decimals = 12
	Piconero = 1
	XMR      = 1_000_000_000_000 * Piconero
)

// FormatAmount converts atomic units to a decimal XMR string.
func FormatAmount(units uint64) string {
	whole := units / XMR
	frac := units % XMR
	return fmt.Sprintf("%d.%012d", whole, frac)
}

// FormatAmountShort renders atomic units as XMR rounded to two decimals.
func FormatAmountShort(units uint64) string {
	return fmt.Sprintf("%.2f", float64(units)/XMR)
}

// Hours converts a duration to hours rounded to one decimal place.
func Hours(d time.Duration) float64 {
	return math.Round(d.Hours()*10) / 10
}
