// Package humanize renders counts in a compact form such as "56k" or "3M".
package humanize

import (
	"math"
	"strconv"
)

// FormatNumber compacts n into a short human-readable string.
//
//	950       -> "950"
//	1500      -> "1.5k"
//	10000     -> "10k"
//	250000    -> "250k"
//	2500000   -> "3M"
func FormatNumber(n uint64) string {
	switch {
	case n < 1_000:
		return strconv.FormatUint(n, 10)
	case n < 10_000:
		// one decimal place, dropped when it is zero
		tenths := math.Round(float64(n) / 100)
		if math.Mod(tenths, 10) != 0 {
			return strconv.FormatFloat(tenths/10, 'f', 1, 64) + "k"
		}
		return strconv.FormatUint(uint64(tenths/10), 10) + "k"
	case n < 999_500:
		return strconv.FormatUint((n+500)/1_000, 10) + "k"
	default:
		return strconv.FormatUint((n+500_000)/1_000_000, 10) + "M"
	}
}
