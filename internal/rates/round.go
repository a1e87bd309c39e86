package rates

import "math"

// RoundRate rounds an exchange rate to six decimal places, the precision
// the storefront stores.
func RoundRate(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
