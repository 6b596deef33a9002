package model

import "math"

// Round2 rounds to 2 decimal places, half away from zero. Monetary outputs
// are rounded once at assembly time, never during intermediate accumulation.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
