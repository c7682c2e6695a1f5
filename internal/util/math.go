package util

import "math"

// RoundTo2 rounds a value to two decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Percentage computes score over max as a percentage rounded to two
// decimal places. A zero max yields zero.
func Percentage(score, max int) float64 {
	if max == 0 {
		return 0
	}
	return RoundTo2(float64(score) / float64(max) * 100)
}
