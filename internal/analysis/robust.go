package analysis

import "math"

// finite maps NaN, infinities and negatives to zero.
func finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
		return 0
	}
	return x
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// bounded rounds x half away from zero and clamps it to [0,100].
func bounded(x float64) int {
	if math.IsNaN(x) {
		return 0
	}
	return int(clip(math.Round(x), 0, 100))
}
