// Package mathx provides the small numeric helpers shared by the scoring engines.
package mathx

import "math"

// Clamp bounds v to [lo, hi]. NaN is mapped to lo.
func Clamp(lo, hi, v float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// Clamp100 bounds v to the score range [0, 100]
func Clamp100(v float64) float64 {
	return Clamp(0, 100, v)
}

// Mean returns the arithmetic mean, or 0 for an empty slice
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Stdev returns the sample standard deviation, or 0 with fewer than two values
func Stdev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := Mean(values)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

// Round rounds v to the given number of decimals
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// Logistic returns 100 / (1 + e^(k*(x-mid))), a falling sigmoid on [0, 100]
func Logistic(x, mid, k float64) float64 {
	return 100 / (1 + math.Exp(k*(x-mid)))
}

// Gaussian returns e^(-d^2 / (2*sigma^2))
func Gaussian(d, sigma float64) float64 {
	return math.Exp(-(d * d) / (2 * sigma * sigma))
}
