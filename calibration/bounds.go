package calibration

import "math"

// MaxCorrelation caps |rho| so the SABR expansion stays finite.
const MaxCorrelation = 0.999999

// BoundsPolicy maps an unconstrained parameter vector onto the admissible
// region. It must not modify its argument.
type BoundsPolicy func(params []float64) []float64

// clamp maps x into [lo, hi]; NaN maps to lo.
func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) || x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// StaticBounds keeps the volatility level and the correlation decay non-negative.
func StaticBounds(params []float64) []float64 {
	out := make([]float64, len(params))
	for i, p := range params {
		out[i] = clamp(p, 0, math.Inf(1))
	}
	return out
}

// SABRBounds applies to vectors laid out as [rho..., baseVol..., volVol...]
// with one entry per node in each block. Correlations are clamped to
// ±MaxCorrelation, volatilities to non-negative values. A NaN correlation
// becomes 0.
func SABRBounds(params []float64) []float64 {
	n := len(params) / 3
	out := make([]float64, len(params))
	for i, p := range params {
		switch {
		case i < n && math.IsNaN(p):
			out[i] = 0
		case i < n:
			out[i] = clamp(p, -MaxCorrelation, MaxCorrelation)
		default:
			out[i] = clamp(p, 0, math.Inf(1))
		}
	}
	return out
}
