package volcube

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

var stdNormal = distuv.UnitNormal

// NormalCall is the undiscounted Bachelier call on forward with strike.
func NormalCall(forward, strike, vol, maturity float64) float64 {
	stdDev := vol * math.Sqrt(math.Max(maturity, 0))
	if stdDev <= 0 {
		return math.Max(forward-strike, 0)
	}
	d := (forward - strike) / stdDev
	return (forward-strike)*stdNormal.CDF(d) + stdDev*stdNormal.Prob(d)
}

// NormalPut is the undiscounted Bachelier put on forward with strike.
func NormalPut(forward, strike, vol, maturity float64) float64 {
	stdDev := vol * math.Sqrt(math.Max(maturity, 0))
	if stdDev <= 0 {
		return math.Max(strike-forward, 0)
	}
	d := (forward - strike) / stdDev
	return (strike-forward)*stdNormal.CDF(-d) + stdDev*stdNormal.Prob(d)
}

// ImpliedNormalVolatility inverts the undiscounted Bachelier price.
//
// Newton steps on vega are taken while they stay inside the current bracket,
// bisection otherwise.
func ImpliedNormalVolatility(price, forward, strike, maturity float64, call bool) (float64, error) {
	if maturity <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("ImpliedNormalVolatility: price %v, maturity %v: %w", price, maturity, ErrNoImpliedVolatility)
	}
	value := NormalPut
	intrinsic := math.Max(strike-forward, 0)
	if call {
		value = NormalCall
		intrinsic = math.Max(forward-strike, 0)
	}
	if price < intrinsic-1e-14 {
		return 0, fmt.Errorf("ImpliedNormalVolatility: price %v below intrinsic %v: %w", price, intrinsic, ErrNoImpliedVolatility)
	}
	if price <= intrinsic*(1+1e-12)+1e-16 {
		return 0, nil
	}

	sqrtT := math.Sqrt(maturity)
	lo, hi := 0.0, 0.01
	for value(forward, strike, hi, maturity) < price {
		lo = hi
		hi *= 2
		if hi > 10 {
			return 0, fmt.Errorf("ImpliedNormalVolatility: price %v unreachable: %w", price, ErrNoImpliedVolatility)
		}
	}

	tolerance := 1e-14 * math.Max(price, 1e-8)
	maxIter := 100

	guess := math.Sqrt(2*math.Pi/maturity) * price
	if guess <= lo || guess >= hi {
		guess = 0.5 * (lo + hi)
	}
	for iter := 0; iter < maxIter; iter++ {
		diff := value(forward, strike, guess, maturity) - price
		if math.Abs(diff) < tolerance {
			return guess, nil
		}
		if diff > 0 {
			hi = guess
		} else {
			lo = guess
		}

		vega := sqrtT * stdNormal.Prob((forward-strike)/(guess*sqrtT))
		next := guess - diff/vega
		if vega < 1e-300 || next <= lo || next >= hi {
			next = 0.5 * (lo + hi)
		}
		guess = next
		if hi-lo < 1e-16 {
			break
		}
	}
	return guess, nil
}
