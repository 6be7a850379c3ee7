// Package solver fits parameter vectors to target values by nonlinear least squares.
package solver

import (
	"errors"
	"math"
)

var (
	// ErrNotConverged is returned when a fit cannot produce a finite result.
	ErrNotConverged = errors.New("solver did not converge to a finite result")
	// ErrDimension is returned for empty parameter or target vectors.
	ErrDimension = errors.New("invalid problem dimension")
)

// ResidualFunc writes the model values for params into values.
//
// It may be called concurrently from several goroutines, each with its own
// params and values slices, and must not retain either.
type ResidualFunc func(params, values []float64) error

// Solver is a least-squares optimizer over a ResidualFunc.
type Solver interface {
	Run(f ResidualFunc) error
	BestFitParameters() []float64
	Iterations() int
	RootMeanSquaredError() float64
}

// sumSquares returns Σ(values-targets)², or +Inf if any value is not finite.
func sumSquares(values, targets []float64) float64 {
	sum := 0.0
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return math.Inf(1)
		}
		d := v - targets[i]
		sum += d * d
	}
	return sum
}

func allFinite(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
