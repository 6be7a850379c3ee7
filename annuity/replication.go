package annuity

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate"
)

// Replication fixes the strike domain and resolution of static replication integrals.
//
// With UseAsOffset the bounds are added to the forward swap rate, otherwise
// they are absolute rates.
type Replication struct {
	UseAsOffset      bool    `yaml:"use_as_offset"`
	LowerBound       float64 `yaml:"lower_bound"`
	UpperBound       float64 `yaml:"upper_bound"`
	EvaluationPoints int     `yaml:"evaluation_points"`
}

// DefaultReplication integrates over the forward ±15% with 500 points.
func DefaultReplication() Replication {
	return Replication{
		UseAsOffset:      true,
		LowerBound:       -0.15,
		UpperBound:       0.15,
		EvaluationPoints: 500,
	}
}

// Validate rejects empty domains and grids Simpson's rule cannot use.
func (r Replication) Validate() error {
	if !(r.UpperBound > r.LowerBound) {
		return fmt.Errorf("Replication: bounds [%v, %v]: %w", r.LowerBound, r.UpperBound, ErrInvalidReplication)
	}
	if r.EvaluationPoints < 3 {
		return fmt.Errorf("Replication: %d evaluation points: %w", r.EvaluationPoints, ErrInvalidReplication)
	}
	return nil
}

// Bounds returns the integration domain for a swap with the given forward rate.
func (r Replication) Bounds(forward float64) (lower, upper float64) {
	if r.UseAsOffset {
		return forward + r.LowerBound, forward + r.UpperBound
	}
	return r.LowerBound, r.UpperBound
}

// Integrate applies composite Simpson's rule to f over [lower, upper] on an
// equidistant grid of points abscissae. An empty or reversed domain integrates to zero.
func Integrate(f func(x float64) float64, lower, upper float64, points int) float64 {
	if !(upper > lower) {
		return 0
	}
	if points < 3 {
		points = 3
	}
	xs := make([]float64, points)
	fs := make([]float64, points)
	step := (upper - lower) / float64(points-1)
	for i := range xs {
		xs[i] = lower + float64(i)*step
		fs[i] = f(xs[i])
	}
	xs[points-1] = upper
	fs[points-1] = f(upper)
	return integrate.Simpsons(xs, fs)
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
