package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// NelderMead minimizes the same least-squares objective as LevenbergMarquardt
// without derivatives. It evaluates sequentially.
type NelderMead struct {
	initial       []float64
	targets       []float64
	maxIterations int
	simplexSize   float64

	best       []float64
	iterations int
	rmse       float64
}

// NewNelderMead copies initial and targets.
func NewNelderMead(initial, targets []float64, maxIterations int) *NelderMead {
	return &NelderMead{
		initial:       append([]float64(nil), initial...),
		targets:       append([]float64(nil), targets...),
		maxIterations: maxIterations,
		simplexSize:   0.05,
		best:          append([]float64(nil), initial...),
	}
}

// SetSimplexSize sets the edge length of the initial simplex.
func (nm *NelderMead) SetSimplexSize(size float64) {
	if size > 0 {
		nm.simplexSize = size
	}
}

func (nm *NelderMead) BestFitParameters() []float64 {
	return append([]float64(nil), nm.best...)
}

func (nm *NelderMead) Iterations() int {
	return nm.iterations
}

func (nm *NelderMead) RootMeanSquaredError() float64 {
	return nm.rmse
}

// Run fits the parameters. The first error from f stops the search and is returned.
func (nm *NelderMead) Run(f ResidualFunc) error {
	n, m := len(nm.initial), len(nm.targets)
	if n == 0 || m == 0 {
		return fmt.Errorf("NelderMead: %d parameters, %d targets: %w", n, m, ErrDimension)
	}

	values := make([]float64, m)
	var evalErr error
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			if evalErr != nil {
				return math.Inf(1)
			}
			if err := f(x, values); err != nil {
				evalErr = err
				return math.Inf(1)
			}
			return sumSquares(values, nm.targets)
		},
		Status: func() (optimize.Status, error) {
			if evalErr != nil {
				return optimize.Failure, evalErr
			}
			return optimize.NotTerminated, nil
		},
	}
	settings := &optimize.Settings{
		MajorIterations: nm.maxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-24,
			Iterations: 200,
		},
	}

	result, err := optimize.Minimize(problem, nm.initial, settings, &optimize.NelderMead{SimplexSize: nm.simplexSize})
	if evalErr != nil {
		return fmt.Errorf("NelderMead: %w", evalErr)
	}
	if err != nil && result == nil {
		return fmt.Errorf("NelderMead: %w", err)
	}
	if !allFinite(result.X) || math.IsInf(result.F, 1) {
		return fmt.Errorf("NelderMead: %w", ErrNotConverged)
	}

	nm.best = append([]float64(nil), result.X...)
	nm.iterations = result.MajorIterations
	nm.rmse = math.Sqrt(result.F / float64(m))
	return nil
}
