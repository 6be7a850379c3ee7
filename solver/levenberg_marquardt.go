package solver

import (
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/cubecal/logging"
)

const (
	initialLambda = 1e-3
	maxLambda     = 1e15
)

// LevenbergMarquardt minimizes the squared distance between model values and
// targets with a damped Gauss-Newton iteration. Jacobian columns are central
// differences evaluated in parallel.
type LevenbergMarquardt struct {
	initial        []float64
	targets        []float64
	maxIterations  int
	threads        int
	errorTolerance float64
	logger         logging.Logger

	best       []float64
	iterations int
	rmse       float64
}

// NewLevenbergMarquardt copies initial and targets. threads < 1 means GOMAXPROCS.
func NewLevenbergMarquardt(initial, targets []float64, maxIterations, threads int) *LevenbergMarquardt {
	if threads < 1 {
		threads = runtime.GOMAXPROCS(0)
	}
	return &LevenbergMarquardt{
		initial:       append([]float64(nil), initial...),
		targets:       append([]float64(nil), targets...),
		maxIterations: maxIterations,
		threads:       threads,
		logger:        logging.NewNopLogger(),
		best:          append([]float64(nil), initial...),
	}
}

// SetErrorTolerance stops the iteration once the RMS error is at or below tol.
func (lm *LevenbergMarquardt) SetErrorTolerance(tol float64) {
	lm.errorTolerance = tol
}

func (lm *LevenbergMarquardt) SetLogger(l logging.Logger) {
	if l != nil {
		lm.logger = l
	}
}

func (lm *LevenbergMarquardt) BestFitParameters() []float64 {
	return append([]float64(nil), lm.best...)
}

func (lm *LevenbergMarquardt) Iterations() int {
	return lm.iterations
}

func (lm *LevenbergMarquardt) RootMeanSquaredError() float64 {
	return lm.rmse
}

// Run fits the parameters. An error from f aborts the run. Exhausting the
// iteration budget is not an error: the best fit so far is kept.
func (lm *LevenbergMarquardt) Run(f ResidualFunc) error {
	n, m := len(lm.initial), len(lm.targets)
	if n == 0 || m == 0 {
		return fmt.Errorf("LevenbergMarquardt: %d parameters, %d targets: %w", n, m, ErrDimension)
	}

	x := append([]float64(nil), lm.initial...)
	values := make([]float64, m)
	if err := f(x, values); err != nil {
		return fmt.Errorf("LevenbergMarquardt: initial evaluation: %w", err)
	}
	cost := sumSquares(values, lm.targets)
	if math.IsInf(cost, 1) {
		return fmt.Errorf("LevenbergMarquardt: non-finite initial values: %w", ErrNotConverged)
	}

	lambda := initialLambda
	jac := mat.NewDense(m, n, nil)
	trial := make([]float64, n)
	trialValues := make([]float64, m)
	lm.iterations = 0

	for lm.iterations < lm.maxIterations && !lm.done(cost, m) {
		if err := lm.jacobian(jac, f, x); err != nil {
			return fmt.Errorf("LevenbergMarquardt: iteration %d: %w", lm.iterations, err)
		}
		lm.iterations++

		residual := mat.NewVecDense(m, nil)
		for i := range values {
			residual.SetVec(i, lm.targets[i]-values[i])
		}
		var jtj mat.Dense
		jtj.Mul(jac.T(), jac)
		var jtr mat.VecDense
		jtr.MulVec(jac.T(), residual)

		accepted := false
		for lambda <= maxLambda {
			damped := mat.DenseCopyOf(&jtj)
			for j := 0; j < n; j++ {
				d := jtj.At(j, j)
				damped.Set(j, j, d+lambda*math.Max(d, 1e-12))
			}
			var step mat.VecDense
			if err := step.SolveVec(damped, &jtr); err != nil {
				// an ill-conditioned but solved system is still a usable step
				var cond mat.Condition
				if !errors.As(err, &cond) || !allFinite(step.RawVector().Data) {
					lambda *= 10
					continue
				}
			}
			for j := range trial {
				trial[j] = x[j] + step.AtVec(j)
			}
			if err := f(trial, trialValues); err != nil {
				return fmt.Errorf("LevenbergMarquardt: iteration %d: %w", lm.iterations, err)
			}
			trialCost := sumSquares(trialValues, lm.targets)
			if trialCost < cost {
				copy(x, trial)
				copy(values, trialValues)
				cost = trialCost
				lambda = math.Max(lambda/10, 1e-12)
				accepted = true
				break
			}
			lambda *= 10
		}

		lm.logger.Debug("levenberg-marquardt iteration",
			logging.Int("iteration", lm.iterations),
			logging.Float64("rmse", math.Sqrt(cost/float64(m))),
			logging.Float64("lambda", lambda),
			logging.Bool("accepted", accepted),
		)
		if !accepted {
			break
		}
	}

	if !allFinite(x) {
		return fmt.Errorf("LevenbergMarquardt: %w", ErrNotConverged)
	}
	lm.best = x
	lm.rmse = math.Sqrt(cost / float64(m))
	return nil
}

func (lm *LevenbergMarquardt) done(cost float64, m int) bool {
	return cost == 0 || math.Sqrt(cost/float64(m)) <= lm.errorTolerance
}

// jacobian fills dst column by column. Each column owns its parameter copy
// and output buffers.
func (lm *LevenbergMarquardt) jacobian(dst *mat.Dense, f ResidualFunc, x []float64) error {
	m, _ := dst.Dims()
	formula := fd.Central

	var g errgroup.Group
	g.SetLimit(lm.threads)
	for j := range x {
		g.Go(func() error {
			h := formula.Step * math.Max(1, math.Abs(x[j]))
			shifted := append([]float64(nil), x...)
			out := make([]float64, m)
			column := make([]float64, m)
			for _, pt := range formula.Stencil {
				shifted[j] = x[j] + pt.Loc*h
				if err := f(shifted, out); err != nil {
					return err
				}
				for i, v := range out {
					column[i] += pt.Coeff * v
				}
			}
			for i := range column {
				dst.Set(i, j, column[i]/h)
			}
			return nil
		})
	}
	return g.Wait()
}
