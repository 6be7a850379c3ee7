package solver_test

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/meenmo/cubecal/logging"
	"github.com/meenmo/cubecal/solver"
)

var xs = []float64{0, 0.5, 1, 1.5, 2, 3}

func exponential(params, values []float64) error {
	for i, x := range xs {
		values[i] = params[0] * math.Exp(-params[1]*x)
	}
	return nil
}

func exponentialTargets(a, b float64) []float64 {
	out := make([]float64, len(xs))
	_ = exponential([]float64{a, b}, out)
	return out
}

func TestLevenbergMarquardt_RecoversExponential(t *testing.T) {
	t.Parallel()

	lm := solver.NewLevenbergMarquardt([]float64{1, 0.1}, exponentialTargets(2.5, 0.7), 100, 4)
	require.NoError(t, lm.Run(exponential))

	got := lm.BestFitParameters()
	assert.InDelta(t, 2.5, got[0], 1e-9)
	assert.InDelta(t, 0.7, got[1], 1e-9)
	assert.Less(t, lm.RootMeanSquaredError(), 1e-10)
	assert.Greater(t, lm.Iterations(), 0)
}

func TestLevenbergMarquardt_ParallelColumns(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	f := func(params, values []float64) error {
		calls.Add(1)
		return exponential(params, values)
	}
	lm := solver.NewLevenbergMarquardt([]float64{1, 0.1}, exponentialTargets(2.5, 0.7), 1, 8)
	require.NoError(t, lm.Run(f))

	assert.Equal(t, 1, lm.Iterations())
	// initial point, two central stencils of two points, at least one trial step
	assert.GreaterOrEqual(t, calls.Load(), int64(6))
}

func TestLevenbergMarquardt_ErrorTolerance(t *testing.T) {
	t.Parallel()

	lm := solver.NewLevenbergMarquardt([]float64{2.5, 0.7}, exponentialTargets(2.5, 0.7), 100, 1)
	lm.SetErrorTolerance(1e-3)
	require.NoError(t, lm.Run(exponential))
	assert.Equal(t, 0, lm.Iterations())
	assert.Equal(t, []float64{2.5, 0.7}, lm.BestFitParameters())
}

func TestLevenbergMarquardt_Errors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	lm := solver.NewLevenbergMarquardt([]float64{1}, []float64{1}, 10, 2)
	err := lm.Run(func(params, values []float64) error { return boom })
	assert.ErrorIs(t, err, boom)

	// failing only away from the initial point still aborts the run
	var n atomic.Int64
	lm = solver.NewLevenbergMarquardt([]float64{1}, []float64{2}, 10, 2)
	err = lm.Run(func(params, values []float64) error {
		if n.Add(1) > 1 {
			return boom
		}
		values[0] = params[0]
		return nil
	})
	assert.ErrorIs(t, err, boom)

	err = lm.Run(func(params, values []float64) error {
		values[0] = math.NaN()
		return nil
	})
	assert.ErrorIs(t, err, solver.ErrNotConverged)

	err = solver.NewLevenbergMarquardt(nil, []float64{1}, 10, 1).Run(exponential)
	assert.ErrorIs(t, err, solver.ErrDimension)
}

func TestLevenbergMarquardt_DebugLogging(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	lm := solver.NewLevenbergMarquardt([]float64{1, 0.1}, exponentialTargets(2.5, 0.7), 3, 1)
	lm.SetLogger(logging.NewLoggerFromCore(core))
	require.NoError(t, lm.Run(exponential))

	assert.Equal(t, lm.Iterations(), logs.FilterMessage("levenberg-marquardt iteration").Len())
}

func TestNelderMead_RecoversExponential(t *testing.T) {
	t.Parallel()

	nm := solver.NewNelderMead([]float64{2, 0.5}, exponentialTargets(2.5, 0.7), 2000)
	nm.SetSimplexSize(0.1)
	require.NoError(t, nm.Run(exponential))

	got := nm.BestFitParameters()
	assert.InDelta(t, 2.5, got[0], 1e-5)
	assert.InDelta(t, 0.7, got[1], 1e-5)
	assert.Less(t, nm.RootMeanSquaredError(), 1e-6)
}

func TestNelderMead_Errors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	nm := solver.NewNelderMead([]float64{1, 1}, []float64{1}, 100)
	err := nm.Run(func(params, values []float64) error { return boom })
	assert.ErrorIs(t, err, boom)

	err = solver.NewNelderMead([]float64{1}, nil, 100).Run(exponential)
	assert.ErrorIs(t, err, solver.ErrDimension)

	var _ solver.Solver = nm
	var _ solver.Solver = solver.NewLevenbergMarquardt([]float64{1}, []float64{1}, 1, 1)
}
