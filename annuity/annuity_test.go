package annuity_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/meenmo/cubecal/annuity"
	"github.com/meenmo/cubecal/calendar"
	"github.com/meenmo/cubecal/model"
	"github.com/meenmo/cubecal/swap"
	"github.com/meenmo/cubecal/swap/curve"
	"github.com/meenmo/cubecal/volcube"
)

var ref = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

func fixture(t *testing.T) (annuity.Spec, *model.Model) {
	t.Helper()

	start := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2029, 1, 2, 0, 0, 0, 0, time.UTC)
	fix, err := swap.AnnualFixed(calendar.Weekends).Generate(ref, start, end)
	require.NoError(t, err)
	float, err := swap.SemiAnnualFloat(calendar.Weekends).Generate(ref, start, end)
	require.NoError(t, err)

	m := model.New(ref, curve.NewFlat("OIS", 0.02)).
		AddVolatilityCube(volcube.NewStaticCube("CUBE", ref, 0.008, 0.05, 1))

	return annuity.Spec{
		Fix:           fix,
		Float:         float,
		ForwardCurve:  "OIS",
		DiscountCurve: "OIS",
		Cube:          "CUBE",
		Replication:   annuity.DefaultReplication(),
	}, m
}

func TestCashAnnuity(t *testing.T) {
	t.Parallel()

	c := annuity.NewCashAnnuityPeriods(10, 0.5)
	assert.InDelta(t, 5.0, c.Value(0), 1e-12)

	sum := 0.0
	for i := 1; i <= 10; i++ {
		sum += 0.5 * math.Pow(1+0.5*0.03, -float64(i))
	}
	assert.InDelta(t, sum, c.Value(0.03), 1e-14)
	// the S=0 limit joins the closed form continuously
	for _, s := range []float64{1e-9, 1e-8, -1e-8} {
		exact := 0.0
		for i := 1; i <= 10; i++ {
			exact += 0.5 * math.Pow(1+0.5*s, -float64(i))
		}
		assert.InDelta(t, exact, c.Value(s), 1e-13, "swap rate %v", s)
	}
	assert.LessOrEqual(t, c.Value(1e-9), 5.0)
	assert.InDelta(t, c.Value(0)+1e-6*c.FirstDerivative(0), c.Value(1e-6), 1e-9)

	for _, s := range []float64{-0.02, 0, 0.04} {
		d1 := fd.Derivative(c.Value, s, &fd.Settings{Formula: fd.Central})
		assert.InDelta(t, d1, c.FirstDerivative(s), 1e-6, "first derivative at %v", s)
		d2 := fd.Derivative(c.FirstDerivative, s, &fd.Settings{Formula: fd.Central})
		assert.InDelta(t, d2, c.SecondDerivative(s), 1e-5, "second derivative at %v", s)
	}
}

func TestIntegrate(t *testing.T) {
	t.Parallel()

	got := annuity.Integrate(func(x float64) float64 { return x * x }, 0, 1, 101)
	assert.InDelta(t, 1.0/3.0, got, 1e-12)
	assert.Equal(t, 0.0, annuity.Integrate(math.Exp, 1, 1, 101))
	assert.Equal(t, 0.0, annuity.Integrate(math.Exp, 2, 1, 101))
}

func TestReplication(t *testing.T) {
	t.Parallel()

	r := annuity.DefaultReplication()
	require.NoError(t, r.Validate())
	lo, hi := r.Bounds(0.02)
	assert.InDelta(t, -0.13, lo, 1e-15)
	assert.InDelta(t, 0.17, hi, 1e-15)

	r.UseAsOffset = false
	lo, hi = r.Bounds(0.02)
	assert.Equal(t, -0.15, lo)
	assert.Equal(t, 0.15, hi)

	assert.ErrorIs(t, annuity.Replication{LowerBound: 1, UpperBound: 0, EvaluationPoints: 10}.Validate(), annuity.ErrInvalidReplication)
	assert.ErrorIs(t, annuity.Replication{LowerBound: 0, UpperBound: 1, EvaluationPoints: 2}.Validate(), annuity.ErrInvalidReplication)
}

func TestSimplifiedLinear(t *testing.T) {
	t.Parallel()

	spec, m := fixture(t)
	mapping, err := annuity.DefaultFactory{}.Build(annuity.SimplifiedLinear, spec, m)
	require.NoError(t, err)

	u, err := annuity.NewUnderlying(spec.Fix, spec.Float, "OIS", "OIS", "CUBE", m)
	require.NoError(t, err)

	assert.InDelta(t, u.SettlementDiscount/u.Annuity, mapping.Value(u.ForwardSwapRate), 1e-14)

	accrual := 0.0
	for i := 0; i < spec.Fix.NumberOfPeriods(); i++ {
		accrual += spec.Fix.PeriodLength(i)
	}
	assert.InDelta(t, 1/accrual, mapping.Value(0), 1e-14)
	assert.Equal(t, 0.0, mapping.SecondDerivative(0.05))
	assert.InDelta(t, (mapping.Value(0.05)-mapping.Value(0))/0.05, mapping.FirstDerivative(0.01), 1e-12)
}

func TestBasicPiterbarg_Normalization(t *testing.T) {
	t.Parallel()

	spec, m := fixture(t)
	mapping, err := annuity.DefaultFactory{}.Build(annuity.BasicPiterbarg, spec, m)
	require.NoError(t, err)

	u, err := annuity.NewUnderlying(spec.Fix, spec.Float, "OIS", "OIS", "CUBE", m)
	require.NoError(t, err)

	target := u.SettlementDiscount / u.Annuity
	got := u.Expectation(mapping.Value, mapping.SecondDerivative, spec.Replication)
	assert.InDelta(t, target, got, 1e-12)
	// convexity is small, so α(S0) stays close to today's ratio
	assert.InDelta(t, target, mapping.Value(u.ForwardSwapRate), 1e-2*target)

	d1 := fd.Derivative(mapping.Value, 0.02, &fd.Settings{Formula: fd.Central})
	assert.InDelta(t, d1, mapping.FirstDerivative(0.02), 1e-6)
	d2 := fd.Derivative(mapping.FirstDerivative, 0.02, &fd.Settings{Formula: fd.Central})
	assert.InDelta(t, d2, mapping.SecondDerivative(0.02), 1e-4)
}

func TestUnderlying(t *testing.T) {
	t.Parallel()

	spec, m := fixture(t)
	u, err := annuity.NewUnderlying(spec.Fix, spec.Float, "OIS", "OIS", "CUBE", m)
	require.NoError(t, err)

	maturity, tenor := annuity.Coordinates(spec.Fix)
	assert.Equal(t, maturity, u.Maturity)
	assert.Equal(t, tenor, u.Tenor)
	assert.InDelta(t, 1.0, maturity, 1e-12)
	assert.InDelta(t, 3.0, tenor, 0.01)
	assert.InDelta(t, math.Exp(-0.02*maturity), u.SettlementDiscount, 1e-15)

	// static cube volatility is strike independent
	assert.Equal(t, u.Volatility(0.0), u.Volatility(0.05))
	assert.InDelta(t, u.ForwardSwapRate-0.01, u.Call(0.01)-u.Put(0.01), 1e-15)
}

func TestFactory_Errors(t *testing.T) {
	t.Parallel()

	spec, m := fixture(t)

	_, err := annuity.DefaultFactory{}.Build(annuity.Type("CUBIC"), spec, m)
	assert.ErrorIs(t, err, annuity.ErrUnknownMappingType)

	bad := spec
	bad.DiscountCurve = "MISSING"
	_, err = annuity.DefaultFactory{}.Build(annuity.SimplifiedLinear, bad, m)
	assert.ErrorIs(t, err, model.ErrCurveNotFound)

	bad = spec
	bad.Cube = "MISSING"
	_, err = annuity.DefaultFactory{}.Build(annuity.SimplifiedLinear, bad, m)
	assert.ErrorIs(t, err, model.ErrCubeNotFound)

	bad = spec
	bad.Replication.EvaluationPoints = 0
	_, err = annuity.DefaultFactory{}.Build(annuity.SimplifiedLinear, bad, m)
	assert.ErrorIs(t, err, annuity.ErrInvalidReplication)

	typ, err := annuity.ParseType("basic-piterbarg")
	require.NoError(t, err)
	assert.Equal(t, annuity.BasicPiterbarg, typ)
	_, err = annuity.ParseType("exotic")
	assert.ErrorIs(t, err, annuity.ErrUnknownMappingType)
}
