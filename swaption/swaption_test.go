package swaption_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/cubecal/annuity"
	"github.com/meenmo/cubecal/calendar"
	"github.com/meenmo/cubecal/model"
	"github.com/meenmo/cubecal/swap"
	"github.com/meenmo/cubecal/swap/curve"
	"github.com/meenmo/cubecal/swaption"
	"github.com/meenmo/cubecal/utils"
	"github.com/meenmo/cubecal/volcube"
)

var ref = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

func params(quotes map[swaption.Key]float64) swaption.LatticeParams {
	return swaption.LatticeParams{
		ReferenceDate: ref,
		Convention:    swaption.PayerPrice,
		Unit:          utils.UnitMonths,
		Fix:           swap.AnnualFixed(calendar.Weekends),
		Float:         swap.SemiAnnualFloat(calendar.Weekends),
		ForwardCurve:  "OIS",
		DiscountCurve: "OIS",
		Quotes:        quotes,
	}
}

func TestLattice_Index(t *testing.T) {
	t.Parallel()

	l, err := swaption.NewLattice(params(map[swaption.Key]float64{
		{Moneyness: 50, Maturity: 24, Tenor: 12}:  0.003,
		{Moneyness: 0, Maturity: 12, Tenor: 36}:   0.004,
		{Moneyness: 0, Maturity: 12, Tenor: 12}:   0.002,
		{Moneyness: -50, Maturity: 24, Tenor: 36}: 0.006,
	}))
	require.NoError(t, err)

	assert.Equal(t, 4, l.Len())
	assert.Equal(t, []int{-50, 0, 50}, l.Moneyness())
	assert.Equal(t, []int{12, 24}, l.Maturities())
	assert.Equal(t, []int{12, 36}, l.Tenors())
	assert.Equal(t, []swaption.Key{
		{Moneyness: -50, Maturity: 24, Tenor: 36},
		{Moneyness: 0, Maturity: 12, Tenor: 12},
		{Moneyness: 0, Maturity: 12, Tenor: 36},
		{Moneyness: 50, Maturity: 24, Tenor: 12},
	}, l.Keys())

	assert.True(t, l.Contains(swaption.Key{Moneyness: 0, Maturity: 12, Tenor: 36}))
	assert.False(t, l.Contains(swaption.Key{Moneyness: 0, Maturity: 24, Tenor: 36}))
	v, ok := l.Value(swaption.Key{Moneyness: 50, Maturity: 24, Tenor: 12})
	require.True(t, ok)
	assert.Equal(t, 0.003, v)

	// returned index slices are copies
	l.Maturities()[0] = 99
	assert.Equal(t, []int{12, 24}, l.Maturities())

	short := l.Restrict(func(k swaption.Key) bool { return k.Maturity == 12 })
	assert.Equal(t, 2, short.Len())
	assert.True(t, short.SameConventions(l))

	start, end, err := l.Dates(swaption.NodeKey{Maturity: 12, Tenor: 36})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2029, 1, 2, 0, 0, 0, 0, time.UTC), end)
}

func TestNewLattice_Errors(t *testing.T) {
	t.Parallel()

	p := params(nil)
	p.Convention = swaption.QuotingConvention("STRADDLE")
	_, err := swaption.NewLattice(p)
	assert.ErrorIs(t, err, swaption.ErrUnknownQuotingConvention)

	p = params(nil)
	p.Unit = utils.DateUnit("Q")
	_, err = swaption.NewLattice(p)
	assert.ErrorIs(t, err, utils.ErrUnknownDateUnit)

	p = params(nil)
	p.Fix.Frequency = swap.Frequency(7)
	_, err = swaption.NewLattice(p)
	assert.ErrorIs(t, err, swap.ErrUnknownConvention)

	p = params(map[swaption.Key]float64{{}: 1.0 / zero()})
	_, err = swaption.NewLattice(p)
	assert.ErrorIs(t, err, swaption.ErrInvalidQuote)

	l, err := swaption.NewLattice(params(nil))
	require.NoError(t, err)
	other := params(nil)
	other.DiscountCurve = "OTHER"
	l2, err := swaption.NewLattice(other)
	require.NoError(t, err)
	assert.False(t, l.SameConventions(l2))
}

func zero() float64 { return 0 }

func pricingFixture(t *testing.T, vol float64) (swaption.CashSettled, annuity.Mapping, *model.Model) {
	t.Helper()

	start := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2031, 1, 2, 0, 0, 0, 0, time.UTC)
	fix, err := swap.AnnualFixed(calendar.Weekends).Generate(ref, start, end)
	require.NoError(t, err)
	float, err := swap.SemiAnnualFloat(calendar.Weekends).Generate(ref, start, end)
	require.NoError(t, err)

	m := model.New(ref, curve.NewFlat("OIS", 0.02)).
		AddVolatilityCube(volcube.NewStaticCube("CUBE", ref, vol, 0, 1))
	spec := annuity.Spec{
		Fix: fix, Float: float,
		ForwardCurve: "OIS", DiscountCurve: "OIS", Cube: "CUBE",
		Replication: annuity.DefaultReplication(),
	}
	mapping, err := annuity.DefaultFactory{}.Build(annuity.SimplifiedLinear, spec, m)
	require.NoError(t, err)

	return swaption.CashSettled{
		Fix: fix, Float: float,
		ForwardCurve: "OIS", DiscountCurve: "OIS", Cube: "CUBE",
		Replication: spec.Replication,
	}, mapping, m
}

func TestCashSettled_MarketFormula(t *testing.T) {
	t.Parallel()

	pricer, mapping, m := pricingFixture(t, 0.008)
	u, err := annuity.NewUnderlying(pricer.Fix, pricer.Float, "OIS", "OIS", "CUBE", m)
	require.NoError(t, err)
	cash := annuity.NewCashAnnuity(pricer.Fix)
	expiry := pricer.Fix.FixingTime(0)

	for _, offset := range []float64{-0.01, 0, 0.01} {
		k := u.ForwardSwapRate + offset
		payer := pricer
		payer.Strike = k
		got, err := payer.Value(expiry, mapping, m)
		require.NoError(t, err)
		approx := u.SettlementDiscount * cash.Value(u.ForwardSwapRate) * volcube.NormalCall(u.ForwardSwapRate, k, 0.008, expiry)
		assert.InDelta(t, approx, got, 0.03*approx, "payer offset %v", offset)

		receiver := pricer
		receiver.Type = swaption.Receiver
		receiver.Strike = k
		got, err = receiver.Value(expiry, mapping, m)
		require.NoError(t, err)
		approx = u.SettlementDiscount * cash.Value(u.ForwardSwapRate) * volcube.NormalPut(u.ForwardSwapRate, k, 0.008, expiry)
		assert.InDelta(t, approx, got, 0.03*approx, "receiver offset %v", offset)
	}
}

func TestCashSettled_Monotone(t *testing.T) {
	t.Parallel()

	low, lowMapping, lowModel := pricingFixture(t, 0.005)
	high, highMapping, highModel := pricingFixture(t, 0.01)
	u, err := annuity.NewUnderlying(low.Fix, low.Float, "OIS", "OIS", "CUBE", lowModel)
	require.NoError(t, err)
	expiry := low.Fix.FixingTime(0)

	low.Strike = u.ForwardSwapRate
	high.Strike = u.ForwardSwapRate
	vLow, err := low.Value(expiry, lowMapping, lowModel)
	require.NoError(t, err)
	vHigh, err := high.Value(expiry, highMapping, highModel)
	require.NoError(t, err)
	assert.Greater(t, vHigh, vLow)

	otm := low
	otm.Strike = u.ForwardSwapRate + 0.01
	vOTM, err := otm.Value(expiry, lowMapping, lowModel)
	require.NoError(t, err)
	assert.Less(t, vOTM, vLow)
	assert.Greater(t, vOTM, 0.0)
}

func TestCashSettled_MissingCube(t *testing.T) {
	t.Parallel()

	pricer, mapping, m := pricingFixture(t, 0.008)
	pricer.Cube = "NOPE"
	_, err := pricer.Value(1, mapping, m)
	assert.ErrorIs(t, err, model.ErrCubeNotFound)
}
