package calibration_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meenmo/cubecal/annuity"
	"github.com/meenmo/cubecal/calendar"
	"github.com/meenmo/cubecal/calibration"
	"github.com/meenmo/cubecal/model"
	"github.com/meenmo/cubecal/swap"
	"github.com/meenmo/cubecal/swap/curve"
	"github.com/meenmo/cubecal/swaption"
	"github.com/meenmo/cubecal/utils"
	"github.com/meenmo/cubecal/volcube"
)

var ref = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

func flatModel() *model.Model {
	return model.New(ref, curve.NewFlat("OIS", 0.02))
}

func template(conv swaption.QuotingConvention, keys ...swaption.Key) swaption.LatticeParams {
	quotes := make(map[swaption.Key]float64, len(keys))
	for _, k := range keys {
		quotes[k] = 0
	}
	return swaption.LatticeParams{
		ReferenceDate: ref,
		Convention:    conv,
		Unit:          utils.UnitMonths,
		Fix:           swap.AnnualFixed(calendar.Weekends),
		Float:         swap.SemiAnnualFloat(calendar.Weekends),
		ForwardCurve:  "OIS",
		DiscountCurve: "OIS",
		Quotes:        quotes,
	}
}

// grid returns every key with the given moneyness on maturities × tenors.
func grid(moneyness, maturities, tenors []int) []swaption.Key {
	var keys []swaption.Key
	for _, m := range moneyness {
		for _, mat := range maturities {
			for _, ten := range tenors {
				keys = append(keys, swaption.Key{Moneyness: m, Maturity: mat, Tenor: ten})
			}
		}
	}
	return keys
}

func lattice(t *testing.T, conv swaption.QuotingConvention, keys ...swaption.Key) *swaption.Lattice {
	t.Helper()
	l, err := swaption.NewLattice(template(conv, keys...))
	require.NoError(t, err)
	return l
}

func generate(t *testing.T, cube volcube.Cube, m *model.Model, conv swaption.QuotingConvention, keys ...swaption.Key) *swaption.Lattice {
	t.Helper()
	l, err := calibration.GenerateLattice(template(conv, keys...), cube, m, calibration.DefaultConfig())
	require.NoError(t, err)
	return l
}

// sabrMarket prices payer and receiver lattices off a known SABR cube on a
// 2×2 grid and returns them with the true tables.
func sabrMarket(t *testing.T) (payer, receiver *swaption.Lattice, truth *calibration.SABRTables, m *model.Model) {
	t.Helper()
	m = flatModel()
	maturities, tenors := []int{12, 24}, []int{12, 24}
	payerKeys := grid([]int{-50, 0, 50}, maturities, tenors)
	receiverKeys := grid([]int{0, 50}, maturities, tenors)

	nodes := calibration.NewNodeTable(lattice(t, swaption.PayerPrice, payerKeys...), lattice(t, swaption.ReceiverPrice, receiverKeys...))
	truth, err := calibration.NewSABRTables(nodes, lattice(t, swaption.PayerPrice, payerKeys...), m)
	require.NoError(t, err)
	for i, n := range nodes.Nodes() {
		truth.SetParameters(n, -0.2+0.05*float64(i), 0.015+0.001*float64(i), 0.3)
	}
	cube, err := truth.Cube("truth", volcube.DefaultSABRBeta, volcube.DefaultSABRDisplacement)
	require.NoError(t, err)

	payer = generate(t, cube, m, swaption.PayerPrice, payerKeys...)
	receiver = generate(t, cube, m, swaption.ReceiverPrice, receiverKeys...)
	return payer, receiver, truth, m
}

type countingFactory struct {
	builds atomic.Int64
}

func (f *countingFactory) Build(typ annuity.Type, spec annuity.Spec, m *model.Model) (annuity.Mapping, error) {
	f.builds.Add(1)
	return annuity.DefaultFactory{}.Build(typ, spec, m)
}
