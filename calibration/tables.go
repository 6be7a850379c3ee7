package calibration

import (
	"fmt"
	"time"

	"github.com/meenmo/cubecal/annuity"
	"github.com/meenmo/cubecal/model"
	"github.com/meenmo/cubecal/swap"
	"github.com/meenmo/cubecal/swaption"
	"github.com/meenmo/cubecal/volcube"
)

// nodeMarket is the market state of the swap underlying one lattice node.
type nodeMarket struct {
	fix                *swap.Schedule
	forward            float64
	maturity           float64
	tenor              float64
	expiry             float64
	settlementDiscount float64
	cash               annuity.CashAnnuity
}

func marketAt(l *swaption.Lattice, n swaption.NodeKey, m *model.Model) (nodeMarket, error) {
	start, end, err := l.Dates(n)
	if err != nil {
		return nodeMarket{}, err
	}
	fix, err := l.FixPrototype().Generate(l.ReferenceDate(), start, end)
	if err != nil {
		return nodeMarket{}, fmt.Errorf("fixed leg: %w", err)
	}
	float, err := l.FloatPrototype().Generate(l.ReferenceDate(), start, end)
	if err != nil {
		return nodeMarket{}, fmt.Errorf("float leg: %w", err)
	}
	fwd, err := m.Curve(l.ForwardCurve())
	if err != nil {
		return nodeMarket{}, err
	}
	disc, err := m.Curve(l.DiscountCurve())
	if err != nil {
		return nodeMarket{}, err
	}
	rate, err := swap.ForwardSwapRate(fix, float, fwd, disc)
	if err != nil {
		return nodeMarket{}, err
	}
	maturity, tenor := annuity.Coordinates(fix)
	return nodeMarket{
		fix:                fix,
		forward:            rate,
		maturity:           maturity,
		tenor:              tenor,
		expiry:             fix.FixingTime(0),
		settlementDiscount: disc.DiscountFactor(maturity),
		cash:               annuity.NewCashAnnuity(fix),
	}, nil
}

// SABRTables holds forward swap rates and SABR parameters on a NodeTable grid,
// indexed [maturity][tenor].
type SABRTables struct {
	reference     time.Time
	maturities    []int
	tenors        []int
	maturityTimes []float64
	tenorTimes    [][]float64
	expiries      [][]float64

	swapRates [][]float64
	rho       [][]float64
	baseVol   [][]float64
	volVol    [][]float64
}

// NewSABRTables computes the forward swap rate and cube coordinates of every
// grid node. SABR parameters start at zero.
func NewSABRTables(grid *NodeTable, conventions *swaption.Lattice, m *model.Model) (*SABRTables, error) {
	if grid.Len() == 0 {
		return nil, fmt.Errorf("NewSABRTables: empty grid: %w", ErrNoTargets)
	}
	t := &SABRTables{
		reference:  conventions.ReferenceDate(),
		maturities: grid.Maturities(),
		tenors:     grid.Tenors(),
	}
	rows, cols := len(t.maturities), len(t.tenors)
	t.maturityTimes = make([]float64, rows)
	t.tenorTimes = newMatrix(rows, cols)
	t.expiries = newMatrix(rows, cols)
	t.swapRates = newMatrix(rows, cols)
	t.rho = newMatrix(rows, cols)
	t.baseVol = newMatrix(rows, cols)
	t.volVol = newMatrix(rows, cols)

	for i, mat := range t.maturities {
		for j, ten := range t.tenors {
			n := swaption.NodeKey{Maturity: mat, Tenor: ten}
			mkt, err := marketAt(conventions, n, m)
			if err != nil {
				return nil, fmt.Errorf("NewSABRTables %+v: %w", n, err)
			}
			t.maturityTimes[i] = mkt.maturity
			t.tenorTimes[i][j] = mkt.tenor
			t.expiries[i][j] = mkt.expiry
			t.swapRates[i][j] = mkt.forward
		}
	}
	return t, nil
}

func newMatrix(rows, cols int) [][]float64 {
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
	}
	return out
}

func cloneMatrix(src [][]float64) [][]float64 {
	out := make([][]float64, len(src))
	for i, row := range src {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// Clone returns a deep copy.
func (t *SABRTables) Clone() *SABRTables {
	return &SABRTables{
		reference:     t.reference,
		maturities:    append([]int(nil), t.maturities...),
		tenors:        append([]int(nil), t.tenors...),
		maturityTimes: append([]float64(nil), t.maturityTimes...),
		tenorTimes:    cloneMatrix(t.tenorTimes),
		expiries:      cloneMatrix(t.expiries),
		swapRates:     cloneMatrix(t.swapRates),
		rho:           cloneMatrix(t.rho),
		baseVol:       cloneMatrix(t.baseVol),
		volVol:        cloneMatrix(t.volVol),
	}
}

func (t *SABRTables) Maturities() []int {
	return append([]int(nil), t.maturities...)
}

func (t *SABRTables) Tenors() []int {
	return append([]int(nil), t.tenors...)
}

func (t *SABRTables) index(n swaption.NodeKey) (int, int, bool) {
	i, j := -1, -1
	for k, m := range t.maturities {
		if m == n.Maturity {
			i = k
		}
	}
	for k, ten := range t.tenors {
		if ten == n.Tenor {
			j = k
		}
	}
	return i, j, i >= 0 && j >= 0
}

// Contains reports whether n is a grid node.
func (t *SABRTables) Contains(n swaption.NodeKey) bool {
	_, _, ok := t.index(n)
	return ok
}

// Parameters returns the SABR parameters at a grid node.
func (t *SABRTables) Parameters(n swaption.NodeKey) (rho, baseVol, volVol float64, ok bool) {
	i, j, ok := t.index(n)
	if !ok {
		return 0, 0, 0, false
	}
	return t.rho[i][j], t.baseVol[i][j], t.volVol[i][j], true
}

// SetParameters overwrites the SABR parameters at a grid node and reports
// whether n is on the grid.
func (t *SABRTables) SetParameters(n swaption.NodeKey, rho, baseVol, volVol float64) bool {
	i, j, ok := t.index(n)
	if ok {
		t.rho[i][j], t.baseVol[i][j], t.volVol[i][j] = rho, baseVol, volVol
	}
	return ok
}

// SwapRate returns the forward swap rate at a grid node.
func (t *SABRTables) SwapRate(n swaption.NodeKey) (float64, bool) {
	i, j, ok := t.index(n)
	if !ok {
		return 0, false
	}
	return t.swapRates[i][j], true
}

// Coordinates returns the cube maturity and tenor of a grid node.
func (t *SABRTables) Coordinates(n swaption.NodeKey) (maturity, tenor float64, ok bool) {
	i, j, ok := t.index(n)
	if !ok {
		return 0, 0, false
	}
	return t.maturityTimes[i], t.tenorTimes[i][j], true
}

// Vector flattens the parameters of nodes as [rho..., baseVol..., volVol...].
func (t *SABRTables) Vector(nodes []swaption.NodeKey) []float64 {
	k := len(nodes)
	out := make([]float64, 3*k)
	for idx, n := range nodes {
		out[idx], out[k+idx], out[2*k+idx], _ = t.Parameters(n)
	}
	return out
}

// SetVector is the inverse of Vector.
func (t *SABRTables) SetVector(nodes []swaption.NodeKey, params []float64) error {
	k := len(nodes)
	if len(params) != 3*k {
		return fmt.Errorf("SetVector: %d parameters for %d nodes: %w", len(params), k, ErrParameterCount)
	}
	for idx, n := range nodes {
		if !t.SetParameters(n, params[idx], params[k+idx], params[2*k+idx]) {
			return fmt.Errorf("SetVector: %+v not on grid: %w", n, ErrParameterCount)
		}
	}
	return nil
}

// Cube builds a SABRCube reading these tables.
func (t *SABRTables) Cube(name string, beta, displacement float64) (*volcube.SABRCube, error) {
	table := func(values [][]float64) (*volcube.Table, error) {
		return volcube.NewTable(t.maturityTimes, t.tenorTimes, values)
	}
	rates, err := table(t.swapRates)
	if err != nil {
		return nil, fmt.Errorf("Cube %s: swap rates: %w", name, err)
	}
	rho, err := table(t.rho)
	if err != nil {
		return nil, fmt.Errorf("Cube %s: rho: %w", name, err)
	}
	baseVol, err := table(t.baseVol)
	if err != nil {
		return nil, fmt.Errorf("Cube %s: base volatility: %w", name, err)
	}
	volVol, err := table(t.volVol)
	if err != nil {
		return nil, fmt.Errorf("Cube %s: vol of vol: %w", name, err)
	}
	return volcube.NewSABRCube(name, t.reference, volcube.SABRParameters{
		SwapRates:    rates,
		Rho:          rho,
		BaseVol:      baseVol,
		VolVol:       volVol,
		Beta:         beta,
		Displacement: displacement,
	})
}
