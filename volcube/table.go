package volcube

import (
	"fmt"
	"sort"
)

// Table is a bilinear interpolator on a maturity × tenor grid.
//
// Every maturity row carries its own tenor axis so that node coordinates are
// hit exactly even when day counts make row tenors differ slightly. Outside the
// grid values are extrapolated flat.
type Table struct {
	maturities []float64
	tenors     [][]float64
	values     [][]float64
}

// NewTable copies the axes and values. Maturities and every tenor row must be strictly increasing.
func NewTable(maturities []float64, tenors, values [][]float64) (*Table, error) {
	if len(maturities) == 0 || len(tenors) != len(maturities) || len(values) != len(maturities) {
		return nil, fmt.Errorf("NewTable: %d maturities, %d tenor rows, %d value rows: %w", len(maturities), len(tenors), len(values), ErrInvalidTable)
	}
	if !strictlyIncreasing(maturities) {
		return nil, fmt.Errorf("NewTable: maturities not increasing: %w", ErrInvalidTable)
	}

	t := &Table{
		maturities: append([]float64(nil), maturities...),
		tenors:     make([][]float64, len(maturities)),
		values:     make([][]float64, len(maturities)),
	}
	for i := range maturities {
		if len(tenors[i]) == 0 || len(tenors[i]) != len(values[i]) {
			return nil, fmt.Errorf("NewTable: row %d has %d tenors and %d values: %w", i, len(tenors[i]), len(values[i]), ErrInvalidTable)
		}
		if !strictlyIncreasing(tenors[i]) {
			return nil, fmt.Errorf("NewTable: row %d tenors not increasing: %w", i, ErrInvalidTable)
		}
		t.tenors[i] = append([]float64(nil), tenors[i]...)
		t.values[i] = append([]float64(nil), values[i]...)
	}
	return t, nil
}

// Value interpolates linearly in tenor within the two bracketing rows, then in maturity.
func (t *Table) Value(maturity, tenor float64) float64 {
	i1, i2, w := bracket(t.maturities, maturity)
	v1 := t.row(i1, tenor)
	if w == 0 {
		return v1
	}
	v2 := t.row(i2, tenor)
	return v1 + w*(v2-v1)
}

func (t *Table) row(i int, tenor float64) float64 {
	j1, j2, w := bracket(t.tenors[i], tenor)
	v1 := t.values[i][j1]
	if w == 0 {
		return v1
	}
	return v1 + w*(t.values[i][j2]-v1)
}

// bracket returns adjacent indices around x and the weight of the upper one.
// The weight is clamped to [0, 1], giving flat extrapolation.
func bracket(axis []float64, x float64) (int, int, float64) {
	n := len(axis)
	if n == 1 || x <= axis[0] {
		return 0, 0, 0
	}
	if x >= axis[n-1] {
		return n - 1, n - 1, 0
	}
	idx := sort.SearchFloat64s(axis, x)
	if axis[idx] == x {
		return idx, idx, 0
	}
	lo, hi := idx-1, idx
	return lo, hi, (x - axis[lo]) / (axis[hi] - axis[lo])
}

func strictlyIncreasing(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return false
		}
	}
	return true
}
