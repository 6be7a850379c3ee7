package annuity

import (
	"fmt"
	"math"

	"github.com/meenmo/cubecal/swap"
)

// minGrowth keeps 1+S away from zero on far replication wings.
const minGrowth = 1e-6

// basicPiterbarg is α(S) = c/A(S) with the flat-yield annuity
//
//	A(S) = Σ τ_i (1+S)^-(T_i-Tp)
//
// and c chosen so that E[α(S)] = P(0,Tp)/A0 under the cube's smile.
type basicPiterbarg struct {
	accruals []float64
	exponent []float64
	scale    float64
}

func newBasicPiterbarg(u *Underlying, fix *swap.Schedule, r Replication) (*basicPiterbarg, error) {
	m := &basicPiterbarg{
		accruals: make([]float64, fix.NumberOfPeriods()),
		exponent: make([]float64, fix.NumberOfPeriods()),
		scale:    1,
	}
	for i := range m.accruals {
		m.accruals[i] = fix.PeriodLength(i)
		m.exponent[i] = fix.PaymentTime(i) - u.Maturity
	}

	expected := u.Expectation(m.Value, m.SecondDerivative, r)
	target := u.SettlementDiscount / u.Annuity
	if !finite(expected) || expected <= 0 {
		return nil, fmt.Errorf("basicPiterbarg: E[1/A(S)] = %v: %w", expected, ErrDegenerateMapping)
	}
	m.scale = target / expected
	return m, nil
}

// flatAnnuity returns A(S), A'(S) and A''(S).
func (m *basicPiterbarg) flatAnnuity(swapRate float64) (a, da, d2a float64) {
	growth := math.Max(1+swapRate, minGrowth)
	for i, tau := range m.accruals {
		e := m.exponent[i]
		df := math.Pow(growth, -e)
		a += tau * df
		da -= tau * e * df / growth
		d2a += tau * e * (e + 1) * df / (growth * growth)
	}
	return a, da, d2a
}

func (m *basicPiterbarg) Value(swapRate float64) float64 {
	a, _, _ := m.flatAnnuity(swapRate)
	return m.scale / a
}

func (m *basicPiterbarg) FirstDerivative(swapRate float64) float64 {
	a, da, _ := m.flatAnnuity(swapRate)
	return -m.scale * da / (a * a)
}

func (m *basicPiterbarg) SecondDerivative(swapRate float64) float64 {
	a, da, d2a := m.flatAnnuity(swapRate)
	return m.scale * (2*da*da - a*d2a) / (a * a * a)
}
