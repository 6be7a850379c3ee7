package annuity

import (
	"math"

	"github.com/meenmo/cubecal/swap"
)

// simplifiedLinear is α(S) = a + b·S with a = 1/Στ and b fixed by
// α(S0) = P(0,Tp)/A0, which makes the annuity-measure expectation exact.
type simplifiedLinear struct {
	intercept float64
	slope     float64
}

func newSimplifiedLinear(u *Underlying, fix *swap.Schedule) *simplifiedLinear {
	accrual := 0.0
	for i := 0; i < fix.NumberOfPeriods(); i++ {
		accrual += fix.PeriodLength(i)
	}

	ratio := u.SettlementDiscount / u.Annuity
	if math.Abs(u.ForwardSwapRate) < 1e-12 || accrual <= 0 {
		return &simplifiedLinear{intercept: ratio}
	}
	intercept := 1 / accrual
	return &simplifiedLinear{
		intercept: intercept,
		slope:     (ratio - intercept) / u.ForwardSwapRate,
	}
}

func (m *simplifiedLinear) Value(swapRate float64) float64 {
	return m.intercept + m.slope*swapRate
}

func (m *simplifiedLinear) FirstDerivative(float64) float64 {
	return m.slope
}

func (m *simplifiedLinear) SecondDerivative(float64) float64 {
	return 0
}
