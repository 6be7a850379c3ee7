package annuity

import (
	"math"

	"github.com/meenmo/cubecal/swap"
)

// CashAnnuity is the settlement annuity of a cash-settled swaption: n
// equidistant periods of length τ discounted at the swap rate itself,
//
//	Ac(S) = Σ_{i=1..n} τ(1+τS)^-i,
//
// which tends to nτ as S goes to zero.
type CashAnnuity struct {
	periods int
	tau     float64
}

// NewCashAnnuity reads the period count and frequency of a fixed leg schedule.
func NewCashAnnuity(fix *swap.Schedule) CashAnnuity {
	return CashAnnuity{
		periods: fix.NumberOfPeriods(),
		tau:     1 / float64(fix.Frequency().PeriodsPerYear()),
	}
}

// NewCashAnnuityPeriods builds the annuity from a period count and length directly.
func NewCashAnnuityPeriods(periods int, tau float64) CashAnnuity {
	return CashAnnuity{periods: periods, tau: tau}
}

func (c CashAnnuity) Value(swapRate float64) float64 {
	n := float64(c.periods)
	x := c.tau * swapRate
	if math.Abs(x) < 1e-10 {
		return n * c.tau * (1 - 0.5*(n+1)*x)
	}
	return -math.Expm1(-n*math.Log1p(x)) / swapRate
}

func (c CashAnnuity) FirstDerivative(swapRate float64) float64 {
	base := 1 + c.tau*swapRate
	sum := 0.0
	for i := 1; i <= c.periods; i++ {
		sum -= float64(i) * math.Pow(base, -float64(i+1))
	}
	return sum * c.tau * c.tau
}

func (c CashAnnuity) SecondDerivative(swapRate float64) float64 {
	base := 1 + c.tau*swapRate
	sum := 0.0
	for i := 1; i <= c.periods; i++ {
		sum += float64(i*(i+1)) * math.Pow(base, -float64(i+2))
	}
	return sum * c.tau * c.tau * c.tau
}
