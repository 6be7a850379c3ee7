package swap

import (
	"fmt"
	"math"

	"github.com/meenmo/cubecal/swap/curve"
)

// Annuity returns Σ τ_i·P(t_pay,i) over the periods of s.
func Annuity(s *Schedule, discount curve.Curve) float64 {
	annuity := 0.0
	for i := 0; i < s.NumberOfPeriods(); i++ {
		annuity += s.PeriodLength(i) * discount.DiscountFactor(s.PaymentTime(i))
	}
	return annuity
}

// ForwardRate returns the simple forward rate of the i-th period of s implied by forward.
func ForwardRate(s *Schedule, i int, forward curve.Curve) float64 {
	tau := s.PeriodLength(i)
	dfStart := forward.DiscountFactor(s.PeriodStartTime(i))
	dfEnd := forward.DiscountFactor(s.PeriodEndTime(i))
	return (dfStart/dfEnd - 1) / tau
}

// ForwardSwapRate returns the par rate of the swap exchanging fix against float.
//
// Forwards are projected off forward, cashflows discounted on discount.
func ForwardSwapRate(fix, float *Schedule, forward, discount curve.Curve) (float64, error) {
	if forward == nil || discount == nil {
		return 0, fmt.Errorf("ForwardSwapRate: %w", curve.ErrNilCurve)
	}
	annuity := Annuity(fix, discount)

	floatPV := 0.0
	for i := 0; i < float.NumberOfPeriods(); i++ {
		floatPV += ForwardRate(float, i, forward) * float.PeriodLength(i) * discount.DiscountFactor(float.PaymentTime(i))
	}

	rate := floatPV / annuity
	if math.IsNaN(rate) || math.IsInf(rate, 0) || annuity == 0 {
		return 0, fmt.Errorf("ForwardSwapRate: rate %v, annuity %v: %w", rate, annuity, ErrNonFiniteRate)
	}
	return rate, nil
}
