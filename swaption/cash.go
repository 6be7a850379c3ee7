package swaption

import (
	"errors"
	"fmt"
	"math"

	"github.com/meenmo/cubecal/annuity"
	"github.com/meenmo/cubecal/model"
	"github.com/meenmo/cubecal/swap"
	"github.com/meenmo/cubecal/volcube"
)

// ErrNonFinitePrice is returned when a pricer produces NaN or Inf.
var ErrNonFinitePrice = errors.New("non-finite swaption price")

// OptionType is payer or receiver.
type OptionType int

const (
	Payer OptionType = iota
	Receiver
)

func (o OptionType) String() string {
	if o == Receiver {
		return "receiver"
	}
	return "payer"
}

// CashSettled is a cash-settled swaption on the swap described by its schedules.
type CashSettled struct {
	Type          OptionType
	Strike        float64
	Fix           *swap.Schedule
	Float         *swap.Schedule
	ForwardCurve  string
	DiscountCurve string
	Cube          string
	Replication   annuity.Replication
}

// Value prices the swaption per unit notional.
//
// With g(S) = α(S)·Ac(S) and undiscounted annuity-measure options C and P,
//
//	payer    = A0·[g(K)C(K) + ∫_K^U (g''(x)(x-K) + 2g'(x)) C(x) dx]
//	receiver = A0·[g(K)P(K) + ∫_L^K (g''(x)(K-x) - 2g'(x)) P(x) dx]
//
// where [L, U] is the replication domain.
func (s CashSettled) Value(fixingTime float64, mapping annuity.Mapping, m *model.Model) (float64, error) {
	u, err := annuity.NewUnderlying(s.Fix, s.Float, s.ForwardCurve, s.DiscountCurve, s.Cube, m)
	if err != nil {
		return 0, fmt.Errorf("CashSettled: %w", err)
	}
	cash := annuity.NewCashAnnuity(s.Fix)

	g := func(x float64) float64 {
		return mapping.Value(x) * cash.Value(x)
	}
	gFirst := func(x float64) float64 {
		return mapping.FirstDerivative(x)*cash.Value(x) + mapping.Value(x)*cash.FirstDerivative(x)
	}
	gSecond := func(x float64) float64 {
		return mapping.SecondDerivative(x)*cash.Value(x) +
			2*mapping.FirstDerivative(x)*cash.FirstDerivative(x) +
			mapping.Value(x)*cash.SecondDerivative(x)
	}

	forward := u.ForwardSwapRate
	option := func(x float64) float64 {
		if s.Type == Receiver {
			return volcube.NormalPut(forward, x, u.Volatility(x), fixingTime)
		}
		return volcube.NormalCall(forward, x, u.Volatility(x), fixingTime)
	}

	k := s.Strike
	lower, upper := s.Replication.Bounds(forward)
	var integral float64
	if s.Type == Receiver {
		integral = annuity.Integrate(func(x float64) float64 {
			return (gSecond(x)*(k-x) - 2*gFirst(x)) * option(x)
		}, lower, k, s.Replication.EvaluationPoints)
	} else {
		integral = annuity.Integrate(func(x float64) float64 {
			return (gSecond(x)*(x-k) + 2*gFirst(x)) * option(x)
		}, k, upper, s.Replication.EvaluationPoints)
	}

	value := u.Annuity * (g(k)*option(k) + integral)
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("CashSettled: %s strike %v: %w", s.Type, k, ErrNonFinitePrice)
	}
	return value, nil
}
