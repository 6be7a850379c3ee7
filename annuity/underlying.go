package annuity

import (
	"fmt"

	"github.com/meenmo/cubecal/model"
	"github.com/meenmo/cubecal/swap"
	"github.com/meenmo/cubecal/volcube"
)

// Underlying is the market state of the swap a swaption exercises into.
type Underlying struct {
	// ForwardSwapRate is S0.
	ForwardSwapRate float64
	// Annuity is the physical annuity A0 on the discount curve.
	Annuity float64
	// SettlementDiscount is P(0,Tp) at the swap start, where cash is paid.
	SettlementDiscount float64
	// FixingTime is the option expiry.
	FixingTime float64
	// Maturity and Tenor are the cube coordinates of the swap.
	Maturity float64
	Tenor    float64

	cube volcube.Cube
}

// NewUnderlying reads curves and the cube from m.
func NewUnderlying(fix, float *swap.Schedule, forwardCurve, discountCurve, cube string, m *model.Model) (*Underlying, error) {
	fwd, err := m.Curve(forwardCurve)
	if err != nil {
		return nil, fmt.Errorf("NewUnderlying: %w", err)
	}
	disc, err := m.Curve(discountCurve)
	if err != nil {
		return nil, fmt.Errorf("NewUnderlying: %w", err)
	}
	vol, err := m.Cube(cube)
	if err != nil {
		return nil, fmt.Errorf("NewUnderlying: %w", err)
	}

	rate, err := swap.ForwardSwapRate(fix, float, fwd, disc)
	if err != nil {
		return nil, fmt.Errorf("NewUnderlying: %w", err)
	}
	maturity, tenor := Coordinates(fix)
	return &Underlying{
		ForwardSwapRate:    rate,
		Annuity:            swap.Annuity(fix, disc),
		SettlementDiscount: disc.DiscountFactor(maturity),
		FixingTime:         fix.FixingTime(0),
		Maturity:           maturity,
		Tenor:              tenor,
		cube:               vol,
	}, nil
}

// Coordinates returns the cube coordinates of a swap: the time of its start
// and its length in years.
func Coordinates(fix *swap.Schedule) (maturity, tenor float64) {
	maturity = fix.PeriodStartTime(0)
	return maturity, fix.PeriodEndTime(fix.NumberOfPeriods()-1) - maturity
}

// Volatility returns the smile volatility at strike.
func (u *Underlying) Volatility(strike float64) float64 {
	return u.cube.Value(u.Maturity, u.Tenor, strike-u.ForwardSwapRate)
}

// Call is the undiscounted annuity-measure payer price at strike.
func (u *Underlying) Call(strike float64) float64 {
	return volcube.NormalCall(u.ForwardSwapRate, strike, u.Volatility(strike), u.FixingTime)
}

// Put is the undiscounted annuity-measure receiver price at strike.
func (u *Underlying) Put(strike float64) float64 {
	return volcube.NormalPut(u.ForwardSwapRate, strike, u.Volatility(strike), u.FixingTime)
}

// Expectation replicates E[f(S)] from its second derivative against
// out-of-the-money options over the replication domain.
func (u *Underlying) Expectation(f, fSecond func(float64) float64, r Replication) float64 {
	lower, upper := r.Bounds(u.ForwardSwapRate)
	s0 := u.ForwardSwapRate
	puts := Integrate(func(k float64) float64 { return fSecond(k) * u.Put(k) }, lower, s0, r.EvaluationPoints)
	calls := Integrate(func(k float64) float64 { return fSecond(k) * u.Call(k) }, s0, upper, r.EvaluationPoints)
	return f(s0) + puts + calls
}
