package volcube

import (
	"math"
	"time"
)

// StaticCube has one flat normal volatility for every underlying rate.
//
// A swap rate over a tenor of n underlying periods is treated as the average
// of n rates with that volatility and correlation exp(-decay·Δt) between rates
// Δt apart, so the quoted volatility of long tenors falls as decay grows.
type StaticCube struct {
	name             string
	reference        time.Time
	value            float64
	correlationDecay float64
	underlyingTenor  float64
}

// NewStaticCube builds a static cube over underlying rates of underlyingTenor years.
func NewStaticCube(name string, reference time.Time, value, correlationDecay, underlyingTenor float64) *StaticCube {
	if underlyingTenor <= 0 {
		underlyingTenor = 1
	}
	return &StaticCube{
		name:             name,
		reference:        reference,
		value:            value,
		correlationDecay: correlationDecay,
		underlyingTenor:  underlyingTenor,
	}
}

func (c *StaticCube) Name() string {
	return c.name
}

func (c *StaticCube) ReferenceDate() time.Time {
	return c.reference
}

// Parameters returns the underlying rate volatility and the correlation decay.
func (c *StaticCube) Parameters() (value, correlationDecay float64) {
	return c.value, c.correlationDecay
}

func (c *StaticCube) Value(_, tenor, _ float64) float64 {
	return c.value * BasketFactor(tenor, c.underlyingTenor, c.correlationDecay)
}

// BasketFactor is the volatility of an equally weighted average of
// round(tenor/underlyingTenor) unit-volatility rates relative to a single rate.
func BasketFactor(tenor, underlyingTenor, correlationDecay float64) float64 {
	n := int(math.Round(tenor / underlyingTenor))
	if n <= 1 {
		return 1
	}
	rho := math.Exp(-correlationDecay * underlyingTenor)

	variance := float64(n)
	rhoK := 1.0
	for k := 1; k < n; k++ {
		rhoK *= rho
		variance += 2 * float64(n-k) * rhoK
	}
	return math.Sqrt(variance) / float64(n)
}
