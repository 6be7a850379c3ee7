// Package volcube holds the volatility cubes the pricers read normal
// volatilities from, together with the Bachelier and SABR formulas they rely on.
package volcube

import (
	"errors"
	"time"
)

var (
	// ErrInvalidTable is returned for tables with mismatched or unsorted axes.
	ErrInvalidTable = errors.New("invalid volatility table")
	// ErrNoImpliedVolatility is returned when a price lies outside the attainable range.
	ErrNoImpliedVolatility = errors.New("no implied volatility")
)

// Cube returns the normal (Bachelier) volatility of a swap rate.
//
// maturity and tenor are model times in years, moneyness is strike minus the
// forward swap rate.
type Cube interface {
	Name() string
	ReferenceDate() time.Time
	Value(maturity, tenor, moneyness float64) float64
}
