package volcube

import (
	"fmt"
	"math"
	"time"
)

// Smile-shape constants shared by every node of a SABR cube.
const (
	DefaultSABRBeta         = 0.5
	DefaultSABRDisplacement = 0.25
)

// minDisplacedRate keeps displaced rates strictly positive in SABRNormalVol.
const minDisplacedRate = 1e-8

// SABRNormalVol is Hagan's normal volatility expansion for a displaced SABR model.
//
// alpha is the base volatility of the displaced forward F+displacement, beta its
// CEV exponent, rho and nu the correlation and volatility of volatility.
func SABRNormalVol(forward, strike, maturity, alpha, beta, rho, nu, displacement float64) float64 {
	f := math.Max(forward+displacement, minDisplacedRate)
	k := math.Max(strike+displacement, minDisplacedRate)
	if alpha <= 0 {
		return 0
	}

	oneMinusBeta := 1 - beta
	fMid := math.Sqrt(f * k)
	fMidBeta := math.Pow(fMid, beta)

	// α·(f-k)/∫_k^f x^-β dx, which tends to α·f^β at the money
	var level float64
	switch {
	case math.Abs(f-k) < 1e-12*fMid:
		level = alpha * fMidBeta
	case math.Abs(oneMinusBeta) < 1e-12:
		level = alpha * (f - k) / math.Log(f/k)
	default:
		level = alpha * (f - k) * oneMinusBeta / (math.Pow(f, oneMinusBeta) - math.Pow(k, oneMinusBeta))
	}

	zeta := nu / alpha * (f - k) / fMidBeta
	level *= zetaOverX(zeta, rho)

	fMidPow := math.Pow(fMid, oneMinusBeta)
	correction := -beta*(2-beta)*alpha*alpha/(24*fMidPow*fMidPow) +
		rho*alpha*nu*beta/(4*fMidPow) +
		(2-3*rho*rho)*nu*nu/24
	return level * (1 + correction*math.Max(maturity, 0))
}

func zetaOverX(zeta, rho float64) float64 {
	if math.Abs(zeta) < 1e-6 {
		return 1 - 0.5*rho*zeta + (2-3*rho*rho)*zeta*zeta/12
	}
	root := math.Sqrt(1 - 2*rho*zeta + zeta*zeta)
	x := math.Log((root + zeta - rho) / (1 - rho))
	if x == 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return 1
	}
	return zeta / x
}

// SABRCube reads per-node SABR parameters and forward swap rates from tables
// and evaluates the smile with SABRNormalVol.
type SABRCube struct {
	name         string
	reference    time.Time
	swapRates    *Table
	rho          *Table
	baseVol      *Table
	volVol       *Table
	beta         float64
	displacement float64
}

// SABRParameters groups the tables of a SABRCube.
type SABRParameters struct {
	SwapRates    *Table
	Rho          *Table
	BaseVol      *Table
	VolVol       *Table
	Beta         float64
	Displacement float64
}

// NewSABRCube validates that every table is present.
func NewSABRCube(name string, reference time.Time, p SABRParameters) (*SABRCube, error) {
	if p.SwapRates == nil || p.Rho == nil || p.BaseVol == nil || p.VolVol == nil {
		return nil, fmt.Errorf("NewSABRCube %s: missing table: %w", name, ErrInvalidTable)
	}
	return &SABRCube{
		name:         name,
		reference:    reference,
		swapRates:    p.SwapRates,
		rho:          p.Rho,
		baseVol:      p.BaseVol,
		volVol:       p.VolVol,
		beta:         p.Beta,
		displacement: p.Displacement,
	}, nil
}

func (c *SABRCube) Name() string {
	return c.name
}

func (c *SABRCube) ReferenceDate() time.Time {
	return c.reference
}

// Node returns the interpolated SABR parameters and swap rate at (maturity, tenor).
func (c *SABRCube) Node(maturity, tenor float64) (swapRate, rho, baseVol, volVol float64) {
	return c.swapRates.Value(maturity, tenor),
		c.rho.Value(maturity, tenor),
		c.baseVol.Value(maturity, tenor),
		c.volVol.Value(maturity, tenor)
}

func (c *SABRCube) Value(maturity, tenor, moneyness float64) float64 {
	forward, rho, baseVol, volVol := c.Node(maturity, tenor)
	return SABRNormalVol(forward, forward+moneyness, maturity, baseVol, c.beta, rho, volVol, c.displacement)
}
