// Package swaption holds swaption quote lattices and the cash-settled swaption pricer.
package swaption

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/meenmo/cubecal/swap"
	"github.com/meenmo/cubecal/utils"
)

var (
	// ErrUnknownQuotingConvention is returned for conventions outside the QuotingConvention constants.
	ErrUnknownQuotingConvention = errors.New("unknown quoting convention")
	// ErrInvalidQuote is returned for NaN or infinite quotes.
	ErrInvalidQuote = errors.New("invalid quote")
)

// QuotingConvention tells what the values of a lattice are.
type QuotingConvention string

const (
	// PayerPrice quotes are cash-settled payer premiums per unit notional.
	PayerPrice QuotingConvention = "PAYER_PRICE"
	// ReceiverPrice quotes are cash-settled receiver premiums per unit notional.
	ReceiverPrice QuotingConvention = "RECEIVER_PRICE"
	// PayerNormalVolatility quotes are physically settled normal volatilities.
	PayerNormalVolatility QuotingConvention = "PAYER_NORMAL_VOLATILITY"
)

// Validate rejects unknown conventions.
func (c QuotingConvention) Validate() error {
	switch c {
	case PayerPrice, ReceiverPrice, PayerNormalVolatility:
		return nil
	default:
		return fmt.Errorf("QuotingConvention %q: %w", string(c), ErrUnknownQuotingConvention)
	}
}

// Key addresses one quote. Moneyness is in basis points, maturity and tenor
// are offsets in the lattice's date unit. Receiver lattices quote moneyness
// as forward minus strike, so a positive value is out of the money.
type Key struct {
	Moneyness int
	Maturity  int
	Tenor     int
}

// Node returns the (maturity, tenor) node of the key.
func (k Key) Node() NodeKey {
	return NodeKey{Maturity: k.Maturity, Tenor: k.Tenor}
}

// NodeKey addresses a (maturity, tenor) node.
type NodeKey struct {
	Maturity int
	Tenor    int
}

// LatticeParams is the input of NewLattice.
type LatticeParams struct {
	ReferenceDate time.Time
	Convention    QuotingConvention
	Unit          utils.DateUnit
	Fix           swap.Prototype
	Float         swap.Prototype
	ForwardCurve  string
	DiscountCurve string
	Quotes        map[Key]float64
}

// Lattice is an immutable grid of swaption quotes.
type Lattice struct {
	reference     time.Time
	convention    QuotingConvention
	unit          utils.DateUnit
	fix           swap.Prototype
	float         swap.Prototype
	forwardCurve  string
	discountCurve string
	quotes        map[Key]float64

	moneyness  []int
	maturities []int
	tenors     []int
}

// NewLattice validates and copies p.
func NewLattice(p LatticeParams) (*Lattice, error) {
	if err := p.Convention.Validate(); err != nil {
		return nil, fmt.Errorf("NewLattice: %w", err)
	}
	if err := p.Unit.Validate(); err != nil {
		return nil, fmt.Errorf("NewLattice: %w", err)
	}
	if err := p.Fix.Validate(); err != nil {
		return nil, fmt.Errorf("NewLattice: fixed leg: %w", err)
	}
	if err := p.Float.Validate(); err != nil {
		return nil, fmt.Errorf("NewLattice: float leg: %w", err)
	}

	l := &Lattice{
		reference:     p.ReferenceDate,
		convention:    p.Convention,
		unit:          p.Unit,
		fix:           p.Fix,
		float:         p.Float,
		forwardCurve:  p.ForwardCurve,
		discountCurve: p.DiscountCurve,
		quotes:        make(map[Key]float64, len(p.Quotes)),
	}
	moneyness := map[int]struct{}{}
	maturities := map[int]struct{}{}
	tenors := map[int]struct{}{}
	for k, v := range p.Quotes {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("NewLattice: %+v = %v: %w", k, v, ErrInvalidQuote)
		}
		l.quotes[k] = v
		moneyness[k.Moneyness] = struct{}{}
		maturities[k.Maturity] = struct{}{}
		tenors[k.Tenor] = struct{}{}
	}
	l.moneyness = sortedKeys(moneyness)
	l.maturities = sortedKeys(maturities)
	l.tenors = sortedKeys(tenors)
	return l, nil
}

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// ReferenceDate returns the date offsets are measured from.
func (l *Lattice) ReferenceDate() time.Time {
	return l.reference
}

func (l *Lattice) Convention() QuotingConvention {
	return l.convention
}

func (l *Lattice) Unit() utils.DateUnit {
	return l.unit
}

func (l *Lattice) FixPrototype() swap.Prototype {
	return l.fix
}

func (l *Lattice) FloatPrototype() swap.Prototype {
	return l.float
}

func (l *Lattice) ForwardCurve() string {
	return l.forwardCurve
}

func (l *Lattice) DiscountCurve() string {
	return l.discountCurve
}

// Len returns the number of quotes.
func (l *Lattice) Len() int {
	return len(l.quotes)
}

// Moneyness returns the distinct moneyness levels in ascending order.
func (l *Lattice) Moneyness() []int {
	return append([]int(nil), l.moneyness...)
}

// Maturities returns the distinct maturities in ascending order.
func (l *Lattice) Maturities() []int {
	return append([]int(nil), l.maturities...)
}

// Tenors returns the distinct tenors in ascending order.
func (l *Lattice) Tenors() []int {
	return append([]int(nil), l.tenors...)
}

func (l *Lattice) Contains(k Key) bool {
	_, ok := l.quotes[k]
	return ok
}

func (l *Lattice) Value(k Key) (float64, bool) {
	v, ok := l.quotes[k]
	return v, ok
}

// Keys returns every populated key ordered by moneyness, maturity, then tenor.
func (l *Lattice) Keys() []Key {
	keys := make([]Key, 0, len(l.quotes))
	for _, m := range l.moneyness {
		for _, mat := range l.maturities {
			for _, ten := range l.tenors {
				k := Key{Moneyness: m, Maturity: mat, Tenor: ten}
				if l.Contains(k) {
					keys = append(keys, k)
				}
			}
		}
	}
	return keys
}

// Restrict returns a lattice with the same conventions holding only the keys keep accepts.
func (l *Lattice) Restrict(keep func(Key) bool) *Lattice {
	quotes := make(map[Key]float64)
	for k, v := range l.quotes {
		if keep(k) {
			quotes[k] = v
		}
	}
	out, _ := NewLattice(l.paramsWith(l.convention, quotes))
	return out
}

// WithQuotes returns a lattice with the conventions of l and new quotes.
func (l *Lattice) WithQuotes(convention QuotingConvention, quotes map[Key]float64) (*Lattice, error) {
	out, err := NewLattice(l.paramsWith(convention, quotes))
	if err != nil {
		return nil, fmt.Errorf("WithQuotes: %w", err)
	}
	return out, nil
}

func (l *Lattice) paramsWith(convention QuotingConvention, quotes map[Key]float64) LatticeParams {
	return LatticeParams{
		ReferenceDate: l.reference,
		Convention:    convention,
		Unit:          l.unit,
		Fix:           l.fix,
		Float:         l.float,
		ForwardCurve:  l.forwardCurve,
		DiscountCurve: l.discountCurve,
		Quotes:        quotes,
	}
}

// SameConventions reports whether two lattices share reference date, unit,
// leg prototypes and curves, i.e. whether equal keys describe the same swap.
func (l *Lattice) SameConventions(other *Lattice) bool {
	return l.reference.Equal(other.reference) &&
		l.unit == other.unit &&
		l.fix == other.fix &&
		l.float == other.float &&
		l.forwardCurve == other.forwardCurve &&
		l.discountCurve == other.discountCurve
}

// Dates returns the start and end dates of the swap underlying a node.
func (l *Lattice) Dates(n NodeKey) (start, end time.Time, err error) {
	start, err = utils.AddOffset(l.reference, n.Maturity, l.unit)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("Dates: %w", err)
	}
	end, err = utils.AddOffset(start, n.Tenor, l.unit)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("Dates: %w", err)
	}
	return start, end, nil
}
