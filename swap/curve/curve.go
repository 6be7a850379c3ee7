package curve

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrNilCurve is returned when a curve argument is missing.
	ErrNilCurve = errors.New("nil curve")
	// ErrInvalidNodes is returned for node sets a curve cannot be built from.
	ErrInvalidNodes = errors.New("invalid curve nodes")
)

// Curve is a discount curve on the model time axis (ACT/365F years from the
// reference date).
type Curve interface {
	Name() string
	DiscountFactor(t float64) float64
}

// Flat is a curve with a constant continuously compounded zero rate.
type Flat struct {
	name string
	rate float64
}

// NewFlat returns a flat curve.
func NewFlat(name string, rate float64) *Flat {
	return &Flat{name: name, rate: rate}
}

func (c *Flat) Name() string {
	return c.name
}

// Rate returns the continuously compounded zero rate.
func (c *Flat) Rate() float64 {
	return c.rate
}

func (c *Flat) DiscountFactor(t float64) float64 {
	return math.Exp(-c.rate * t)
}

// NodeCurve interpolates discount factors log-linearly between nodes.
//
// The implicit node DF(0)=1 is always present. Beyond the last node the last
// forward rate is extrapolated.
type NodeCurve struct {
	name  string
	times []float64
	dfs   []float64
}

// NewNodeCurve builds a curve from discount factors keyed by time in years.
func NewNodeCurve(name string, dfs map[float64]float64) (*NodeCurve, error) {
	times := make([]float64, 0, len(dfs)+1)
	for t, df := range dfs {
		if t < 0 || math.IsNaN(t) {
			return nil, fmt.Errorf("NewNodeCurve: node time %v: %w", t, ErrInvalidNodes)
		}
		if !(df > 0) || math.IsInf(df, 0) {
			return nil, fmt.Errorf("NewNodeCurve: discount factor %v at %v: %w", df, t, ErrInvalidNodes)
		}
		if t == 0 {
			continue
		}
		times = append(times, t)
	}
	times = append(times, 0)
	sort.Float64s(times)

	c := &NodeCurve{name: name, times: times, dfs: make([]float64, len(times))}
	for i, t := range times {
		if t == 0 {
			c.dfs[i] = 1
			continue
		}
		c.dfs[i] = dfs[t]
	}
	return c, nil
}

// NewZeroCurve builds a node curve from continuously compounded zero rates
// keyed by tenor strings such as "6M" or "10Y".
func NewZeroCurve(name string, zeros map[string]float64) (*NodeCurve, error) {
	if len(zeros) == 0 {
		return nil, fmt.Errorf("NewZeroCurve: no nodes: %w", ErrInvalidNodes)
	}
	dfs := make(map[float64]float64, len(zeros))
	for tenor, rate := range zeros {
		t, err := TenorToYears(tenor)
		if err != nil {
			return nil, fmt.Errorf("NewZeroCurve: %w", err)
		}
		dfs[t] = math.Exp(-rate * t)
	}
	return NewNodeCurve(name, dfs)
}

func (c *NodeCurve) Name() string {
	return c.name
}

// Times returns a copy of the node times, including t=0.
func (c *NodeCurve) Times() []float64 {
	out := make([]float64, len(c.times))
	copy(out, c.times)
	return out
}

func (c *NodeCurve) DiscountFactor(t float64) float64 {
	if len(c.times) < 2 || t <= 0 {
		return 1
	}
	i1, i2 := findBracketOrBoundary(c.times, t)
	t1, t2 := c.times[i1], c.times[i2]
	df1, df2 := c.dfs[i1], c.dfs[i2]
	if t == t2 {
		return df2
	}

	forwardRate := math.Log(df1/df2) / (t2 - t1)
	return df1 * math.Exp(-forwardRate*(t-t1))
}

// ZeroRate returns the continuously compounded zero rate at t.
func ZeroRate(c Curve, t float64) float64 {
	if t <= 0 {
		return 0
	}
	return -math.Log(c.DiscountFactor(t)) / t
}
