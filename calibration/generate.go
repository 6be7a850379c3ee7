package calibration

import (
	"fmt"

	"github.com/meenmo/cubecal/annuity"
	"github.com/meenmo/cubecal/model"
	"github.com/meenmo/cubecal/swaption"
	"github.com/meenmo/cubecal/volcube"
)

// fixedCube is a Strategy without parameters.
type fixedCube struct {
	cube volcube.Cube
}

func (f fixedCube) InitialParameters() []float64                      { return nil }
func (f fixedCube) ApplyBounds(params []float64) []float64            { return params }
func (f fixedCube) BuildCube(string, []float64) (volcube.Cube, error) { return f.cube, nil }

// GenerateLattice replaces the quotes of template with values computed from
// cube: cash-settled premiums for price conventions, the cube's normal
// volatility for PayerNormalVolatility. Only the keys of template.Quotes are used.
func GenerateLattice(template swaption.LatticeParams, cube volcube.Cube, m *model.Model, cfg Config) (*swaption.Lattice, error) {
	l, err := swaption.NewLattice(template)
	if err != nil {
		return nil, fmt.Errorf("GenerateLattice: %w", err)
	}
	if err := cfg.Replication.Validate(); err != nil {
		return nil, fmt.Errorf("GenerateLattice: %w", err)
	}
	keys := l.Keys()
	quotes := make(map[swaption.Key]float64, len(keys))

	switch l.Convention() {
	case swaption.PayerNormalVolatility:
		for _, k := range keys {
			mkt, err := marketAt(l, k.Node(), m)
			if err != nil {
				return nil, fmt.Errorf("GenerateLattice %+v: %w", k, err)
			}
			quotes[k] = cube.Value(mkt.maturity, mkt.tenor, float64(k.Moneyness)/1e4)
		}
	default:
		typ := swaption.Payer
		if l.Convention() == swaption.ReceiverPrice {
			typ = swaption.Receiver
		}
		targets := newTargets(l)
		if err := targets.append(l, typ); err != nil {
			return nil, fmt.Errorf("GenerateLattice: %w", err)
		}
		objective := Objective{
			targets:     targets,
			model:       m,
			strategy:    fixedCube{cube: cube},
			cubeName:    cube.Name(),
			mappingType: cfg.MappingType,
			replication: cfg.Replication,
			factory:     annuity.DefaultFactory{},
		}
		values := make([]float64, targets.Len())
		if err := objective.Evaluate(nil, values); err != nil {
			return nil, fmt.Errorf("GenerateLattice: %w", err)
		}
		for i, k := range keys {
			quotes[k] = values[i]
		}
	}
	return l.WithQuotes(l.Convention(), quotes)
}
