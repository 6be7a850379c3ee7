package calibration

import (
	"fmt"

	"github.com/meenmo/cubecal/annuity"
	"github.com/meenmo/cubecal/model"
	"github.com/meenmo/cubecal/swap"
	"github.com/meenmo/cubecal/swaption"
	"github.com/meenmo/cubecal/volcube"
)

// Strategy is the parameterization of one calibration: where the solver
// starts, which region it may explore and how a parameter vector becomes a cube.
type Strategy interface {
	InitialParameters() []float64
	ApplyBounds(params []float64) []float64
	// BuildCube must be deterministic and must not modify params.
	BuildCube(name string, params []float64) (volcube.Cube, error)
}

// Objective prices every target off the cube a parameter vector describes.
// It holds its dependencies by value and keeps no state between calls, so
// Evaluate is safe for concurrent use.
type Objective struct {
	targets     *Targets
	model       *model.Model
	strategy    Strategy
	cubeName    string
	mappingType annuity.Type
	replication annuity.Replication
	factory     annuity.Factory
}

// Evaluate writes the model premium of target i into values[i].
func (o Objective) Evaluate(params, values []float64) error {
	if len(values) != o.targets.Len() {
		return fmt.Errorf("Evaluate: %d values for %d targets: %w", len(values), o.targets.Len(), ErrParameterCount)
	}
	cube, err := o.strategy.BuildCube(o.cubeName, o.strategy.ApplyBounds(params))
	if err != nil {
		return fmt.Errorf("Evaluate: %w", err)
	}
	m := o.model.AddVolatilityCube(cube)

	mappings := make(map[string]annuity.Mapping)
	for i := 0; i < o.targets.Len(); i++ {
		v, err := o.price(o.targets.Target(i), cube.Name(), m, mappings)
		if err != nil {
			return fmt.Errorf("Evaluate: target %d: %w", i, err)
		}
		values[i] = v
	}
	return nil
}

func (o Objective) price(t Target, cube string, m *model.Model, mappings map[string]annuity.Mapping) (float64, error) {
	fix, float, err := o.targets.Schedules(t.Descriptor)
	if err != nil {
		return 0, err
	}
	fwd, err := m.Curve(o.targets.forwardCurve)
	if err != nil {
		return 0, err
	}
	disc, err := m.Curve(o.targets.discountCurve)
	if err != nil {
		return 0, err
	}
	rate, err := swap.ForwardSwapRate(fix, float, fwd, disc)
	if err != nil {
		return 0, err
	}

	key := t.Descriptor.Key()
	mapping, ok := mappings[key]
	if !ok {
		mapping, err = o.factory.Build(o.mappingType, annuity.Spec{
			Fix:           fix,
			Float:         float,
			ForwardCurve:  o.targets.forwardCurve,
			DiscountCurve: o.targets.discountCurve,
			Cube:          cube,
			Replication:   o.replication,
		}, m)
		if err != nil {
			return 0, err
		}
		mappings[key] = mapping
	}

	pricer := swaption.CashSettled{
		Type:          t.Type,
		Strike:        rate + t.Descriptor.Moneyness,
		Fix:           fix,
		Float:         float,
		ForwardCurve:  o.targets.forwardCurve,
		DiscountCurve: o.targets.discountCurve,
		Cube:          cube,
		Replication:   o.replication,
	}
	return pricer.Value(fix.FixingTime(0), mapping, m)
}
