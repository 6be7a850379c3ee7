package calibration

import (
	"fmt"
	"time"

	"github.com/meenmo/cubecal/model"
	"github.com/meenmo/cubecal/swaption"
	"github.com/meenmo/cubecal/volcube"
)

// StaticStrategy parameterizes a StaticCube as [value, correlationDecay].
type StaticStrategy struct {
	reference       time.Time
	underlyingTenor float64
	initial         [2]float64
}

// NewStaticStrategy starts from a 1% volatility and zero decay.
func NewStaticStrategy(reference time.Time, underlyingTenor float64) *StaticStrategy {
	return &StaticStrategy{
		reference:       reference,
		underlyingTenor: underlyingTenor,
		initial:         [2]float64{0.01, 0},
	}
}

func (s *StaticStrategy) InitialParameters() []float64 {
	return []float64{s.initial[0], s.initial[1]}
}

func (s *StaticStrategy) ApplyBounds(params []float64) []float64 {
	return StaticBounds(params)
}

func (s *StaticStrategy) BuildCube(name string, params []float64) (volcube.Cube, error) {
	if len(params) != 2 {
		return nil, fmt.Errorf("StaticStrategy: %d parameters: %w", len(params), ErrParameterCount)
	}
	return volcube.NewStaticCube(name, s.reference, params[0], params[1], s.underlyingTenor), nil
}

// StaticCubeCalibration fits a two-parameter StaticCube to cash-settled premiums.
type StaticCubeCalibration struct {
	*Calibrator
	strategy *StaticStrategy
}

// NewStaticCubeCalibration uses the fixed-leg period length as the underlying tenor.
func NewStaticCubeCalibration(payer, receiver *swaption.Lattice, m *model.Model, cfg Config) (*StaticCubeCalibration, error) {
	underlying := 1 / float64(payer.FixPrototype().Frequency.PeriodsPerYear())
	strategy := NewStaticStrategy(payer.ReferenceDate(), underlying)
	c, err := NewCalibrator(payer, receiver, m, strategy, cfg)
	if err != nil {
		return nil, fmt.Errorf("NewStaticCubeCalibration: %w", err)
	}
	return &StaticCubeCalibration{Calibrator: c, strategy: strategy}, nil
}

func (c *StaticCubeCalibration) SetInitialValue(v float64) {
	c.strategy.initial[0] = v
}

func (c *StaticCubeCalibration) SetInitialCorrelationDecay(d float64) {
	c.strategy.initial[1] = d
}
