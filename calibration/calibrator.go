package calibration

import (
	"fmt"
	"time"

	"github.com/meenmo/cubecal/annuity"
	"github.com/meenmo/cubecal/logging"
	"github.com/meenmo/cubecal/model"
	"github.com/meenmo/cubecal/solver"
	"github.com/meenmo/cubecal/swaption"
	"github.com/meenmo/cubecal/volcube"
)

// Diagnostics describes the last solve of a Calibrator.
type Diagnostics struct {
	Iterations           int
	RootMeanSquaredError float64
	Parameters           []float64
	Elapsed              time.Duration
}

// Calibrator fits a Strategy's parameters to a target list with
// Levenberg-Marquardt.
type Calibrator struct {
	targets  *Targets
	model    *model.Model
	strategy Strategy
	cfg      Config
	factory  annuity.Factory
	logger   logging.Logger

	diagnostics Diagnostics
}

// NewCalibrator assembles the targets of a payer and a receiver price lattice.
func NewCalibrator(payer, receiver *swaption.Lattice, m *model.Model, strategy Strategy, cfg Config) (*Calibrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("NewCalibrator: %w", err)
	}
	targets, err := AssembleTargets(payer, receiver)
	if err != nil {
		return nil, fmt.Errorf("NewCalibrator: %w", err)
	}
	return newCalibrator(targets, m, strategy, cfg), nil
}

func newCalibrator(targets *Targets, m *model.Model, strategy Strategy, cfg Config) *Calibrator {
	return &Calibrator{
		targets:  targets,
		model:    m,
		strategy: strategy,
		cfg:      cfg,
		factory:  annuity.DefaultFactory{},
		logger:   logging.Default(),
	}
}

func (c *Calibrator) SetMaxIterations(n int) {
	c.cfg.MaxIterations = n
}

// SetThreads bounds concurrent objective evaluations; n < 1 means GOMAXPROCS.
func (c *Calibrator) SetThreads(n int) {
	c.cfg.Threads = n
}

func (c *Calibrator) SetReplication(r annuity.Replication) {
	c.cfg.Replication = r
}

func (c *Calibrator) SetMappingType(t annuity.Type) {
	c.cfg.MappingType = t
}

// SetMappingFactory replaces the annuity mapping factory. f must be safe for concurrent use.
func (c *Calibrator) SetMappingFactory(f annuity.Factory) {
	if f != nil {
		c.factory = f
	}
}

func (c *Calibrator) SetLogger(l logging.Logger) {
	if l != nil {
		c.logger = l
	}
}

func (c *Calibrator) Targets() *Targets {
	return c.targets
}

// Diagnostics returns the result of the last Calibrate call.
func (c *Calibrator) Diagnostics() Diagnostics {
	d := c.diagnostics
	d.Parameters = append([]float64(nil), d.Parameters...)
	return d
}

// Objective returns the evaluator for a cube named cubeName under the current settings.
func (c *Calibrator) Objective(cubeName string) Objective {
	return Objective{
		targets:     c.targets,
		model:       c.model,
		strategy:    c.strategy,
		cubeName:    cubeName,
		mappingType: c.cfg.MappingType,
		replication: c.cfg.Replication,
		factory:     c.factory,
	}
}

// Calibrate fits the strategy to the targets and returns the best-fit cube.
func (c *Calibrator) Calibrate(cubeName string) (volcube.Cube, error) {
	params, err := c.fit(cubeName)
	if err != nil {
		return nil, err
	}
	cube, err := c.strategy.BuildCube(cubeName, params)
	if err != nil {
		return nil, fmt.Errorf("Calibrate %s: %w", cubeName, err)
	}
	return cube, nil
}

// fit returns the bounded best-fit parameters.
func (c *Calibrator) fit(cubeName string) ([]float64, error) {
	if c.targets.Len() == 0 {
		return nil, fmt.Errorf("Calibrate %s: %w", cubeName, ErrNoTargets)
	}
	if err := c.cfg.Replication.Validate(); err != nil {
		return nil, fmt.Errorf("Calibrate %s: %w", cubeName, err)
	}

	start := time.Now()
	lm := solver.NewLevenbergMarquardt(c.strategy.InitialParameters(), c.targets.Values(), c.cfg.MaxIterations, c.cfg.Threads)
	lm.SetLogger(c.logger.Named("solver"))
	objective := c.Objective(cubeName)
	if err := lm.Run(objective.Evaluate); err != nil {
		c.logger.Error("calibration failed", logging.String("cube", cubeName), logging.Err(err))
		return nil, fmt.Errorf("Calibrate %s: %w", cubeName, err)
	}

	params := c.strategy.ApplyBounds(lm.BestFitParameters())
	c.diagnostics = Diagnostics{
		Iterations:           lm.Iterations(),
		RootMeanSquaredError: lm.RootMeanSquaredError(),
		Parameters:           params,
		Elapsed:              time.Since(start),
	}
	c.logger.Info("calibration finished",
		logging.String("cube", cubeName),
		logging.Int("targets", c.targets.Len()),
		logging.Int("iterations", c.diagnostics.Iterations),
		logging.Float64("rmse", c.diagnostics.RootMeanSquaredError),
		logging.Duration("elapsed", c.diagnostics.Elapsed))
	return append([]float64(nil), params...), nil
}
