package calibration

import (
	"fmt"

	"github.com/meenmo/cubecal/annuity"
	"github.com/meenmo/cubecal/logging"
	"github.com/meenmo/cubecal/model"
	"github.com/meenmo/cubecal/swaption"
	"github.com/meenmo/cubecal/volcube"
)

// SliceCalibration fits a SABR cube one maturity at a time. Premiums at a
// maturity depend only on the parameters of nodes at that maturity, so the
// slices are independent least-squares problems.
type SliceCalibration struct {
	payer    *swaption.Lattice
	receiver *swaption.Lattice
	atm      *swaption.Lattice
	model    *model.Model
	cfg      Config
	grid     *NodeTable
	targets  *Targets
	initial  *SABRTables
	factory  annuity.Factory
	logger   logging.Logger

	diagnostics map[int]Diagnostics
}

// NewSliceCalibration takes an optional physically settled ATM lattice, which
// the bootstrap needs unless SetInitialParameters is called.
func NewSliceCalibration(payer, receiver, atm *swaption.Lattice, m *model.Model, cfg Config) (*SliceCalibration, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("NewSliceCalibration: %w", err)
	}
	targets, err := AssembleTargets(payer, receiver)
	if err != nil {
		return nil, fmt.Errorf("NewSliceCalibration: %w", err)
	}
	return &SliceCalibration{
		payer:       payer,
		receiver:    receiver,
		atm:         atm,
		model:       m,
		cfg:         cfg,
		grid:        NewNodeTable(payer, receiver),
		targets:     targets,
		factory:     annuity.DefaultFactory{},
		logger:      logging.Default(),
		diagnostics: make(map[int]Diagnostics),
	}, nil
}

// SetInitialParameters replaces the bootstrap with caller-supplied tables.
func (c *SliceCalibration) SetInitialParameters(t *SABRTables) {
	if t != nil {
		c.initial = t.Clone()
	}
}

func (c *SliceCalibration) SetMaturityOrder(o MaturityOrder) {
	c.cfg.MaturityOrder = o
}

func (c *SliceCalibration) SetMaxIterations(n int) {
	c.cfg.MaxIterations = n
}

func (c *SliceCalibration) SetThreads(n int) {
	c.cfg.Threads = n
}

func (c *SliceCalibration) SetReplication(r annuity.Replication) {
	c.cfg.Replication = r
}

func (c *SliceCalibration) SetMappingType(t annuity.Type) {
	c.cfg.MappingType = t
}

func (c *SliceCalibration) SetMappingFactory(f annuity.Factory) {
	if f != nil {
		c.factory = f
	}
}

func (c *SliceCalibration) SetLogger(l logging.Logger) {
	if l != nil {
		c.logger = l
	}
}

// Grid returns the node table the cube is built on.
func (c *SliceCalibration) Grid() *NodeTable {
	return c.grid
}

// Diagnostics returns the solve diagnostics per fitted maturity.
func (c *SliceCalibration) Diagnostics() map[int]Diagnostics {
	out := make(map[int]Diagnostics, len(c.diagnostics))
	for k, v := range c.diagnostics {
		out[k] = v
	}
	return out
}

// InitialParameters returns the caller's tables or runs the bootstrap.
func (c *SliceCalibration) InitialParameters() (*SABRTables, error) {
	if c.initial != nil {
		return c.initial.Clone(), nil
	}
	b, err := NewBootstrapCalibration(c.payer, c.receiver, c.atm, c.model, c.cfg)
	if err != nil {
		return nil, err
	}
	b.SetLogger(c.logger.Named("bootstrap"))
	return b.Run()
}

// Calibrate fits every maturity and builds the cube.
func (c *SliceCalibration) Calibrate(cubeName string) (volcube.Cube, error) {
	tables, err := c.CalibrateTables(cubeName)
	if err != nil {
		return nil, err
	}
	return tables.Cube(cubeName, c.cfg.SABRBeta, c.cfg.SABRDisplacement)
}

// CalibrateTables fits every maturity and returns the accumulated tables.
func (c *SliceCalibration) CalibrateTables(cubeName string) (*SABRTables, error) {
	initial, err := c.InitialParameters()
	if err != nil {
		return nil, fmt.Errorf("Calibrate %s: %w", cubeName, err)
	}
	result := initial.Clone()

	maturities := c.grid.Maturities()
	if c.cfg.MaturityOrder != ShortestFirst {
		for i, j := 0, len(maturities)-1; i < j; i, j = i+1, j-1 {
			maturities[i], maturities[j] = maturities[j], maturities[i]
		}
	}
	for _, maturity := range maturities {
		s, err := c.newSlice(maturity, initial)
		if err != nil {
			return nil, fmt.Errorf("Calibrate %s: %w", cubeName, err)
		}
		if len(s.nodes) == 0 {
			c.logger.Debug("slice skipped", logging.Int("maturity", maturity))
			continue
		}
		if err := c.solve(cubeName, s); err != nil {
			return nil, fmt.Errorf("Calibrate %s: %w", cubeName, err)
		}
		for _, n := range s.nodes {
			rho, baseVol, volVol, _ := s.fitted.Parameters(n)
			result.SetParameters(n, rho, baseVol, volVol)
		}
	}
	return result, nil
}

// CalibrateSlice fits one maturity in isolation and returns a copy of initial
// with that maturity's eligible nodes replaced.
func (c *SliceCalibration) CalibrateSlice(cubeName string, maturity int, initial *SABRTables) (*SABRTables, error) {
	if initial == nil {
		return nil, fmt.Errorf("CalibrateSlice %s: no initial tables: %w", cubeName, ErrInvalidConfig)
	}
	s, err := c.newSlice(maturity, initial)
	if err != nil {
		return nil, fmt.Errorf("CalibrateSlice %s: %w", cubeName, err)
	}
	if len(s.nodes) == 0 {
		return initial.Clone(), nil
	}
	if err := c.solve(cubeName, s); err != nil {
		return nil, fmt.Errorf("CalibrateSlice %s: %w", cubeName, err)
	}
	return s.fitted, nil
}

// slice is the state of one maturity's fit.
type slice struct {
	maturity int
	nodes    []swaption.NodeKey
	targets  *Targets
	strategy *SABRStrategy
	fitted   *SABRTables
}

func (c *SliceCalibration) newSlice(maturity int, initial *SABRTables) (*slice, error) {
	targets := c.targets.Restrict(func(t Target) bool { return t.Node.Maturity == maturity })
	nodes, err := eligibleNodes(c.grid, targets, initial)
	if err != nil {
		return nil, err
	}
	eligible := nodeSet(nodes)
	return &slice{
		maturity: maturity,
		nodes:    nodes,
		targets:  targets.Restrict(func(t Target) bool { return eligible[t.Node] }),
		strategy: NewSABRStrategy(initial, nodes, c.cfg.SABRBeta, c.cfg.SABRDisplacement),
	}, nil
}

func (c *SliceCalibration) solve(cubeName string, s *slice) error {
	cal := newCalibrator(s.targets, c.model, s.strategy, c.cfg)
	cal.SetMappingFactory(c.factory)
	cal.SetLogger(c.logger.With(logging.Int("maturity", s.maturity)))
	params, err := cal.fit(cubeName)
	if err != nil {
		return err
	}
	fitted, err := s.strategy.Tables(params)
	if err != nil {
		return err
	}
	s.fitted = fitted
	c.diagnostics[s.maturity] = cal.Diagnostics()
	return nil
}
