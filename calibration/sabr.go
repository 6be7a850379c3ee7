package calibration

import (
	"fmt"
	"sort"

	"github.com/meenmo/cubecal/model"
	"github.com/meenmo/cubecal/swaption"
	"github.com/meenmo/cubecal/volcube"
)

// SABRStrategy parameterizes the SABR parameters of selected grid nodes.
// Every other node keeps the value it has in the base tables.
type SABRStrategy struct {
	base         *SABRTables
	nodes        []swaption.NodeKey
	beta         float64
	displacement float64
}

// NewSABRStrategy copies base.
func NewSABRStrategy(base *SABRTables, nodes []swaption.NodeKey, beta, displacement float64) *SABRStrategy {
	return &SABRStrategy{
		base:         base.Clone(),
		nodes:        append([]swaption.NodeKey(nil), nodes...),
		beta:         beta,
		displacement: displacement,
	}
}

func (s *SABRStrategy) InitialParameters() []float64 {
	return s.base.Vector(s.nodes)
}

func (s *SABRStrategy) ApplyBounds(params []float64) []float64 {
	return SABRBounds(params)
}

func (s *SABRStrategy) BuildCube(name string, params []float64) (volcube.Cube, error) {
	tables, err := s.Tables(params)
	if err != nil {
		return nil, err
	}
	return tables.Cube(name, s.beta, s.displacement)
}

// Tables returns a copy of the base tables with params written to the nodes.
func (s *SABRStrategy) Tables(params []float64) (*SABRTables, error) {
	tables := s.base.Clone()
	if err := tables.SetVector(s.nodes, params); err != nil {
		return nil, fmt.Errorf("SABRStrategy: %w", err)
	}
	return tables, nil
}

// eligibleNodes returns the retained grid nodes carrying targets, ordered by
// maturity then tenor.
func eligibleNodes(grid *NodeTable, targets *Targets, tables *SABRTables) ([]swaption.NodeKey, error) {
	var nodes []swaption.NodeKey
	for n := range targets.Nodes() {
		if !grid.Retained(n) {
			continue
		}
		if !tables.Contains(n) {
			return nil, fmt.Errorf("node %+v missing from SABR tables: %w", n, ErrInvalidConfig)
		}
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(a, b int) bool {
		if nodes[a].Maturity != nodes[b].Maturity {
			return nodes[a].Maturity < nodes[b].Maturity
		}
		return nodes[a].Tenor < nodes[b].Tenor
	})
	return nodes, nil
}

func nodeSet(nodes []swaption.NodeKey) map[swaption.NodeKey]bool {
	out := make(map[swaption.NodeKey]bool, len(nodes))
	for _, n := range nodes {
		out[n] = true
	}
	return out
}

// SABRCubeCalibration fits the SABR parameters of every retained node in a
// single solve.
type SABRCubeCalibration struct {
	*Calibrator
	strategy *SABRStrategy
}

// NewSABRCubeCalibration starts from initial and fits the retained nodes that
// carry quotes. Quotes at other nodes are not fitted.
func NewSABRCubeCalibration(payer, receiver *swaption.Lattice, m *model.Model, initial *SABRTables, cfg Config) (*SABRCubeCalibration, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("NewSABRCubeCalibration: %w", err)
	}
	targets, err := AssembleTargets(payer, receiver)
	if err != nil {
		return nil, fmt.Errorf("NewSABRCubeCalibration: %w", err)
	}
	nodes, err := eligibleNodes(NewNodeTable(payer, receiver), targets, initial)
	if err != nil {
		return nil, fmt.Errorf("NewSABRCubeCalibration: %w", err)
	}
	eligible := nodeSet(nodes)
	targets = targets.Restrict(func(t Target) bool { return eligible[t.Node] })

	strategy := NewSABRStrategy(initial, nodes, cfg.SABRBeta, cfg.SABRDisplacement)
	return &SABRCubeCalibration{
		Calibrator: newCalibrator(targets, m, strategy, cfg),
		strategy:   strategy,
	}, nil
}

// CalibrateTables fits the cube and returns its tables.
func (c *SABRCubeCalibration) CalibrateTables(cubeName string) (*SABRTables, error) {
	params, err := c.fit(cubeName)
	if err != nil {
		return nil, err
	}
	return c.strategy.Tables(params)
}
