package calibration

import (
	"fmt"
	"runtime"

	"github.com/meenmo/cubecal/annuity"
	"github.com/meenmo/cubecal/volcube"
)

// MaturityOrder is the order in which slices and bootstrap nodes are processed.
type MaturityOrder string

const (
	LongestFirst  MaturityOrder = "LONGEST_FIRST"
	ShortestFirst MaturityOrder = "SHORTEST_FIRST"
)

// BootstrapMethod selects the per-node smile fitter of the bootstrap.
type BootstrapMethod string

const (
	BootstrapLevenbergMarquardt BootstrapMethod = "LEVENBERG_MARQUARDT"
	BootstrapNelderMead         BootstrapMethod = "NELDER_MEAD"
)

// Config holds the calibration settings. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	// MaxIterations bounds every Levenberg-Marquardt run.
	MaxIterations int
	// Threads bounds concurrent objective evaluations inside one solve.
	Threads int
	// Replication is the strike domain of the annuity mapping and pricer integrals.
	Replication annuity.Replication
	// MappingType selects the annuity mapping of the cash-settled pricers.
	MappingType annuity.Type
	// MaturityOrder applies to slice fits and bootstrap node fits.
	MaturityOrder MaturityOrder
	// BootstrapMethod and BootstrapIterations control per-node smile fits.
	BootstrapMethod     BootstrapMethod
	BootstrapIterations int
	// SABRBeta and SABRDisplacement are the smile-shape constants of SABR cubes.
	SABRBeta         float64
	SABRDisplacement float64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxIterations:       250,
		Threads:             runtime.GOMAXPROCS(0),
		Replication:         annuity.DefaultReplication(),
		MappingType:         annuity.SimplifiedLinear,
		MaturityOrder:       LongestFirst,
		BootstrapMethod:     BootstrapLevenbergMarquardt,
		BootstrapIterations: 500,
		SABRBeta:            volcube.DefaultSABRBeta,
		SABRDisplacement:    volcube.DefaultSABRDisplacement,
	}
}

// Validate rejects settings no calibration can run with.
func (c Config) Validate() error {
	if c.MaxIterations < 0 || c.BootstrapIterations < 0 {
		return fmt.Errorf("Config: negative iteration budget: %w", ErrInvalidConfig)
	}
	if c.Threads < 1 {
		return fmt.Errorf("Config: threads %d: %w", c.Threads, ErrInvalidConfig)
	}
	if err := c.Replication.Validate(); err != nil {
		return fmt.Errorf("Config: %w", err)
	}
	switch c.MappingType {
	case annuity.SimplifiedLinear, annuity.BasicPiterbarg:
	default:
		return fmt.Errorf("Config: mapping %q: %w", c.MappingType, annuity.ErrUnknownMappingType)
	}
	switch c.MaturityOrder {
	case LongestFirst, ShortestFirst:
	default:
		return fmt.Errorf("Config: maturity order %q: %w", c.MaturityOrder, ErrInvalidConfig)
	}
	switch c.BootstrapMethod {
	case BootstrapLevenbergMarquardt, BootstrapNelderMead:
	default:
		return fmt.Errorf("Config: bootstrap method %q: %w", c.BootstrapMethod, ErrInvalidConfig)
	}
	if c.SABRBeta < 0 || c.SABRBeta > 1 {
		return fmt.Errorf("Config: SABR beta %v: %w", c.SABRBeta, ErrInvalidConfig)
	}
	return nil
}
